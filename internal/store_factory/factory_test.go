package store_factory_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/horockey/nskv/internal/store_factory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Open(t *testing.T) {
	srv := miniredis.RunT(t)
	port, err := strconv.Atoi(srv.Port())
	require.NoError(t, err)

	for _, params := range []store_factory.Params{
		{Kind: store_factory.KindRedis, Host: srv.Host(), Port: port},
		{Kind: store_factory.KindBadger, BadgerDir: t.TempDir()},
		{Kind: store_factory.KindHTTP, HTTPURL: "http://127.0.0.1:1"},
		{Kind: store_factory.KindInMemory},
	} {
		t.Run(string(params.Kind), func(t *testing.T) {
			store, err := store_factory.Open(context.Background(), params, zerolog.Nop())
			require.NoError(t, err)
			assert.NotEmpty(t, store.Metrics())
			assert.NoError(t, store.Close())
		})
	}
}

func Test_Open_UnknownKind(t *testing.T) {
	_, err := store_factory.Open(context.Background(), store_factory.Params{Kind: "etcd"}, zerolog.Nop())
	assert.Error(t, err)
}
