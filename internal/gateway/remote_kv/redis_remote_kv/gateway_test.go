package redis_remote_kv_test

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/horockey/nskv/internal/gateway/remote_kv/redis_remote_kv"
	"github.com/horockey/nskv/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, model.Store) {
	t.Helper()

	srv := miniredis.RunT(t)
	port, err := strconv.Atoi(srv.Port())
	require.NoError(t, err)

	gw, err := redis_remote_kv.New(context.Background(), srv.Host(), port, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	return srv, gw
}

func Test_New_Unreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	port, err := strconv.Atoi(srv.Port())
	require.NoError(t, err)
	host, addr := srv.Host(), srv.Addr()
	srv.Close()

	gw, err := redis_remote_kv.New(context.Background(), host, port, zerolog.Nop())
	assert.Nil(t, gw)

	connErr := model.ConnectionError{}
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, addr, connErr.Addr)
}

func Test_SetGet(t *testing.T) {
	srv, gw := setupRedis(t)
	ctx := context.Background()

	ack, err := gw.Set(ctx, "ns:key", "value")
	require.NoError(t, err)
	assert.Equal(t, model.AckOK, ack)

	val, err := gw.Get(ctx, "ns:key")
	require.NoError(t, err)
	assert.Equal(t, "value", val)

	stored, err := srv.Get("ns:key")
	require.NoError(t, err)
	assert.Equal(t, "value", stored)
}

func Test_Get_KeyNotFound(t *testing.T) {
	_, gw := setupRedis(t)

	val, err := gw.Get(context.Background(), "ns:missing")
	assert.Empty(t, val)
	assert.True(t, errors.Is(err, model.KeyNotFoundError{Key: "ns:missing"}))
}

func Test_DelExists(t *testing.T) {
	srv, gw := setupRedis(t)
	ctx := context.Background()
	require.NoError(t, srv.Set("ns:key", "value"))

	exists, err := gw.Exists(ctx, "ns:key")
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := gw.Del(ctx, "ns:key")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = gw.Del(ctx, "ns:key")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	exists, err = gw.Exists(ctx, "ns:key")
	require.NoError(t, err)
	assert.False(t, exists)
}

func Test_Keys(t *testing.T) {
	srv, gw := setupRedis(t)
	require.NoError(t, srv.Set("ns:a", "1"))
	require.NoError(t, srv.Set("ns:b", "2"))
	require.NoError(t, srv.Set("other:c", "3"))

	keys, err := gw.Keys(context.Background(), "ns:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ns:a", "ns:b"}, keys)
}

func Test_ProtocolError(t *testing.T) {
	srv, gw := setupRedis(t)
	srv.SetError("ERR something went wrong")

	_, err := gw.Set(context.Background(), "ns:key", "value")

	protoErr := model.ProtocolError{}
	require.True(t, errors.As(err, &protoErr))
	assert.Equal(t, "SET", protoErr.Cmd)
}

func Test_ConnectionError_ServerGone(t *testing.T) {
	srv, gw := setupRedis(t)
	srv.Close()

	_, err := gw.Get(context.Background(), "ns:key")

	connErr := model.ConnectionError{}
	assert.True(t, errors.As(err, &connErr))
}

func Test_Close_Idempotent(t *testing.T) {
	_, gw := setupRedis(t)

	require.NoError(t, gw.Close())
	require.NoError(t, gw.Close())

	_, err := gw.Get(context.Background(), "ns:key")
	assert.ErrorIs(t, err, model.ErrClosed)
}

func Test_Metrics(t *testing.T) {
	_, gw := setupRedis(t)
	assert.Len(t, gw.Metrics(), 6)
}
