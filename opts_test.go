package nskv_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/horockey/nskv"
	"github.com/horockey/nskv/internal/controller/http_controller"
	"github.com/horockey/nskv/internal/model"
	"github.com/horockey/nskv/internal/repository/local_kv/badger_local_kv"
	"github.com/horockey/nskv/internal/repository/local_kv/inmemory_local_kv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// failingStore fails writes and deletes of one key.
type failingStore struct {
	model.Store
	failKey string
	closed  int
}

func (s *failingStore) Set(ctx context.Context, key, value string) (string, error) {
	if key == s.failKey {
		return "", model.ProtocolError{Cmd: "SET", Err: errBoom}
	}
	return s.Store.Set(ctx, key, value)
}

func (s *failingStore) Del(ctx context.Context, key string) (int64, error) {
	if key == s.failKey {
		return 0, model.ConnectionError{Addr: "fake", Err: errBoom}
	}
	return s.Store.Del(ctx, key)
}

func (s *failingStore) Close() error {
	s.closed++
	return s.Store.Close()
}

func (s *failingStore) Metrics() []prometheus.Collector {
	return nil
}

func newView(t *testing.T, opts ...nskv.Option) *nskv.View {
	t.Helper()

	view, err := nskv.New(
		context.Background(),
		"localhost",
		6379,
		testNamespace,
		append([]nskv.Option{nskv.WithLogger(zerolog.Nop())}, opts...)...,
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = view.Close() })

	return view
}

func exerciseView(t *testing.T, view *nskv.View) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, view.PutAll(ctx, map[string]string{"x": "1", "y": "2", "z": "1"}))

	size, err := view.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	ok, err := view.ContainsKey(ctx, "x")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = view.ContainsValue(ctx, "2")
	require.NoError(t, err)
	assert.True(t, ok)

	values, err := view.Values(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, values)

	_, _, err = view.Remove(ctx, "y")
	require.NoError(t, err)

	entries, err := view.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x": "1", "z": "1"}, entries)

	require.NoError(t, view.Clear(ctx))

	empty, err := view.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)
}

func Test_WithInMemoryStore(t *testing.T) {
	exerciseView(t, newView(t, nskv.WithInMemoryStore()))
}

func Test_WithBadgerDir(t *testing.T) {
	exerciseView(t, newView(t, nskv.WithBadgerDir(t.TempDir())))
}

func Test_WithHTTPStore(t *testing.T) {
	ctrl := http_controller.New("", "key", inmemory_local_kv.New(), nil, zerolog.Nop())
	srv := httptest.NewServer(ctrl.Handler())
	defer srv.Close()

	exerciseView(t, newView(t, nskv.WithHTTPStore(srv.URL, "key")))
}

func Test_InvalidOptions(t *testing.T) {
	ctx := context.Background()

	_, err := nskv.New(ctx, "localhost", 6379, testNamespace, nskv.WithBadgerDir(""))
	assert.Error(t, err)

	_, err = nskv.New(ctx, "localhost", 6379, testNamespace, nskv.WithHTTPStore("", ""))
	assert.Error(t, err)

	_, err = nskv.New(ctx, "localhost", 6379, testNamespace, nskv.WithStore(nil))
	assert.Error(t, err)
}

func Test_PutAll_PartialFailure(t *testing.T) {
	store := &failingStore{Store: inmemory_local_kv.New(), failKey: "test:b"}
	view := newView(t, nskv.WithStore(store))
	ctx := context.Background()

	err := view.PutAll(ctx, map[string]string{"a": "1", "b": "2", "c": "3"})

	protoErr := nskv.ProtocolError{}
	require.True(t, errors.As(err, &protoErr))
	assert.ErrorIs(t, err, errBoom)

	keys, err := view.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys)
}

func Test_Clear_PartialFailure(t *testing.T) {
	store := &failingStore{Store: inmemory_local_kv.New(), failKey: "test:b"}
	view := newView(t, nskv.WithStore(store))
	ctx := context.Background()

	for _, k := range []string{"a", "c"} {
		_, err := view.Put(ctx, k, k)
		require.NoError(t, err)
	}
	_, err := store.Store.Set(ctx, "test:b", "b")
	require.NoError(t, err)

	err = view.Clear(ctx)
	connErr := nskv.ConnectionError{}
	require.True(t, errors.As(err, &connErr))

	ok, err := view.ContainsKey(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func Test_WithStore_ClosedOnce(t *testing.T) {
	store := &failingStore{Store: inmemory_local_kv.New()}
	view := newView(t, nskv.WithStore(store))

	require.NoError(t, view.Close())
	require.NoError(t, view.Close())
	assert.Equal(t, 1, store.closed)
}

func Test_WithStore_ClosedOnFailedNew(t *testing.T) {
	ctx := context.Background()

	store := &failingStore{Store: inmemory_local_kv.New()}
	_, err := nskv.New(ctx, "", 6379, testNamespace, nskv.WithLogger(zerolog.Nop()), nskv.WithStore(store))
	require.Error(t, err)
	assert.Equal(t, 1, store.closed)

	store = &failingStore{Store: inmemory_local_kv.New()}
	_, err = nskv.New(
		ctx,
		"localhost",
		6379,
		testNamespace,
		nskv.WithLogger(zerolog.Nop()),
		nskv.WithStore(store),
		nskv.WithBadgerDir(""),
	)
	require.Error(t, err)
	assert.Equal(t, 1, store.closed)
}

func Test_NamespaceWithGlobChars(t *testing.T) {
	store := inmemory_local_kv.New()
	ctx := context.Background()

	_, err := store.Set(ctx, "tXst:foreign", "v")
	require.NoError(t, err)

	view, err := nskv.New(ctx, "localhost", 6379, "t?st", nskv.WithLogger(zerolog.Nop()), nskv.WithStore(store))
	require.NoError(t, err)
	defer view.Close()

	_, err = view.Put(ctx, "own", "v")
	require.NoError(t, err)

	keys, err := view.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"own"}, keys)

	size, err := view.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

type viewOpener func(t *testing.T, ns string) *nskv.View

// viewOpeners build views of any namespace sharing one backend store.
func viewOpeners(t *testing.T) map[string]viewOpener {
	t.Helper()

	redisSrv := miniredis.RunT(t)
	redisPort, err := strconv.Atoi(redisSrv.Port())
	require.NoError(t, err)

	inmemory := inmemory_local_kv.New()

	badger, err := badger_local_kv.New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = badger.Close() })

	ctrl := http_controller.New("", "key", inmemory_local_kv.New(), nil, zerolog.Nop())
	httpSrv := httptest.NewServer(ctrl.Handler())
	t.Cleanup(httpSrv.Close)

	open := func(host string, port int, opts ...nskv.Option) viewOpener {
		return func(t *testing.T, ns string) *nskv.View {
			t.Helper()

			view, err := nskv.New(
				context.Background(),
				host,
				port,
				ns,
				append([]nskv.Option{nskv.WithLogger(zerolog.Nop())}, opts...)...,
			)
			require.NoError(t, err)
			return view
		}
	}

	return map[string]viewOpener{
		"redis":    open(redisSrv.Host(), redisPort),
		"inmemory": open("localhost", 6379, nskv.WithStore(inmemory)),
		"badger":   open("localhost", 6379, nskv.WithStore(badger)),
		"http":     open("localhost", 6379, nskv.WithHTTPStore(httpSrv.URL, "key")),
	}
}

func Test_NamespaceWithPatternChars_AllStores(t *testing.T) {
	namespaces := []string{"{user}", "a[", "a[]", "n*s", `back\slash`, "h[^e]"}

	for name, openView := range viewOpeners(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// views sharing a store must not close it under each other
			foreign := openView(t, "user")
			_, err := foreign.Put(ctx, "k", "foreign")
			require.NoError(t, err)

			for _, ns := range namespaces {
				view := openView(t, ns)

				_, err := view.Put(ctx, "k", "v")
				require.NoError(t, err, ns)

				size, err := view.Size(ctx)
				require.NoError(t, err, ns)
				assert.Equal(t, 1, size, ns)

				keys, err := view.Keys(ctx)
				require.NoError(t, err, ns)
				assert.Equal(t, []string{"k"}, keys, ns)

				entries, err := view.Entries(ctx)
				require.NoError(t, err, ns)
				assert.Equal(t, map[string]string{"k": "v"}, entries, ns)

				ok, err := view.ContainsValue(ctx, "v")
				require.NoError(t, err, ns)
				assert.True(t, ok, ns)

				require.NoError(t, view.Clear(ctx), ns)

				empty, err := view.IsEmpty(ctx)
				require.NoError(t, err, ns)
				assert.True(t, empty, ns)
			}

			size, err := foreign.Size(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, size)
		})
	}
}

func Test_WithHTTPStore_BinaryValue(t *testing.T) {
	ctrl := http_controller.New("", "key", inmemory_local_kv.New(), nil, zerolog.Nop())
	srv := httptest.NewServer(ctrl.Handler())
	defer srv.Close()

	view := newView(t, nskv.WithHTTPStore(srv.URL, "key"))
	ctx := context.Background()

	value := "\xff\xfebin"
	_, err := view.Put(ctx, "k", value)
	require.NoError(t, err)

	got, found, err := view.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, value, got)

	values, err := view.Values(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{value}, values)
}

func Test_Config_Validate(t *testing.T) {
	assert.NoError(t, nskv.Config{Host: "localhost", Port: 6379, Namespace: "ns"}.Validate())
	assert.NoError(t, nskv.Config{Host: "localhost", Port: 6379}.Validate())
	assert.Error(t, nskv.Config{Port: 6379, Namespace: "ns"}.Validate())
	assert.Error(t, nskv.Config{Host: "localhost", Port: 70000, Namespace: "ns"}.Validate())
}
