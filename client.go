package nskv

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/horockey/go-toolbox/options"
	"github.com/horockey/nskv/internal/model"
	"github.com/horockey/nskv/internal/store_factory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// View exposes the keys of one namespace of a key-value store as a Map.
// Every logical key k is stored as "namespace:k".
//
// View holds no state besides the store handle: each call is a live
// round trip, multi-key calls are sequences of single-key round trips
// with no atomicity. View is not safe for concurrent use.
type View struct {
	store     Store
	namespace string
	closed    bool
	logger    zerolog.Logger
}

// New connects to the redis store at host:port and returns a view of namespace.
// Fails with ConnectionError if the store is unreachable.
func New(
	ctx context.Context,
	host string,
	port int,
	namespace string,
	opts ...Option,
) (*View, error) {
	return NewFromConfig(ctx, Config{Host: host, Port: port, Namespace: namespace}, opts...)
}

func NewFromConfig(ctx context.Context, cfg Config, opts ...Option) (*View, error) {
	params := defaultCreateViewParams()
	if err := options.ApplyOptions(&params, opts...); err != nil {
		params.closeCustom()
		return nil, fmt.Errorf("applying opts: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		params.closeCustom()
		return nil, err
	}

	store, err := openStore(ctx, cfg, params)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	params.logger.Info().Str("namespace", cfg.Namespace).Msg("view opened")

	return &View{
		store:     store,
		namespace: cfg.Namespace,
		logger:    params.logger,
	}, nil
}

func openStore(ctx context.Context, cfg Config, params createViewParams) (Store, error) {
	if params.custom != nil {
		return params.custom, nil
	}

	params.store.Host = cfg.Host
	params.store.Port = cfg.Port
	return store_factory.Open(ctx, params.store, params.logger)
}

func (v *View) Namespace() string {
	return v.namespace
}

func (v *View) Metrics() []prometheus.Collector {
	return v.store.Metrics()
}

// Counts keys of the namespace. Costs one KEYS round trip.
func (v *View) Size(ctx context.Context) (int, error) {
	fullKeys, err := v.fullKeys(ctx)
	if err != nil {
		return 0, err
	}
	return len(fullKeys), nil
}

func (v *View) IsEmpty(ctx context.Context) (bool, error) {
	size, err := v.Size(ctx)
	if err != nil {
		return false, err
	}
	return size == 0, nil
}

func (v *View) ContainsKey(ctx context.Context, key string) (bool, error) {
	if v.closed {
		return false, ErrClosed
	}

	exists, err := v.store.Exists(ctx, model.FullKey(v.namespace, key))
	if err != nil {
		return false, fmt.Errorf("checking key existence: %w", err)
	}
	return exists, nil
}

// Scans the namespace fetching values one by one until an equal one is found.
// Keys deleted between listing and fetching are skipped.
func (v *View) ContainsValue(ctx context.Context, value string) (bool, error) {
	fullKeys, err := v.fullKeys(ctx)
	if err != nil {
		return false, err
	}

	for _, fullKey := range fullKeys {
		val, found, err := v.getFull(ctx, fullKey)
		if err != nil {
			return false, err
		}
		if found && val == value {
			return true, nil
		}
	}

	return false, nil
}

func (v *View) Get(ctx context.Context, key string) (string, bool, error) {
	if v.closed {
		return "", false, ErrClosed
	}
	return v.getFull(ctx, model.FullKey(v.namespace, key))
}

// Put overwrites key with value.
//
// The returned string is the store acknowledgement ("OK"), not the previous
// value: callers can not learn the prior value from it.
func (v *View) Put(ctx context.Context, key, value string) (string, error) {
	if v.closed {
		return "", ErrClosed
	}

	ack, err := v.store.Set(ctx, model.FullKey(v.namespace, key), value)
	if err != nil {
		return "", fmt.Errorf("setting value: %w", err)
	}
	return ack, nil
}

// Remove deletes key.
//
// It always reports the missing-value indicator ("", false), whether or not
// the key existed.
func (v *View) Remove(ctx context.Context, key string) (string, bool, error) {
	if v.closed {
		return "", false, ErrClosed
	}

	if _, err := v.store.Del(ctx, model.FullKey(v.namespace, key)); err != nil {
		return "", false, fmt.Errorf("deleting key: %w", err)
	}
	return "", false, nil
}

// PutAll puts entries of m in ascending key order.
// Stops at the first failure, keeping the writes already done.
func (v *View) PutAll(ctx context.Context, m map[string]string) error {
	keys := lo.Keys(m)
	slices.Sort(keys)

	for _, key := range keys {
		if _, err := v.Put(ctx, key, m[key]); err != nil {
			return fmt.Errorf("putting %s: %w", key, err)
		}
	}
	return nil
}

// Clear deletes namespace keys one by one.
// Stops at the first failure, keeping the deletions already done.
func (v *View) Clear(ctx context.Context) error {
	fullKeys, err := v.fullKeys(ctx)
	if err != nil {
		return err
	}

	for _, fullKey := range fullKeys {
		if _, err := v.store.Del(ctx, fullKey); err != nil {
			return fmt.Errorf("deleting key %s: %w", fullKey, err)
		}
	}

	v.logger.Debug().Str("namespace", v.namespace).Int("deleted", len(fullKeys)).Msg("namespace cleared")
	return nil
}

// Keys returns logical keys of the namespace in no particular order.
func (v *View) Keys(ctx context.Context) ([]string, error) {
	fullKeys, err := v.fullKeys(ctx)
	if err != nil {
		return nil, err
	}

	return lo.Map(fullKeys, func(fullKey string, _ int) string {
		key, _ := model.LogicalKey(v.namespace, fullKey)
		return key
	}), nil
}

// Values returns distinct values of the namespace: equal values held by
// different keys are reported once.
func (v *View) Values(ctx context.Context) ([]string, error) {
	entries, err := v.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Uniq(lo.Values(entries)), nil
}

// Entries fetches the value of every namespace key.
// Keys deleted between listing and fetching are omitted.
func (v *View) Entries(ctx context.Context) (map[string]string, error) {
	keys, err := v.Keys(ctx)
	if err != nil {
		return nil, err
	}

	res := make(map[string]string, len(keys))
	for _, key := range keys {
		val, found, err := v.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if found {
			res[key] = val
		}
	}
	return res, nil
}

// Close releases the store. Further calls return ErrClosed.
func (v *View) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true

	if err := v.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}

	v.logger.Info().Str("namespace", v.namespace).Msg("view closed")
	return nil
}

func (v *View) fullKeys(ctx context.Context) ([]string, error) {
	if v.closed {
		return nil, ErrClosed
	}

	keys, err := v.store.Keys(ctx, model.NamespacePattern(v.namespace))
	if err != nil {
		return nil, fmt.Errorf("listing namespace keys: %w", err)
	}

	// namespace itself may contain glob chars matching foreign keys
	return lo.Filter(keys, func(fullKey string, _ int) bool {
		_, ok := model.LogicalKey(v.namespace, fullKey)
		return ok
	}), nil
}

func (v *View) getFull(ctx context.Context, fullKey string) (string, bool, error) {
	val, err := v.store.Get(ctx, fullKey)
	if err != nil {
		var notFound model.KeyNotFoundError
		if errors.As(err, &notFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("getting value: %w", err)
	}
	return val, true, nil
}
