package inmemory_local_kv

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/horockey/nskv/internal/model"
	"github.com/horockey/nskv/internal/repository/local_kv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
)

var _ model.Store = &inmemoryLocalKV{}

type inmemoryLocalKV struct {
	storage map[string]string
	closed  bool
	mu      sync.RWMutex
	metrics *metrics
}

func New() *inmemoryLocalKV {
	repo := inmemoryLocalKV{
		storage: map[string]string{},
	}

	repo.metrics = newMetrics(&repo)

	return &repo
}

func (repo *inmemoryLocalKV) Metrics() []prometheus.Collector {
	return repo.metrics.list()
}

func (repo *inmemoryLocalKV) Get(_ context.Context, key string) (res string, resErr error) {
	repo.metrics.getRequestsCnt.Inc()
	defer repo.observe(time.Now(), &resErr)

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if repo.closed {
		return "", model.ErrClosed
	}

	val, found := repo.storage[key]
	if !found {
		return "", model.KeyNotFoundError{Key: key}
	}

	return val, nil
}

func (repo *inmemoryLocalKV) Set(_ context.Context, key, value string) (res string, resErr error) {
	repo.metrics.setRequestsCnt.Inc()
	defer repo.observe(time.Now(), &resErr)

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if repo.closed {
		return "", model.ErrClosed
	}

	repo.storage[key] = value
	return model.AckOK, nil
}

func (repo *inmemoryLocalKV) Del(_ context.Context, key string) (res int64, resErr error) {
	repo.metrics.delRequestsCnt.Inc()
	defer repo.observe(time.Now(), &resErr)

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if repo.closed {
		return 0, model.ErrClosed
	}

	if _, found := repo.storage[key]; !found {
		return 0, nil
	}

	delete(repo.storage, key)
	return 1, nil
}

func (repo *inmemoryLocalKV) Exists(_ context.Context, key string) (res bool, resErr error) {
	repo.metrics.getRequestsCnt.Inc()
	defer repo.observe(time.Now(), &resErr)

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if repo.closed {
		return false, model.ErrClosed
	}

	_, found := repo.storage[key]
	return found, nil
}

func (repo *inmemoryLocalKV) Keys(_ context.Context, pattern string) (res []string, resErr error) {
	repo.metrics.getRequestsCnt.Inc()
	defer repo.observe(time.Now(), &resErr)

	g, err := local_kv.CompilePattern(pattern)
	if err != nil {
		return nil, err
	}

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if repo.closed {
		return nil, model.ErrClosed
	}

	keys := lo.Filter(lo.Keys(repo.storage), func(key string, _ int) bool {
		return g.Match(key)
	})
	return keys, nil
}

func (repo *inmemoryLocalKV) Close() error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.closed = true
	return nil
}

func (repo *inmemoryLocalKV) observe(ts time.Time, resErr *error) {
	repo.metrics.handleTimeHist.Observe(float64(time.Since(ts)))

	var notFound model.KeyNotFoundError
	switch {
	case *resErr == nil, errors.As(*resErr, &notFound):
		repo.metrics.successProcessCnt.Inc()
	default:
		repo.metrics.errProcessCnt.Inc()
	}
}
