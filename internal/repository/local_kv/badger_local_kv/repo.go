package badger_local_kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/horockey/nskv/internal/model"
	"github.com/horockey/nskv/internal/repository/local_kv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var _ model.Store = &badgerLocalKV{}

type badgerLocalKV struct {
	db      *badger.DB
	dir     string
	closed  bool
	metrics *metrics
	logger  zerolog.Logger
}

// Opens badger database in dir. Closing the repo closes the database.
func New(dir string, logger zerolog.Logger) (*badgerLocalKV, error) {
	db, err := badger.Open(
		badger.DefaultOptions(dir).
			WithLogger(badgerLogger{l: logger}),
	)
	if err != nil {
		return nil, model.ConnectionError{
			Addr: dir,
			Err:  fmt.Errorf("opening badger db: %w", err),
		}
	}

	logger.Info().Str("dir", dir).Msg("badger db opened")

	return &badgerLocalKV{
		db:      db,
		dir:     dir,
		metrics: newMetrics(db),
		logger:  logger,
	}, nil
}

func (repo *badgerLocalKV) Metrics() []prometheus.Collector {
	return repo.metrics.list()
}

func (repo *badgerLocalKV) Get(_ context.Context, key string) (res string, resErr error) {
	defer repo.observe("GET", time.Now(), &resErr)
	repo.logger.Debug().Str("key", key).Msg("GET")

	if repo.closed {
		return "", model.ErrClosed
	}

	if err := repo.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return model.KeyNotFoundError{Key: key}
			}
			return fmt.Errorf("getting item: %w", err)
		}

		val, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("getting value: %w", err)
		}
		res = string(val)

		return nil
	}); err != nil {
		var notFound model.KeyNotFoundError
		if errors.As(err, &notFound) {
			repo.metrics.keyMissesCnt.Inc()
			return "", notFound
		}
		return "", model.ProtocolError{Cmd: "GET", Err: fmt.Errorf("reading from db: %w", err)}
	}

	repo.metrics.keyHitsCnt.Inc()
	return res, nil
}

func (repo *badgerLocalKV) Set(_ context.Context, key, value string) (res string, resErr error) {
	defer repo.observe("SET", time.Now(), &resErr)
	repo.logger.Debug().Str("key", key).Msg("SET")

	if repo.closed {
		return "", model.ErrClosed
	}

	if err := repo.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("setting item to db: %w", err)
		}
		return nil
	}); err != nil {
		return "", model.ProtocolError{Cmd: "SET", Err: fmt.Errorf("performing upd txn: %w", err)}
	}

	return model.AckOK, nil
}

func (repo *badgerLocalKV) Del(_ context.Context, key string) (res int64, resErr error) {
	defer repo.observe("DEL", time.Now(), &resErr)
	repo.logger.Debug().Str("key", key).Msg("DEL")

	if repo.closed {
		return 0, model.ErrClosed
	}

	if err := repo.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil
		case err != nil:
			return fmt.Errorf("getting item: %w", err)
		}

		if err := txn.Delete([]byte(key)); err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
		res = 1

		return nil
	}); err != nil {
		return 0, model.ProtocolError{Cmd: "DEL", Err: fmt.Errorf("performing del txn: %w", err)}
	}

	return res, nil
}

func (repo *badgerLocalKV) Exists(_ context.Context, key string) (res bool, resErr error) {
	defer repo.observe("EXISTS", time.Now(), &resErr)
	repo.logger.Debug().Str("key", key).Msg("EXISTS")

	if repo.closed {
		return false, model.ErrClosed
	}

	if err := repo.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil
		case err != nil:
			return fmt.Errorf("getting item: %w", err)
		}
		res = true
		return nil
	}); err != nil {
		return false, model.ProtocolError{Cmd: "EXISTS", Err: fmt.Errorf("performing view txn: %w", err)}
	}

	return res, nil
}

// Scans keys sharing the literal prefix of pattern and matches each against it.
func (repo *badgerLocalKV) Keys(_ context.Context, pattern string) (res []string, resErr error) {
	defer repo.observe("KEYS", time.Now(), &resErr)
	repo.logger.Debug().Str("pattern", pattern).Msg("KEYS")

	if repo.closed {
		return nil, model.ErrClosed
	}

	g, err := local_kv.CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	prefix := []byte(local_kv.LiteralPrefix(pattern))

	res = []string{}
	if err := repo.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		var scanned int
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				continue
			}
			scanned++
			if k := string(key); g.Match(k) {
				res = append(res, k)
			}
		}

		repo.metrics.keysScannedCnt.Add(float64(scanned))
		repo.metrics.keysMatchedCnt.Add(float64(len(res)))
		return nil
	}); err != nil {
		return nil, model.ProtocolError{Cmd: "KEYS", Err: fmt.Errorf("performing view txn: %w", err)}
	}

	return res, nil
}

func (repo *badgerLocalKV) Close() error {
	if repo.closed {
		return nil
	}
	repo.closed = true

	if err := repo.db.Close(); err != nil {
		return fmt.Errorf("closing badger db: %w", err)
	}

	repo.logger.Info().Str("dir", repo.dir).Msg("badger db closed")
	return nil
}

func (repo *badgerLocalKV) observe(cmd string, ts time.Time, resErr *error) {
	repo.metrics.cmdTimeHist.WithLabelValues(cmd).Observe(float64(time.Since(ts)))

	result := "ok"
	var notFound model.KeyNotFoundError
	if *resErr != nil && !errors.As(*resErr, &notFound) {
		result = "err"
	}
	repo.metrics.cmdResultsCnt.WithLabelValues(cmd, result).Inc()
}
