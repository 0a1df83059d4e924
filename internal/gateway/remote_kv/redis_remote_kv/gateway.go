package redis_remote_kv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/horockey/nskv/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var _ model.Store = &redisRemoteKV{}

type redisRemoteKV struct {
	cl      *redis.Client
	addr    string
	closed  bool
	metrics *metrics
	logger  zerolog.Logger
}

// Dials redis at host:port and checks it with PING.
// The client holds a single connection and never retries.
func New(
	ctx context.Context,
	host string,
	port int,
	logger zerolog.Logger,
) (*redisRemoteKV, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	gw := &redisRemoteKV{
		addr:    addr,
		metrics: newMetrics(),
		logger:  logger,
		cl: redis.NewClient(&redis.Options{
			Addr:         addr,
			PoolSize:     1,
			MinIdleConns: 1,
			MaxRetries:   -1,
		}),
	}

	if err := gw.cl.Ping(ctx).Err(); err != nil {
		_ = gw.cl.Close()
		return nil, gw.classify("PING", err)
	}

	gw.logger.Info().Str("addr", addr).Msg("connected to redis")
	return gw, nil
}

func (gw *redisRemoteKV) Metrics() []prometheus.Collector {
	return gw.metrics.list()
}

func (gw *redisRemoteKV) Get(ctx context.Context, key string) (res string, resErr error) {
	defer gw.observe("GET", time.Now(), &resErr)
	gw.logger.Debug().Str("key", key).Msg("GET")

	res, err := gw.cl.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			gw.metrics.keyMissesCnt.Inc()
			return "", model.KeyNotFoundError{Key: key}
		}
		return "", gw.classify("GET", err)
	}

	gw.metrics.keyHitsCnt.Inc()
	return res, nil
}

func (gw *redisRemoteKV) Set(ctx context.Context, key, value string) (res string, resErr error) {
	defer gw.observe("SET", time.Now(), &resErr)
	gw.logger.Debug().Str("key", key).Msg("SET")

	res, err := gw.cl.Set(ctx, key, value, 0).Result()
	if err != nil {
		return "", gw.classify("SET", err)
	}
	return res, nil
}

func (gw *redisRemoteKV) Del(ctx context.Context, key string) (res int64, resErr error) {
	defer gw.observe("DEL", time.Now(), &resErr)
	gw.logger.Debug().Str("key", key).Msg("DEL")

	res, err := gw.cl.Del(ctx, key).Result()
	if err != nil {
		return 0, gw.classify("DEL", err)
	}
	return res, nil
}

func (gw *redisRemoteKV) Exists(ctx context.Context, key string) (res bool, resErr error) {
	defer gw.observe("EXISTS", time.Now(), &resErr)
	gw.logger.Debug().Str("key", key).Msg("EXISTS")

	n, err := gw.cl.Exists(ctx, key).Result()
	if err != nil {
		return false, gw.classify("EXISTS", err)
	}
	return n > 0, nil
}

// Lists keys matching pattern with KEYS.
// Not atomic against concurrent writers.
func (gw *redisRemoteKV) Keys(ctx context.Context, pattern string) (res []string, resErr error) {
	defer gw.observe("KEYS", time.Now(), &resErr)
	gw.logger.Debug().Str("pattern", pattern).Msg("KEYS")

	res, err := gw.cl.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, gw.classify("KEYS", err)
	}
	return res, nil
}

func (gw *redisRemoteKV) Close() error {
	if gw.closed {
		return nil
	}
	gw.closed = true

	if err := gw.cl.Close(); err != nil {
		return fmt.Errorf("closing redis client: %w", err)
	}

	gw.logger.Info().Str("addr", gw.addr).Msg("redis connection closed")
	return nil
}

func (gw *redisRemoteKV) observe(cmd string, ts time.Time, resErr *error) {
	gw.metrics.requestsCnt.WithLabelValues(cmd).Inc()
	gw.metrics.handleTimeHist.Observe(float64(time.Since(ts)))

	var notFound model.KeyNotFoundError
	switch {
	case *resErr == nil, errors.As(*resErr, &notFound):
		gw.metrics.successProcessCnt.Inc()
	default:
		gw.metrics.errProcessCnt.Inc()
	}
}

// Sorts redis client errors into the store error taxonomy.
func (gw *redisRemoteKV) classify(cmd string, err error) error {
	var redisErr redis.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("executing %s: %w", cmd, err)
	case errors.Is(err, redis.ErrClosed):
		return fmt.Errorf("executing %s: %w", cmd, model.ErrClosed)
	case errors.As(err, &redisErr):
		return model.ProtocolError{Cmd: cmd, Err: err}
	default:
		return model.ConnectionError{Addr: gw.addr, Err: err}
	}
}
