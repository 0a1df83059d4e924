package store_factory

import (
	"context"
	"fmt"

	"github.com/horockey/nskv/internal/gateway/remote_kv/http_remote_kv"
	"github.com/horockey/nskv/internal/gateway/remote_kv/redis_remote_kv"
	"github.com/horockey/nskv/internal/model"
	"github.com/horockey/nskv/internal/repository/local_kv/badger_local_kv"
	"github.com/horockey/nskv/internal/repository/local_kv/inmemory_local_kv"
	"github.com/rs/zerolog"
)

type Kind string

const (
	KindRedis    Kind = "redis"
	KindBadger   Kind = "badger"
	KindHTTP     Kind = "http"
	KindInMemory Kind = "inmemory"
)

type Params struct {
	Kind Kind

	// redis
	Host string
	Port int

	// badger
	BadgerDir string

	// http
	HTTPURL    string
	HTTPAPIKey string
}

// Open creates the store described by params. Redis is dialed synchronously.
func Open(ctx context.Context, params Params, logger zerolog.Logger) (model.Store, error) {
	switch params.Kind {
	case KindRedis, "":
		store, err := redis_remote_kv.New(
			ctx,
			params.Host,
			params.Port,
			logger.With().Str("subscope", "redis_store").Logger(),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	case KindBadger:
		store, err := badger_local_kv.New(
			params.BadgerDir,
			logger.With().Str("subscope", "badger_store").Logger(),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	case KindHTTP:
		return http_remote_kv.New(
			params.HTTPURL,
			params.HTTPAPIKey,
			logger.With().Str("subscope", "http_store").Logger(),
		), nil
	case KindInMemory:
		return inmemory_local_kv.New(), nil
	default:
		return nil, fmt.Errorf("unknown store kind: %q", params.Kind)
	}
}
