package nskv

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/horockey/go-toolbox/options"
	"github.com/horockey/nskv/internal/store_factory"
	"github.com/rs/zerolog"
)

type createViewParams struct {
	logger zerolog.Logger
	store  store_factory.Params
	custom Store
}

func defaultCreateViewParams() createViewParams {
	return createViewParams{
		store: store_factory.Params{Kind: store_factory.KindRedis},
		logger: zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().
			Timestamp().
			Str("scope", "nskv_view").
			Logger(),
	}
}

func (params createViewParams) closeCustom() {
	if params.custom == nil {
		return
	}
	if err := params.custom.Close(); err != nil {
		params.logger.Error().Err(fmt.Errorf("closing store: %w", err)).Send()
	}
}

type Option = options.Option[createViewParams]

// Sets custom logger.
// Default is stdout logger.
func WithLogger(l zerolog.Logger) Option {
	return func(target *createViewParams) error {
		target.logger = l
		return nil
	}
}

// Uses embedded badger db in dir instead of redis.
// Host and port are still validated but not dialed.
func WithBadgerDir(dir string) Option {
	return func(target *createViewParams) error {
		if dir == "" {
			return errors.New("got empty badger dir")
		}
		target.store = store_factory.Params{
			Kind:      store_factory.KindBadger,
			BadgerDir: dir,
		}
		return nil
	}
}

// Uses nskv HTTP proxy at baseURL instead of redis.
func WithHTTPStore(baseURL string, apiKey string) Option {
	return func(target *createViewParams) error {
		if baseURL == "" {
			return errors.New("got empty http store url")
		}
		target.store = store_factory.Params{
			Kind:       store_factory.KindHTTP,
			HTTPURL:    baseURL,
			HTTPAPIKey: apiKey,
		}
		return nil
	}
}

// Uses process-local map instead of redis. Contents are lost on Close.
func WithInMemoryStore() Option {
	return func(target *createViewParams) error {
		target.store = store_factory.Params{Kind: store_factory.KindInMemory}
		return nil
	}
}

// Sets user-defined store implementation. Takes precedence over other store opts.
// The View takes ownership of it: it is closed on Close, or right away
// if the View can not be created.
//
// WARNING! Apply this opt only if you know what you are doing.
func WithStore(s Store) Option {
	return func(target *createViewParams) error {
		if s == nil {
			return errors.New("got nil store")
		}
		target.custom = s
		return nil
	}
}
