package model

import "context"

// Store is the raw key-value contract every backend implements.
// Keys passed here are full keys.
type Store interface {
	MetricsProvider
	// Returns KeyNotFoundError if key is absent.
	Get(ctx context.Context, key string) (string, error)
	// Overwrites key unconditionally and returns store acknowledgement.
	Set(ctx context.Context, key, value string) (string, error)
	// Returns count of removed keys.
	Del(ctx context.Context, key string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// AckOK is the acknowledgement returned by Set on success.
const AckOK = "OK"
