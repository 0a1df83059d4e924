package nskv

import (
	"context"

	"github.com/horockey/nskv/internal/model"
)

// Store is the raw key-value backend a View talks to.
type Store = model.Store

var _ Map = &View{}

// Map is an associative container of string keys and values.
//
// A missing value is reported as found == false, never as an error.
type Map interface {
	Size(ctx context.Context) (int, error)
	IsEmpty(ctx context.Context) (bool, error)
	ContainsKey(ctx context.Context, key string) (bool, error)
	ContainsValue(ctx context.Context, value string) (bool, error)
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Put(ctx context.Context, key, value string) (ack string, err error)
	Remove(ctx context.Context, key string) (prev string, found bool, err error)
	PutAll(ctx context.Context, m map[string]string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
	Values(ctx context.Context) ([]string, error)
	Entries(ctx context.Context) (map[string]string, error)
	Close() error
}
