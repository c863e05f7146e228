package blobcache

import (
	"context"

	"github.com/matzehuels/waterfall/pkg/photo"
)

// NullStore is a Store that never stores anything.
type NullStore struct{}

// NewNullStore returns a store that always misses.
func NewNullStore() Store { return NullStore{} }

func (NullStore) Get(context.Context, string, photo.Tier) ([]byte, bool, error) {
	return nil, false, nil
}

func (NullStore) Put(context.Context, string, photo.Tier, []byte) error { return nil }

func (NullStore) Record(context.Context, string) (*Record, bool, error) { return nil, false, nil }

func (NullStore) Clear(context.Context) error { return nil }

func (NullStore) Stats(context.Context) (Stats, error) { return Stats{}, nil }

func (NullStore) Close() error { return nil }

var _ Store = NullStore{}
