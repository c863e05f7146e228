package blobcache

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Backend names accepted by [Open].
const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`

	RedisURL    string `toml:"redis_url"`
	RedisPrefix string `toml:"redis_prefix"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Open returns the store described by opts. An empty backend means badger.
func Open(ctx context.Context, opts Options, logger *log.Logger) (Store, error) {
	switch opts.Backend {
	case "", BackendBadger:
		return OpenBadger(opts.Dir, logger)
	case BackendRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("redis backend: redis_url is required")
		}
		return OpenRedis(ctx, opts.RedisURL, opts.RedisPrefix)
	case BackendMongo:
		if opts.MongoURI == "" {
			return nil, fmt.Errorf("mongo backend: mongo_uri is required")
		}
		db, coll := opts.MongoDatabase, opts.MongoCollection
		if db == "" {
			db = "waterfall"
		}
		if coll == "" {
			coll = "photos"
		}
		return OpenMongo(ctx, opts.MongoURI, db, coll)
	case BackendNone:
		return NewNullStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
