//go:build integration

package blobcache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedisStore_Integration(t *testing.T) {
	url := os.Getenv("WATERFALL_TEST_REDIS_URL")
	if url == "" {
		t.Skip("WATERFALL_TEST_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := OpenRedis(ctx, url, "test:"+uuid.NewString()+":")
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	defer s.Close()
	storeContract(t, s)
}

func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("WATERFALL_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("WATERFALL_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := OpenMongo(ctx, uri, "waterfall_test", "photos_"+uuid.NewString())
	if err != nil {
		t.Fatalf("OpenMongo: %v", err)
	}
	defer func() {
		_ = s.coll.Drop(context.Background())
		s.Close()
	}()
	storeContract(t, s)
}
