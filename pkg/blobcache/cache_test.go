package blobcache

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/waterfall/pkg/observability"
	"github.com/matzehuels/waterfall/pkg/photo"
)

var errDisk = errors.New("disk on fire")

// failingStore fails every operation.
type failingStore struct{ NullStore }

func (failingStore) Get(context.Context, string, photo.Tier) ([]byte, bool, error) {
	return nil, false, errDisk
}
func (failingStore) Put(context.Context, string, photo.Tier, []byte) error { return errDisk }
func (failingStore) Record(context.Context, string) (*Record, bool, error) {
	return nil, false, errDisk
}
func (failingStore) Clear(context.Context) error { return errDisk }

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets, errs int
}

func (h *countingHooks) OnCacheHit(context.Context, string)          { h.hits++ }
func (h *countingHooks) OnCacheMiss(context.Context, string)         { h.misses++ }
func (h *countingHooks) OnCacheSet(context.Context, string, int)     { h.sets++ }
func (h *countingHooks) OnCacheError(context.Context, string, error) { h.errs++ }

func TestCache_DegradesFailures(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	var buf bytes.Buffer
	c := New(failingStore{}, log.New(&buf))
	ctx := context.Background()

	if data, ok := c.Get(ctx, "a", photo.TierSmall); ok || data != nil {
		t.Errorf("Get on failing store = %q, %v; want miss", data, ok)
	}
	if c.Put(ctx, "a", photo.TierSmall, []byte("x")) {
		t.Error("Put on failing store should report false")
	}
	if _, ok := c.Record(ctx, "a"); ok {
		t.Error("Record on failing store should miss")
	}
	if err := c.Clear(ctx); !errors.Is(err, errDisk) {
		t.Errorf("Clear = %v, want storage error", err)
	}
	if hooks.errs != 4 {
		t.Errorf("error hooks = %d, want 4", hooks.errs)
	}
	if !bytes.Contains(buf.Bytes(), []byte("disk on fire")) {
		t.Errorf("failure should be logged, got %q", buf.String())
	}
}

func TestCache_HitMissSet(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	s, err := OpenBadger("", nil)
	if err != nil {
		t.Fatal(err)
	}
	c := New(s, nil)
	defer c.Close()
	ctx := context.Background()

	if _, ok := c.Get(ctx, "a", photo.TierSmall); ok {
		t.Fatal("empty cache should miss")
	}
	if !c.Put(ctx, "a", photo.TierSmall, []byte("thumb")) {
		t.Fatal("Put should succeed")
	}
	data, ok := c.Get(ctx, "a", photo.TierSmall)
	if !ok || string(data) != "thumb" {
		t.Errorf("Get = %q, %v", data, ok)
	}
	if hooks.hits != 1 || hooks.misses != 1 || hooks.sets != 1 {
		t.Errorf("hooks = %+v", hooks)
	}
	if c.Store() != s {
		t.Error("Store() should return the wrapped store")
	}
}

func TestCache_NilStore(t *testing.T) {
	c := New(nil, nil)
	if _, ok := c.Get(context.Background(), "a", photo.TierSmall); ok {
		t.Error("nil store should behave as NullStore")
	}
}
