package blobcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/matzehuels/waterfall/pkg/photo"
)

// storeContract exercises the behaviour every Store must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("MissOnEmpty", func(t *testing.T) {
		data, ok, err := s.Get(ctx, "missing", photo.TierSmall)
		if err != nil || ok || data != nil {
			t.Errorf("Get(missing) = %q, %v, %v; want nil, false, nil", data, ok, err)
		}
		if _, ok, err := s.Record(ctx, "missing"); err != nil || ok {
			t.Errorf("Record(missing) = %v, %v; want false, nil", ok, err)
		}
	})

	t.Run("PutGet", func(t *testing.T) {
		if err := s.Put(ctx, "p1", photo.TierSmall, []byte("small-1")); err != nil {
			t.Fatalf("Put: %v", err)
		}
		data, ok, err := s.Get(ctx, "p1", photo.TierSmall)
		if err != nil || !ok || string(data) != "small-1" {
			t.Errorf("Get = %q, %v, %v; want small-1", data, ok, err)
		}
		if _, ok, _ := s.Get(ctx, "p1", photo.TierMedium); ok {
			t.Error("unset tier should miss")
		}
	})

	t.Run("PutPreservesOtherTiers", func(t *testing.T) {
		if err := s.Put(ctx, "p2", photo.TierSmall, []byte("s")); err != nil {
			t.Fatal(err)
		}
		if err := s.Put(ctx, "p2", photo.TierMedium, []byte("m")); err != nil {
			t.Fatal(err)
		}
		if err := s.Put(ctx, "p2", photo.TierSmall, []byte("s2")); err != nil {
			t.Fatal(err)
		}
		rec, ok, err := s.Record(ctx, "p2")
		if err != nil || !ok {
			t.Fatalf("Record = %v, %v", ok, err)
		}
		if rec.PhotoID != "p2" {
			t.Errorf("PhotoID = %q, want p2", rec.PhotoID)
		}
		if string(rec.Small) != "s2" || string(rec.Medium) != "m" || rec.Full != nil {
			t.Errorf("record = small %q medium %q full %q", rec.Small, rec.Medium, rec.Full)
		}
	})

	t.Run("ConcurrentTierWrites", func(t *testing.T) {
		var wg sync.WaitGroup
		for _, tier := range photo.Tiers {
			wg.Add(1)
			go func(tier photo.Tier) {
				defer wg.Done()
				if err := s.Put(ctx, "p3", tier, []byte(tier)); err != nil {
					t.Errorf("Put(%s): %v", tier, err)
				}
			}(tier)
		}
		wg.Wait()
		for _, tier := range photo.Tiers {
			data, ok, err := s.Get(ctx, "p3", tier)
			if err != nil || !ok || string(data) != string(tier) {
				t.Errorf("Get(%s) = %q, %v, %v", tier, data, ok, err)
			}
		}
	})

	t.Run("BinaryPayload", func(t *testing.T) {
		payload := []byte{0xff, 0xd8, 0xff, 0x00, 0x01, 0xd9}
		if err := s.Put(ctx, "bin", photo.TierFull, payload); err != nil {
			t.Fatal(err)
		}
		data, _, _ := s.Get(ctx, "bin", photo.TierFull)
		if !bytes.Equal(data, payload) {
			t.Errorf("Get = %x, want %x", data, payload)
		}
	})

	t.Run("InvalidKeys", func(t *testing.T) {
		if err := s.Put(ctx, "", photo.TierSmall, nil); !errors.Is(err, ErrEmptyID) {
			t.Errorf("Put(empty id) = %v, want ErrEmptyID", err)
		}
		for _, data := range [][]byte{nil, {}} {
			if err := s.Put(ctx, "p1", photo.TierMedium, data); !errors.Is(err, ErrEmptyData) {
				t.Errorf("Put(%q) = %v, want ErrEmptyData", data, err)
			}
		}
		if _, ok, _ := s.Get(ctx, "p1", photo.TierMedium); ok {
			t.Error("rejected empty payload should not be stored")
		}
		if _, _, err := s.Get(ctx, "p1", photo.Tier("huge")); !errors.Is(err, ErrInvalidTier) {
			t.Errorf("Get(bad tier) = %v, want ErrInvalidTier", err)
		}
	})

	t.Run("StatsAndClear", func(t *testing.T) {
		st, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats: %v", err)
		}
		if st.Records != 4 {
			t.Errorf("Records = %d, want 4", st.Records)
		}
		if st.Blobs[photo.TierSmall] != 3 {
			t.Errorf("small blobs = %d, want 3", st.Blobs[photo.TierSmall])
		}
		if st.Bytes == 0 {
			t.Error("Bytes should be non-zero")
		}

		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if _, ok, _ := s.Get(ctx, "p1", photo.TierSmall); ok {
			t.Error("Get after Clear should miss")
		}
		st, _ = s.Stats(ctx)
		if st.Records != 0 {
			t.Errorf("Records after Clear = %d, want 0", st.Records)
		}
	})
}

func TestBadgerStore(t *testing.T) {
	s, err := OpenBadger("", nil)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	defer s.Close()
	storeContract(t, s)
}

func TestBadgerStore_OpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, err := OpenBadger(dir, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	b, err := OpenBadger(dir, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	if a.shared != b.shared {
		t.Fatal("handles for the same dir should share one database")
	}

	if err := a.Put(ctx, "x", photo.TierSmall, []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, _, err := a.Get(ctx, "x", photo.TierSmall); !errors.Is(err, ErrClosed) {
		t.Errorf("Get on closed handle = %v, want ErrClosed", err)
	}

	// b keeps the database open.
	data, ok, err := b.Get(ctx, "x", photo.TierSmall)
	if err != nil || !ok || string(data) != "1" {
		t.Errorf("Get via second handle = %q, %v, %v", data, ok, err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	// After the last handle closed, data persists on disk.
	c, err := OpenBadger(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()
	if c.shared == b.shared {
		t.Error("reopen after last close should open a fresh database")
	}
	if _, ok, _ := c.Get(ctx, "x", photo.TierSmall); !ok {
		t.Error("record should persist across reopen")
	}
	if c.Path() == "" {
		t.Error("Path() should be set for on-disk store")
	}
}

func TestBadgerStore_InMemoryNotShared(t *testing.T) {
	a, err := OpenBadger("", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := OpenBadger("", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	ctx := context.Background()
	_ = a.Put(ctx, "x", photo.TierSmall, []byte("a"))
	if _, ok, _ := b.Get(ctx, "x", photo.TierSmall); ok {
		t.Error("in-memory stores should be independent")
	}
}

func TestBadgerStore_ParallelPutsSameRecord(t *testing.T) {
	s, err := OpenBadger("", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tier := photo.Tiers[i%len(photo.Tiers)]
			if err := s.Put(ctx, "hot", tier, []byte(fmt.Sprint(i))); err != nil {
				t.Errorf("Put %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	rec, ok, err := s.Record(ctx, "hot")
	if err != nil || !ok {
		t.Fatalf("Record = %v, %v", ok, err)
	}
	if len(rec.Tiers()) != 3 {
		t.Errorf("tiers = %v, want all three", rec.Tiers())
	}
}

func TestNullStore(t *testing.T) {
	s := NewNullStore()
	ctx := context.Background()
	if err := s.Put(ctx, "a", photo.TierSmall, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := s.Get(ctx, "a", photo.TierSmall); ok || err != nil {
		t.Errorf("NullStore.Get = %v, %v; want miss", ok, err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestRecordTiers(t *testing.T) {
	r := &Record{PhotoID: "a"}
	if len(r.Tiers()) != 0 {
		t.Errorf("empty record tiers = %v", r.Tiers())
	}
	r.SetTier(photo.TierFull, []byte("f"))
	r.SetTier(photo.TierSmall, []byte("s"))
	got := r.Tiers()
	if len(got) != 2 || got[0] != photo.TierSmall || got[1] != photo.TierFull {
		t.Errorf("Tiers() = %v, want [small full]", got)
	}
	r.SetTier(photo.Tier("bogus"), []byte("x"))
	if r.Tier(photo.Tier("bogus")) != nil {
		t.Error("unknown tier should read as nil")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"default badger in memory", Options{}, false},
		{"none", Options{Backend: BackendNone}, false},
		{"redis without url", Options{Backend: BackendRedis}, true},
		{"mongo without uri", Options{Backend: BackendMongo}, true},
		{"unknown", Options{Backend: "sqlite"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.opts, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				s.Close()
			}
		})
	}
}
