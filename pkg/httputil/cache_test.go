package httputil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type photoInfo struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func TestCache_GetSet(t *testing.T) {
	c, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		key  string
		val  photoInfo
	}{
		{"landscape", "a1", photoInfo{"a1", 6000, 4000}},
		{"portrait", "b2", photoInfo{"b2", 3000, 4500}},
		{"no dimensions", "c3", photoInfo{ID: "c3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Set(tt.key, tt.val); err != nil {
				t.Fatalf("Set() failed: %v", err)
			}
			var got photoInfo
			ok, err := c.Get(tt.key, &got)
			if err != nil || !ok {
				t.Fatalf("Get() = %v, %v; want true, nil", ok, err)
			}
			if got != tt.val {
				t.Errorf("Get() = %+v, want %+v", got, tt.val)
			}
		})
	}
}

func TestCache_Miss(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	var v photoInfo
	ok, err := c.Get("missing", &v)
	if err != nil || ok {
		t.Errorf("Get(missing) = %v, %v; want false, nil", ok, err)
	}
}

func TestCache_Expiration(t *testing.T) {
	c, _ := NewCache(t.TempDir(), 10*time.Millisecond)
	if err := c.Set("key", "value"); err != nil {
		t.Fatal(err)
	}

	var v string
	if ok, err := c.Get("key", &v); err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want true, nil", ok, err)
	}

	time.Sleep(20 * time.Millisecond)

	ok, err := c.Get("key", &v)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("got error %v, want ErrExpired", err)
	}
	if ok {
		t.Error("Get() returned true for expired key")
	}
}

func TestCache_ZeroTTLNeverExpires(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewCache(dir, 0)
	_ = c.Set("key", "value")

	old := time.Now().Add(-365 * 24 * time.Hour)
	if err := os.Chtimes(c.keyPath("key"), old, old); err != nil {
		t.Fatal(err)
	}
	var v string
	if ok, err := c.Get("key", &v); !ok || err != nil {
		t.Errorf("Get() = %v, %v; want hit", ok, err)
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	photos := c.Namespace("photo:")
	pages := c.Namespace("page:")
	_ = photos.Set("1", "one")
	_ = pages.Set("1", "first")

	if err := photos.Delete("1"); err != nil {
		t.Fatalf("Delete() = %v", err)
	}
	if err := photos.Delete("1"); err != nil {
		t.Errorf("Delete() of missing key = %v, want nil", err)
	}
	var v string
	if ok, _ := pages.Get("1", &v); !ok {
		t.Error("Delete should not touch other namespaces")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() = %v", err)
	}
	if ok, _ := pages.Get("1", &v); ok {
		t.Error("Clear should remove every namespace")
	}
}

func TestCache_KeyStability(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	if c.keyPath("test") != c.keyPath("test") {
		t.Error("path should be deterministic")
	}
	if c.keyPath("test") == c.keyPath("other") {
		t.Error("different keys should produce different paths")
	}
	if c.keyPath("x") == c.Namespace("ns:").keyPath("x") {
		t.Error("namespaced key should map to a different path")
	}
}

func TestNewCache_DefaultDir(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	c, err := NewCache("", time.Hour)
	if err != nil {
		t.Fatalf("NewCache() failed: %v", err)
	}
	want := filepath.Join(xdg, "waterfall", "meta")
	if c.Dir() != want {
		t.Errorf("Dir() = %s, want %s", c.Dir(), want)
	}
	if c.TTL() != time.Hour {
		t.Errorf("TTL() = %v, want 1h", c.TTL())
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("directory not created: %v", err)
	}
}

func TestCache_Namespace(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)

	t.Run("isolation", func(t *testing.T) {
		photos := c.Namespace("photo:")
		pages := c.Namespace("page:")
		_ = photos.Set("1", "photo-data")
		_ = pages.Set("1", "page-data")

		var a, b string
		if ok, err := photos.Get("1", &a); !ok || err != nil {
			t.Fatalf("photos.Get() = %v, %v", ok, err)
		}
		if ok, err := pages.Get("1", &b); !ok || err != nil {
			t.Fatalf("pages.Get() = %v, %v", ok, err)
		}
		if a != "photo-data" || b != "page-data" {
			t.Errorf("got %q, %q", a, b)
		}
	})

	t.Run("chained", func(t *testing.T) {
		api := c.Namespace("api:")
		info := api.Namespace("info:")
		_ = info.Set("x", "value")

		var v string
		if ok, _ := info.Get("x", &v); !ok || v != "value" {
			t.Errorf("Get() = %v, %q", ok, v)
		}
		if ok, _ := api.Get("x", &v); ok {
			t.Error("value accessible without full namespace chain")
		}
	})

	t.Run("preservesDirAndTTL", func(t *testing.T) {
		ns := c.Namespace("test:")
		if ns.Dir() != c.Dir() || ns.TTL() != c.TTL() {
			t.Error("namespace should share dir and TTL")
		}
	})
}
