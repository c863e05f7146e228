package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/waterfall/pkg/blobcache"
	werrors "github.com/matzehuels/waterfall/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.API.Timeout != 60*time.Second || cfg.API.BulkTimeout != 120*time.Second {
		t.Errorf("timeouts = %v, %v", cfg.API.Timeout, cfg.API.BulkTimeout)
	}
	if cfg.Cache.Backend != blobcache.BackendBadger {
		t.Errorf("backend = %q", cfg.Cache.Backend)
	}
	if cfg.Layout.Desktop.RowHeightMax != 300 || cfg.Layout.Mobile.Gap != 1 || cfg.Layout.MobileBreakpoint != 600 {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[api]
base_url = "https://photos.example.com/api/"
timeout = "5s"

[cache]
backend = "redis"
redis_url = "redis://cache:6379/2"

[layout.desktop]
row_height_max = 360.0
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.BaseURL != "https://photos.example.com/api/" || cfg.API.Timeout != 5*time.Second {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.API.BulkTimeout != 120*time.Second {
		t.Errorf("unset bulk_timeout should keep its default, got %v", cfg.API.BulkTimeout)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisURL != "redis://cache:6379/2" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Layout.Desktop.RowHeightMax != 360 || cfg.Layout.Desktop.RowHeightMin != 150 {
		t.Errorf("desktop = %+v", cfg.Layout.Desktop)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "[api]\nbase_urll = \"x\"\n", "unknown keys"},
		{"bad backend", "[cache]\nbackend = \"sqlite\"\n", "cache.backend"},
		{"min above max", "[layout.mobile]\nrow_height_min = 500.0\n", "mobile"},
		{"syntax", "[api\n", "load config"},
		{"base url scheme", "[api]\nbase_url = \"ftp://photos.example.com\"\n", "api.base_url"},
		{"empty base url", "[api]\nbase_url = \"\"\n", "api.base_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestValidate_BaseURLIsCoded(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "photos.example.com"
	err := cfg.Validate()
	if !werrors.Is(err, werrors.ErrCodeInvalidConfig) {
		t.Fatalf("Validate() error = %v, want %s", err, werrors.ErrCodeInvalidConfig)
	}
	if !strings.Contains(werrors.UserMessage(err), "api.base_url") {
		t.Errorf("UserMessage() = %q, want it to name api.base_url", werrors.UserMessage(err))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := Load(""); err != nil {
		t.Errorf("missing default file should yield defaults, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("missing explicit file should fail")
	}
}

func TestLoad_TokenFromEnv(t *testing.T) {
	t.Setenv(TokenEnv, "from-env")
	cfg, err := Load(writeConfig(t, "[api]\ntoken = \"from-file\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.Token != "from-env" {
		t.Errorf("token = %q, want from-env", cfg.API.Token)
	}
}

func TestPaths(t *testing.T) {
	cfgHome, cacheHome := t.TempDir(), t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	t.Setenv("XDG_CACHE_HOME", cacheHome)

	p, err := DefaultPath()
	if err != nil || p != filepath.Join(cfgHome, "waterfall", "config.toml") {
		t.Errorf("DefaultPath() = %q, %v", p, err)
	}

	cfg := Default()
	dir, err := cfg.BlobDir()
	if err != nil || dir != filepath.Join(cacheHome, "waterfall", "blobs") {
		t.Errorf("BlobDir() = %q, %v", dir, err)
	}
	cfg.Cache.Dir = "/srv/blobs"
	if dir, _ := cfg.BlobDir(); dir != "/srv/blobs" {
		t.Errorf("explicit BlobDir() = %q", dir)
	}
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := WriteExample(path); err != nil {
		t.Fatalf("WriteExample() error: %v", err)
	}
	if err := WriteExample(path); err == nil {
		t.Error("second WriteExample should refuse to overwrite")
	}
	if _, err := Load(path); err != nil {
		t.Errorf("example config should load cleanly: %v", err)
	}
}
