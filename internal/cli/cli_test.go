package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/matzehuels/waterfall/pkg/config"
	"github.com/matzehuels/waterfall/pkg/gallery"
	"github.com/matzehuels/waterfall/pkg/photoapi"
)

// isolate points every per-user directory at a fresh temp dir.
func isolate(t *testing.T) (configHome, cacheHome string) {
	t.Helper()
	configHome, cacheHome = t.TempDir(), t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	t.Setenv(config.TokenEnv, "")
	return configHome, cacheHome
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

const photosJSON = `[
  {"id": "a", "width": 1500, "height": 1000, "title": "Harbour"},
  {"id": "b", "width": 1000, "height": 1000},
  {"id": "c", "width": 800, "height": 1200},
  {"id": "d", "width": 0, "height": 0}
]`

func writePhotos(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photos.json")
	if err := os.WriteFile(path, []byte(photosJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLayoutJSON(t *testing.T) {
	isolate(t)
	input := writePhotos(t)

	tests := []struct {
		name       string
		width      string
		wantMobile bool
	}{
		{"desktop", "1280", false},
		{"mobile", "390", true},
		{"breakpoint is mobile", "600", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "layout", input, "--json", "--width", tt.width)
			if err != nil {
				t.Fatalf("layout: %v", err)
			}
			var doc gallery.Document
			if err := json.Unmarshal([]byte(out), &doc); err != nil {
				t.Fatalf("decode output: %v\n%s", err, out)
			}
			if doc.Mobile != tt.wantMobile {
				t.Errorf("Mobile = %v, want %v", doc.Mobile, tt.wantMobile)
			}
			placed := 0
			for _, row := range doc.Rows {
				placed += len(row.Items)
				for _, it := range row.Items {
					if it.Src != "" {
						t.Errorf("%s has a display reference without --fetch", it.ID)
					}
				}
			}
			if placed != 4 || doc.Stats.Items != 4 {
				t.Errorf("placed %d items (stats %d), want 4", placed, doc.Stats.Items)
			}
		})
	}
}

func TestLayoutWritesFile(t *testing.T) {
	isolate(t)
	input := writePhotos(t)
	output := filepath.Join(t.TempDir(), "layout.json")

	if _, err := execute(t, "layout", input, "-o", output); err != nil {
		t.Fatalf("layout: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Contains(data, []byte(`"rowWidth"`)) {
		t.Errorf("output is not a layout document:\n%s", data)
	}
}

func TestLayoutMissingFile(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "layout", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing photos file")
	}
}

func TestConfigInitAndPath(t *testing.T) {
	configHome, _ := isolate(t)
	want := filepath.Join(configHome, "waterfall", "config.toml")

	out, err := execute(t, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(out) != want {
		t.Errorf("config path = %q, want %q", strings.TrimSpace(out), want)
	}

	if _, err := execute(t, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if _, err := execute(t, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, err := execute(t, "config", "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestConfigShowMasksToken(t *testing.T) {
	isolate(t)
	t.Setenv(config.TokenEnv, "secret-token")

	out, err := execute(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "secret-token") {
		t.Error("config show printed the token")
	}
	if !strings.Contains(out, "base_url") {
		t.Errorf("config show output is missing base_url:\n%s", out)
	}
}

func TestConfigFlag(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("[layout]\nmobile_breakpoint = 2000.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	input := writePhotos(t)

	out, err := execute(t, "--config", path, "layout", input, "--json", "--width", "1280")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	var doc gallery.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if !doc.Mobile {
		t.Error("1280 should be mobile with a 2000px breakpoint")
	}
}

func TestCompletion(t *testing.T) {
	isolate(t)
	out, err := execute(t, "completion", "bash")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out, "waterfall") {
		t.Error("bash completion does not mention the command name")
	}
	if _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("unsupported shell should fail")
	}
}

func TestCompletionCandidates(t *testing.T) {
	isolate(t)
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"tier flag", []string{"cache", "get", "p1", "--tier", ""}, []string{"small", "medium", "full"}},
		{"photo tier flag", []string{"photo", "p1", "-t", "m"}, []string{"medium"}},
		{"photos file", []string{"fetch", ""}, []string{"json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"__complete"}, tt.args...)...)
			if err != nil {
				t.Fatalf("__complete: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w+"\n") {
					t.Errorf("completions %q missing %q", out, w)
				}
			}
		})
	}
}

func TestFetchListing(t *testing.T) {
	tests := []struct {
		name string
		opts fetchOpts
		want photoapi.Listing
	}{
		{"default", fetchOpts{all: true}, photoapi.ListVisible},
		{"starred", fetchOpts{all: true, starred: true}, photoapi.ListStarred},
		{"include hidden", fetchOpts{all: true, includeHidden: true}, photoapi.ListAll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.listing(); got != tt.want {
				t.Errorf("listing() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchListingFlagsExclusive(t *testing.T) {
	isolate(t)
	for _, cmd := range []string{"fetch", "browse"} {
		_, err := execute(t, cmd, "--all", "--starred", "--include-hidden")
		if err == nil || !strings.Contains(err.Error(), "include-hidden") {
			t.Errorf("%s: error = %v, want a flag conflict", cmd, err)
		}
	}
}
