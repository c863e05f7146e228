package photoapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/waterfall/pkg/httputil"
	"github.com/matzehuels/waterfall/pkg/photo"
)

var fastRetry = httputil.Policy{Attempts: 3, Delay: time.Millisecond}

func newTestClient(t *testing.T, h http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL + "/api"
	if opts.Retry.Attempts == 0 {
		opts.Retry = fastRetry
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		wantErr bool
	}{
		{"valid", "https://photos.example.com/api", false},
		{"trailing slash", "http://localhost:8080/", false},
		{"empty", "", true},
		{"no scheme", "photos.example.com", true},
		{"ftp", "ftp://photos.example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(Options{BaseURL: tt.base})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.base, err, tt.wantErr)
			}
			if err == nil && !strings.HasSuffix(c.BaseURL(), "/") {
				t.Errorf("BaseURL() = %q, want trailing slash", c.BaseURL())
			}
		})
	}
}

func TestBatchThumbnails(t *testing.T) {
	var gotPath, gotIDs, gotAuth, gotUA string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotIDs = r.URL.Path, r.URL.Query().Get("ids")
		gotAuth, gotUA = r.Header.Get("Authorization"), r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("PK-archive"))
	}, Options{Token: "secret"})

	data, err := c.BatchThumbnails(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("BatchThumbnails() error: %v", err)
	}
	if string(data) != "PK-archive" {
		t.Errorf("body = %q", data)
	}
	if gotPath != "/api/photos/cdn/thumbnails/small" {
		t.Errorf("path = %q", gotPath)
	}
	if gotIDs != "a,b" {
		t.Errorf("ids = %q, want a,b", gotIDs)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !strings.HasPrefix(gotUA, "waterfall/") {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestBatchThumbnails_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		ctype   string
		wantErr error
	}{
		{"none found", http.StatusNotFound, "", ErrNotFound},
		{"json instead of archive", http.StatusOK, "application/json", ErrNetwork},
		{"server error", http.StatusInternalServerError, "", ErrNetwork},
		{"forbidden", http.StatusForbidden, "", ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.ctype != "" {
					w.Header().Set("Content-Type", tt.ctype)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte("{}"))
			}, Options{})
			_, err := c.BatchThumbnails(context.Background(), []string{"x"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBatchThumbnails_NoIDs(t *testing.T) {
	c, _ := New(Options{BaseURL: "http://localhost"})
	if _, err := c.BatchThumbnails(context.Background(), nil); err == nil {
		t.Error("expected error for empty id list")
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("jpeg"))
	}, Options{})

	data, err := c.Photo(context.Background(), "a", photo.TierMedium)
	if err != nil {
		t.Fatalf("Photo() error: %v", err)
	}
	if string(data) != "jpeg" || calls.Load() != 3 {
		t.Errorf("data = %q after %d calls", data, calls.Load())
	}
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}, Options{})

	_, err := c.Photo(context.Background(), "gone", photo.TierFull)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestPhoto_TierPaths(t *testing.T) {
	tests := []struct {
		tier photo.Tier
		path string
	}{
		{photo.TierSmall, "/api/photos/cdn/thumbnail/small"},
		{photo.TierMedium, "/api/photos/cdn/thumbnail/medium"},
		{photo.TierFull, "/api/photos/cdn/fullsize"},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			var got string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Path + "?" + r.URL.RawQuery
				w.Write([]byte("img"))
			}, Options{})
			if _, err := c.Photo(context.Background(), "p1", tt.tier); err != nil {
				t.Fatal(err)
			}
			if got != tt.path+"?id=p1" {
				t.Errorf("request = %q", got)
			}
		})
	}

	c, _ := New(Options{BaseURL: "http://localhost"})
	if _, err := c.Photo(context.Background(), "p1", photo.Tier("huge")); err == nil {
		t.Error("expected error for unknown tier")
	}
}

func TestPhotoInfo_Cached(t *testing.T) {
	var calls atomic.Int32
	meta, err := httputil.NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/photos/p1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"p1","fileName":"p1.jpg","width":6000,"height":4000,"startRating":1}`))
	}, Options{Meta: meta})

	ctx := context.Background()
	for range 2 {
		rec, err := c.PhotoInfo(ctx, "p1", false)
		if err != nil {
			t.Fatalf("PhotoInfo() error: %v", err)
		}
		if rec.FileName != "p1.jpg" || rec.Width != 6000 || rec.StartRating != photo.RatingStar {
			t.Errorf("record = %+v", rec)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (second served from cache)", calls.Load())
	}

	var stored photo.Record
	if ok, _ := meta.Namespace("info:").Get("p1", &stored); !ok || stored.ID != "p1" {
		t.Errorf("metadata cache should hold p1 under the info namespace, got %+v, %v", stored, ok)
	}
	if ok, _ := meta.Get("p1", &stored); ok {
		t.Error("metadata must not be stored outside its namespace")
	}

	if _, err := c.PhotoInfo(ctx, "p1", true); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("refresh should bypass the cache, calls = %d", calls.Load())
	}
}

func TestPhotoInfo_EmptyRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}, Options{})
	if _, err := c.PhotoInfo(context.Background(), "nope", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPhotosByIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/photos/ids" || r.URL.Query().Get("ids") != "a,b" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`[{"id":"a","width":3,"height":2},{"id":"b"}]`))
	}, Options{})

	recs, err := c.PhotosByIDs(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != "a" || recs[0].Width != 3 {
		t.Errorf("records = %+v", recs)
	}

	none, err := c.PhotosByIDs(context.Background(), nil)
	if err != nil || none != nil {
		t.Errorf("PhotosByIDs(nil) = %v, %v", none, err)
	}
}

func TestAll_WalksPages(t *testing.T) {
	pages := map[string]string{
		"1": `{"records":[{"id":"a"},{"id":"b"}],"total":3,"size":2,"current":1,"pages":2}`,
		"2": `{"records":[{"id":"c"}],"total":3,"size":2,"current":2,"pages":2}`,
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/photos/visible" || r.URL.Query().Get("pageSize") != "2" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(pages[r.URL.Query().Get("page")]))
	}, Options{})

	recs, err := c.All(context.Background(), ListVisible, 2)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	if got := strings.Join(ids, ","); got != "a,b,c" {
		t.Errorf("ids = %s", got)
	}
}

func TestListPage_Invalid(t *testing.T) {
	c, _ := New(Options{BaseURL: "http://localhost"})
	if _, err := c.ListPage(context.Background(), ListStarred, 0, 10); err == nil {
		t.Error("page 0 should be rejected")
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, Options{Retry: httputil.Policy{Attempts: 1}})

	ctx := context.Background()
	for range 5 {
		_, _ = c.Photo(ctx, "a", photo.TierSmall)
	}
	_, err := c.Photo(ctx, "a", photo.TierSmall)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable once the breaker opens", err)
	}
	if calls.Load() != 5 {
		t.Errorf("server calls = %d, want 5", calls.Load())
	}
}

func TestRateLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}, Options{RateLimit: 50, Burst: 1})

	start := time.Now()
	for range 3 {
		if _, err := c.Photo(context.Background(), "a", photo.TierSmall); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("3 requests at 50/s took %v, want >= 30ms", elapsed)
	}
}
