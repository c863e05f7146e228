// Package prom implements the observability hooks with Prometheus metrics.
//
// All collectors are registered on the registerer passed to [New], so tests
// and embedders can use a private registry:
//
//	reg := prometheus.NewRegistry()
//	m := prom.New(reg)
//	m.Install()
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/waterfall/pkg/observability"
)

const namespace = "waterfall"

// Metrics holds the collectors backing every hook.
type Metrics struct {
	packsTotal     *prometheus.CounterVec
	packDuration   prometheus.Histogram
	rowsPerPack    prometheus.Histogram
	resolveItems   *prometheus.CounterVec
	resolveLatency prometheus.Histogram

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec
	cacheErrors *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		packsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_packs_total",
			Help:      "Total number of row-packing passes by layout group",
		}, []string{"group"}),
		packDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_pack_duration_seconds",
			Help:      "Row-packing duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		rowsPerPack: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_rows",
			Help:      "Number of rows produced per packing pass",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		resolveItems: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnail_items_total",
			Help:      "Thumbnail resolutions by outcome",
		}, []string{"outcome"}),
		resolveLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "thumbnail_resolve_duration_seconds",
			Help:      "Thumbnail resolution pass duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blobcache_hits_total",
			Help:      "Blob cache hits by tier",
		}, []string{"tier"}),
		cacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blobcache_misses_total",
			Help:      "Blob cache misses by tier",
		}, []string{"tier"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blobcache_written_bytes_total",
			Help:      "Bytes written to the blob cache by tier",
		}, []string{"tier"}),
		cacheErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blobcache_errors_total",
			Help:      "Blob cache storage failures by operation",
		}, []string{"op"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photoapi_requests_total",
			Help:      "Photo service responses by method and status code",
		}, []string{"method", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "photoapi_request_duration_seconds",
			Help:      "Photo service request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		httpErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photoapi_errors_total",
			Help:      "Photo service transport failures by method",
		}, []string{"method"}),
	}
}

// Install registers m as the process-wide layout, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetLayoutHooks(layoutHooks{m})
	observability.SetCacheHooks(cacheHooks{m})
	observability.SetHTTPHooks(httpHooks{m})
}

type layoutHooks struct{ m *Metrics }

func (h layoutHooks) OnPack(_ context.Context, mobile bool, _, rows int, d time.Duration) {
	group := "desktop"
	if mobile {
		group = "mobile"
	}
	h.m.packsTotal.WithLabelValues(group).Inc()
	h.m.packDuration.Observe(d.Seconds())
	h.m.rowsPerPack.Observe(float64(rows))
}

func (h layoutHooks) OnResolve(_ context.Context, cached, fetched, failed int, d time.Duration) {
	h.m.resolveItems.WithLabelValues("cached").Add(float64(cached))
	h.m.resolveItems.WithLabelValues("fetched").Add(float64(fetched))
	h.m.resolveItems.WithLabelValues("failed").Add(float64(failed))
	h.m.resolveLatency.Observe(d.Seconds())
}

type cacheHooks struct{ m *Metrics }

func (h cacheHooks) OnCacheHit(_ context.Context, tier string) {
	h.m.cacheHits.WithLabelValues(tier).Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, tier string) {
	h.m.cacheMisses.WithLabelValues(tier).Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, tier string, size int) {
	h.m.cacheBytes.WithLabelValues(tier).Add(float64(size))
}

func (h cacheHooks) OnCacheError(_ context.Context, op string, _ error) {
	h.m.cacheErrors.WithLabelValues(op).Inc()
}

type httpHooks struct{ m *Metrics }

func (httpHooks) OnRequest(context.Context, string, string, string) {}

func (h httpHooks) OnResponse(_ context.Context, method, _, _ string, code int, d time.Duration) {
	h.m.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	h.m.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (h httpHooks) OnError(_ context.Context, method, _, _ string, _ error) {
	h.m.httpErrors.WithLabelValues(method).Inc()
}
