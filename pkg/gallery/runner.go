package gallery

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/waterfall/pkg/layout"
	"github.com/matzehuels/waterfall/pkg/observability"
	"github.com/matzehuels/waterfall/pkg/photo"
	"github.com/matzehuels/waterfall/pkg/thumbs"
)

// Runner executes render cycles.
//
// The Runner holds no per-cycle state; multiple goroutines can use the same
// Runner with different item slices.
type Runner struct {
	Selector *layout.Selector
	Resolver *thumbs.Resolver // nil disables thumbnail resolution
	Logger   *log.Logger
}

// NewRunner creates a runner. A nil selector uses the default options; a nil
// resolver lays out without fetching thumbnails.
func NewRunner(sel *layout.Selector, res *thumbs.Resolver, logger *log.Logger) *Runner {
	if sel == nil {
		sel = layout.NewSelector(layout.Options{})
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Selector: sel, Resolver: res, Logger: logger}
}

// Options controls one cycle.
type Options struct {
	Viewport       layout.Viewport
	SkipThumbnails bool
}

// Stats describes one cycle.
type Stats struct {
	Items       int           `json:"items"`
	Rows        int           `json:"rows"`
	LayoutTime  time.Duration `json:"layoutTime"`
	ResolveTime time.Duration `json:"resolveTime"`
}

// Result is the output of one cycle. The items referenced by Rows are the
// caller's items, annotated in place.
type Result struct {
	Config     layout.Config
	Rows       []layout.Row
	Height     float64
	Thumbnails thumbs.Result
	Stats      Stats
}

// Layout selects the configuration for the viewport and packs items.
func (r *Runner) Layout(ctx context.Context, items []*photo.Item, vp layout.Viewport) (*Result, error) {
	if vp.Width <= 0 {
		return nil, fmt.Errorf("invalid viewport width %v", vp.Width)
	}
	cfg := r.Selector.Select(vp)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("layout config for width %v: %w", vp.Width, err)
	}

	start := time.Now()
	rows := layout.Pack(items, cfg)
	res := &Result{
		Config: cfg,
		Rows:   rows,
		Height: layout.TotalHeight(rows, cfg.Gap),
		Stats: Stats{
			Items:      len(items),
			Rows:       len(rows),
			LayoutTime: time.Since(start),
		},
	}
	observability.Layout().OnPack(ctx, cfg.Mobile, len(items), len(rows), res.Stats.LayoutTime)

	r.Logger.Debug("computed layout",
		"mobile", cfg.Mobile,
		"rowWidth", cfg.RowWidth,
		"items", len(items),
		"rows", len(rows),
		"duration", res.Stats.LayoutTime)
	return res, nil
}

// Execute runs the complete select → pack → resolve cycle.
func (r *Runner) Execute(ctx context.Context, items []*photo.Item, opts Options) (*Result, error) {
	res, err := r.Layout(ctx, items, opts.Viewport)
	if err != nil {
		return nil, err
	}
	if opts.SkipThumbnails || r.Resolver == nil {
		return res, nil
	}

	start := time.Now()
	res.Thumbnails = r.Resolver.Resolve(ctx, items)
	res.Stats.ResolveTime = time.Since(start)

	cached, fetched, failed := res.Thumbnails.Counts()
	r.Logger.Info("resolved thumbnails",
		"cached", cached,
		"fetched", fetched,
		"failed", failed,
		"duration", res.Stats.ResolveTime.Round(time.Millisecond))
	if res.Thumbnails.Warning != "" {
		r.Logger.Warn(res.Thumbnails.Warning)
	}
	return res, nil
}
