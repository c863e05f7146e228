package gallery

import (
	"context"
	"sync"

	"github.com/matzehuels/waterfall/pkg/layout"
	"github.com/matzehuels/waterfall/pkg/photo"
)

// View holds the items and viewport of one gallery and re-runs the render
// cycle when either changes. It is safe for concurrent use; cycles are
// serialized.
type View struct {
	mu     sync.Mutex
	runner *Runner
	items  []*photo.Item
	vp     layout.Viewport
	last   *Result
}

// NewView creates an empty view for the initial viewport.
func NewView(runner *Runner, vp layout.Viewport) *View {
	return &View{runner: runner, vp: vp}
}

// Load replaces the items, lays them out and resolves their thumbnails.
func (v *View) Load(ctx context.Context, items []*photo.Item) (*Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	res, err := v.runner.Execute(ctx, items, Options{Viewport: v.vp})
	if err != nil {
		return nil, err
	}
	if v.last != nil {
		v.release(v.last, res)
	}
	v.items, v.last = items, res
	return res, nil
}

// release revokes references held by prev that next no longer uses.
func (v *View) release(prev, next *Result) {
	if v.runner.Resolver == nil {
		return
	}
	live := make(map[string]struct{}, len(next.Thumbnails.Items))
	for _, it := range next.Thumbnails.Items {
		live[it.Ref] = struct{}{}
	}
	refs := v.runner.Resolver.Refs()
	for _, it := range prev.Thumbnails.Items {
		if _, ok := live[it.Ref]; !ok && it.Ref != "" {
			refs.Revoke(it.Ref)
		}
	}
}

// Resize lays the current items out for vp. Thumbnails are kept; a resize
// never refetches. An unchanged viewport returns the previous result.
func (v *View) Resize(ctx context.Context, vp layout.Viewport) (*Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if vp == v.vp && v.last != nil {
		return v.last, nil
	}
	res, err := v.runner.Layout(ctx, v.items, vp)
	if err != nil {
		return nil, err
	}
	if v.last != nil {
		res.Thumbnails = v.last.Thumbnails
	}
	v.vp, v.last = vp, res
	return res, nil
}

// Current returns the latest result, or nil before the first cycle.
func (v *View) Current() *Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

// Viewport returns the current viewport.
func (v *View) Viewport() layout.Viewport {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vp
}

// Items returns the current items.
func (v *View) Items() []*photo.Item {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.items
}
