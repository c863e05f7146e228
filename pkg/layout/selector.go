package layout

// Viewport describes the browser window the grid is rendered into.
type Viewport struct {
	Width          float64 `json:"width"`
	ScrollbarWidth float64 `json:"scrollbarWidth"`
}

// Selector picks the active Config for a viewport.
// A Selector is immutable after construction and safe for concurrent use.
type Selector struct {
	opts Options
}

// NewSelector merges opts with the defaults once and returns a Selector.
func NewSelector(opts Options) *Selector {
	return &Selector{opts: opts.WithDefaults()}
}

// Options returns the merged options the selector was built with.
func (s *Selector) Options() Options { return s.opts }

// Select returns the configuration for vp. The mobile group applies when the
// viewport width is at or below the breakpoint. The row width is the viewport
// minus the scrollbar and both container paddings, and on desktop also minus
// both side margins.
//
// Select is a pure function of vp: the same viewport always yields the same
// configuration.
func (s *Selector) Select(vp Viewport) Config {
	mobile := vp.Width <= s.opts.MobileBreakpoint
	g := s.opts.Desktop
	if mobile {
		g = s.opts.Mobile
	}

	width := vp.Width - vp.ScrollbarWidth - 2*g.ContainerPadding
	if !mobile {
		width -= 2 * g.SideMargin
	}

	return Config{
		Group:          g,
		RowWidth:       width,
		Mobile:         mobile,
		FallbackAspect: s.opts.FallbackAspect,
	}
}
