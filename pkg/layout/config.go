package layout

import "fmt"

// Group is one set of row and spacing parameters. All values are in pixels.
type Group struct {
	RowHeightMax     float64 `toml:"row_height_max" json:"rowHeightMax"`
	RowHeightMin     float64 `toml:"row_height_min" json:"rowHeightMin"`
	Gap              float64 `toml:"gap" json:"gap"`
	SideMargin       float64 `toml:"side_margin" json:"sideMargin"`
	ContainerPadding float64 `toml:"container_padding" json:"containerPadding"`
}

// Options configures the responsive layout: a desktop group, a mobile group
// and the viewport width at or below which the mobile group applies.
type Options struct {
	Desktop          Group   `toml:"desktop" json:"desktop"`
	Mobile           Group   `toml:"mobile" json:"mobile"`
	MobileBreakpoint float64 `toml:"mobile_breakpoint" json:"mobileBreakpoint"`
	FallbackAspect   float64 `toml:"fallback_aspect" json:"fallbackAspect"`
}

// DefaultOptions returns the stock gallery settings.
func DefaultOptions() Options {
	return Options{
		Desktop: Group{
			RowHeightMax:     300,
			RowHeightMin:     150,
			Gap:              8,
			SideMargin:       8,
			ContainerPadding: 8,
		},
		Mobile: Group{
			RowHeightMax:     200,
			RowHeightMin:     100,
			Gap:              1,
			SideMargin:       1,
			ContainerPadding: 1,
		},
		MobileBreakpoint: 600,
		FallbackAspect:   1.5,
	}
}

// WithDefaults returns o with every zero field replaced by its default.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	o.Desktop = o.Desktop.withDefaults(d.Desktop)
	o.Mobile = o.Mobile.withDefaults(d.Mobile)
	if o.MobileBreakpoint == 0 {
		o.MobileBreakpoint = d.MobileBreakpoint
	}
	if o.FallbackAspect == 0 {
		o.FallbackAspect = d.FallbackAspect
	}
	return o
}

func (g Group) withDefaults(d Group) Group {
	if g.RowHeightMax == 0 {
		g.RowHeightMax = d.RowHeightMax
	}
	if g.RowHeightMin == 0 {
		g.RowHeightMin = d.RowHeightMin
	}
	if g.Gap == 0 {
		g.Gap = d.Gap
	}
	if g.SideMargin == 0 {
		g.SideMargin = d.SideMargin
	}
	if g.ContainerPadding == 0 {
		g.ContainerPadding = d.ContainerPadding
	}
	return g
}

// Validate checks that the group's bounds are usable for packing.
func (g Group) Validate() error {
	switch {
	case g.RowHeightMin <= 0:
		return fmt.Errorf("row height min must be positive, got %v", g.RowHeightMin)
	case g.RowHeightMax < g.RowHeightMin:
		return fmt.Errorf("row height max %v is below min %v", g.RowHeightMax, g.RowHeightMin)
	case g.Gap < 0:
		return fmt.Errorf("gap must not be negative, got %v", g.Gap)
	case g.SideMargin < 0 || g.ContainerPadding < 0:
		return fmt.Errorf("margins must not be negative")
	}
	return nil
}

// Validate checks both groups and the breakpoint.
func (o Options) Validate() error {
	if err := o.Desktop.Validate(); err != nil {
		return fmt.Errorf("desktop: %w", err)
	}
	if err := o.Mobile.Validate(); err != nil {
		return fmt.Errorf("mobile: %w", err)
	}
	if o.MobileBreakpoint < 0 {
		return fmt.Errorf("mobile breakpoint must not be negative, got %v", o.MobileBreakpoint)
	}
	if o.FallbackAspect <= 0 {
		return fmt.Errorf("fallback aspect ratio must be positive, got %v", o.FallbackAspect)
	}
	return nil
}

// Config is the active layout configuration for one viewport.
type Config struct {
	Group
	RowWidth       float64 `json:"rowWidth"`
	Mobile         bool    `json:"mobile"`
	FallbackAspect float64 `json:"fallbackAspect"`
}

// Validate checks that cfg can be packed.
func (c Config) Validate() error {
	if err := c.Group.Validate(); err != nil {
		return err
	}
	if c.RowWidth <= 0 {
		return fmt.Errorf("row width must be positive, got %v", c.RowWidth)
	}
	return nil
}
