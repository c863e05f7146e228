package layout

import (
	"github.com/matzehuels/waterfall/pkg/photo"
)

// eps absorbs floating-point noise when a row fills the width exactly.
const eps = 1e-9

// Row is one finalized row of the grid.
type Row struct {
	Items  []*photo.Item `json:"items"`
	Height float64       `json:"height"`
}

// Width returns the rendered width of the row: the items' computed widths
// plus the gaps between them.
func (r Row) Width(gap float64) float64 {
	if len(r.Items) == 0 {
		return 0
	}
	w := gap * float64(len(r.Items)-1)
	for _, it := range r.Items {
		w += it.CalcWidth
	}
	return w
}

// Pack partitions items into rows for cfg and sets each item's CalcWidth and
// CalcHeight. Items keep their input order; every item lands in exactly one
// row. An empty input yields no rows.
//
// Items without a positive AspectRatio get one derived from their dimensions,
// or cfg.FallbackAspect when the dimensions are missing.
func Pack(items []*photo.Item, cfg Config) []Row {
	if len(items) == 0 {
		return nil
	}

	var (
		rows []Row
		cur  []*photo.Item
		sum  float64
	)

	for _, it := range items {
		ar := resolveRatio(it, cfg.FallbackAspect)
		next := sum + ar
		gaps := float64(len(cur)) * cfg.Gap

		h := clamp((cfg.RowWidth-gaps)/next, cfg.RowHeightMin, cfg.RowHeightMax)
		if next*h+gaps > cfg.RowWidth+eps && len(cur) > 0 {
			rows = append(rows, closeRow(cur, sum, cfg))
			cur = []*photo.Item{it}
			sum = ar
			continue
		}
		cur = append(cur, it)
		sum = next
	}
	if len(cur) > 0 {
		rows = append(rows, closeRow(cur, sum, cfg))
	}

	for _, r := range rows {
		for _, it := range r.Items {
			it.CalcHeight = r.Height
			it.CalcWidth = r.Height * it.AspectRatio
		}
	}
	return rows
}

// TotalHeight returns the height of the stacked rows with gap between them.
func TotalHeight(rows []Row, gap float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	h := gap * float64(len(rows)-1)
	for _, r := range rows {
		h += r.Height
	}
	return h
}

func closeRow(items []*photo.Item, sum float64, cfg Config) Row {
	gaps := float64(len(items)-1) * cfg.Gap
	return Row{
		Items:  items,
		Height: clamp((cfg.RowWidth-gaps)/sum, cfg.RowHeightMin, cfg.RowHeightMax),
	}
}

func resolveRatio(it *photo.Item, fallback float64) float64 {
	if it.AspectRatio <= 0 {
		it.AspectRatio = photo.AspectRatio(it.Width, it.Height, fallback)
	}
	return it.AspectRatio
}

func clamp(v, lo, hi float64) float64 {
	return min(hi, max(lo, v))
}
