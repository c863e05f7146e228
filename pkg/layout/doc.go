// Package layout computes justified "waterfall" rows for a photo grid.
//
// # Overview
//
// The package has two parts:
//
//   - [Selector] turns a [Viewport] into the active [Config]. Below the mobile
//     breakpoint it uses the mobile [Group], otherwise the desktop group, and
//     derives the usable row width from the viewport.
//   - [Pack] partitions an ordered slice of photo items into [Row] values with
//     a greedy single pass and writes each item's display size.
//
// # Packing
//
// Items are appended to the open row while the row, rendered at its ideal
// height clamped to [Group.RowHeightMin, Group.RowHeightMax], still fits the
// row width. When adding the next item would overflow, the open row is closed
// and the item starts a new row. A closed row of n items with aspect sum S gets
// the height
//
//	clamp((RowWidth - (n-1)*Gap) / S, RowHeightMin, RowHeightMax)
//
// and every item in it gets CalcHeight = height and CalcWidth = height * ratio.
// Because heights are clamped, a row's rendered width may differ from RowWidth;
// a single very wide photo alone in a row overflows at RowHeightMin.
//
// [Pack] mutates the items it is given: CalcWidth and CalcHeight are rewritten
// in full on every pass, and a missing aspect ratio is resolved from the
// configured fallback. It performs no I/O.
package layout
