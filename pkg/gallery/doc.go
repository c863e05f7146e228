// Package gallery drives one render cycle of the photo grid.
//
// A render cycle is triggered by a data load or a viewport change:
//
//	viewport ──► Selector.Select ──► layout.Pack ──► thumbs.Resolve
//
// [Runner] executes a single cycle and is stateless. [View] keeps the
// current items and viewport and re-runs the cycle when either changes,
// which is what an interactive front end (the preview server) needs.
package gallery
