// Package photo defines the photo metadata served by the photo service and the
// per-render items the waterfall layout operates on.
//
// # Records and Items
//
// A [Record] is the raw metadata shape returned by the service. An [Item] is
// the closed, validated view of a record for one render cycle: it always
// carries a strictly positive aspect ratio, and it holds the fields that the
// layout engine ([Item.CalcWidth], [Item.CalcHeight]) and the thumbnail
// pipeline ([Item.DisplaySrc]) fill in.
//
// Build items at the decode boundary with [FromRecord] or [FromRecords]:
//
//	recs, err := photo.DecodeRecords(r)
//	items, err := photo.FromRecords(recs, photo.DefaultAspectRatio)
//
// # Tiers
//
// Each photo exists in three binary size variants, see [Tier]. The small tier
// (about 100 KB) feeds the waterfall grid, the medium tier (about 1000 KB) the
// detail view and the full tier the untouched original file.
package photo
