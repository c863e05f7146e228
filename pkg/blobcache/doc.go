// Package blobcache stores photo image bytes locally, keyed by photo ID and
// size tier.
//
// # Overview
//
// A [Store] holds one [Record] per photo with up to three independently
// settable payloads (small, medium, full). Writing one tier never disturbs the
// others: every backend performs the write as a single atomic partial update
// of that photo's record.
//
// Backends:
//
//   - [BadgerStore]: embedded persistent store (default). [OpenBadger] is
//     idempotent per directory: repeated opens share one database.
//   - [RedisStore]: one hash per photo, one field per tier.
//   - [MongoStore]: one document per photo, one field per tier.
//   - [NullStore]: never stores anything; used for --no-cache.
//
// There is no TTL or eviction. Records are removed only by [Store.Clear].
//
// # Best-effort access
//
// The cache is an accelerator, not a system of record. [Cache] wraps a Store
// and converts every storage failure into a miss (for reads) or a no-op (for
// writes), logging it instead of returning it:
//
//	store, err := blobcache.Open(ctx, opts, logger)
//	c := blobcache.New(store, logger)
//	defer c.Close()
//
//	if data, ok := c.Get(ctx, id, photo.TierSmall); ok {
//	    // use data
//	}
package blobcache
