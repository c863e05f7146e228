// Package pkg provides the core libraries of waterfall, a justified photo
// gallery engine.
//
// # Overview
//
// Waterfall lays photos out in rows of equal height that fill the viewport
// width exactly, keeps every image tier of a photo in a local cache and
// fetches missing thumbnails from the photo service in one archive. The pkg
// directory is organized into three areas:
//
//  1. Domain: [photo], [layout], [thumbs], [gallery]
//  2. Infrastructure: [blobcache], [photoapi], [httputil], [config]
//  3. Support: [errors], [observability], [buildinfo]
//
// # Architecture
//
// One render cycle, triggered by a viewport change or a data load:
//
//	Viewport width
//	      ↓
//	[layout.Selector] (desktop or mobile settings, row width)
//	      ↓
//	[layout.Pack] (rows, per-photo width and height)
//	      ↓
//	[thumbs.Resolver] (cache lookup → one batch download → display references)
//	      ↓
//	[gallery.Result] (rows, total height, per-photo outcomes)
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/waterfall/pkg/gallery"
//	    "github.com/matzehuels/waterfall/pkg/layout"
//	)
//
//	items, _ := gallery.LoadFile("photos.json", 0)
//	runner := gallery.NewRunner(layout.NewSelector(layout.Options{}), resolver, nil)
//	res, _ := runner.Execute(ctx, items, gallery.Options{
//	    Viewport: layout.Viewport{Width: 1280},
//	})
//	for _, row := range res.Rows {
//	    fmt.Println(row.Height, len(row.Items))
//	}
//
// # Main Packages
//
// [photo] - Photo records as the service returns them, the normalized
// [photo.Item] a cycle works on, image tiers and star ratings.
//
// [layout] - The row-packing engine and the responsive selector that picks
// desktop or mobile settings for a viewport.
//
// [blobcache] - The tiered blob cache. Badger is the default store; Redis
// and MongoDB stores serve shared deployments. Storage failures degrade to
// misses.
//
// [photoapi] - Typed client for the photo service, with rate limiting,
// retries and a circuit breaker.
//
// [thumbs] - Batch thumbnail resolution: cache first, then one archive
// download for everything missing, unpacked into display references.
//
// [gallery] - Runs layout and thumbnail resolution as one cycle and keeps
// the state of a viewed gallery across resizes.
//
// [config] - TOML configuration with defaults merged once at load.
//
// [observability] - Hooks for layout, cache and HTTP events, with a
// Prometheus implementation.
package pkg
