// Package thumbs resolves display references for photo thumbnails.
//
// [Resolver.Resolve] takes the items of a gallery page and makes sure each one
// has a small-tier image to show:
//
//  1. Every distinct photo ID is looked up in the blob cache, concurrently.
//  2. The IDs that missed are requested from the photo service in a single
//     batch; the response is a zip archive with one entry per photo, named
//     after the photo's file.
//  3. Each entry is matched to its photo (exact file name first, then any
//     entry whose name contains the ID or the file name), written to the
//     cache and turned into a display reference.
//
// Failures never escape as errors. Each item gets a tagged [Outcome]; a
// failed batch request additionally produces one aggregate warning, and
// items already resolved from the cache keep their references.
//
// Display references are opaque "blob:<uuid>" strings minted by [Refs], which
// holds the bytes in memory until the reference is revoked.
package thumbs
