// Package httputil provides HTTP utilities for the photo service client.
//
// # Overview
//
//   - [Cache]: file-based cache of JSON responses (photo metadata)
//   - [Policy]: retry with exponential backoff for transient failures
//
// # Caching
//
// [Cache] keeps decoded JSON responses on disk with a TTL so that photo
// metadata does not have to be refetched on every run. Image bytes are not
// stored here; they live in the blob cache.
//
//	cache, err := httputil.NewCache("", time.Hour)
//	info := cache.Namespace("photo:")
//	if ok, _ := info.Get(id, &rec); !ok {
//	    rec = fetch(id)
//	    _ = info.Set(id, rec)
//	}
//
// # Retry
//
// [Policy.Do] re-runs an operation only when it fails with a [RetryableError].
// Mark transport failures and 5xx responses retryable; 4xx responses are
// permanent.
//
//	err := httputil.DefaultPolicy.Do(ctx, func(attempt int) error {
//	    return fetchArchive(ctx, ids)
//	})
//
// [DefaultPolicy]: 3 attempts, 1 second initial delay doubling per attempt, capped
// at 30 seconds.
package httputil
