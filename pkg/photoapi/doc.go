// Package photoapi is a typed HTTP client for the photo service.
//
// The service exposes photo metadata as JSON and image bytes in three size
// tiers. The thumbnail tier can also be fetched in bulk as one zip archive:
//
//	c, err := photoapi.New(photoapi.Options{BaseURL: "https://photos.example.com/api/"})
//	archive, err := c.BatchThumbnails(ctx, []string{"a", "b", "c"})
//
// Every request goes through the same path: a rate limiter spaces requests,
// a circuit breaker short-circuits calls while the service is failing, and
// transport errors and 5xx responses are retried with backoff. A 404 is
// reported as [ErrNotFound] and never retried.
package photoapi
