package photoapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/matzehuels/waterfall/pkg/httputil"
	"github.com/matzehuels/waterfall/pkg/photo"
)

// Page is one page of photo records.
type Page struct {
	Records []photo.Record `json:"records"`
	Total   int            `json:"total"`
	Size    int            `json:"size"`
	Current int            `json:"current"`
	Pages   int            `json:"pages"`
}

// Listing selects which photos a paged query returns.
type Listing string

const (
	ListVisible Listing = "visible"      // normal and starred photos
	ListAll     Listing = "page"         // every photo
	ListStarred Listing = "starred/page" // starred photos only
)

var tierPaths = map[photo.Tier]string{
	photo.TierSmall:  "photos/cdn/thumbnail/small",
	photo.TierMedium: "photos/cdn/thumbnail/medium",
	photo.TierFull:   "photos/cdn/fullsize",
}

// BatchThumbnails downloads the small tier of every ID as one zip archive.
// Entries are named after the photos' files. ErrNotFound means none of the
// IDs had a thumbnail.
func (c *Client) BatchThumbnails(ctx context.Context, ids []string) ([]byte, error) {
	if len(ids) == 0 {
		return nil, errors.New("no photo ids")
	}
	q := url.Values{"ids": {strings.Join(ids, ",")}}
	resp, err := c.get(ctx, "photos/cdn/thumbnails/small", q, c.bulkTimeout)
	if err != nil {
		return nil, fmt.Errorf("batch thumbnails (%d ids): %w", len(ids), err)
	}
	if isJSON(resp.contentType) {
		return nil, fmt.Errorf("batch thumbnails: %w: unexpected content type %s", ErrNetwork, resp.contentType)
	}
	return resp.body, nil
}

// Photo downloads one tier of one photo.
func (c *Client) Photo(ctx context.Context, id string, tier photo.Tier) ([]byte, error) {
	path, ok := tierPaths[tier]
	if !ok {
		return nil, fmt.Errorf("unknown tier %q", tier)
	}
	resp, err := c.get(ctx, path, url.Values{"id": {id}}, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("photo %s/%s: %w", id, tier, err)
	}
	if len(resp.body) == 0 {
		return nil, fmt.Errorf("photo %s/%s: %w", id, tier, ErrNotFound)
	}
	return resp.body, nil
}

// PhotoInfo returns the metadata of one photo. Results are served from the
// metadata cache when one is configured; refresh bypasses it.
func (c *Client) PhotoInfo(ctx context.Context, id string, refresh bool) (*photo.Record, error) {
	var rec photo.Record
	err := c.cached(c.info, id, refresh, &rec, func() error {
		resp, err := c.get(ctx, "photos/"+url.PathEscape(id), nil, c.timeout)
		if err != nil {
			return err
		}
		return decode(resp, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("photo info %s: %w", id, err)
	}
	// The service answers an unknown ID with an empty record on some paths.
	if rec.ID == "" {
		return nil, fmt.Errorf("photo info %s: %w", id, ErrNotFound)
	}
	return &rec, nil
}

// PhotosByIDs returns the metadata of the given photos. Unknown IDs are
// omitted from the result.
func (c *Client) PhotosByIDs(ctx context.Context, ids []string) ([]photo.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	resp, err := c.get(ctx, "photos/ids", url.Values{"ids": {strings.Join(ids, ",")}}, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("photos by ids: %w", err)
	}
	var recs []photo.Record
	if err := decode(resp, &recs); err != nil {
		return nil, fmt.Errorf("photos by ids: %w", err)
	}
	return recs, nil
}

// ListPage returns one page (1-based) of a listing.
func (c *Client) ListPage(ctx context.Context, list Listing, page, size int) (*Page, error) {
	if page < 1 || size < 1 {
		return nil, fmt.Errorf("invalid page %d/size %d", page, size)
	}
	q := url.Values{"page": {strconv.Itoa(page)}, "pageSize": {strconv.Itoa(size)}}
	resp, err := c.get(ctx, "photos/"+string(list), q, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("list %s page %d: %w", list, page, err)
	}
	var p Page
	if err := decode(resp, &p); err != nil {
		return nil, fmt.Errorf("list %s page %d: %w", list, page, err)
	}
	return &p, nil
}

// All walks every page of a listing and returns the concatenated records.
func (c *Client) All(ctx context.Context, list Listing, size int) ([]photo.Record, error) {
	var all []photo.Record
	for page := 1; ; page++ {
		p, err := c.ListPage(ctx, list, page, size)
		if err != nil {
			return all, err
		}
		all = append(all, p.Records...)
		c.logger.Debug("fetched page", "list", list, "page", page, "pages", p.Pages, "records", len(p.Records))
		if page >= p.Pages || len(p.Records) == 0 {
			return all, nil
		}
	}
}

// cached serves v from cache or runs fetch and stores v. A nil cache
// always fetches.
func (c *Client) cached(cache *httputil.Cache, key string, refresh bool, v any, fetch func() error) error {
	if cache != nil && !refresh {
		if ok, _ := cache.Get(key, v); ok {
			return nil
		}
	}
	if err := fetch(); err != nil {
		return err
	}
	if cache != nil {
		if err := cache.Set(key, v); err != nil {
			c.logger.Debug("metadata cache write failed", "key", key, "err", err)
		}
	}
	return nil
}

func decode(resp *response, v any) error {
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return ErrNotFound
	}
	if err := json.Unmarshal(resp.body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "application/json")
}
