package thumbs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/waterfall/pkg/blobcache"
	"github.com/matzehuels/waterfall/pkg/observability"
	"github.com/matzehuels/waterfall/pkg/photo"
)

// DefaultLookupConcurrency bounds concurrent cache lookups per pass.
const DefaultLookupConcurrency = 8

// Fetcher downloads photo bytes from the photo service.
type Fetcher interface {
	BatchThumbnails(ctx context.Context, ids []string) ([]byte, error)
	Photo(ctx context.Context, id string, tier photo.Tier) ([]byte, error)
}

// Options configures a Resolver.
type Options struct {
	LookupConcurrency int
	Logger            *log.Logger
}

// Resolver assigns display references to photo items.
type Resolver struct {
	cache   *blobcache.Cache
	api     Fetcher
	refs    *Refs
	lookups int
	logger  *log.Logger
}

// NewResolver creates a Resolver. A nil refs creates a private registry.
func NewResolver(cache *blobcache.Cache, api Fetcher, refs *Refs, opts Options) *Resolver {
	if refs == nil {
		refs = NewRefs()
	}
	if opts.LookupConcurrency <= 0 {
		opts.LookupConcurrency = DefaultLookupConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Resolver{
		cache:   cache,
		api:     api,
		refs:    refs,
		lookups: opts.LookupConcurrency,
		logger:  opts.Logger,
	}
}

// Refs returns the registry that holds the minted references.
func (r *Resolver) Refs() *Refs { return r.refs }

// group is every input position sharing one photo ID.
type group struct {
	id       string
	fileName string
	idx      []int
}

// Resolve sets DisplaySrc on every item that can be given a thumbnail and
// clears it on the rest. It never returns an error; see [Result].
func (r *Resolver) Resolve(ctx context.Context, items []*photo.Item) Result {
	start := time.Now()
	res := Result{Items: make([]ItemResult, len(items))}
	groups := r.group(items, &res)

	missing := r.lookup(ctx, items, groups, &res)
	if len(missing) > 0 {
		r.fetch(ctx, items, missing, &res)
	}

	cached, fetched, failed := res.Counts()
	observability.Layout().OnResolve(ctx, cached, fetched, failed, time.Since(start))
	r.logger.Debug("thumbnails resolved",
		"items", len(items), "cached", cached, "fetched", fetched, "failed", failed,
		"duration", time.Since(start).Round(time.Millisecond))
	return res
}

// group deduplicates items by ID, keeping first-seen order.
func (r *Resolver) group(items []*photo.Item, res *Result) []*group {
	var groups []*group
	byID := make(map[string]*group)
	for i, it := range items {
		res.Items[i] = ItemResult{ID: it.ID, Outcome: Failed}
		if it.ID == "" {
			res.Items[i].Err = ErrNoID
			it.DisplaySrc = ""
			continue
		}
		g, ok := byID[it.ID]
		if !ok {
			g = &group{id: it.ID}
			byID[it.ID] = g
			groups = append(groups, g)
		}
		if g.fileName == "" {
			g.fileName = it.FileName
		}
		g.idx = append(g.idx, i)
	}
	return groups
}

// lookup resolves groups from the cache and returns those that missed.
func (r *Resolver) lookup(ctx context.Context, items []*photo.Item, groups []*group, res *Result) []*group {
	hits := make([][]byte, len(groups))
	var eg errgroup.Group
	eg.SetLimit(r.lookups)
	for i, g := range groups {
		eg.Go(func() error {
			if data, ok := r.cache.Get(ctx, g.id, photo.TierSmall); ok {
				hits[i] = data
			}
			return nil
		})
	}
	_ = eg.Wait()

	var missing []*group
	for i, g := range groups {
		if hits[i] == nil {
			missing = append(missing, g)
			continue
		}
		r.assign(items, g, res, Cached, r.refs.Create(hits[i]))
	}
	return missing
}

// fetch downloads the missing groups in one batch and unpacks the archive.
func (r *Resolver) fetch(ctx context.Context, items []*photo.Item, missing []*group, res *Result) {
	ids := make([]string, len(missing))
	for i, g := range missing {
		ids[i] = g.id
	}

	data, err := r.api.BatchThumbnails(ctx, ids)
	var arc *archive
	if err == nil {
		arc, err = openArchive(data)
	}
	if err != nil {
		for _, g := range missing {
			r.fail(items, g, res, fmt.Errorf("%w: %w", ErrBatchFailed, err))
		}
		res.Warning = fmt.Sprintf("%d thumbnails could not be loaded: %v", len(missing), err)
		r.logger.Warn("batch thumbnail fetch failed", "ids", len(ids), "err", err)
		return
	}

	// Groups own disjoint item indices, so workers write results without locking.
	var eg errgroup.Group
	eg.SetLimit(r.lookups)
	for _, g := range missing {
		f := arc.find(g.id, g.fileName)
		if f == nil {
			r.logger.Warn("thumbnail missing from archive", "id", g.id, "file", g.fileName)
			r.fail(items, g, res, ErrNotInArchive)
			continue
		}
		eg.Go(func() error {
			blob, err := readEntry(f)
			if err != nil {
				r.logger.Warn("unreadable archive entry", "id", g.id, "err", err)
				r.fail(items, g, res, err)
				return nil
			}
			r.cache.Put(ctx, g.id, photo.TierSmall, blob)
			r.assign(items, g, res, Fetched, r.refs.Create(blob))
			return nil
		})
	}
	_ = eg.Wait()
}

func (r *Resolver) assign(items []*photo.Item, g *group, res *Result, o Outcome, ref string) {
	for _, i := range g.idx {
		items[i].DisplaySrc = ref
		res.Items[i] = ItemResult{ID: g.id, Outcome: o, Ref: ref}
	}
}

func (r *Resolver) fail(items []*photo.Item, g *group, res *Result, err error) {
	for _, i := range g.idx {
		items[i].DisplaySrc = ""
		res.Items[i] = ItemResult{ID: g.id, Outcome: Failed, Err: err}
	}
}

// Tier returns one tier of one photo, from the cache when present and from
// the photo service otherwise. Downloaded bytes are written to the cache.
func (r *Resolver) Tier(ctx context.Context, id string, tier photo.Tier) ([]byte, Outcome, error) {
	if id == "" {
		return nil, Failed, ErrNoID
	}
	if !tier.Valid() {
		return nil, Failed, fmt.Errorf("invalid tier %q", tier)
	}
	if data, ok := r.cache.Get(ctx, id, tier); ok {
		return data, Cached, nil
	}
	data, err := r.api.Photo(ctx, id, tier)
	if err != nil {
		return nil, Failed, fmt.Errorf("fetch %s/%s: %w", id, tier, err)
	}
	if len(data) == 0 {
		return nil, Failed, errors.New("empty response")
	}
	r.cache.Put(ctx, id, tier, data)
	return data, Fetched, nil
}
