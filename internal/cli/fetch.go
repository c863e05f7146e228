package cli

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/waterfall/pkg/gallery"
	"github.com/matzehuels/waterfall/pkg/photo"
	"github.com/matzehuels/waterfall/pkg/photoapi"
)

const defaultPageSize = 50

type fetchOpts struct {
	all           bool
	starred       bool
	includeHidden bool
	ids           []string
}

// addListingFlags registers the flags that select which photos --all lists.
func addListingFlags(cmd *cobra.Command, opts *fetchOpts) {
	cmd.Flags().BoolVar(&opts.starred, "starred", false, "with --all, only starred photos")
	cmd.Flags().BoolVar(&opts.includeHidden, "include-hidden", false, "with --all, also hidden photos")
	cmd.MarkFlagsMutuallyExclusive("starred", "include-hidden")
}

// listing returns the service listing --all walks.
func (o fetchOpts) listing() photoapi.Listing {
	switch {
	case o.starred:
		return photoapi.ListStarred
	case o.includeHidden:
		return photoapi.ListAll
	default:
		return photoapi.ListVisible
	}
}

// fetchCommand creates the fetch command, which warms the thumbnail cache.
func (c *CLI) fetchCommand() *cobra.Command {
	var opts fetchOpts

	cmd := &cobra.Command{
		Use:   "fetch [photos.json]",
		Short: "Download thumbnails into the local cache",
		Long: `Download the small thumbnails of a set of photos into the local cache.

Photos already in the cache are skipped; the rest are requested from the
photo service in a single archive. The set comes from a records file, from
--ids, or with --all from every visible photo on the service
(--include-hidden adds hidden photos, --starred keeps only starred ones).`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completePhotosFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runFetch(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.all, "all", false, "fetch every visible photo")
	addListingFlags(cmd, &opts)
	cmd.Flags().StringSliceVar(&opts.ids, "ids", nil, "comma-separated photo IDs")

	return cmd
}

func (c *CLI) runFetch(ctx context.Context, input string, opts fetchOpts) error {
	e, err := c.openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	items, err := c.collectItems(ctx, e, input, opts)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return errNoItems
	}

	resolve := startStage(ctx, "resolved thumbnails")
	spinner := newSpinner(ctx, fmt.Sprintf("Resolving %d thumbnails...", len(items)))
	spinner.Start()
	res := e.resolver.Resolve(ctx, items)
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	cached, fetched, failed := res.Counts()
	resolve.done("items", len(items), "cached", cached, "fetched", fetched, "failed", failed)
	switch {
	case failed == len(res.Items):
		printError("No thumbnails could be loaded")
	case failed > 0:
		printWarning("Resolved %d of %d thumbnails", cached+fetched, len(res.Items))
	default:
		printSuccess("Resolved %d thumbnails", len(res.Items))
	}
	printResolveStats(cached, fetched, failed)
	if res.Warning != "" {
		printDetail("%s", res.Warning)
	}
	for _, f := range firstN(res.Failures(), 10) {
		printDetail("%s: %v", f.ID, f.Err)
	}
	if input != "" && failed < len(res.Items) {
		printNextStep("Lay them out", "waterfall layout --fetch "+input)
	}
	return nil
}

// collectItems builds the items named by the flags or the input file.
func (c *CLI) collectItems(ctx context.Context, e *env, input string, opts fetchOpts) ([]*photo.Item, error) {
	fallback := e.cfg.Layout.FallbackAspect
	switch {
	case opts.all:
		list := opts.listing()
		spinner := newSpinner(ctx, "Listing photos...")
		spinner.Start()
		recs, err := e.client.All(ctx, list, cmp.Or(e.cfg.API.PageSize, defaultPageSize))
		spinner.Stop()
		if err != nil {
			return nil, fmt.Errorf("list photos: %w", err)
		}
		return itemsFrom(ctx, recs, fallback)
	case len(opts.ids) > 0:
		recs, err := e.client.PhotosByIDs(ctx, trimIDs(opts.ids))
		if err != nil {
			return nil, fmt.Errorf("photo info: %w", err)
		}
		return itemsFrom(ctx, recs, fallback)
	case input != "":
		items, err := gallery.LoadFile(input, fallback)
		if err != nil && len(items) == 0 {
			return nil, fmt.Errorf("load photos %s: %w", input, err)
		}
		if err != nil {
			loggerFromContext(ctx).Warn("some records were skipped", "err", err)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("give a photos file, --ids or --all")
	}
}

func itemsFrom(ctx context.Context, recs []photo.Record, fallback float64) ([]*photo.Item, error) {
	items, err := photo.FromRecords(recs, fallback)
	if err != nil {
		loggerFromContext(ctx).Warn("some records were skipped", "err", err)
	}
	return items, nil
}

func trimIDs(ids []string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
