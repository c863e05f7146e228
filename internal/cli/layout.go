package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/matzehuels/waterfall/pkg/gallery"
	"github.com/matzehuels/waterfall/pkg/layout"
)

type layoutOpts struct {
	viewport layout.Viewport
	fetch    bool
	asJSON   bool
	output   string
	maxRows  int
}

// layoutCommand creates the layout command for packing photos into rows.
func (c *CLI) layoutCommand() *cobra.Command {
	opts := layoutOpts{viewport: layout.Viewport{Width: defaultViewportWidth}}

	cmd := &cobra.Command{
		Use:   "layout [photos.json]",
		Short: "Pack photos into justified rows for a viewport",
		Long: `Pack photos into justified rows for a viewport.

The input is a JSON array of photo records, or a page object with a
"records" array as returned by the photo service. The desktop or mobile
settings are chosen from --width exactly as the gallery does.

With --fetch the thumbnails are resolved through the cache and the photo
service, and every placed photo carries a display reference.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completePhotosFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().Float64VarP(&opts.viewport.Width, "width", "w", opts.viewport.Width, "viewport width in pixels")
	cmd.Flags().Float64Var(&opts.viewport.ScrollbarWidth, "scrollbar", 0, "scrollbar width in pixels")
	cmd.Flags().BoolVar(&opts.fetch, "fetch", false, "resolve thumbnails")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "write the layout as JSON")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write JSON to a file instead of stdout (implies --json)")
	cmd.Flags().IntVar(&opts.maxRows, "rows", 20, "rows to show in the table (0 for all)")

	return cmd
}

// runLayout loads the items, runs one cycle and prints or writes the result.
func (c *CLI) runLayout(ctx context.Context, stdout io.Writer, input string, opts layoutOpts) error {
	runner, closeFn, err := c.layoutRunner(ctx, opts.fetch)
	if err != nil {
		return err
	}
	defer closeFn()

	items, err := gallery.LoadFile(input, runner.Selector.Options().FallbackAspect)
	if err != nil && len(items) == 0 {
		return fmt.Errorf("load photos %s: %w", input, err)
	}
	if err != nil {
		loggerFromContext(ctx).Warn("some records were skipped", "err", err)
	}

	res, err := runner.Execute(ctx, items, gallery.Options{
		Viewport:       opts.viewport,
		SkipThumbnails: !opts.fetch,
	})
	if err != nil {
		return err
	}

	if opts.asJSON || opts.output != "" {
		return writeDocument(stdout, opts.output, res.Document())
	}

	mode := "desktop"
	if res.Config.Mobile {
		mode = "mobile"
	}
	printSuccess("Packed %d photos into %d rows", res.Stats.Items, res.Stats.Rows)
	printDetail("%s · row width %spx · height %spx", mode, formatPx(res.Config.RowWidth), formatPx(res.Height))
	if opts.fetch {
		printResolveStats(res.Thumbnails.Counts())
		if res.Thumbnails.Warning != "" {
			printWarning("%s", res.Thumbnails.Warning)
		}
	}
	if len(res.Rows) > 0 {
		fmt.Fprintln(stdout, renderRows(res.Rows, res.Config.Gap, opts.maxRows))
	}
	return nil
}

// layoutRunner returns a runner that only lays out, unless fetch asks for
// the photo service and caches as well.
func (c *CLI) layoutRunner(ctx context.Context, fetch bool) (*gallery.Runner, func(), error) {
	if fetch {
		e, err := c.openEnv(ctx)
		if err != nil {
			return nil, nil, err
		}
		return e.runner, func() { e.Close() }, nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return gallery.NewRunner(layout.NewSelector(cfg.Layout), nil, c.Logger), func() {}, nil
}

func writeDocument(stdout io.Writer, path string, doc gallery.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printSuccess("Layout written")
	printFile(path)
	return nil
}
