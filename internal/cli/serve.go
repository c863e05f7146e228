package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/waterfall/internal/server"
	werrors "github.com/matzehuels/waterfall/pkg/errors"
	"github.com/matzehuels/waterfall/pkg/gallery"
	"github.com/matzehuels/waterfall/pkg/layout"
	"github.com/matzehuels/waterfall/pkg/observability"
	"github.com/matzehuels/waterfall/pkg/observability/prom"
	"github.com/matzehuels/waterfall/pkg/photo"
)

type serveOpts struct {
	addr    string
	width   float64
	noWatch bool
	metrics bool
}

// serveCommand creates the serve command for the preview server.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{width: defaultViewportWidth, metrics: true}

	cmd := &cobra.Command{
		Use:   "serve [photos.json]",
		Short: "Serve layouts and thumbnails over HTTP",
		Long: `Serve layouts and thumbnails over HTTP.

Routes:
  GET /api/layout?width=&scrollbar=   rows for a viewport, as JSON
  GET /blob/{ref}                     bytes behind a display reference
  GET /api/photos/{id}/{tier}         one tier of a photo, through the cache
  GET /metrics                        Prometheus metrics
  GET /healthz                        liveness

The photos file (default: server.items from the config) is reloaded and
laid out again whenever it changes.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completePhotosFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runServe(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default: server.addr from the config)")
	cmd.Flags().Float64Var(&opts.width, "width", opts.width, "viewport width of the initial layout")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "do not reload the photos file on change")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", opts.metrics, "expose /metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, input string, opts serveOpts) error {
	e, err := c.openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if input == "" {
		input = e.cfg.Server.Items
	}
	if err := werrors.ValidatePath(input); err != nil {
		return err
	}
	addr := opts.addr
	if addr == "" {
		addr = e.cfg.Server.Addr
	}

	var gatherer prometheus.Gatherer
	if opts.metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		prom.New(reg).Install()
		defer observability.Reset()
		gatherer = reg
	}

	fallback := e.cfg.Layout.FallbackAspect
	srv, err := server.New(server.Options{
		View:     gallery.NewView(e.runner, layout.Viewport{Width: opts.width}),
		Resolver: e.resolver,
		Load:     func() ([]*photo.Item, error) { return gallery.LoadFile(input, fallback) },
		Gatherer: gatherer,
		Logger:   loggerFromContext(ctx),
	})
	if err != nil {
		return err
	}
	if err := srv.Reload(ctx); err != nil {
		return fmt.Errorf("load photos %s: %w", input, err)
	}

	printSuccess("Serving %s", input)
	fmt.Println("  " + StyleLink.Render(fmt.Sprintf("http://%s/api/layout?width=%g", addr, opts.width)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx, addr) })
	if !opts.noWatch {
		g.Go(func() error {
			return server.Watch(gctx, input, server.DefaultDebounce, srv.Reload, loggerFromContext(ctx))
		})
	}
	return g.Wait()
}
