// Package cli implements the waterfall command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/waterfall/pkg/blobcache"
	"github.com/matzehuels/waterfall/pkg/buildinfo"
	"github.com/matzehuels/waterfall/pkg/config"
	"github.com/matzehuels/waterfall/pkg/gallery"
	"github.com/matzehuels/waterfall/pkg/httputil"
	"github.com/matzehuels/waterfall/pkg/layout"
	"github.com/matzehuels/waterfall/pkg/photoapi"
	"github.com/matzehuels/waterfall/pkg/thumbs"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "waterfall"

	// defaultViewportWidth is used when a command is not given --width.
	defaultViewportWidth = 1280
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Waterfall lays out and caches photo galleries",
		Long: `Waterfall packs photos into justified rows for a viewport, fetches their
thumbnails from the photo service in one batch and keeps every image tier
in a local cache.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/waterfall/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "bypass the blob and metadata caches")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.photoCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Dependencies
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", c.configPath, "api", cfg.API.BaseURL, "cache", cfg.Cache.Backend)
	return cfg, nil
}

// env is everything a command needs to talk to the photo service and the
// caches. Close releases the blob store.
type env struct {
	cfg      *config.Config
	cache    *blobcache.Cache
	meta     *httputil.Cache
	client   *photoapi.Client
	resolver *thumbs.Resolver
	runner   *gallery.Runner
}

// openEnv loads the configuration and wires the cache, client, resolver and
// runner.
func (c *CLI) openEnv(ctx context.Context) (*env, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := c.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cache := blobcache.New(store, c.Logger)

	var meta *httputil.Cache
	if !c.noCache {
		if meta, err = httputil.NewCache("", cfg.Cache.MetaTTL); err != nil {
			c.Logger.Warn("metadata cache disabled", "err", err)
			meta = nil
		}
	}

	client, err := photoapi.New(photoapi.Options{
		BaseURL:     cfg.API.BaseURL,
		Token:       cfg.API.Token,
		Timeout:     cfg.API.Timeout,
		BulkTimeout: cfg.API.BulkTimeout,
		RateLimit:   cfg.API.RateLimit,
		Burst:       cfg.API.Burst,
		Retry: httputil.Policy{
			Attempts: max(cfg.API.Retries, 1),
			Delay:    time.Second,
			MaxDelay: 30 * time.Second,
		},
		Meta:   meta,
		Logger: c.Logger,
	})
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("photo service client: %w", err)
	}

	resolver := thumbs.NewResolver(cache, client, nil, thumbs.Options{
		LookupConcurrency: cfg.Cache.LookupConcurrency,
		Logger:            c.Logger,
	})
	return &env{
		cfg:      cfg,
		cache:    cache,
		meta:     meta,
		client:   client,
		resolver: resolver,
		runner:   gallery.NewRunner(layout.NewSelector(cfg.Layout), resolver, c.Logger),
	}, nil
}

// openStore opens the configured blob store, or a NullStore with --no-cache.
func (c *CLI) openStore(ctx context.Context, cfg *config.Config) (blobcache.Store, error) {
	if c.noCache {
		return blobcache.NewNullStore(), nil
	}
	opts := cfg.Cache.Options
	if opts.Backend == "" || opts.Backend == blobcache.BackendBadger {
		dir, err := cfg.BlobDir()
		if err != nil {
			return nil, fmt.Errorf("blob cache dir: %w", err)
		}
		opts.Dir = dir
	}
	store, err := blobcache.Open(ctx, opts, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", backendName(opts.Backend), err)
	}
	return store, nil
}

func (e *env) Close() error {
	e.resolver.Refs().RevokeAll()
	return e.cache.Close()
}

func backendName(b string) string {
	if b == "" {
		return blobcache.BackendBadger
	}
	return b
}

// errNoItems is returned when a command has nothing to work on.
var errNoItems = errors.New("no photos to process")
