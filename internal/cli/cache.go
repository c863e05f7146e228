package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/waterfall/pkg/blobcache"
	werrors "github.com/matzehuels/waterfall/pkg/errors"
	"github.com/matzehuels/waterfall/pkg/httputil"
	"github.com/matzehuels/waterfall/pkg/photo"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the photo blob and metadata caches",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheGetCommand())
	cmd.AddCommand(c.cacheStatsCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var metaOnly bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached photo and metadata entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !metaOnly {
				cache, err := c.openCache(ctx)
				if err != nil {
					return err
				}
				defer cache.Close()

				stats, _ := cache.Stats(ctx)
				if err := cache.Clear(ctx); err != nil {
					return fmt.Errorf("clear blob cache: %w", err)
				}
				printSuccess("Cleared %d cached photos (%s)", stats.Records, formatBytes(stats.Bytes))
			}

			dir, err := httputil.DefaultDir()
			if err != nil {
				return fmt.Errorf("get metadata cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Metadata cache is empty")
				return nil
			}
			meta, err := httputil.NewCache(dir, 0)
			if err != nil {
				return err
			}
			if err := meta.Clear(); err != nil {
				return fmt.Errorf("clear metadata cache: %w", err)
			}
			printSuccess("Cleared metadata cache")
			printDetail("Directory: %s", dir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&metaOnly, "meta", false, "only clear cached photo metadata")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the caches live",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			switch backendName(cfg.Cache.Backend) {
			case blobcache.BackendBadger:
				dir, err := cfg.BlobDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
			case blobcache.BackendRedis:
				fmt.Fprintln(cmd.OutOrStdout(), cfg.Cache.RedisURL)
			case blobcache.BackendMongo:
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s.%s)\n", cfg.Cache.MongoURI, cfg.Cache.MongoDatabase, cfg.Cache.MongoCollection)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "none")
			}
			meta, err := httputil.DefaultDir()
			if err != nil {
				return fmt.Errorf("get metadata cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), meta)
			return nil
		},
	}
}

// cacheGetCommand creates the "cache get" subcommand.
func (c *CLI) cacheGetCommand() *cobra.Command {
	var (
		tierName string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show or extract what is cached for a photo",
		Long: `Show which tiers are cached for a photo. With --output the given tier is
written to a file. The photo service is never contacted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := werrors.ValidatePhotoID(id); err != nil {
				return err
			}
			tier, err := photo.ParseTier(tierName)
			if err != nil {
				return werrors.Wrap(werrors.ErrCodeInvalidTier, err, "photo %s", id)
			}

			ctx := cmd.Context()
			cache, err := c.openCache(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()

			rec, ok := cache.Record(ctx, id)
			if !ok {
				return werrors.New(werrors.ErrCodeNotFound, "photo %s is not cached", id)
			}
			if output == "" {
				printKeyValue("Photo", rec.PhotoID)
				for _, t := range photo.Tiers {
					size := "-"
					if data := rec.Tier(t); len(data) > 0 {
						size = formatBytes(int64(len(data)))
					}
					printKeyValue(string(t), size)
				}
				return nil
			}

			data := rec.Tier(tier)
			if len(data) == 0 {
				return werrors.New(werrors.ErrCodeNotFound, "photo %s has no cached %s tier", id, tier)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Extracted %s tier of %s (%s)", tier, id, formatBytes(int64(len(data))))
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&tierName, "tier", "t", string(photo.TierSmall), "tier to extract")
	_ = cmd.RegisterFlagCompletionFunc("tier", completeTier)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the tier to a file")
	return cmd
}

// cacheStatsCommand creates the "cache stats" subcommand.
func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the blob cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cache, err := c.openCache(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()

			stats, err := cache.Stats(ctx)
			if err != nil {
				return fmt.Errorf("cache stats: %w", err)
			}
			printKeyValue("Photos", fmt.Sprint(stats.Records))
			for _, t := range photo.Tiers {
				printKeyValue(string(t), fmt.Sprint(stats.Blobs[t]))
			}
			printKeyValue("Size", formatBytes(stats.Bytes))
			return nil
		},
	}
}

// openCache opens the configured blob store without the photo service.
func (c *CLI) openCache(ctx context.Context) (*blobcache.Cache, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := c.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return blobcache.New(store, c.Logger), nil
}
