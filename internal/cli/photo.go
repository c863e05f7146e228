package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	werrors "github.com/matzehuels/waterfall/pkg/errors"
	"github.com/matzehuels/waterfall/pkg/photo"
)

type photoOpts struct {
	tier    string
	output  string
	info    bool
	refresh bool
}

// photoCommand creates the photo command for downloading one image tier.
func (c *CLI) photoCommand() *cobra.Command {
	opts := photoOpts{tier: string(photo.TierMedium)}

	cmd := &cobra.Command{
		Use:   "photo <id>",
		Short: "Download one tier of a photo, or show its metadata",
		Long: `Download one tier of a photo through the cache.

Tiers are small, medium and full (aliases 100k, 1000k and original). The
image is written to --output, or to <id>-<tier>.<ext> in the current
directory. With --info the photo's metadata is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := werrors.ValidatePhotoID(args[0]); err != nil {
				return err
			}
			if opts.info {
				return c.runPhotoInfo(cmd.Context(), args[0], opts.refresh)
			}
			return c.runPhoto(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.tier, "tier", "t", opts.tier, "image tier: small, medium, full")
	_ = cmd.RegisterFlagCompletionFunc("tier", completeTier)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file")
	cmd.Flags().BoolVar(&opts.info, "info", false, "print metadata instead of downloading")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "with --info, bypass the metadata cache")

	return cmd
}

func (c *CLI) runPhoto(ctx context.Context, id string, opts photoOpts) error {
	tier, err := photo.ParseTier(opts.tier)
	if err != nil {
		return werrors.Wrap(werrors.ErrCodeInvalidTier, err, "photo %s", id)
	}

	e, err := c.openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Downloading %s/%s...", id, tier))
	spinner.Start()
	data, outcome, err := e.resolver.Tier(ctx, id, tier)
	if err != nil {
		spinner.StopWithError("Download failed")
		return err
	}
	spinner.Stop()

	path := opts.output
	if path == "" {
		path = fmt.Sprintf("%s-%s%s", id, tier, imageExt(data))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	printSuccess("Saved %s tier of %s (%s, %s)", tier, id, formatBytes(int64(len(data))), outcome)
	printFile(path)
	return nil
}

func (c *CLI) runPhotoInfo(ctx context.Context, id string, refresh bool) error {
	e, err := c.openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	rec, err := e.client.PhotoInfo(ctx, id, refresh)
	if err != nil {
		return err
	}
	it := photo.NewItem(*rec, e.cfg.Layout.FallbackAspect)

	fmt.Println(StyleTitle.Render(firstNonEmpty(rec.Title, rec.FileName, rec.ID)))
	printKeyValue("ID", rec.ID)
	printKeyValue("File", rec.FileName)
	printKeyValue("Author", rec.Author)
	printKeyValue("Size", fmt.Sprintf("%d × %d (ratio %.3f)", rec.Width, rec.Height, it.AspectRatio))
	printKeyValue("Rating", rec.StartRating.String())
	printKeyValue("Camera", strings.TrimSpace(rec.Camera+" "+rec.Lens))
	printKeyValue("Exposure", strings.Join(nonEmpty(rec.FocalLength, rec.Aperture, rec.Shutter, isoLabel(rec.ISO)), " · "))
	printKeyValue("Taken", rec.ShootTime)
	if rec.Introduce != "" {
		printNewline()
		printDetail("%s", rec.Introduce)
	}

	if r, ok := e.cache.Record(ctx, rec.ID); ok {
		printKeyValue("Cached", tierMarks(r.Tiers()))
	} else {
		printKeyValue("Cached", tierMarks(nil))
	}
	return nil
}

// imageExt picks a file extension from the sniffed content type.
func imageExt(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}

func isoLabel(iso string) string {
	if iso == "" {
		return ""
	}
	return "ISO " + iso
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
