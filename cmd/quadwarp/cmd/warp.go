package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/quadwarp/internal/common"
	"github.com/MeKo-Tech/quadwarp/internal/warp"
)

func newWarpCommand(c *cli) *cobra.Command {
	var corners, out string

	cmd := &cobra.Command{
		Use:   "warp IMAGE",
		Short: "Rectify a quadrilateral region of an image",
		Long: `Cut the quadrilateral given by --corners (top-left, top-right,
bottom-right, bottom-left) out of IMAGE and warp it into an upright
rectangle. The output height defaults to the configured warp height; the
width follows the aspect ratio of the quad. Both are multiples of 32.

Examples:
  quadwarp warp photo.jpg --corners "12,40 610,22 630,470 5,455"
  quadwarp warp photo.jpg --corners "..." -o page.png --height 512
  quadwarp warp photo.jpg --corners "..." --background white --debug-dir debug/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			quad, err := parseQuad(corners)
			if err != nil {
				return fmt.Errorf("invalid --corners: %w", err)
			}

			src, err := warp.Load(input)
			if err != nil {
				return err
			}

			if out == "" {
				out = strings.TrimSuffix(input, filepath.Ext(input)) + "_rectified.png"
			}

			timer := common.Start("warp")
			img, err := warp.Rectify(cmd.Context(), src, quad, c.cfg.Warp.OutputHeight, c.cfg.WarpOptions())
			timer.Stop()
			if err != nil {
				return fmt.Errorf("rectification failed: %w", err)
			}
			c.log.Info("rectified image",
				"input", input, "output", out,
				"width", img.Bounds().Dx(), "height", img.Bounds().Dy(),
				"timer", timer)

			if err := warp.Save(img, out); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%dx%d)\n", out, img.Bounds().Dx(), img.Bounds().Dy())
			return err
		},
	}

	cmd.Flags().StringVar(&corners, "corners", "", "four corners of the region: TL TR BR BL")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default <input>_rectified.png)")
	cmd.Flags().Int("height", warp.DefaultOutputHeight, "output height in pixels, rounded down to a multiple of 32")
	cmd.Flags().String("background", "transparent", "fill color for pixels outside the source")
	cmd.Flags().String("debug-dir", "", "directory for overlay and comparison images")
	bindFlag(cmd.Flags(), "height", "warp.output_height")
	bindFlag(cmd.Flags(), "background", "warp.background")
	bindFlag(cmd.Flags(), "debug-dir", "warp.debug_dir")
	_ = cmd.MarkFlagRequired("corners")
	return cmd
}
