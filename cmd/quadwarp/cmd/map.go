package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
	"github.com/MeKo-Tech/quadwarp/internal/output"
)

func newMapCommand(c *cli) *cobra.Command {
	var (
		src, dst, fixture string
		matrix            string
		inverse           bool
	)

	cmd := &cobra.Command{
		Use:   "map [points...]",
		Short: "Map points through a homography",
		Long: `Map points forward (or backward with --inverse) through a homography.

The homography is either given directly as 16 column-major values with
--matrix or estimated from --src/--dst or --fixture. Points come from the
arguments; a point without an image is reported in place and makes the
command fail after all points are printed.

Examples:
  quadwarp map --src "0,0 1,0 1,1 0,1" --dst "0,0 2,0 2,2 0,2" 0.5,0.5 1,1
  quadwarp map --matrix "2,0,0,0 0,2,0,0 0,0,1,0 0,0,0,1" --inverse 4,4
  quadwarp map --fixture quad.json --format csv "10,10;20,20"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := resolveMatrix(c, matrix, src, dst, fixture)
			if err != nil {
				return err
			}

			pts, err := parsePoints(strings.Join(args, " "))
			if err != nil {
				return err
			}

			mapFn := homography.MapForward
			if inverse {
				mapFn = homography.MapInverse
			}
			maps := make([]output.Mapping, len(pts))
			var failed int
			for i, p := range pts {
				maps[i].Input = p
				q, err := mapFn(p, m)
				if err != nil {
					maps[i].Error = err.Error()
					failed++
					continue
				}
				maps[i].Output = &q
			}
			c.log.Debug("mapped points", "count", len(pts), "failed", failed, "inverse", inverse)

			w, closeOut, err := c.outputWriter(cmd)
			if err != nil {
				return err
			}
			if err := output.WritePoints(w, maps, c.cfg.OutputOptions()); err != nil {
				_ = closeOut()
				return err
			}
			if err := closeOut(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d points could not be mapped", failed, len(pts))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&matrix, "matrix", "", "16 column-major matrix values")
	cmd.Flags().StringVar(&src, "src", "", "four source points")
	cmd.Flags().StringVar(&dst, "dst", "", "four destination points")
	cmd.Flags().StringVar(&fixture, "fixture", "", "JSON file with source and destination points")
	cmd.Flags().BoolVar(&inverse, "inverse", false, "map from destination back to source")
	cmd.MarkFlagsMutuallyExclusive("matrix", "src")
	cmd.MarkFlagsMutuallyExclusive("matrix", "fixture")
	addOutputFlags(cmd)
	return cmd
}

// resolveMatrix returns the explicit matrix or estimates one from the
// correspondence flags.
func resolveMatrix(c *cli, matrix, src, dst, fixture string) (homography.Matrix4, error) {
	if matrix != "" {
		m, err := parseMatrix(matrix)
		if err != nil {
			return m, err
		}
		if !m.IsFinite() {
			return m, errors.New("matrix contains non-finite values")
		}
		return m, nil
	}
	s, d, err := correspondenceFromFlags(src, dst, fixture)
	if err != nil {
		return homography.Matrix4{}, err
	}
	m, err := homography.Estimate(s, d, c.cfg.SolverOptions()...)
	if err != nil {
		return m, fmt.Errorf("estimation failed: %w", err)
	}
	return m, nil
}
