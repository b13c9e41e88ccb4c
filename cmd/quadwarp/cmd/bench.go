package cmd

import (
	"context"
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/quadwarp/internal/common"
	"github.com/MeKo-Tech/quadwarp/internal/homography"
	"github.com/MeKo-Tech/quadwarp/internal/output"
	"github.com/MeKo-Tech/quadwarp/internal/warp"
)

// benchSource and benchDest are a mild perspective distortion of a page.
var (
	benchSource = []homography.Point{{X: 0, Y: 0}, {X: 640, Y: 0}, {X: 640, Y: 480}, {X: 0, Y: 480}}
	benchDest   = []homography.Point{{X: 20, Y: 35}, {X: 610, Y: 10}, {X: 630, Y: 470}, {X: 5, Y: 440}}
)

func newBenchCommand(c *cli) *cobra.Command {
	var (
		iterations int
		withWarp   bool
		format     string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure estimation, mapping and inversion speed",
		Long: `Run the core operations in a loop and report time and allocations per
operation. --warp adds a rectification of a synthetic 640x480 image.

Examples:
  quadwarp bench
  quadwarp bench --iterations 100000 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if iterations <= 0 {
				return fmt.Errorf("invalid --iterations: %d (must be positive)", iterations)
			}
			results, err := runBenchmarks(cmd.Context(), c, iterations, withWarp)
			if err != nil {
				return err
			}

			if format == "text" {
				for _, r := range results {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), r.String()); err != nil {
						return err
					}
				}
				return nil
			}
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			return output.WriteValue(cmd.OutOrStdout(), results, f)
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 10000, "iterations per operation")
	cmd.Flags().BoolVar(&withWarp, "warp", false, "also benchmark image rectification")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	return cmd
}

func runBenchmarks(ctx context.Context, c *cli, iterations int, withWarp bool) ([]common.BenchmarkResult, error) {
	opts := c.cfg.SolverOptions()
	m, err := homography.Estimate(benchSource, benchDest, opts...)
	if err != nil {
		return nil, err
	}
	probe := homography.Pt(320, 240)

	results := []common.BenchmarkResult{
		common.Run("estimate", iterations, func() error {
			_, err := homography.Estimate(benchSource, benchDest, opts...)
			return err
		}),
		common.Run("map_forward", iterations, func() error {
			_, err := homography.MapForward(probe, m)
			return err
		}),
		common.Run("map_inverse", iterations, func() error {
			_, err := homography.MapInverse(probe, m)
			return err
		}),
		common.Run("inverse", iterations, func() error {
			_, err := m.Inverse()
			return err
		}),
	}

	if withWarp {
		src := imaging.New(640, 480, color.NRGBA{R: 200, G: 180, B: 160, A: 255})
		var quad [4]homography.Point
		copy(quad[:], benchDest)
		// Rectification is orders of magnitude slower than the point
		// operations.
		n := max(1, iterations/1000)
		results = append(results, common.Run("rectify", n, func() error {
			_, err := warp.Rectify(ctx, src, quad, 480, c.cfg.WarpOptions())
			return err
		}))
	}

	for _, r := range results {
		c.log.Debug("benchmark finished", "name", r.Name, "per_op", r.PerOp(), "allocs_per_op", r.AllocsPerOp())
		if r.Error != nil {
			return results, fmt.Errorf("benchmark %s failed: %w", r.Name, r.Error)
		}
	}
	return results, nil
}
