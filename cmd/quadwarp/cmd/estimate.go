package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/quadwarp/internal/common"
	"github.com/MeKo-Tech/quadwarp/internal/homography"
	"github.com/MeKo-Tech/quadwarp/internal/output"
)

func newEstimateCommand(c *cli) *cobra.Command {
	var src, dst, fixture string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the homography between two quadrilaterals",
		Long: `Estimate the planar homography that maps four source points onto four
destination points and print it as a 4x4 column-major matrix.

Points are written as x,y and separated by spaces or semicolons. A fixture
file holds the same data as JSON: {"source": [...], "destination": [...]}.

Examples:
  quadwarp estimate --src "0,0 1,0 1,1 0,1" --dst "0,0 2,0 2,2 0,2"
  quadwarp estimate --fixture quad.json --format json
  quadwarp estimate --src "..." --dst "..." --precision 3 --language de`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, d, err := correspondenceFromFlags(src, dst, fixture)
			if err != nil {
				return err
			}

			timer := common.Start("estimate")
			m, err := homography.Estimate(s, d, c.cfg.SolverOptions()...)
			timer.Stop()
			if err != nil {
				return fmt.Errorf("estimation failed: %w", err)
			}
			c.log.Debug("estimated homography", "timer", timer, "matrix", m.String())

			w, closeOut, err := c.outputWriter(cmd)
			if err != nil {
				return err
			}
			if err := output.WriteMatrix(w, m, c.cfg.OutputOptions()); err != nil {
				_ = closeOut()
				return err
			}
			return closeOut()
		},
	}

	cmd.Flags().StringVar(&src, "src", "", "four source points, e.g. \"0,0 1,0 1,1 0,1\"")
	cmd.Flags().StringVar(&dst, "dst", "", "four destination points")
	cmd.Flags().StringVar(&fixture, "fixture", "", "JSON file with source and destination points")
	addOutputFlags(cmd)
	return cmd
}

// addOutputFlags registers the formatting flags shared by the text
// producing commands.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "output format: text, json, yaml, csv")
	cmd.Flags().Int("precision", 6, "decimals printed in text output")
	cmd.Flags().String("language", "en", "language for number formatting in text output")
	cmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")
	bindFlag(cmd.Flags(), "format", "output.format")
	bindFlag(cmd.Flags(), "precision", "output.precision")
	bindFlag(cmd.Flags(), "language", "output.language")
	bindFlag(cmd.Flags(), "output", "output.file")
}
