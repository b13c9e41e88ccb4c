package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
	"github.com/MeKo-Tech/quadwarp/internal/output"
	"github.com/MeKo-Tech/quadwarp/internal/scene"
	"github.com/MeKo-Tech/quadwarp/internal/warp"
)

func newRenderCommand(c *cli) *cobra.Command {
	var (
		corners, polyline, pointer string
		out, state                 string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the corner-drag scene to an image",
		Long: `Build the interactive corner-drag scene without a window and render it.

The scene starts with a rectangle covering 70% of the canvas. --corners
moves its four corners, --polyline draws a free-hand line in screen space
and --pointer places the pointer. The rendered frame is written as PNG and
the scene state can be printed as JSON or YAML.

Examples:
  quadwarp render -o scene.png
  quadwarp render --corners "100,50 900,100 850,700 120,650" -o scene.png
  quadwarp render --corners "..." --polyline "300,300 400,320 500,300" --state json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" && state == "" {
				return errors.New("nothing to do: give --output and/or --state")
			}

			sc := scene.New(c.cfg.Scene.Width, c.cfg.Scene.Height,
				append(c.cfg.SceneOptions(), scene.WithLogger(c.log))...)

			if corners != "" {
				quad, err := parseQuad(corners)
				if err != nil {
					return fmt.Errorf("invalid --corners: %w", err)
				}
				if err := sc.SetCorners(quad); err != nil {
					return fmt.Errorf("cannot move corners: %w", err)
				}
			}
			if polyline != "" {
				pts, err := parsePoints(polyline)
				if err != nil {
					return fmt.Errorf("invalid --polyline: %w", err)
				}
				if err := drawPolyline(sc, pts); err != nil {
					return err
				}
			}
			if pointer != "" {
				p, err := parsePoint(pointer)
				if err != nil {
					return fmt.Errorf("invalid --pointer: %w", err)
				}
				sc.PointerMoved(p)
			}

			if out != "" {
				if err := warp.Save(sc.Render(), out); err != nil {
					return err
				}
				c.log.Info("rendered scene", "output", out,
					"width", c.cfg.Scene.Width, "height", c.cfg.Scene.Height)
			}
			if state != "" {
				f, err := output.ParseFormat(state)
				if err != nil {
					return err
				}
				return output.WriteValue(cmd.OutOrStdout(), sc.Snapshot(), f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&corners, "corners", "", "destination corners: TL TR BR BL")
	cmd.Flags().StringVar(&polyline, "polyline", "", "free-hand polyline points in screen space")
	cmd.Flags().StringVar(&pointer, "pointer", "", "pointer position x,y")
	cmd.Flags().StringVarP(&out, "output", "o", "", "PNG file for the rendered frame")
	cmd.Flags().StringVar(&state, "state", "", "print the scene state: json or yaml")
	cmd.Flags().Int("width", 1024, "canvas width")
	cmd.Flags().Int("height", 768, "canvas height")
	bindFlag(cmd.Flags(), "width", "scene.width")
	bindFlag(cmd.Flags(), "height", "scene.height")
	return cmd
}

// drawPolyline replays pts as a press, drags and a release. A polyline must
// not start on a corner handle, or the press grabs the corner instead.
func drawPolyline(sc *scene.Scene, pts []homography.Point) error {
	if len(pts) == 0 {
		return nil
	}
	if sc.PointerPressed(pts[0]) {
		_ = sc.PointerReleased(pts[0])
		return fmt.Errorf("polyline starts on a corner handle at %v", pts[0])
	}
	for _, p := range pts[1:] {
		if err := sc.PointerDragged(p); err != nil {
			return err
		}
	}
	return sc.PointerReleased(pts[len(pts)-1])
}
