package warp

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
)

const markerRadius = 6

// Overlay returns a copy of src with quad outlined in red and each corner
// marked, the first corner filled so the traversal order is visible.
func Overlay(src image.Image, quad []homography.Point) image.Image {
	dc := gg.NewContextForImage(src)
	drawQuad(dc, quad, 0, color.NRGBA{R: 255, A: 255})
	return dc.Image()
}

func drawQuad(dc *gg.Context, quad []homography.Point, dx float64, c color.Color) {
	if len(quad) < 2 {
		return
	}
	dc.SetColor(c)
	dc.SetLineWidth(2)
	dc.MoveTo(quad[0].X+dx, quad[0].Y)
	for _, p := range quad[1:] {
		dc.LineTo(p.X+dx, p.Y)
	}
	dc.ClosePath()
	dc.Stroke()

	for i, p := range quad {
		dc.DrawCircle(p.X+dx, p.Y, markerRadius)
		if i == 0 {
			dc.Fill()
		} else {
			dc.Stroke()
		}
	}
}

// DumpOverlay writes Overlay(src, quad) as a timestamped PNG into dir.
func DumpOverlay(dir string, src image.Image, quad []homography.Point) error {
	path, err := debugPath(dir, "overlay")
	if err != nil {
		return err
	}
	return Save(Overlay(src, quad), path)
}

// DumpCompare writes src and dst side by side, with quad outlined on src and
// dst framed in green.
func DumpCompare(dir string, src image.Image, quad []homography.Point, dst image.Image) error {
	path, err := debugPath(dir, "compare")
	if err != nil {
		return err
	}

	const gap = 10
	sb, db := src.Bounds(), dst.Bounds()
	canvas := imaging.New(sb.Dx()+gap+db.Dx(), max(sb.Dy(), db.Dy()), color.Black)
	canvas = imaging.Paste(canvas, src, image.Pt(0, 0))
	xoff := sb.Dx() + gap
	canvas = imaging.Paste(canvas, dst, image.Pt(xoff, 0))

	dc := gg.NewContextForImage(canvas)
	drawQuad(dc, quad, float64(-sb.Min.X), color.NRGBA{R: 255, A: 255})
	dc.SetColor(color.NRGBA{G: 255, A: 255})
	dc.SetLineWidth(2)
	dc.DrawRectangle(float64(xoff)+1, 1, float64(db.Dx())-2, float64(db.Dy())-2)
	dc.Stroke()

	return Save(dc.Image(), path)
}

func debugPath(dir, kind string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("warp_%s_%d.png", kind, time.Now().UnixNano())), nil
}
