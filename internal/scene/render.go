package scene

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
)

const (
	centerRadius  = 50
	markerRadius  = 10
	pointerRadius = 10
	circleSteps   = 64
)

var (
	colYellow  = color.NRGBA{R: 255, G: 255, A: 255}
	colBlack   = color.NRGBA{A: 255}
	colWhite   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	colRed     = color.NRGBA{R: 255, A: 255}
	colMagenta = color.NRGBA{R: 255, B: 255, A: 255}
	colLine    = color.NRGBA{A: 120}
	colBg      = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
)

// Render draws the scene: the original rectangle, its center circle, the
// marker and the pointer in warped space, then the corner handles, both
// polylines and the marker coordinates label in screen space.
func (s *Scene) Render() image.Image {
	st := s.Snapshot()
	m := homography.Matrix4(st.Matrix)

	dc := gg.NewContext(st.Width, st.Height)
	dc.SetColor(colBg)
	dc.Clear()

	// Projective maps keep straight lines straight, so the rectangle is exact;
	// circles become conics and are sampled.
	rect := homography.CornersOfRectangle(st.Rect)
	fillWarped(dc, m, rect[:], colYellow)
	fillWarped(dc, m, circle(st.Rect.Center(), centerRadius), colBlack)
	fillWarped(dc, m, circle(st.Marker, markerRadius), colRed)
	if st.PointerSource != nil {
		fillWarped(dc, m, circle(*st.PointerSource, pointerRadius), colMagenta)
	}

	for i, c := range st.Corners {
		drawHandle(dc, c, slices.Contains(st.Dragging, i), s.radius)
	}

	dc.SetColor(colLine)
	dc.SetLineWidth(4)
	strokePolyline(dc, st.Polyline)
	strokePolyline(dc, st.WarpedPolyline)

	if st.MarkerOnScreen != nil {
		p := *st.MarkerOnScreen
		dc.SetColor(colBlack)
		dc.SetFontFace(basicfont.Face7x13)
		dc.DrawString(fmt.Sprintf("Local coordinates %s", formatPoint(st.Marker)), p.X, p.Y)
		dc.DrawString(fmt.Sprintf("Screen coordinates %s", formatPoint(p)), p.X, p.Y+14)
	}
	return dc.Image()
}

func formatPoint(p homography.Point) string {
	return fmt.Sprintf("%.2f, %.2f, %.2f", p.X, p.Y, p.Z)
}

func circle(c homography.Point, r float64) []homography.Point {
	pts := make([]homography.Point, circleSteps)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circleSteps
		pts[i] = homography.Pt(c.X+r*math.Cos(a), c.Y+r*math.Sin(a))
	}
	return pts
}

// fillWarped maps pts forward and fills the resulting polygon. Shapes that
// cross the line at infinity are skipped.
func fillWarped(dc *gg.Context, m homography.Matrix4, pts []homography.Point, c color.Color) {
	warped, err := homography.MapForwardAll(pts, m)
	if err != nil {
		return
	}
	dc.NewSubPath()
	for _, p := range warped {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.SetColor(c)
	dc.Fill()
}

func drawHandle(dc *gg.Context, p homography.Point, dragging bool, radius float64) {
	if dragging {
		dc.SetColor(colRed)
		dc.SetLineWidth(1)
		dc.DrawCircle(p.X, p.Y, radius)
		dc.Stroke()
	}
	dc.SetColor(colBlack)
	dc.DrawCircle(p.X, p.Y, 6)
	dc.Fill()
	dc.SetColor(colWhite)
	dc.DrawCircle(p.X, p.Y, 4)
	dc.Fill()
}

func strokePolyline(dc *gg.Context, pts []homography.Point) {
	if len(pts) < 2 {
		return
	}
	dc.NewSubPath()
	for _, p := range pts {
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
}
