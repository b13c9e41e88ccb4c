// Package warp renders raster content through a homography.
//
// Every output pixel is mapped back into the source with the inverse
// transform and bilinearly sampled, so the result has no holes regardless of
// how strongly the quad is distorted.
package warp

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
)

// DefaultOutputHeight is the rectified height used when none is configured.
const DefaultOutputHeight = 1024

// Output size limits. MaxOutputPixels is the default pixel budget and can be
// lowered or raised per call with Options.MaxPixels.
const (
	MaxOutputSide   = 1 << 15
	MaxOutputPixels = 1 << 25
)

var (
	// ErrQuadTooSmall is returned by Rectify when the quad spans a pixel or less.
	ErrQuadTooSmall = errors.New("warp: quad too small to rectify")

	// ErrOutputTooLarge is returned when the requested output exceeds
	// MaxOutputSide on either axis or the pixel budget.
	ErrOutputTooLarge = errors.New("warp: output too large")
)

// Options controls Image.
type Options struct {
	// Width and Height of the output; zero means the source size.
	Width  int
	Height int
	// Background fills output pixels that map outside the source.
	Background color.NRGBA
	// DebugDir, when set, receives overlay and comparison PNGs.
	DebugDir string
	// MaxPixels caps Width x Height; zero means MaxOutputPixels.
	MaxPixels int
}

// checkSize rejects outputs that are too large to allocate.
func (o Options) checkSize(w, h int) error {
	limit := o.MaxPixels
	if limit <= 0 {
		limit = MaxOutputPixels
	}
	if w > MaxOutputSide || h > MaxOutputSide || w*h > limit {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels (at most %d per side)",
			ErrOutputTooLarge, w, h, limit, MaxOutputSide)
	}
	return nil
}

// Image warps src through m. A source pixel at (x, y) lands at
// MapForward((x, y), m) in the output.
func Image(ctx context.Context, src image.Image, m homography.Matrix4, opts Options) (*image.NRGBA, error) {
	if src == nil {
		return nil, &ImageError{Operation: "warp", Err: errors.New("nil source image")}
	}
	inv, err := m.Inverse()
	if err != nil {
		return nil, fmt.Errorf("warp: %w", err)
	}

	sb := src.Bounds()
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = sb.Dx()
	}
	if h <= 0 {
		h = sb.Dy()
	}
	if err := opts.checkSize(w, h); err != nil {
		return nil, err
	}

	// Work on a zero-origin NRGBA copy so sampling indexes Pix directly.
	s := imaging.Clone(src)
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := range h {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := range w {
			c := opts.Background
			if sx, sy, ok := sourcePoint(inv, float64(x), float64(y)); ok {
				if v, ok := bilinearSample(s, sx, sy); ok {
					c = v
				}
			}
			i := out.PixOffset(x, y)
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = c.A
		}
	}

	if opts.DebugDir != "" {
		// Outline of the source frame as it lands in the output.
		if outline, err := homography.MapForwardAll(boundsQuad(sb.Dx(), sb.Dy()), m); err == nil {
			if err := DumpOverlay(opts.DebugDir, out, outline); err != nil {
				slog.Warn("warp: debug dump failed", "dir", opts.DebugDir, "error", err)
			}
		}
	}
	return out, nil
}

// Rectify unwarps the quadrilateral quad of src (corners TL, TR, BR, BL)
// into an upright image of the given height. The width follows the quad's
// aspect ratio; both sides are rounded down to multiples of 32.
func Rectify(ctx context.Context, src image.Image, quad [4]homography.Point, outHeight int, opts Options) (*image.NRGBA, error) {
	avgW := (quad[1].Dist(quad[0]) + quad[2].Dist(quad[3])) * 0.5
	avgH := (quad[3].Dist(quad[0]) + quad[2].Dist(quad[1])) * 0.5
	if avgW <= 1 || avgH <= 1 {
		return nil, ErrQuadTooSmall
	}

	w, h, err := RectifiedSize(avgW, avgH, outHeight)
	if err != nil {
		return nil, err
	}
	if err := opts.checkSize(w, h); err != nil {
		return nil, err
	}
	target := homography.CornersOfRectangle(homography.Rect{Width: float64(w - 1), Height: float64(h - 1)})

	m, err := homography.EstimateQuad(quad, target)
	if err != nil {
		return nil, fmt.Errorf("warp: rectify: %w", err)
	}

	debugDir := opts.DebugDir
	if debugDir != "" {
		if err := DumpOverlay(debugDir, src, quad[:]); err != nil {
			slog.Warn("warp: debug dump failed", "dir", debugDir, "error", err)
		}
	}
	opts.Width, opts.Height, opts.DebugDir = w, h, ""
	out, err := Image(ctx, src, m, opts)
	if err != nil {
		return nil, err
	}

	if debugDir != "" {
		if err := DumpCompare(debugDir, src, quad[:], out); err != nil {
			slog.Warn("warp: debug dump failed", "dir", debugDir, "error", err)
		}
	}
	return out, nil
}

// RectifiedSize returns the output dimensions for a quad with the given
// average edge lengths. Sides above MaxOutputSide are ErrOutputTooLarge.
func RectifiedSize(avgW, avgH float64, outHeight int) (int, int, error) {
	targetH := outHeight
	if targetH <= 0 {
		targetH = DefaultOutputHeight
	}
	fw := (avgW / avgH) * float64(targetH)
	if targetH > MaxOutputSide || !(fw <= MaxOutputSide) {
		return 0, 0, fmt.Errorf("%w: %.0fx%d exceeds %d per side", ErrOutputTooLarge, fw, targetH, MaxOutputSide)
	}
	targetW := int(fw)

	targetW = (targetW / 32) * 32
	targetH = (targetH / 32) * 32
	if targetW < 32 {
		targetW = 32
	}
	if targetH < 32 {
		targetH = 32
	}
	return targetW, targetH, nil
}

// sourcePoint maps an output pixel back through inv. It reports false for the
// same points homography.MapForward rejects as degenerate.
func sourcePoint(inv homography.Matrix4, x, y float64) (float64, float64, bool) {
	sx, sy, _, sw := inv.MulVec4(x, y, 0, 1)
	if !(math.Abs(sw) > homography.WEpsilon) || math.IsInf(sw, 0) {
		return 0, 0, false
	}
	sx, sy = sx/sw, sy/sw
	if math.IsNaN(sx) || math.IsNaN(sy) || math.IsInf(sx, 0) || math.IsInf(sy, 0) {
		return 0, 0, false
	}
	return sx, sy, true
}

func boundsQuad(w, h int) []homography.Point {
	c := homography.CornersOfRectangle(homography.Rect{Width: float64(w - 1), Height: float64(h - 1)})
	return c[:]
}

// bilinearSample reads src at a fractional position. Interpolation happens on
// premultiplied values so transparent neighbours do not bleed color.
func bilinearSample(src *image.NRGBA, x, y float64) (color.NRGBA, bool) {
	b := src.Bounds()
	if x < float64(b.Min.X) || y < float64(b.Min.Y) || x > float64(b.Max.X-1) || y > float64(b.Max.Y-1) {
		return color.NRGBA{}, false
	}
	x0 := int(x)
	y0 := int(y)
	x1 := min(x0+1, b.Max.X-1)
	y1 := min(y0+1, b.Max.Y-1)
	fx := x - float64(x0)
	fy := y - float64(y0)

	c00 := premul(src, x0, y0)
	c10 := premul(src, x1, y0)
	c01 := premul(src, x0, y1)
	c11 := premul(src, x1, y1)

	var v [4]float64
	for k := range 4 {
		v[k] = lerp(lerp(c00[k], c10[k], fx), lerp(c01[k], c11[k], fx), fy)
	}
	a := v[3]
	if a <= 0 {
		return color.NRGBA{}, true
	}
	return color.NRGBA{
		R: clamp8(v[0] * 255 / a),
		G: clamp8(v[1] * 255 / a),
		B: clamp8(v[2] * 255 / a),
		A: clamp8(a),
	}, true
}

func premul(img *image.NRGBA, x, y int) [4]float64 {
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	a := float64(p[3])
	return [4]float64{float64(p[0]) * a / 255, float64(p[1]) * a / 255, float64(p[2]) * a / 255, a}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
