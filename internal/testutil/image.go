package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fogleman/gg"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

// SmallSize is the default document size.
var SmallSize = ImageSize{320, 240}

// DocumentConfig describes a synthetic upright document.
type DocumentConfig struct {
	Text       string
	Size       ImageSize
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
}

// DefaultDocumentConfig returns a small white page with a centered label.
func DefaultDocumentConfig() DocumentConfig {
	return DocumentConfig{
		Text:       "quadwarp",
		Size:       SmallSize,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
	}
}

// GenerateDocument renders config.Text centered on a plain page.
func GenerateDocument(config DocumentConfig) *image.RGBA {
	img := CreateTestImage(config.Size.Width, config.Size.Height, config.Background)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{config.Foreground},
		Face: config.FontFace,
	}
	textWidth := font.MeasureString(config.FontFace, config.Text).Ceil()
	textHeight := config.FontFace.Metrics().Height.Ceil()
	drawer.Dot = fixed.P((config.Size.Width-textWidth)/2, (config.Size.Height+textHeight)/2)
	drawer.DrawString(config.Text)
	return img
}

// GenerateQuadImage fills quad with fg on a w x h canvas of bg, the way a
// photographed sheet of paper looks to the rectifier.
func GenerateQuadImage(w, h int, quad [4]homography.Point, fg, bg color.Color) image.Image {
	dc := gg.NewContext(w, h)
	dc.SetColor(bg)
	dc.Clear()
	dc.MoveTo(quad[0].X, quad[0].Y)
	for _, p := range quad[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.SetColor(fg)
	dc.Fill()
	return dc.Image()
}

// CreateTestImage creates a solid image with the specified dimensions and color.
func CreateTestImage(width, height int, backgroundColor color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)
	return img
}

// Checkerboard returns a w x h black and white board with square cells.
func Checkerboard(w, h, cell int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := color.NRGBA{A: 255}
			if (x/cell+y/cell)%2 == 0 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// SaveImage saves an image as PNG, creating the directory.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	dir := filepath.Dir(path)
	require.NoError(t, EnsureDir(dir), "Failed to create directory %s", dir)

	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

// LoadImage loads an image from the specified path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()

	file, err := os.Open(path) //nolint:gosec // G304: Test file reading with controlled path
	require.NoError(t, err, "Failed to open image file %s", path)
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	require.NoError(t, err, "Failed to decode image")
	return img
}

// CompareImages reports whether the mean per-pixel RGBA distance of two
// equally sized images, relative to the largest possible distance, is at
// most tolerance.
func CompareImages(img1, img2 image.Image, tolerance float64) bool {
	b1, b2 := img1.Bounds(), img2.Bounds()
	if b1.Dx() != b2.Dx() || b1.Dy() != b2.Dy() {
		return false
	}
	if b1.Empty() {
		return true
	}

	var totalDiff float64
	for y := range b1.Dy() {
		for x := range b1.Dx() {
			r1, g1, bl1, a1 := img1.At(b1.Min.X+x, b1.Min.Y+y).RGBA()
			r2, g2, bl2, a2 := img2.At(b2.Min.X+x, b2.Min.Y+y).RGBA()

			dr := float64(r1) - float64(r2)
			dg := float64(g1) - float64(g2)
			db := float64(bl1) - float64(bl2)
			da := float64(a1) - float64(a2)
			totalDiff += math.Sqrt(dr*dr + dg*dg + db*db + da*da)
		}
	}

	avgDiff := totalDiff / float64(b1.Dx()*b1.Dy())
	maxDiff := math.Sqrt(4 * 65535 * 65535)
	return avgDiff/maxDiff <= tolerance
}

// FractionOf returns the share of pixels whose color is within 8 (of 255)
// per channel of want.
func FractionOf(img image.Image, want color.Color) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}
	wr, wg, wb, wa := want.RGBA()
	near := func(a, b uint32) bool {
		d := int64(a) - int64(b)
		return d >= -8*257 && d <= 8*257
	}
	hits := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if near(r, wr) && near(g, wg) && near(bl, wb) && near(a, wa) {
				hits++
			}
		}
	}
	return float64(hits) / float64(b.Dx()*b.Dy())
}
