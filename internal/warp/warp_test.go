package warp

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
)

// gradient returns an opaque image whose pixel (x, y) encodes its position.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func filled(w, h int, bg color.NRGBA, r image.Rectangle, fg color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if image.Pt(x, y).In(r) {
				img.SetNRGBA(x, y, fg)
			} else {
				img.SetNRGBA(x, y, bg)
			}
		}
	}
	return img
}

func TestImage_Identity(t *testing.T) {
	src := gradient(40, 30)
	out, err := Image(context.Background(), src, homography.Identity(), Options{})
	require.NoError(t, err)

	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, src.Pix, out.Pix)
}

func TestImage_Translation(t *testing.T) {
	src := gradient(20, 20)
	m := homography.FromH3([9]float64{1, 0, 5, 0, 1, 3, 0, 0, 1})
	bg := color.NRGBA{R: 1, G: 2, B: 3, A: 4}

	out, err := Image(context.Background(), src, m, Options{Width: 30, Height: 30, Background: bg})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 30), out.Bounds())

	assert.Equal(t, bg, out.NRGBAAt(0, 0), "maps outside the source")
	assert.Equal(t, src.NRGBAAt(0, 0), out.NRGBAAt(5, 3))
	assert.Equal(t, src.NRGBAAt(10, 12), out.NRGBAAt(15, 15))
	assert.Equal(t, bg, out.NRGBAAt(25, 25))
}

func TestImage_SingularMatrix(t *testing.T) {
	_, err := Image(context.Background(), gradient(4, 4), homography.Matrix4{}, Options{})
	assert.ErrorIs(t, err, homography.ErrSingular)
}

func TestImage_NilSource(t *testing.T) {
	_, err := Image(context.Background(), nil, homography.Identity(), Options{})
	var ie *ImageError
	assert.ErrorAs(t, err, &ie)
}

func TestImage_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Image(ctx, gradient(8, 8), homography.Identity(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImage_DebugDir(t *testing.T) {
	dir := t.TempDir()
	_, err := Image(context.Background(), gradient(16, 16), homography.Identity(), Options{DebugDir: dir})
	require.NoError(t, err)
	assert.NotEmpty(t, listDir(t, dir))
}

func TestRectify_AxisAlignedSquare(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	src := filled(200, 200, white, image.Rect(50, 50, 151, 151), red)
	quad := homography.CornersOfRectangle(homography.Rect{X: 50, Y: 50, Width: 100, Height: 100})

	out, err := Rectify(context.Background(), src, quad, 64, Options{})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), out.Bounds())

	for y := range 64 {
		for x := range 64 {
			require.Equal(t, red, out.NRGBAAt(x, y), "pixel (%d, %d)", x, y)
		}
	}
}

func TestRectify_Perspective(t *testing.T) {
	src := gradient(200, 120)
	quad := [4]homography.Point{
		homography.Pt(20, 10), homography.Pt(180, 25),
		homography.Pt(170, 110), homography.Pt(30, 100),
	}
	dir := t.TempDir()

	out, err := Rectify(context.Background(), src, quad, 100, Options{DebugDir: dir})
	require.NoError(t, err)
	// Height rounds down to 96; width keeps the quad's aspect.
	assert.Equal(t, 96, out.Bounds().Dy())
	assert.Equal(t, 0, out.Bounds().Dx()%32)
	assert.Greater(t, out.Bounds().Dx(), out.Bounds().Dy())

	// The top-left output pixel samples the first quad corner.
	assert.Equal(t, src.NRGBAAt(20, 10), out.NRGBAAt(0, 0))
	assert.Len(t, listDir(t, dir), 2, "overlay and comparison")
}

func TestRectify_TooSmall(t *testing.T) {
	quad := [4]homography.Point{homography.Pt(1, 1), homography.Pt(1.5, 1), homography.Pt(1.5, 1.5), homography.Pt(1, 1.5)}
	_, err := Rectify(context.Background(), gradient(8, 8), quad, 0, Options{})
	assert.ErrorIs(t, err, ErrQuadTooSmall)
}

func TestRectify_CollinearQuad(t *testing.T) {
	quad := [4]homography.Point{homography.Pt(0, 0), homography.Pt(50, 0), homography.Pt(100, 0), homography.Pt(0, 50)}
	_, err := Rectify(context.Background(), gradient(120, 120), quad, 64, Options{})
	assert.ErrorIs(t, err, homography.ErrSingular)
}

func TestRectifiedSize(t *testing.T) {
	tests := []struct {
		name       string
		avgW, avgH float64
		height     int
		wantW      int
		wantH      int
	}{
		{"default height", 100, 100, 0, 1024, 1024},
		{"wide", 300, 100, 64, 192, 64},
		{"rounds down", 100, 100, 100, 96, 96},
		{"minimum width", 10, 1000, 64, 32, 64},
		{"minimum height", 100, 100, 5, 32, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := RectifiedSize(tt.avgW, tt.avgH, tt.height)
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestRectifiedSize_TooLarge(t *testing.T) {
	tests := []struct {
		name       string
		avgW, avgH float64
		height     int
	}{
		{"extreme aspect", 1e9, 2, 1024},
		{"huge height", 100, 100, 1 << 30},
		{"just over the side limit", 100, 100, MaxOutputSide + 32},
		{"infinite aspect", math.Inf(1), 1, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := RectifiedSize(tt.avgW, tt.avgH, tt.height)
			assert.ErrorIs(t, err, ErrOutputTooLarge)
		})
	}

	w, h, err := RectifiedSize(100, 100, MaxOutputSide)
	require.NoError(t, err)
	assert.Equal(t, MaxOutputSide, w)
	assert.Equal(t, MaxOutputSide, h)
}

func TestRectify_PixelBudget(t *testing.T) {
	src := gradient(64, 64)
	quad := [4]homography.Point{homography.Pt(0, 0), homography.Pt(63, 0), homography.Pt(63, 63), homography.Pt(0, 63)}

	_, err := Rectify(context.Background(), src, quad, 128, Options{MaxPixels: 64 * 64})
	assert.ErrorIs(t, err, ErrOutputTooLarge)

	_, err = Rectify(context.Background(), src, quad, 1<<20, Options{})
	assert.ErrorIs(t, err, ErrOutputTooLarge)

	out, err := Rectify(context.Background(), src, quad, 64, Options{MaxPixels: 64 * 64})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), out.Bounds())
}

func TestImage_PixelBudget(t *testing.T) {
	_, err := Image(context.Background(), gradient(4, 4), homography.Identity(), Options{Width: MaxOutputSide + 1, Height: 1})
	assert.ErrorIs(t, err, ErrOutputTooLarge)

	_, err = Image(context.Background(), gradient(4, 4), homography.Identity(), Options{Width: 20, Height: 20, MaxPixels: 399})
	assert.ErrorIs(t, err, ErrOutputTooLarge)
}

func TestSourcePoint_AgreesWithMapForward(t *testing.T) {
	eps := homography.WEpsilon
	for _, w := range []float64{0, eps / 2, eps, -eps, eps * 2, -eps * 2, 1, math.NaN(), math.Inf(1)} {
		inv := homography.FromH3([9]float64{1, 0, 0, 0, 1, 0, 0, 0, w})
		sx, sy, ok := sourcePoint(inv, 3, 4)
		want, err := homography.MapForward(homography.Pt(3, 4), inv)

		assert.Equal(t, err == nil, ok, "w=%g", w)
		if ok {
			assert.InDelta(t, want.X, sx, 1e-9)
			assert.InDelta(t, want.Y, sy, 1e-9)
		}
	}
}

func TestBilinearSample(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})

	c, ok := bilinearSample(img, 0.5, 0)
	require.True(t, ok)
	assert.Equal(t, color.NRGBA{R: 100, G: 100, B: 100, A: 255}, c)

	_, ok = bilinearSample(img, -0.1, 0)
	assert.False(t, ok)
	_, ok = bilinearSample(img, 1.01, 0)
	assert.False(t, ok)

	c, ok = bilinearSample(img, 1, 0)
	require.True(t, ok, "last column is in range")
	assert.Equal(t, uint8(200), c.R)
}

func TestBilinearSample_TransparentNeighbour(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 0})

	c, ok := bilinearSample(img, 0.5, 0)
	require.True(t, ok)
	assert.Equal(t, color.NRGBA{R: 255, A: 128}, c, "hidden green does not bleed")
}
