package support

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
	"github.com/MeKo-Tech/quadwarp/internal/testutil"
	"github.com/MeKo-Tech/quadwarp/internal/warp"
)

// namedColors are the colors scenarios may refer to.
var namedColors = map[string]color.NRGBA{
	"red":   {R: 255, A: 255},
	"green": {G: 255, A: 255},
	"blue":  {B: 255, A: 255},
	"white": {R: 255, G: 255, B: 255, A: 255},
	"black": {A: 255},
}

func colorByName(name string) (color.NRGBA, error) {
	c, ok := namedColors[name]
	if !ok {
		return c, fmt.Errorf("unknown color %q", name)
	}
	return c, nil
}

// aPhotoWithAQuad draws a filled quadrilateral on a white canvas, the way a
// photographed sheet looks.
func (testCtx *TestContext) aPhotoWithAQuad(name string, w, h int, colorName string, x0, y0, x1, y1, x2, y2, x3, y3 float64) error {
	fg, err := colorByName(colorName)
	if err != nil {
		return err
	}
	quad := [4]homography.Point{{X: x0, Y: y0}, {X: x1, Y: y1}, {X: x2, Y: y2}, {X: x3, Y: y3}}
	img := testutil.GenerateQuadImage(w, h, quad, fg, color.White)
	return warp.Save(img, testCtx.resolvePath(name))
}

func (testCtx *TestContext) aCheckerboardImage(name string, w, h, cell int) error {
	return warp.Save(testutil.Checkerboard(w, h, cell), testCtx.resolvePath(name))
}

func (testCtx *TestContext) aTextFile(name string) error {
	return testCtx.aConfigFileWith(name, &godog.DocString{Content: "this is not an image\n"})
}

func (testCtx *TestContext) loadImage(name string) (image.Image, error) {
	return warp.Load(testCtx.resolvePath(name))
}

func (testCtx *TestContext) theImageShouldBe(name string, w, h int) error {
	img, err := testCtx.loadImage(name)
	if err != nil {
		return err
	}
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		return fmt.Errorf("image %s is %dx%d, want %dx%d", name, b.Dx(), b.Dy(), w, h)
	}
	return nil
}

func (testCtx *TestContext) theImageShouldHaveHeightAndWidthMultipleOf32(name string, h int) error {
	img, err := testCtx.loadImage(name)
	if err != nil {
		return err
	}
	b := img.Bounds()
	if b.Dy() != h {
		return fmt.Errorf("image %s has height %d, want %d", name, b.Dy(), h)
	}
	if b.Dx() <= 0 || b.Dx()%32 != 0 {
		return fmt.Errorf("image %s has width %d, want a positive multiple of 32", name, b.Dx())
	}
	return nil
}

func (testCtx *TestContext) theImageShouldBeMostly(name, colorName string) error {
	want, err := colorByName(colorName)
	if err != nil {
		return err
	}
	img, err := testCtx.loadImage(name)
	if err != nil {
		return err
	}
	if f := testutil.FractionOf(img, want); f < 0.8 {
		return fmt.Errorf("only %.0f%% of %s is %s", f*100, name, colorName)
	}
	return nil
}

func (testCtx *TestContext) theImagesShouldDiffer(a, b string) error {
	ia, err := testCtx.loadImage(a)
	if err != nil {
		return err
	}
	ib, err := testCtx.loadImage(b)
	if err != nil {
		return err
	}
	if testutil.CompareImages(ia, ib, 0.001) {
		return errors.New("images are nearly identical")
	}
	return nil
}

// RegisterImageSteps registers steps that create and inspect images.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a (\d+)x(\d+) photo "([^"]*)" with a (\w+) quad at `+
		`(-?[\d.]+),(-?[\d.]+) (-?[\d.]+),(-?[\d.]+) (-?[\d.]+),(-?[\d.]+) (-?[\d.]+),(-?[\d.]+)$`,
		func(w, h int, name, colorName string, x0, y0, x1, y1, x2, y2, x3, y3 float64) error {
			return testCtx.aPhotoWithAQuad(name, w, h, colorName, x0, y0, x1, y1, x2, y2, x3, y3)
		})
	sc.Step(`^a (\d+)x(\d+) checkerboard image "([^"]*)" with (\d+) pixel cells$`,
		func(w, h int, name string, cell int) error {
			return testCtx.aCheckerboardImage(name, w, h, cell)
		})
	sc.Step(`^a text file "([^"]*)"$`, testCtx.aTextFile)
	sc.Step(`^the image "([^"]*)" should be (\d+)x(\d+)$`, testCtx.theImageShouldBe)
	sc.Step(`^the image "([^"]*)" should be (\d+) pixels high with a width that is a multiple of 32$`,
		testCtx.theImageShouldHaveHeightAndWidthMultipleOf32)
	sc.Step(`^the image "([^"]*)" should be mostly (\w+)$`, testCtx.theImageShouldBeMostly)
	sc.Step(`^the images "([^"]*)" and "([^"]*)" should differ$`, testCtx.theImagesShouldDiffer)
}
