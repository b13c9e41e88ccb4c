package warp

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

// SupportedExtensions lists the file extensions Load and Save accept.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff"}

// ImageError wraps a failure in one of the image IO steps.
type ImageError struct {
	Operation string
	Err       error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s: %v", e.Operation, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// IsSupported reports whether path has an extension Load understands.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Load opens and decodes an image file, applying EXIF orientation.
func Load(path string) (image.Image, error) {
	if path == "" {
		return nil, &ImageError{Operation: "load", Err: errors.New("empty path")}
	}
	if !IsSupported(path) {
		return nil, &ImageError{Operation: "load", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &ImageError{Operation: "load", Err: err}
	}
	return img, nil
}

// Decode reads an image from r in any registered format.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &ImageError{Operation: "decode", Err: err}
	}
	return img, nil
}

// Save writes img to path, picking the encoder from the extension.
func Save(img image.Image, path string) error {
	if img == nil {
		return &ImageError{Operation: "save", Err: errors.New("nil image")}
	}
	if !IsSupported(path) {
		return &ImageError{Operation: "save", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
	}
	if err := imaging.Save(img, path); err != nil {
		return &ImageError{Operation: "save", Err: err}
	}
	return nil
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return &ImageError{Operation: "encode", Err: err}
	}
	return nil
}
