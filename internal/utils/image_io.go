package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ImageProcessingError represents errors that can occur during image handling.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// LoadImage opens and decodes an image file.
func LoadImage(path string) (image.Image, error) {
	if path == "" {
		return nil, &ImageProcessingError{Operation: "load", Err: errors.New("empty path")}
	}
	f, err := os.Open(path) //nolint:gosec // G304: reading a user-provided sheet path is expected
	if err != nil {
		return nil, &ImageProcessingError{Operation: "load", Err: err}
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &ImageProcessingError{Operation: "decode", Err: err}
	}
	return img, nil
}

// DecodeImageBytes decodes an in-memory image buffer.
func DecodeImageBytes(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ImageProcessingError{Operation: "decode", Err: err}
	}
	return img, nil
}

// ToGray converts any image into a tightly packed *image.Gray with origin (0, 0).
func ToGray(img image.Image) *image.Gray {
	if img == nil {
		return nil
	}
	g := imaging.Grayscale(img)
	b := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), g, b.Min, draw.Src)
	return out
}

// SubGray returns a copy of the given region of a grayscale page.
// The region is clipped to the page bounds; an empty intersection yields nil.
func SubGray(src *image.Gray, rect image.Rectangle) *image.Gray {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil
	}
	out := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), src, rect.Min, draw.Src)
	return out
}

// SavePNG writes an image to path, creating parent directories as needed.
func SavePNG(img image.Image, path string) error {
	if img == nil {
		return &ImageProcessingError{Operation: "save", Err: errors.New("nil image")}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return &ImageProcessingError{Operation: "save", Err: err}
	}
	f, err := os.Create(path) //nolint:gosec // G304: writing to a caller-chosen debug directory
	if err != nil {
		return &ImageProcessingError{Operation: "save", Err: err}
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, img); err != nil {
		return &ImageProcessingError{Operation: "save", Err: err}
	}
	return nil
}
