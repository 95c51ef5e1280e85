// Package imagesrc decodes user supplied images into RGBA rasters.
package imagesrc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/anthonynsimon/bild/clone"
	"github.com/h2non/filetype"
	"github.com/mitchellh/go-homedir"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxUploadBytes caps how much is read from an upload.
const MaxUploadBytes = 32 << 20

// MaxPixels caps the decoded width*height of an upload.
const MaxPixels = 64 << 20

// ErrNotImage reports content that is not a supported raster format.
var ErrNotImage = errors.New("not a supported image")

// ErrTooLarge reports an image whose declared dimensions exceed MaxPixels.
var ErrTooLarge = errors.New("image dimensions too large")

var supported = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// Sniff returns the MIME type of data, or ErrNotImage.
func Sniff(data []byte) (string, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return "", fmt.Errorf("sniff: %w", err)
	}
	if kind == filetype.Unknown || !supported[kind.MIME.Value] {
		return "", ErrNotImage
	}
	return kind.MIME.Value, nil
}

// DecodeBytes sniffs and decodes data into an RGBA image.
func DecodeBytes(data []byte) (*image.RGBA, string, error) {
	mime, err := Sniff(data)
	if err != nil {
		return nil, "", err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, mime, fmt.Errorf("decode %s: %w", mime, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, mime, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, mime, fmt.Errorf("decode %s: %w", mime, err)
	}
	return clone.AsRGBA(img), mime, nil
}

// Decode reads at most MaxUploadBytes from r and decodes it.
func Decode(r io.Reader) (*image.RGBA, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > MaxUploadBytes {
		return nil, "", fmt.Errorf("image larger than %d bytes", MaxUploadBytes)
	}
	return DecodeBytes(data)
}

// DecodeFile opens path, expanding a leading ~, and decodes it.
func DecodeFile(path string) (*image.RGBA, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(expanded)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Scale resamples img to size. An image already at that size is copied.
func Scale(img image.Image, size image.Point) *image.RGBA {
	b := img.Bounds()
	if b.Size() == size {
		return clone.AsRGBA(img)
	}
	dst := image.NewRGBA(image.Rectangle{Max: size})
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
