// Package clipboard copies finished memes to the system clipboard and pastes
// images from it as new base images.
package clipboard

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/example/memesmith/internal/imagesrc"
)

var (
	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
	// ErrEmpty means the clipboard holds no image.
	ErrEmpty = errors.New("clipboard is empty")
)

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// CopyPNG publishes already encoded PNG bytes.
func CopyPNG(data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return writeImage(data)
}

// PasteImage decodes the clipboard image. Any format imagesrc understands is
// accepted.
func PasteImage() (*image.RGBA, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data, err := readImage()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image: %w", ErrEmpty)
	}
	img, _, err := imagesrc.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("clipboard image: %w", err)
	}
	return img, nil
}
