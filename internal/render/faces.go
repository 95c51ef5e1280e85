package render

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Faces caches one font.Face per integer pixel size of the bold display
// font. Faces are not safe for concurrent use, so every access goes through
// the same lock; the window measures on its event goroutine while frames are
// painted on another.
type Faces struct {
	mu    sync.Mutex
	font  *opentype.Font
	cache map[int]font.Face
}

var (
	defaultFacesOnce sync.Once
	defaultFaces     *Faces
	defaultFacesErr  error
)

// DefaultFaces returns the shared cache for the embedded bold face.
func DefaultFaces() (*Faces, error) {
	defaultFacesOnce.Do(func() {
		defaultFaces, defaultFacesErr = NewFaces(gobold.TTF)
	})
	return defaultFaces, defaultFacesErr
}

// NewFaces parses an OpenType/TrueType font.
func NewFaces(ttf []byte) (*Faces, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Faces{font: f, cache: make(map[int]font.Face)}, nil
}

func (f *Faces) faceLocked(size int) (font.Face, error) {
	if size <= 0 {
		size = 1
	}
	if face, ok := f.cache[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(f.font, &opentype.FaceOptions{Size: float64(size), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	f.cache[size] = face
	return face, nil
}

// With runs fn with the face for size while holding the cache lock.
func (f *Faces) With(size int, fn func(font.Face)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	face, err := f.faceLocked(size)
	if err != nil {
		return err
	}
	fn(face)
	return nil
}

// MeasureLine returns the advance width of line in pixels. It implements
// layout.Measurer.
func (f *Faces) MeasureLine(line string, size int) float64 {
	var adv fixed.Int26_6
	_ = f.With(size, func(face font.Face) {
		adv = font.MeasureString(face, line)
	})
	return float64(adv) / 64
}
