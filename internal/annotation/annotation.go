// Package annotation holds the text overlay model placed on a meme canvas.
package annotation

import (
	"image/color"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/example/memesmith/internal/layout"
)

const (
	// MinFontSize and MaxFontSize bound sizes reachable by dragging a handle.
	MinFontSize = 20
	MaxFontSize = 150
	// DefaultFontSize is used when no size has been chosen.
	DefaultFontSize = 40
	// Placeholder is the text given to annotations created by double-click.
	Placeholder = "YOUR TEXT"
)

var (
	// DefaultFill is the fill used when an annotation has none set.
	DefaultFill = color.RGBA{255, 255, 255, 255}
	// DefaultStroke is the outline used when an annotation has none set.
	DefaultStroke = color.RGBA{0, 0, 0, 255}
)

// ID identifies an annotation within a session. Zero means none.
type ID uint64

// Annotation is one block of outlined text on the canvas.
type Annotation struct {
	ID       ID
	Text     string
	Position layout.Point
	FontSize int
	Fill     color.RGBA
	Stroke   color.RGBA
}

// FillColor returns the fill, falling back to white when unset.
func (a Annotation) FillColor() color.RGBA {
	if a.Fill == (color.RGBA{}) {
		return DefaultFill
	}
	return a.Fill
}

// StrokeColor returns the outline colour, falling back to black when unset.
func (a Annotation) StrokeColor() color.RGBA {
	if a.Stroke == (color.RGBA{}) {
		return DefaultStroke
	}
	return a.Stroke
}

// Size returns FontSize, or DefaultFontSize when it is not positive.
func (a Annotation) Size() int {
	if a.FontSize <= 0 {
		return DefaultFontSize
	}
	return a.FontSize
}

// Box returns the annotation's bounding box measured with m.
func (a Annotation) Box(m layout.Measurer) layout.Rect {
	return layout.BoundingBox(a.Text, a.Size(), a.Position, m)
}

// Normalize uppercases text. Case mapping is Unicode aware so ß becomes SS.
// A Caser keeps state, so each call gets its own.
func Normalize(text string) string {
	return cases.Upper(language.Und).String(text)
}

// IsBlank reports whether text has nothing but whitespace.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// ClampFontSize limits size to the drag range.
func ClampFontSize(size int) int {
	if size < MinFontSize {
		return MinFontSize
	}
	if size > MaxFontSize {
		return MaxFontSize
	}
	return size
}

// Sequence hands out annotation ids. Ids are never reused.
type Sequence struct {
	last ID
}

// Next returns a fresh id.
func (s *Sequence) Next() ID {
	s.last++
	return s.last
}

// List is an ordered set of annotations; later entries draw on top.
type List []Annotation

// Index returns the position of id, or -1.
func (l List) Index(id ID) int {
	if id == 0 {
		return -1
	}
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns a pointer into the list for id, or nil.
func (l List) Get(id ID) *Annotation {
	if i := l.Index(id); i >= 0 {
		return &l[i]
	}
	return nil
}

// Remove deletes id, returning the shortened list and whether it was found.
func (l List) Remove(id ID) (List, bool) {
	i := l.Index(id)
	if i < 0 {
		return l, false
	}
	return append(l[:i:i], l[i+1:]...), true
}

// Clone returns an independent copy.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// TopmostAt returns the last annotation whose box contains p.
func (l List) TopmostAt(p layout.Point, m layout.Measurer) (ID, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].Box(m).Contains(p) {
			return l[i].ID, true
		}
	}
	return 0, false
}
