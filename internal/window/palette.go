package window

import (
	"image/color"
	"strings"
)

// PaletteColor is a named swatch the fill and outline shortcuts cycle through.
type PaletteColor struct {
	Name  string
	Color color.RGBA
}

var palette = []PaletteColor{
	{"White", color.RGBA{255, 255, 255, 255}},
	{"Black", color.RGBA{0, 0, 0, 255}},
	{"Yellow", color.RGBA{255, 255, 0, 255}},
	{"Red", color.RGBA{255, 0, 0, 255}},
	{"Lime", color.RGBA{0, 255, 0, 255}},
	{"Blue", color.RGBA{0, 0, 255, 255}},
	{"Cyan", color.RGBA{0, 255, 255, 255}},
	{"Magenta", color.RGBA{255, 0, 255, 255}},
	{"Orange", color.RGBA{255, 153, 102, 255}},
	{"Gray", color.RGBA{128, 128, 128, 255}},
}

// Palette returns a copy of the swatches.
func Palette() []PaletteColor {
	out := make([]PaletteColor, len(palette))
	copy(out, palette)
	return out
}

// paletteIndex returns the swatch matching c, or -1.
func paletteIndex(c color.RGBA) int {
	for i, p := range palette {
		if p.Color == c {
			return i
		}
	}
	return -1
}

// nextColor returns the swatch after c. Colours outside the palette start
// from the first entry.
func nextColor(c color.RGBA, step int) PaletteColor {
	idx := paletteIndex(c)
	if idx < 0 {
		return palette[0]
	}
	n := len(palette)
	return palette[((idx+step)%n+n)%n]
}

// colorName returns the palette name for c, or its hex form.
func colorName(c color.RGBA, hex func(color.RGBA) string) string {
	if idx := paletteIndex(c); idx >= 0 {
		return strings.ToLower(palette[idx].Name)
	}
	return hex(c)
}
