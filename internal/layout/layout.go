// Package layout computes text block geometry shared by the renderer and
// pointer hit-testing. Everything here is pure: no drawing, no state.
package layout

import (
	"image"
	"math"
	"strings"
)

const (
	// LineHeightFactor scales the font size into the distance between lines.
	LineHeightFactor = 1.2
	// BoxMargin pads the measured text on every side of a bounding box.
	BoxMargin = 10
	// HandleSize is the edge length of a square resize handle.
	HandleSize = 10
	// DeleteRadius is the radius of the circular delete affordance.
	DeleteRadius = 12
)

// Point is a position in canvas pixels.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Image rounds p to the nearest integer pixel.
func (p Point) Image() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// Rect is an axis-aligned rectangle in canvas pixels. Max is exclusive only
// for rasterisation; Contains treats both edges as inside.
type Rect struct {
	Min, Max Point
}

// RectFromCenter builds a rectangle of the given size centred on c.
func RectFromCenter(c Point, w, h float64) Rect {
	return Rect{
		Min: Point{c.X - w/2, c.Y - h/2},
		Max: Point{c.X + w/2, c.Y + h/2},
	}
}

// Dx returns the width of r.
func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }

// Dy returns the height of r.
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Image converts r to integer pixel bounds, growing outward.
func (r Rect) Image() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.Min.X)), int(math.Floor(r.Min.Y)),
		int(math.Ceil(r.Max.X)), int(math.Ceil(r.Max.Y)),
	)
}

// Measurer reports the advance width of a single line of text at a font size.
type Measurer interface {
	MeasureLine(line string, fontSize int) float64
}

// MeasureFunc adapts a plain function to the Measurer interface.
type MeasureFunc func(line string, fontSize int) float64

// MeasureLine calls f.
func (f MeasureFunc) MeasureLine(line string, fontSize int) float64 { return f(line, fontSize) }

// Metrics describes a laid out multi-line block.
type Metrics struct {
	Lines       []string
	LineHeight  float64
	TotalHeight float64
	MaxWidth    float64
}

// SplitLines breaks text on \r\n, \n and \r.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// Measure lays out text at fontSize using m for line widths.
func Measure(text string, fontSize int, m Measurer) Metrics {
	lines := SplitLines(text)
	lh := float64(fontSize) * LineHeightFactor
	var maxW float64
	for _, l := range lines {
		if w := m.MeasureLine(l, fontSize); w > maxW {
			maxW = w
		}
	}
	return Metrics{
		Lines:       lines,
		LineHeight:  lh,
		TotalHeight: float64(len(lines)) * lh,
		MaxWidth:    maxW,
	}
}

// LineCenters returns the vertical middle of every line for a block centred
// on center.
func (mt Metrics) LineCenters(center Point) []float64 {
	startY := center.Y - mt.TotalHeight/2 + mt.LineHeight/2
	out := make([]float64, len(mt.Lines))
	for i := range mt.Lines {
		out[i] = startY + float64(i)*mt.LineHeight
	}
	return out
}

// Box returns the bounding box of a block centred on center, margin included.
func (mt Metrics) Box(center Point) Rect {
	return Rect{
		Min: Point{center.X - mt.MaxWidth/2 - BoxMargin, center.Y - mt.TotalHeight/2 - BoxMargin},
		Max: Point{center.X + mt.MaxWidth/2 + BoxMargin, center.Y + mt.TotalHeight/2 + BoxMargin},
	}
}

// BoundingBox measures text and returns its box centred on center.
func BoundingBox(text string, fontSize int, center Point, m Measurer) Rect {
	return Measure(text, fontSize, m).Box(center)
}

// Corner identifies one of the four resize handles.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

// Handles returns the four resize handle squares of box, centred on its
// corners, in TopLeft, TopRight, BottomLeft, BottomRight order.
func Handles(box Rect) [4]Rect {
	return [4]Rect{
		RectFromCenter(box.Min, HandleSize, HandleSize),
		RectFromCenter(Point{box.Max.X, box.Min.Y}, HandleSize, HandleSize),
		RectFromCenter(Point{box.Min.X, box.Max.Y}, HandleSize, HandleSize),
		RectFromCenter(box.Max, HandleSize, HandleSize),
	}
}

// Circle is a disc used for the delete affordance.
type Circle struct {
	Center Point
	Radius float64
}

// Contains reports whether p lies within c, boundary included.
func (c Circle) Contains(p Point) bool {
	dx := p.X - c.Center.X
	dy := p.Y - c.Center.Y
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// DeleteButton returns the delete affordance for box. It sits just outside
// the top-right corner so the top-right handle stays partly reachable.
func DeleteButton(box Rect) Circle {
	return Circle{
		Center: Point{box.Max.X + DeleteRadius/2, box.Min.Y - DeleteRadius/2},
		Radius: DeleteRadius,
	}
}

// Fit scales natural into the max box preserving aspect ratio. It only ever
// shrinks; images already inside the box keep their size.
func Fit(natural, max image.Point) image.Point {
	if natural.X <= 0 || natural.Y <= 0 {
		return image.Point{}
	}
	w, h := float64(natural.X), float64(natural.Y)
	if max.X > 0 && w > float64(max.X) {
		h = h * float64(max.X) / w
		w = float64(max.X)
	}
	if max.Y > 0 && h > float64(max.Y) {
		w = w * float64(max.Y) / h
		h = float64(max.Y)
	}
	out := image.Pt(int(math.Round(w)), int(math.Round(h)))
	if out.X < 1 {
		out.X = 1
	}
	if out.Y < 1 {
		out.Y = 1
	}
	return out
}
