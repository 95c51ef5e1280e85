package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// StrokeWidth returns the outline width for a font size: one fifteenth of
// the size, never thinner than three pixels.
func StrokeWidth(fontSize int) float64 {
	return math.Max(float64(fontSize)/15, 3)
}

// discOffsets lists the integer offsets inside a disc of the given radius.
func discOffsets(radius float64) []image.Point {
	r := int(math.Ceil(radius))
	lim := radius*radius + 0.25
	var pts []image.Point
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if float64(dx*dx+dy*dy) <= lim {
				pts = append(pts, image.Pt(dx, dy))
			}
		}
	}
	return pts
}

// dilateAlpha grows coverage in src outward by radius pixels, keeping the
// strongest neighbour at every pixel. A disc footprint gives round joins.
func dilateAlpha(src *image.Alpha, radius float64) *image.Alpha {
	b := src.Bounds()
	dst := image.NewAlpha(b)
	if radius <= 0 {
		copy(dst.Pix, src.Pix)
		return dst
	}
	offsets := discOffsets(radius)
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for x, a := range row {
			if a == 0 {
				continue
			}
			for _, o := range offsets {
				nx, ny := x+o.X, y+o.Y
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				i := ny*dst.Stride + nx
				if dst.Pix[i] < a {
					dst.Pix[i] = a
				}
			}
		}
	}
	return dst
}

// paintMask composites a solid colour through mask onto dst.
func paintMask(dst *image.RGBA, mask *image.Alpha, c color.Color) {
	r := mask.Bounds()
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask, r.Min, draw.Over)
}
