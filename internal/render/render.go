// Package render draws meme canvases: the base image, outlined text blocks
// and the selection or preview decorations on top of them.
package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/example/memesmith/internal/annotation"
	"github.com/example/memesmith/internal/layout"
	"github.com/example/memesmith/internal/theme"
)

const (
	selectionWidth = 2
	dashLength     = 6
)

// Scene is everything a single frame needs.
type Scene struct {
	Base        image.Image
	Annotations annotation.List
	// Selected gets a border, handles and a delete affordance. Zero for none.
	Selected annotation.ID
	// Preview mirrors pending input. It is drawn last with a dashed outline.
	Preview *annotation.Annotation
}

// Renderer rasterises scenes.
type Renderer struct {
	Faces *Faces
	Theme *theme.Theme
}

// New returns a renderer using the shared bold face and th. A nil theme
// selects the default.
func New(th *theme.Theme) (*Renderer, error) {
	faces, err := DefaultFaces()
	if err != nil {
		return nil, err
	}
	if th == nil {
		th = theme.Default()
	}
	return &Renderer{Faces: faces, Theme: th}, nil
}

// MeasureLine implements layout.Measurer.
func (r *Renderer) MeasureLine(line string, size int) float64 {
	return r.Faces.MeasureLine(line, size)
}

// Render clears dst to transparent, scales the base over its whole extent
// and draws annotations in list order.
func (r *Renderer) Render(dst *image.RGBA, sc Scene) {
	b := dst.Bounds()
	draw.Draw(dst, b, image.Transparent, image.Point{}, draw.Src)
	if sc.Base != nil {
		sb := sc.Base.Bounds()
		if sb.Size() == b.Size() {
			draw.Draw(dst, b, sc.Base, sb.Min, draw.Src)
		} else {
			xdraw.CatmullRom.Scale(dst, b, sc.Base, sb, draw.Src, nil)
		}
	}
	for _, a := range sc.Annotations {
		r.DrawText(dst, a)
	}
	if sel := sc.Annotations.Get(sc.Selected); sel != nil {
		r.drawSelection(dst, sel.Box(r))
	}
	if sc.Preview != nil && !annotation.IsBlank(sc.Preview.Text) {
		r.DrawText(dst, *sc.Preview)
		box := sc.Preview.Box(r).Image()
		drawDashedRect(dst, box, dashLength, selectionWidth, r.Theme.PreviewAccent)
	}
}

// DrawText draws every line of a centred on its position: outline first,
// then fill, so the outline never covers the letters.
func (r *Renderer) DrawText(dst *image.RGBA, a annotation.Annotation) {
	size := a.Size()
	m := layout.Measure(a.Text, size, r)
	mids := m.LineCenters(a.Position)
	width := StrokeWidth(size)
	pad := int(math.Ceil(width)) + 2
	fill := a.FillColor()
	stroke := a.StrokeColor()

	_ = r.Faces.With(size, func(face font.Face) {
		metrics := face.Metrics()
		ascent := metrics.Ascent.Ceil()
		descent := metrics.Descent.Ceil()
		for i, line := range m.Lines {
			if line == "" {
				continue
			}
			adv := font.MeasureString(face, line)
			x := int(math.Round(a.Position.X - float64(adv)/128))
			baseline := int(math.Round(mids[i] + float64(ascent-descent)/2))
			rect := image.Rect(x-pad, baseline-ascent-pad, x+adv.Ceil()+pad, baseline+descent+pad)
			clip := rect.Intersect(dst.Bounds())
			if clip.Empty() {
				continue
			}
			mask := image.NewAlpha(rect)
			d := &font.Drawer{Dst: mask, Src: image.Opaque, Face: face, Dot: fixed.P(x, baseline)}
			d.DrawString(line)
			paintMask(dst, dilateAlpha(mask, width/2), stroke)
			paintMask(dst, mask, fill)
		}
	})
}

func (r *Renderer) drawSelection(dst *image.RGBA, box layout.Rect) {
	th := r.Theme
	drawRect(dst, box.Image(), th.SelectionBorder, selectionWidth)
	for _, h := range layout.Handles(box) {
		hr := h.Image()
		draw.Draw(dst, hr, image.NewUniform(th.HandleFill), image.Point{}, draw.Over)
		drawRect(dst, hr, th.HandleBorder, 1)
	}
	del := layout.DeleteButton(box)
	c := del.Center.Image()
	rad := int(del.Radius)
	drawFilledCircle(dst, c.X, c.Y, rad, th.DeleteFill)
	arm := rad / 2
	drawLine(dst, c.X-arm, c.Y-arm, c.X+arm, c.Y+arm, th.DeleteGlyph, 2)
	drawLine(dst, c.X-arm, c.Y+arm, c.X+arm, c.Y-arm, th.DeleteGlyph, 2)
}

// Flatten composites img over an opaque background colour.
func Flatten(img image.Image, bg color.Color) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

// EncodePNG returns img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
