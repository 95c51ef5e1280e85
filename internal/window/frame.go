package window

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"log"
	"strings"
	"time"

	"golang.org/x/exp/shiny/screen"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/memesmith/internal/render"
	"github.com/example/memesmith/internal/theme"
)

const (
	rowHeight = 24
	barHeight = rowHeight * 2
	barPad    = 4
	checker   = 8
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

var uiFace font.Face = basicfont.Face7x13

// ButtonState describes the visual state of a bar button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Shortcut is a clickable bar entry bound to a named action.
type Shortcut struct {
	Label  string
	Action string
	Rect   image.Rectangle
}

// paintState is the snapshot a frame is drawn from. The event loop builds a
// fresh one for every paint so the paint goroutine never touches the session.
type paintState struct {
	width, height int
	scene         render.Scene
	canvas        image.Point
	field         string
	input         string
	status        string
	message       string
	messageUntil  time.Time
	shortcuts     []Shortcut
	hover         int
}

// canvasArea is the part of the window above the bar.
func canvasArea(width, height int) image.Rectangle {
	h := height - barHeight
	if h < 0 {
		h = 0
	}
	return image.Rect(0, 0, width, h)
}

// canvasRect centres a canvas of the given size in area, scaling it down when
// it does not fit. It never scales up.
func canvasRect(area image.Rectangle, size image.Point) (image.Rectangle, float64) {
	if size.X <= 0 || size.Y <= 0 || area.Empty() {
		return image.Rectangle{}, 1
	}
	zoom := 1.0
	zx := float64(area.Dx()) / float64(size.X)
	zy := float64(area.Dy()) / float64(size.Y)
	if zx < zoom {
		zoom = zx
	}
	if zy < zoom {
		zoom = zy
	}
	w := int(float64(size.X) * zoom)
	h := int(float64(size.Y) * zoom)
	x0 := area.Min.X + (area.Dx()-w)/2
	y0 := area.Min.Y + (area.Dy()-h)/2
	return image.Rect(x0, y0, x0+w, y0+h), zoom
}

// layoutShortcuts places the bar buttons left to right on the lower row.
// Buttons that would run past the window edge are dropped.
func layoutShortcuts(width, height int, entries []Shortcut) []Shortcut {
	out := make([]Shortcut, 0, len(entries))
	x := barPad
	y := height - rowHeight + 3
	meas := &font.Drawer{Face: uiFace}
	for _, sc := range entries {
		w := meas.MeasureString(sc.Label).Ceil() + 6
		if x+w > width-barPad {
			break
		}
		sc.Rect = image.Rect(x, y, x+w, y+rowHeight-6)
		out = append(out, sc)
		x += w + 6
	}
	return out
}

// shortcutAt returns the index of the button under p, or -1.
func shortcutAt(list []Shortcut, p image.Point) int {
	for i, sc := range list {
		if p.In(sc.Rect) {
			return i
		}
	}
	return -1
}

func drawString(dst *image.RGBA, s string, x, y int, col color.Color) int {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: uiFace, Dot: fixed.P(x, y)}
	d.DrawString(s)
	return d.Dot.X.Ceil()
}

func drawShortcut(dst *image.RGBA, sc Shortcut, state ButtonState, th *theme.Theme) {
	col := th.BarBackground
	switch state {
	case StateHover:
		col = shade(col, 20)
	case StatePressed:
		col = shade(col, 50)
	}
	draw.Draw(dst, sc.Rect, image.NewUniform(col), image.Point{}, draw.Src)
	render.DrawRect(dst, sc.Rect, th.BarText, 1)
	drawString(dst, sc.Label, sc.Rect.Min.X+3, sc.Rect.Min.Y+13, th.BarText)
}

func shade(c color.RGBA, by uint8) color.RGBA {
	sub := func(v uint8) uint8 {
		if v < by {
			return 0
		}
		return v - by
	}
	return color.RGBA{sub(c.R), sub(c.G), sub(c.B), c.A}
}

// inputDisplay flattens multi-line input for the single-line field.
func inputDisplay(s string) string {
	return strings.ReplaceAll(s, "\n", " / ")
}

func drawBar(dst *image.RGBA, st paintState, th *theme.Theme) {
	top := st.height - barHeight
	draw.Draw(dst, image.Rect(0, top, st.width, st.height), image.NewUniform(th.BarBackground), image.Point{}, draw.Src)

	label := st.field + ":"
	x := drawString(dst, label, barPad, top+16, th.BarText) + 6
	statusW := (&font.Drawer{Face: uiFace}).MeasureString(st.status).Ceil()
	boxMax := st.width - statusW - 3*barPad
	if boxMax < x+40 {
		boxMax = st.width - barPad
	}
	box := image.Rect(x, top+3, boxMax, top+rowHeight-2)
	draw.Draw(dst, box, image.NewUniform(th.InputBackground), image.Point{}, draw.Src)
	render.DrawRect(dst, box, th.BarText, 1)

	text := inputDisplay(st.input)
	maxChars := (box.Dx() - 10) / 7
	if maxChars > 0 && len(text) > maxChars {
		text = text[len(text)-maxChars:]
	}
	end := drawString(dst, text, box.Min.X+3, top+16, th.InputText)
	draw.Draw(dst, image.Rect(end+1, box.Min.Y+3, end+3, box.Max.Y-3), image.NewUniform(th.InputCaret), image.Point{}, draw.Src)

	if box.Max.X < st.width-statusW-barPad {
		drawString(dst, st.status, st.width-statusW-barPad, top+16, th.BarText)
	}

	for i, sc := range st.shortcuts {
		state := StateDefault
		if i == st.hover {
			state = StateHover
		}
		drawShortcut(dst, sc, state, th)
	}
}

func drawMessage(dst *image.RGBA, st paintState, th *theme.Theme) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.MessageText), Face: uiFace}
	w := d.MeasureString(st.message).Ceil()
	area := canvasArea(st.width, st.height)
	px := (area.Dx() - w) / 2
	py := area.Dy() / 2
	rect := image.Rect(px-10, py-18, px+w+10, py+10)
	draw.Draw(dst, rect, image.NewUniform(th.MessageBackground), image.Point{}, draw.Over)
	render.DrawRect(dst, rect, th.MessageText, 2)
	d.Dot = fixed.P(px, py)
	d.DrawString(st.message)
}

// compose draws a whole frame into dst. It returns early when ctx is
// cancelled; the caller discards the partial frame.
func compose(ctx context.Context, dst *image.RGBA, st paintState, r *render.Renderer) {
	th := r.Theme
	draw.Draw(dst, dst.Bounds(), image.NewUniform(th.Background), image.Point{}, draw.Src)

	area := canvasArea(st.width, st.height)
	if st.scene.Base != nil {
		rect, zoom := canvasRect(area, st.canvas)
		frame := image.NewRGBA(image.Rect(0, 0, st.canvas.X, st.canvas.Y))
		r.Render(frame, st.scene)
		if ctx.Err() != nil {
			return
		}
		render.DrawCheckerboard(dst, rect, checker, th.CheckerLight, th.CheckerDark)
		if zoom == 1 {
			draw.Draw(dst, rect, frame, image.Point{}, draw.Over)
		} else {
			xdraw.ApproxBiLinear.Scale(dst, rect, frame, frame.Bounds(), draw.Over, nil)
		}
	} else {
		hint := "paste an image (Ctrl+V), pick a template (Ctrl+T) or grab the screen (Ctrl+N)"
		w := (&font.Drawer{Face: uiFace}).MeasureString(hint).Ceil()
		drawString(dst, hint, area.Min.X+(area.Dx()-w)/2, area.Min.Y+area.Dy()/2, th.Foreground)
	}
	if ctx.Err() != nil {
		return
	}

	drawBar(dst, st, th)

	if st.message != "" && time.Now().Before(st.messageUntil) {
		drawMessage(dst, st, th)
	}
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState, r *render.Renderer) {
	if st.width <= 0 || st.height <= 0 {
		return
	}
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	compose(ctx, b.RGBA(), st, r)
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
