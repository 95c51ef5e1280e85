package window

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/memesmith/internal/annotation"
	"github.com/example/memesmith/internal/editor"
	"github.com/example/memesmith/internal/feed"
	"github.com/example/memesmith/internal/identity"
	"github.com/example/memesmith/internal/layout"
	"github.com/example/memesmith/internal/render"
)

var halfEm = layout.MeasureFunc(func(line string, size int) float64 {
	return float64(len([]rune(line))) * float64(size) * 0.5
})

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// newTestController returns a controller over a 400x300 canvas centred in a
// 1000x748 window, so canvas (0,0) sits at window (300,200).
func newTestController(t *testing.T, withImage bool) *controller {
	t.Helper()
	sess := editor.New(editor.WithMeasurer(halfEm))
	if withImage {
		if err := sess.LoadImage(solid(400, 300, color.RGBA{10, 20, 30, 255}), editor.Source{}); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	c := newController(sess)
	c.resize(1000, 700+barHeight)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	return c
}

func press(c *controller, x, y float32) bool {
	return c.handleMouse(mouse.Event{X: x, Y: y, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
}

func release(c *controller, x, y float32) bool {
	return c.handleMouse(mouse.Event{X: x, Y: y, Button: mouse.ButtonLeft, Direction: mouse.DirRelease})
}

func typeText(c *controller, s string) {
	for _, r := range s {
		c.handleKey(key.Event{Rune: r, Direction: key.DirPress})
	}
}

func keyCode(c *controller, code key.Code, mods key.Modifiers) bool {
	return c.handleKey(key.Event{Rune: -1, Code: code, Modifiers: mods, Direction: key.DirPress})
}

func ctrl(c *controller, r rune) bool {
	return c.handleKey(key.Event{Rune: r, Modifiers: key.ModControl, Direction: key.DirPress})
}

func TestClickTracker(t *testing.T) {
	var ct clickTracker
	t0 := time.Unix(100, 0)
	if ct.press(image.Pt(10, 10), t0) {
		t.Fatalf("first press reported a double click")
	}
	if !ct.press(image.Pt(12, 13), t0.Add(300*time.Millisecond)) {
		t.Fatalf("second nearby press within the interval should double click")
	}
	if ct.press(image.Pt(12, 13), t0.Add(350*time.Millisecond)) {
		t.Fatalf("third press should start a new sequence")
	}
	if ct.press(image.Pt(12, 13), t0.Add(900*time.Millisecond)) {
		t.Fatalf("slow press counted as double click")
	}
	if ct.press(image.Pt(30, 13), t0.Add(1000*time.Millisecond)) {
		t.Fatalf("distant press counted as double click")
	}
}

func TestCanvasRect(t *testing.T) {
	area := image.Rect(0, 0, 1000, 700)
	r, z := canvasRect(area, image.Pt(400, 300))
	if z != 1 || r != image.Rect(300, 200, 700, 500) {
		t.Fatalf("got %v zoom %v", r, z)
	}
	r, z = canvasRect(image.Rect(0, 0, 500, 700), image.Pt(1000, 500))
	if z != 0.5 || r.Dx() != 500 || r.Dy() != 250 {
		t.Fatalf("scaled rect %v zoom %v", r, z)
	}
	if r, _ := canvasRect(area, image.Point{}); !r.Empty() {
		t.Fatalf("empty canvas gave %v", r)
	}
}

func TestLayoutShortcutsDropsOverflow(t *testing.T) {
	entries := []Shortcut{{Label: "^S:save"}, {Label: "^C:copy"}, {Label: "^P:post"}}
	all := layoutShortcuts(1000, 100, entries)
	if len(all) != 3 {
		t.Fatalf("got %d buttons", len(all))
	}
	if all[0].Rect.Max.X >= all[1].Rect.Min.X {
		t.Fatalf("buttons overlap: %v %v", all[0].Rect, all[1].Rect)
	}
	narrow := layoutShortcuts(120, 100, entries)
	if len(narrow) >= 3 {
		t.Fatalf("narrow window kept %d buttons", len(narrow))
	}
	if shortcutAt(all, all[1].Rect.Min.Add(image.Pt(2, 2))) != 1 {
		t.Fatalf("hit test missed the second button")
	}
}

func TestTypingAndEnterAddsText(t *testing.T) {
	c := newTestController(t, true)
	typeText(c, "hi there")
	if p := c.sess.Preview(); p == nil || p.Text != "HI THERE" {
		t.Fatalf("preview %+v", p)
	}
	keyCode(c, key.CodeDeleteBackspace, 0)
	if c.sess.Input() != "hi ther" {
		t.Fatalf("backspace left %q", c.sess.Input())
	}
	keyCode(c, key.CodeReturnEnter, key.ModShift)
	typeText(c, "x")
	keyCode(c, key.CodeReturnEnter, 0)
	list := c.sess.Annotations()
	if len(list) != 1 || list[0].Text != "HI THER\nX" {
		t.Fatalf("annotations %+v", list)
	}
	if c.sess.Input() != "" {
		t.Fatalf("input not cleared: %q", c.sess.Input())
	}
}

func TestTabEditsTitle(t *testing.T) {
	c := newTestController(t, true)
	keyCode(c, key.CodeTab, 0)
	typeText(c, "monday")
	if c.sess.Title() != "monday" || c.sess.Input() != "" {
		t.Fatalf("title %q input %q", c.sess.Title(), c.sess.Input())
	}
	if st := c.paintState(); st.field != "Title" || st.input != "monday" {
		t.Fatalf("paint state field %q input %q", st.field, st.input)
	}
	keyCode(c, key.CodeReturnEnter, 0)
	if c.field != focusCaption {
		t.Fatalf("enter should return to the caption field")
	}
	if len(c.sess.Annotations()) != 0 {
		t.Fatalf("leaving the title field added text")
	}
}

func TestDoubleClickCreatesAndTypingReplaces(t *testing.T) {
	c := newTestController(t, true)
	press(c, 500, 350)
	release(c, 500, 350)
	press(c, 501, 351)
	release(c, 501, 351)
	list := c.sess.Annotations()
	if len(list) != 1 || list[0].Text != annotation.Placeholder {
		t.Fatalf("annotations %+v", list)
	}
	if got := list[0].Position; got != layout.Pt(201, 151) {
		t.Fatalf("created at %v, want canvas (201,151)", got)
	}
	typeText(c, "ok")
	if got := c.sess.Annotations()[0].Text; got != "OK" {
		t.Fatalf("typing should replace the placeholder, got %q", got)
	}
}

func TestDoubleClickWithoutImage(t *testing.T) {
	c := newTestController(t, false)
	press(c, 500, 350)
	if c.messageVisible() {
		t.Fatalf("single click showed %q", c.message)
	}
	press(c, 500, 350)
	if !c.messageVisible() || c.message != editor.ErrNoImage.Error() {
		t.Fatalf("message %q", c.message)
	}
}

func TestDragMovesAnnotation(t *testing.T) {
	c := newTestController(t, true)
	typeText(c, "drag")
	keyCode(c, key.CodeReturnEnter, 0)
	press(c, 500, 350)
	if c.sess.Gesture() != editor.Dragging {
		t.Fatalf("state %v", c.sess.Gesture())
	}
	c.handleMouse(mouse.Event{X: 540, Y: 330, Direction: mouse.DirNone})
	release(c, 540, 330)
	if got := c.sess.Annotations()[0].Position; got != layout.Pt(240, 130) {
		t.Fatalf("position %v", got)
	}
	if c.sess.Gesture() != editor.Idle {
		t.Fatalf("release left %v", c.sess.Gesture())
	}
}

func TestEscapeAndDelete(t *testing.T) {
	c := newTestController(t, true)
	typeText(c, "one")
	keyCode(c, key.CodeReturnEnter, 0)
	id := c.sess.Annotations()[0].ID
	c.sess.Select(id)
	keyCode(c, key.CodeEscape, 0)
	if c.sess.Selected() != 0 {
		t.Fatalf("escape kept the selection")
	}
	c.sess.Select(id)
	keyCode(c, key.CodeDeleteForward, 0)
	if len(c.sess.Annotations()) != 0 {
		t.Fatalf("delete kept the annotation")
	}
}

func TestStyleShortcuts(t *testing.T) {
	c := newTestController(t, true)
	ctrl(c, '=')
	ctrl(c, '+')
	if got := c.sess.Style().FontSize; got != 48 {
		t.Fatalf("size %d", got)
	}
	ctrl(c, '-')
	if got := c.sess.Style().FontSize; got != 44 {
		t.Fatalf("size %d", got)
	}
	ctrl(c, 'f')
	if got := c.sess.Style().Fill; got != palette[1].Color {
		t.Fatalf("fill %v", got)
	}
	ctrl(c, 'e')
	if c.sess.AddMode() != editor.AddAppend {
		t.Fatalf("mode %v", c.sess.AddMode())
	}
	if s := c.status(); !strings.Contains(s, "44pt") || !strings.Contains(s, "black/black") || !strings.Contains(s, "append") {
		t.Fatalf("status %q", s)
	}
}

func TestSave(t *testing.T) {
	c := newTestController(t, true)
	var wrote string
	c.writeFile = func(p string, b []byte) error {
		wrote = p
		if len(b) == 0 {
			t.Fatalf("empty raster")
		}
		return nil
	}
	c.saveDir = "/tmp/memes"
	ctrl(c, 's')
	if wrote != "" || c.message != editor.ErrNothingToExport.Error() {
		t.Fatalf("saved %q with no text, message %q", wrote, c.message)
	}
	typeText(c, "top")
	keyCode(c, key.CodeReturnEnter, 0)
	ctrl(c, 's')
	want := filepath.Join("/tmp/memes", editor.DownloadName(c.now()))
	if wrote != want {
		t.Fatalf("wrote %q want %q", wrote, want)
	}
}

func TestCopyFailureIsReported(t *testing.T) {
	c := newTestController(t, true)
	typeText(c, "top")
	keyCode(c, key.CodeReturnEnter, 0)
	c.copyPNG = func([]byte) error { return errors.New("no display") }
	ctrl(c, 'c')
	if !strings.Contains(c.message, "no display") {
		t.Fatalf("message %q", c.message)
	}
}

func TestAsyncLoad(t *testing.T) {
	c := newTestController(t, false)
	events := make(chan interface{}, 2)
	c.send = func(ev interface{}) { events <- ev }
	c.paste = func() (*image.RGBA, error) { return solid(200, 100, color.White), nil }
	c.capture = func() (*image.RGBA, error) { return solid(300, 100, color.Black), nil }

	ctrl(c, 'v')
	first := <-events
	ctrl(c, 'n')
	second := <-events
	if c.handleAsync(first) {
		t.Fatalf("stale load should be dropped quietly")
	}
	if c.sess.HasImage() {
		t.Fatalf("stale load installed an image")
	}
	c.handleAsync(second)
	if got := c.sess.CanvasSize(); got != image.Pt(300, 100) {
		t.Fatalf("canvas %v", got)
	}
}

func TestTemplateWithoutCatalog(t *testing.T) {
	c := newTestController(t, false)
	ctrl(c, 't')
	if !strings.Contains(c.message, "template") {
		t.Fatalf("message %q", c.message)
	}
}

type fakePublisher struct {
	drafts chan feed.Draft
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, d feed.Draft) (string, error) {
	p.drafts <- d
	return "m1", p.err
}

func TestPublish(t *testing.T) {
	c := newTestController(t, true)
	pub := &fakePublisher{drafts: make(chan feed.Draft, 1)}
	events := make(chan interface{}, 1)
	c.send = func(ev interface{}) { events <- ev }
	c.publisher = pub

	typeText(c, "post me")
	keyCode(c, key.CodeReturnEnter, 0)
	ctrl(c, 'p')
	if c.message != editor.ErrNotAuthenticated.Error() {
		t.Fatalf("message %q", c.message)
	}

	c.handleAsync(userEvent{user: &identity.User{ID: "u1", Username: "alice"}})
	c.sess.SetTitle("first")
	ctrl(c, 'p')
	d := <-pub.drafts
	if d.AuthorID != "u1" || d.Title != "first" || len(d.Image) == 0 {
		t.Fatalf("draft %+v", d)
	}
	if !c.sess.Publishing() {
		t.Fatalf("publish not marked in flight")
	}
	c.handleAsync(<-events)
	if c.sess.Publishing() || c.sess.HasImage() {
		t.Fatalf("successful post should reset the session")
	}
}

func TestPublishFailureKeepsWork(t *testing.T) {
	c := newTestController(t, true)
	pub := &fakePublisher{drafts: make(chan feed.Draft, 1), err: errors.New("offline")}
	events := make(chan interface{}, 1)
	c.send = func(ev interface{}) { events <- ev }
	c.publisher = pub
	c.user = &identity.User{ID: "u1"}

	typeText(c, "keep")
	keyCode(c, key.CodeReturnEnter, 0)
	ctrl(c, 'p')
	<-pub.drafts
	c.handleAsync(<-events)
	if !c.sess.HasImage() || len(c.sess.Annotations()) != 1 {
		t.Fatalf("failed post lost the work")
	}
	if c.sess.Publishing() {
		t.Fatalf("publishing still set")
	}
	if !strings.Contains(c.message, "offline") {
		t.Fatalf("message %q", c.message)
	}
}

func TestBarClickRunsAction(t *testing.T) {
	c := newTestController(t, true)
	c.resize(1800, 700+barHeight)
	var quit Shortcut
	for _, sc := range c.shortcuts() {
		if sc.Action == "quit" {
			quit = sc
		}
	}
	if quit.Action == "" {
		t.Fatalf("quit button missing from a wide bar")
	}
	p := quit.Rect.Min.Add(image.Pt(2, 2))
	press(c, float32(p.X), float32(p.Y))
	if !c.quit {
		t.Fatalf("clicking quit did not quit")
	}
}

func TestMessageDismissedByClick(t *testing.T) {
	c := newTestController(t, true)
	c.showMessage("hello")
	if !press(c, 10, 10) || c.messageVisible() {
		t.Fatalf("click did not dismiss the message")
	}
}

func TestComposeDrawsCanvas(t *testing.T) {
	c := newTestController(t, true)
	dst := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	rend, err := render.New(nil)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	compose(context.Background(), dst, c.paintState(), rend)
	if got := dst.RGBAAt(500, 350); got != (color.RGBA{10, 20, 30, 255}) {
		t.Fatalf("canvas centre %v", got)
	}
	if got := dst.RGBAAt(5, c.height-barHeight+1); got != rend.Theme.BarBackground {
		t.Fatalf("bar background %v", got)
	}
}

func TestNextColorWraps(t *testing.T) {
	last := palette[len(palette)-1].Color
	if got := nextColor(last, 1); got != palette[0] {
		t.Fatalf("got %v", got)
	}
	if got := nextColor(color.RGBA{1, 2, 3, 255}, 1); got != palette[0] {
		t.Fatalf("unknown colour gave %v", got)
	}
	if got := nextColor(palette[0].Color, -1); got != palette[len(palette)-1] {
		t.Fatalf("backwards gave %v", got)
	}
}
