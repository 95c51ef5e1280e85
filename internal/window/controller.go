package window

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/memesmith/internal/capture"
	"github.com/example/memesmith/internal/clipboard"
	"github.com/example/memesmith/internal/editor"
	"github.com/example/memesmith/internal/identity"
	"github.com/example/memesmith/internal/layout"
	"github.com/example/memesmith/internal/notify"
	"github.com/example/memesmith/internal/templates"
	"github.com/example/memesmith/internal/theme"
)

const (
	messageDuration = 2 * time.Second
	sizeStep        = 4
)

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

type focus int

const (
	focusCaption focus = iota
	focusTitle
)

func (f focus) String() string {
	if f == focusTitle {
		return "Title"
	}
	return "Caption"
}

// Events posted back into the window's queue by worker goroutines.
type (
	loadedEvent struct {
		ticket editor.LoadTicket
		img    image.Image
		src    editor.Source
		what   string
		err    error
	}
	publishedEvent struct {
		id    string
		title string
		img   image.Image
		err   error
	}
	catalogEvent struct {
		catalog *templates.Catalog
		err     error
	}
	userEvent struct {
		user *identity.User
	}
)

// controller owns the editing session and every piece of UI state. All
// methods run on the event loop goroutine; work that blocks is started on a
// new goroutine whose result comes back through send.
type controller struct {
	sess      *editor.Session
	catalog   *templates.Catalog
	notifier  *notify.Notifier
	publisher editor.Publisher
	saveDir   string
	output    string

	ctx  context.Context
	send func(interface{})
	now  func() time.Time

	capture   func() (*image.RGBA, error)
	paste     func() (*image.RGBA, error)
	copyPNG   func([]byte) error
	writeFile func(string, []byte) error

	width, height int
	field         focus
	selectAll     bool
	message       string
	messageUntil  time.Time
	clicks        clickTracker
	cursor        editor.Cursor
	hover         int
	user          *identity.User
	template      int
	quit          bool

	keys    map[KeyShortcut]string
	actions map[string]func()
	bar     []Shortcut
}

func newController(sess *editor.Session) *controller {
	c := &controller{
		sess:      sess,
		ctx:       context.Background(),
		send:      func(interface{}) {},
		now:       time.Now,
		capture:   func() (*image.RGBA, error) { return capture.Screen(capture.Options{}) },
		paste:     clipboard.PasteImage,
		copyPNG:   clipboard.CopyPNG,
		writeFile: func(p string, b []byte) error { return os.WriteFile(p, b, 0o644) },
		hover:     -1,
		template:  -1,
	}
	c.registerActions()
	return c
}

func (c *controller) registerActions() {
	c.keys = map[KeyShortcut]string{}
	c.actions = map[string]func(){}
	var bar []Shortcut
	register := func(name, label string, r rune, fn func()) {
		c.actions[name] = fn
		c.keys[KeyShortcut{Rune: r, Modifiers: key.ModControl}] = name
		if label != "" {
			bar = append(bar, Shortcut{Label: label, Action: name})
		}
	}
	register("paste", "^V:paste", 'v', c.pasteImage)
	register("template", "^T:template", 't', c.nextTemplate)
	register("screenshot", "^N:screen", 'n', c.grabScreen)
	register("bigger", "^=:bigger", '=', func() { c.sess.SetFontSize(c.sess.Style().FontSize + sizeStep) })
	register("smaller", "^-:smaller", '-', func() { c.sess.SetFontSize(c.sess.Style().FontSize - sizeStep) })
	register("fill", "^F:fill", 'f', func() { c.sess.SetFill(nextColor(c.sess.Style().Fill, 1).Color) })
	register("stroke", "^K:outline", 'k', func() { c.sess.SetStroke(nextColor(c.sess.Style().Stroke, 1).Color) })
	register("mode", "^E:mode", 'e', c.toggleMode)
	register("save", "^S:save", 's', c.save)
	register("copy", "^C:copy", 'c', c.copy)
	register("publish", "^P:post", 'p', c.publish)
	register("reset", "^R:reset", 'r', c.reset)
	register("quit", "^Q:quit", 'q', func() { c.quit = true })
	// Ctrl++ arrives shifted on most layouts.
	c.keys[KeyShortcut{Rune: '+', Modifiers: key.ModControl}] = "bigger"
	c.bar = bar
}

func (c *controller) resize(width, height int) {
	c.width = width
	c.height = height
}

func (c *controller) shortcuts() []Shortcut {
	return layoutShortcuts(c.width, c.height, c.bar)
}

func (c *controller) run(action string) {
	if fn, ok := c.actions[action]; ok {
		fn()
	}
}

func (c *controller) showMessage(msg string) {
	c.message = msg
	c.messageUntil = c.now().Add(messageDuration)
	log.Print(msg)
}

// fail reports err to the user. Notices only reach the overlay; anything
// else is logged and sent as a desktop notification too.
func (c *controller) fail(action string, err error) {
	if editor.IsNotice(err) {
		c.message = err.Error()
		c.messageUntil = c.now().Add(messageDuration)
		return
	}
	log.Printf("%s: %v", action, err)
	c.message = fmt.Sprintf("%s failed: %v", action, err)
	c.messageUntil = c.now().Add(messageDuration)
	c.notifier.Error(fmt.Errorf("%s: %w", action, err))
}

func (c *controller) messageVisible() bool {
	return c.message != "" && c.now().Before(c.messageUntil)
}

// toCanvas maps window coordinates into canvas coordinates.
func (c *controller) toCanvas(x, y float32) layout.Point {
	rect, zoom := canvasRect(canvasArea(c.width, c.height), c.sess.CanvasSize())
	return layout.Pt(
		(float64(x)-float64(rect.Min.X))/zoom,
		(float64(y)-float64(rect.Min.Y))/zoom,
	)
}

func (c *controller) handleMouse(e mouse.Event) bool {
	p := image.Pt(int(e.X), int(e.Y))
	if c.messageVisible() && e.Direction == mouse.DirPress {
		c.messageUntil = time.Time{}
		return true
	}
	if p.Y >= c.height-barHeight && c.sess.Gesture() == editor.Idle {
		list := c.shortcuts()
		idx := shortcutAt(list, p)
		changed := idx != c.hover
		c.hover = idx
		if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress && idx >= 0 {
			c.run(list[idx].Action)
			return true
		}
		return changed
	}
	changed := c.hover != -1
	c.hover = -1
	if !c.sess.HasImage() {
		// Only a double click means anything here: it reports the missing image.
		if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress && c.clicks.press(p, c.now()) {
			res := c.sess.Handle(editor.Event{Kind: editor.DoubleClick})
			c.fail("edit", res.Err)
			return true
		}
		return changed
	}

	pt := c.toCanvas(e.X, e.Y)
	var res editor.Result
	switch {
	case e.Button == mouse.ButtonWheelUp || e.Button == mouse.ButtonWheelDown:
		if e.Direction != mouse.DirStep && e.Direction != mouse.DirPress {
			return changed
		}
		step := sizeStep
		if e.Button == mouse.ButtonWheelDown {
			step = -step
		}
		c.sess.SetFontSize(c.sess.Style().FontSize + step)
		return true
	case e.Direction == mouse.DirNone:
		res = c.sess.Handle(editor.Event{Kind: editor.PointerMove, Point: pt})
	case e.Button != mouse.ButtonLeft:
		return changed
	case e.Direction == mouse.DirPress:
		double := c.clicks.press(p, c.now())
		res = c.sess.Handle(editor.Event{Kind: editor.PointerDown, Point: pt})
		if double {
			res = c.sess.Handle(editor.Event{Kind: editor.DoubleClick, Point: pt})
		}
	case e.Direction == mouse.DirRelease:
		res = c.sess.Handle(editor.Event{Kind: editor.PointerUp, Point: pt})
	}
	if res.Err != nil {
		c.fail("edit", res.Err)
	}
	if res.FocusInput {
		c.field = focusCaption
		c.selectAll = res.SelectInput
	}
	cursorChanged := res.Cursor != c.cursor
	c.cursor = res.Cursor
	return changed || cursorChanged || res.Redraw || res.Err != nil
}

func (c *controller) handleKey(e key.Event) bool {
	if e.Direction == key.DirRelease {
		return false
	}
	replace := c.selectAll
	c.selectAll = false
	if e.Modifiers&key.ModControl != 0 {
		ks := KeyShortcut{Rune: unicode.ToLower(e.Rune), Modifiers: key.ModControl}
		if action, ok := c.keys[ks]; ok {
			c.run(action)
			return true
		}
		return false
	}
	switch e.Code {
	case key.CodeReturnEnter:
		if c.field == focusTitle {
			c.field = focusCaption
			return true
		}
		if e.Modifiers&key.ModShift != 0 {
			c.setInput(c.sess.Input() + "\n")
			return true
		}
		if _, err := c.sess.AddText(); err != nil {
			c.fail("add text", err)
		}
		return true
	case key.CodeTab:
		if c.field == focusCaption {
			c.field = focusTitle
		} else {
			c.field = focusCaption
		}
		return true
	case key.CodeEscape:
		if c.sess.Editing() != 0 || c.sess.Input() != "" {
			c.sess.CancelEdit()
		} else {
			c.sess.Select(0)
		}
		return true
	case key.CodeDeleteBackspace:
		cur := c.currentInput()
		if replace {
			c.setInput("")
			return true
		}
		if cur == "" {
			return false
		}
		_, n := utf8.DecodeLastRuneInString(cur)
		c.setInput(cur[:len(cur)-n])
		return true
	case key.CodeDeleteForward:
		if id := c.sess.Selected(); id != 0 && c.field == focusCaption {
			c.sess.Delete(id)
			return true
		}
		return false
	}
	if e.Rune > 0 && unicode.IsPrint(e.Rune) {
		cur := c.currentInput()
		if replace {
			cur = ""
		}
		c.setInput(cur + string(e.Rune))
		return true
	}
	return false
}

func (c *controller) currentInput() string {
	if c.field == focusTitle {
		return c.sess.Title()
	}
	return c.sess.Input()
}

func (c *controller) setInput(s string) {
	if c.field == focusTitle {
		c.sess.SetTitle(strings.ReplaceAll(s, "\n", " "))
		return
	}
	c.sess.SetInput(s)
}

func (c *controller) handleAsync(ev interface{}) bool {
	switch ev := ev.(type) {
	case loadedEvent:
		if ev.err != nil {
			if errors.Is(ev.err, clipboard.ErrEmpty) {
				c.showMessage("clipboard has no image")
				return true
			}
			c.fail("load "+ev.what, ev.err)
			return true
		}
		if err := c.sess.FinishLoad(ev.ticket, ev.img, ev.src); err != nil {
			if errors.Is(err, editor.ErrStaleLoad) {
				return false
			}
			c.fail("load "+ev.what, err)
			return true
		}
		c.messageUntil = time.Time{}
		return true
	case publishedEvent:
		c.sess.EndPublish(ev.err)
		if ev.err != nil {
			c.fail("post", ev.err)
			return true
		}
		c.showMessage("posted to the feed")
		c.notifier.Published(ev.title, ev.img)
		return true
	case catalogEvent:
		if ev.err != nil {
			log.Printf("reload templates: %v", ev.err)
			return false
		}
		c.catalog = ev.catalog
		return true
	case userEvent:
		c.user = ev.user
		return true
	}
	return false
}

func (c *controller) load(what string, src editor.Source, fn func() (*image.RGBA, error)) {
	t := c.sess.BeginLoad()
	c.showMessage("loading " + what)
	send := c.send
	go func() {
		img, err := fn()
		ev := loadedEvent{ticket: t, src: src, what: what, err: err}
		if img != nil {
			ev.img = img
		}
		send(ev)
	}()
}

func (c *controller) pasteImage() {
	c.load("clipboard", editor.Source{View: editor.ViewUpload}, c.paste)
}

func (c *controller) grabScreen() {
	if c.capture == nil {
		c.showMessage("screen capture is not available")
		return
	}
	c.load("screenshot", editor.Source{View: editor.ViewUpload}, c.capture)
}

func (c *controller) nextTemplate() {
	if c.catalog == nil {
		c.showMessage("no template directory configured")
		return
	}
	list := c.catalog.Available()
	if len(list) == 0 {
		c.showMessage("no templates downloaded; run memesmith templates fetch")
		return
	}
	c.template = (c.template + 1) % len(list)
	t := list[c.template]
	cat := c.catalog
	c.load("template "+t.Title, editor.Source{View: editor.ViewTemplate, Template: t.Name}, func() (*image.RGBA, error) {
		img, _, err := cat.Open(t.Name)
		return img, err
	})
}

func (c *controller) toggleMode() {
	if c.sess.AddMode() == editor.AddAppend {
		c.sess.SetAddMode(editor.AddCommitOrDeselect)
	} else {
		c.sess.SetAddMode(editor.AddAppend)
	}
	c.showMessage("add mode: " + c.sess.AddMode().String())
}

func (c *controller) exportable() ([]byte, bool) {
	if !c.sess.HasImage() {
		c.fail("export", editor.ErrNoImage)
		return nil, false
	}
	if !c.sess.CanExport() {
		c.fail("export", editor.ErrNothingToExport)
		return nil, false
	}
	data, err := c.sess.ExportRaster()
	if err != nil {
		c.fail("export", err)
		return nil, false
	}
	return data, true
}

func (c *controller) save() {
	data, ok := c.exportable()
	if !ok {
		return
	}
	path := c.output
	if path == "" {
		path = filepath.Join(c.saveDir, editor.DownloadName(c.now()))
	}
	if err := c.writeFile(path, data); err != nil {
		c.fail("save", err)
		return
	}
	c.showMessage("saved " + path)
	c.notifier.Save(path)
}

func (c *controller) copy() {
	data, ok := c.exportable()
	if !ok {
		return
	}
	if err := c.copyPNG(data); err != nil {
		c.fail("copy", err)
		return
	}
	c.showMessage("meme copied to clipboard")
	c.notifier.Copy("meme")
}

func (c *controller) publish() {
	if c.publisher == nil {
		c.showMessage("no feed configured")
		return
	}
	d, err := c.sess.BeginPublish(c.user, "")
	if err != nil {
		c.fail("post", err)
		return
	}
	img, err := c.sess.ExportImage()
	if err != nil {
		c.sess.EndPublish(err)
		c.fail("post", err)
		return
	}
	c.showMessage("posting...")
	ctx, pub, send := c.ctx, c.publisher, c.send
	go func() {
		id, err := pub.Publish(ctx, d)
		send(publishedEvent{id: id, title: d.Title, img: img, err: err})
	}()
}

func (c *controller) reset() {
	c.sess.Reset()
	c.template = -1
	c.field = focusCaption
}

func (c *controller) status() string {
	who := "signed out"
	if c.user != nil {
		who = "@" + c.user.DisplayName()
	}
	st := c.sess.Style()
	parts := []string{
		who,
		fmt.Sprintf("%dpt", st.FontSize),
		colorName(st.Fill, theme.Hex) + "/" + colorName(st.Stroke, theme.Hex),
		c.sess.AddMode().String(),
	}
	if src := c.sess.Source(); src.View == editor.ViewTemplate && c.sess.HasImage() {
		parts = append(parts, src.Template)
	}
	if c.sess.Publishing() {
		parts = append(parts, "posting")
	}
	if c.cursor != editor.CursorDefault {
		parts = append(parts, c.cursor.String())
	}
	return strings.Join(parts, " | ")
}

func (c *controller) paintState() paintState {
	input := c.sess.Input()
	if c.field == focusTitle {
		input = c.sess.Title()
	}
	return paintState{
		width:        c.width,
		height:       c.height,
		scene:        c.sess.Scene(),
		canvas:       c.sess.CanvasSize(),
		field:        c.field.String(),
		input:        input,
		status:       c.status(),
		message:      c.message,
		messageUntil: c.messageUntil,
		shortcuts:    c.shortcuts(),
		hover:        c.hover,
	}
}
