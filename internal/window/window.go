// Package window hosts an editing session in a desktop window: it maps
// pointer and keyboard input onto the session and paints its scene.
package window

import (
	"context"
	"image"
	"log"
	"sync"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/memesmith/internal/editor"
	"github.com/example/memesmith/internal/identity"
	"github.com/example/memesmith/internal/notify"
	"github.com/example/memesmith/internal/render"
	"github.com/example/memesmith/internal/templates"
)

// Window holds the configuration for one editor window.
type Window struct {
	Title    string
	Width    int
	Height   int
	Renderer *render.Renderer

	session     *editor.Session
	sessionOpts []editor.Option
	postTitle   string
	catalog     *templates.Catalog
	notifier    *notify.Notifier
	ident       identity.Service
	publisher   editor.Publisher
	saveDir     string
	output      string
	capture     func() (*image.RGBA, error)

	updateCh  chan struct{}
	onClose   func()
	closeOnce sync.Once
}

// Option modifies a Window during creation.
type Option func(*Window)

// WithSessionOptions passes options through to the editing session.
func WithSessionOptions(opts ...editor.Option) Option {
	return func(w *Window) { w.sessionOpts = append(w.sessionOpts, opts...) }
}

// WithRenderer sets the renderer used for the canvas and exports.
func WithRenderer(r *render.Renderer) Option { return func(w *Window) { w.Renderer = r } }

// WithSession hosts an existing session instead of creating one. Session
// options are ignored when it is set.
func WithSession(s *editor.Session) Option { return func(w *Window) { w.session = s } }

// WithPostTitle presets the title used when posting.
func WithPostTitle(t string) Option { return func(w *Window) { w.postTitle = t } }

// WithCatalog enables template cycling and reloads the list when its
// directory changes.
func WithCatalog(c *templates.Catalog) Option { return func(w *Window) { w.catalog = c } }

// WithNotifier sets the desktop notifier.
func WithNotifier(n *notify.Notifier) Option { return func(w *Window) { w.notifier = n } }

// WithIdentity tracks the signed-in user for posting.
func WithIdentity(s identity.Service) Option { return func(w *Window) { w.ident = s } }

// WithPublisher sets where posted memes go.
func WithPublisher(p editor.Publisher) Option { return func(w *Window) { w.publisher = p } }

// WithSaveDir sets the directory Ctrl+S writes to when no output is set.
func WithSaveDir(dir string) Option { return func(w *Window) { w.saveDir = dir } }

// WithOutput sets a fixed file Ctrl+S writes to.
func WithOutput(path string) Option { return func(w *Window) { w.output = path } }

// WithCapture replaces the screen grabber behind Ctrl+N.
func WithCapture(fn func() (*image.RGBA, error)) Option { return func(w *Window) { w.capture = fn } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(w *Window) { w.onClose = fn } }

// New creates a Window with the provided options.
func New(opts ...Option) *Window {
	w := &Window{
		Title:    "memesmith",
		Width:    editor.DefaultMaxCanvas.X,
		Height:   editor.DefaultMaxCanvas.Y + barHeight,
		updateCh: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// requestPaint asks for a repaint without blocking the caller.
func (w *Window) requestPaint() {
	select {
	case w.updateCh <- struct{}{}:
	default:
	}
}

func (w *Window) notifyClose() {
	w.closeOnce.Do(func() {
		if w.onClose != nil {
			w.onClose()
		}
	})
}

// controller builds the session and its controller. The session's redraw
// hook feeds requestPaint.
func (w *Window) controller() (*controller, error) {
	if w.Renderer == nil {
		r, err := render.New(nil)
		if err != nil {
			return nil, err
		}
		w.Renderer = r
	}
	sess := w.session
	if sess == nil {
		opts := append([]editor.Option{editor.WithRenderer(w.Renderer)}, w.sessionOpts...)
		sess = editor.New(opts...)
	}
	sess.SetRedrawHook(w.requestPaint)
	if w.postTitle != "" {
		sess.SetTitle(w.postTitle)
	}

	c := newController(sess)
	c.catalog = w.catalog
	c.notifier = w.notifier
	c.publisher = w.publisher
	c.saveDir = w.saveDir
	c.output = w.output
	if w.capture != nil {
		c.capture = w.capture
	}
	c.resize(w.Width, w.Height)
	return c, nil
}

// Run executes the UI loop using shiny's driver.
func (w *Window) Run() error {
	c, err := w.controller()
	if err != nil {
		return err
	}
	driver.Main(func(s screen.Screen) { w.main(s, c) })
	return nil
}

// main drives c from the window's event queue until the window closes or
// the user quits.
func (w *Window) main(s screen.Screen, c *controller) {
	win, err := s.NewWindow(&screen.NewWindowOptions{Width: w.Width, Height: w.Height, Title: w.Title})
	if err != nil {
		log.Printf("new window: %v", err)
		return
	}
	defer win.Release()
	defer w.notifyClose()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.ctx = ctx
	c.send = win.Send

	go func() {
		for {
			select {
			case <-w.updateCh:
				win.Send(paint.Event{})
			case <-ctx.Done():
				return
			}
		}
	}()

	if w.ident != nil {
		stop := w.ident.OnChange(func(u *identity.User) { win.Send(userEvent{user: u}) })
		defer stop()
	}
	if w.catalog != nil {
		dir := w.catalog.Dir
		go func() {
			err := w.catalog.Watch(ctx, func() {
				cat, err := templates.Load(dir)
				win.Send(catalogEvent{catalog: cat, err: err})
			})
			if err != nil {
				log.Printf("templates: %v", err)
			}
		}()
	}

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		for st := range paintCh {
			pctx, pcancel := context.WithCancel(ctx)
			paintMu.Lock()
			paintCancel = pcancel
			paintMu.Unlock()
			drawFrame(pctx, s, win, st, w.Renderer)
			paintMu.Lock()
			paintCancel = nil
			if pctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			pcancel()
		}
	}()
	stopPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	for {
		repaint := false
		switch e := win.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				stopPaint()
				return
			}
		case size.Event:
			c.resize(e.WidthPx, e.HeightPx)
			repaint = true
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := c.paintState()
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case mouse.Event:
			repaint = c.handleMouse(e)
		case key.Event:
			repaint = c.handleKey(e)
		case error:
			log.Printf("window: %v", e)
		default:
			repaint = c.handleAsync(e)
		}
		if c.quit {
			stopPaint()
			return
		}
		if repaint {
			win.Send(paint.Event{})
		}
	}
}
