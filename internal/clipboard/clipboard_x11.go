//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

var (
	initOnce sync.Once
	initErr  error
	owner    *imageOwner
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		o, err := newImageOwner()
		if err != nil {
			initErr = fmt.Errorf("x11 clipboard: %w", err)
			return
		}
		owner = o
	})
	return initErr
}

func writeImage(data []byte) error { return owner.offer(data) }

func readImage() ([]byte, error) { return owner.fetch() }

// pasteTypes are the image targets asked for when pasting, best first.
var pasteTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif", "image/bmp"}

// imageOwner holds the CLIPBOARD selection with a hidden window and serves
// the last copied meme as image/png. Without cgo this replaces the
// clipboard library.
type imageOwner struct {
	conn      *xgb.Conn
	window    xproto.Window
	clipboard xproto.Atom
	targets   xproto.Atom
	pngType   xproto.Atom
	transfer  xproto.Atom

	mu  sync.RWMutex
	png []byte
}

func newImageOwner() (*imageOwner, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	win, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = xproto.CreateWindowChecked(conn, screen.RootDepth, win, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		conn.Close()
		return nil, err
	}
	o := &imageOwner{conn: conn, window: win}
	for _, a := range []struct {
		dst  *xproto.Atom
		name string
	}{
		{&o.clipboard, "CLIPBOARD"},
		{&o.targets, "TARGETS"},
		{&o.pngType, "image/png"},
		{&o.transfer, "MEMESMITH_PASTE"},
	} {
		if *a.dst, err = atom(conn, a.name); err != nil {
			xproto.DestroyWindow(conn, win)
			conn.Close()
			return nil, err
		}
	}
	go o.serve()
	return o, nil
}

func atom(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern %s: %w", name, err)
	}
	return reply.Atom, nil
}

func (o *imageOwner) offer(data []byte) error {
	o.mu.Lock()
	o.png = append([]byte(nil), data...)
	o.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(o.conn, o.window, o.clipboard, xproto.TimeCurrentTime).Check()
}

// serve answers selection requests until the connection drops.
func (o *imageOwner) serve() {
	for {
		ev, err := o.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.answer(e)
		case xproto.SelectionClearEvent:
			o.mu.Lock()
			o.png = nil
			o.mu.Unlock()
		}
	}
}

func (o *imageOwner) answer(e xproto.SelectionRequestEvent) {
	prop := e.Property
	if prop == xproto.AtomNone {
		prop = e.Target
	}
	o.mu.RLock()
	data := o.png
	o.mu.RUnlock()

	switch {
	case len(data) == 0:
		prop = xproto.AtomNone
	case e.Target == o.targets:
		list := packAtoms([]xproto.Atom{o.targets, o.pngType})
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, prop, xproto.AtomAtom, 32, uint32(len(list)/4), list)
	case e.Target == o.pngType:
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, prop, o.pngType, 8, uint32(len(data)), data)
	default:
		prop = xproto.AtomNone
	}

	reply := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  prop,
	}
	xproto.SendEvent(o.conn, false, e.Requestor, 0, string(reply.Bytes()))
}

// fetch asks the selection owner which targets it offers and converts to
// the first image type on pasteTypes. A second connection is used so the
// request does not race serve for events.
func (o *imageOwner) fetch() ([]byte, error) {
	o.mu.RLock()
	own := append([]byte(nil), o.png...)
	o.mu.RUnlock()
	if len(own) > 0 {
		return own, nil
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	screen := xproto.Setup(conn).DefaultScreen(conn)
	win, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	err = xproto.CreateWindowChecked(conn, 0, win, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, win)

	raw, err := o.convert(conn, win, o.targets)
	if err != nil {
		return nil, err
	}
	want := make([]xproto.Atom, 0, len(pasteTypes))
	for _, name := range pasteTypes {
		a, err := atom(conn, name)
		if err != nil {
			return nil, err
		}
		want = append(want, a)
	}
	target, ok := pickTarget(unpackAtoms(raw), want)
	if !ok {
		return nil, fmt.Errorf("no image on offer: %w", ErrEmpty)
	}
	return o.convert(conn, win, target)
}

func (o *imageOwner) convert(conn *xgb.Conn, win xproto.Window, target xproto.Atom) ([]byte, error) {
	if err := xproto.DeletePropertyChecked(conn, win, o.transfer).Check(); err != nil {
		return nil, err
	}
	if err := xproto.ConvertSelectionChecked(conn, win, o.clipboard, target, o.transfer, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, err
	}
	for {
		ev, err := conn.WaitForEvent()
		if err != nil {
			return nil, err
		}
		n, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if n.Property == xproto.AtomNone {
			return nil, fmt.Errorf("selection refused: %w", ErrEmpty)
		}
		if n.Property != o.transfer {
			continue
		}
		reply, perr := xproto.GetProperty(conn, true, win, o.transfer, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if perr != nil {
			return nil, perr
		}
		return append([]byte(nil), reply.Value...), nil
	}
}

func pickTarget(offered, want []xproto.Atom) (xproto.Atom, bool) {
	have := make(map[xproto.Atom]bool, len(offered))
	for _, a := range offered {
		have[a] = true
	}
	for _, a := range want {
		if have[a] {
			return a, true
		}
	}
	return 0, false
}

func packAtoms(atoms []xproto.Atom) []byte {
	buf := make([]byte, len(atoms)*4)
	for i, a := range atoms {
		xgb.Put32(buf[i*4:], uint32(a))
	}
	return buf
}

func unpackAtoms(b []byte) []xproto.Atom {
	out := make([]xproto.Atom, 0, len(b)/4)
	for i := 0; i+4 <= len(b); i += 4 {
		out = append(out, xproto.Atom(xgb.Get32(b[i:])))
	}
	return out
}
