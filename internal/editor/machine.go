package editor

import (
	"math"

	"github.com/example/memesmith/internal/annotation"
	"github.com/example/memesmith/internal/layout"
)

// State is the gesture currently in progress.
type State int

const (
	Idle State = iota
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	}
	return "idle"
}

// EventKind enumerates pointer input the machine understands.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	DoubleClick
)

// Event is a pointer event in canvas coordinates.
type Event struct {
	Kind  EventKind
	Point layout.Point
}

// Cursor is a hover hint for the host.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorPointer
	CursorMove
	CursorResize
)

func (c Cursor) String() string {
	switch c {
	case CursorPointer:
		return "pointer"
	case CursorMove:
		return "move"
	case CursorResize:
		return "resize"
	}
	return "default"
}

// resizeRate converts vertical pointer travel into font size change.
const resizeRate = 0.5

// Machine holds gesture anchors. The zero value is Idle.
type Machine struct {
	State     State
	Target    annotation.ID
	Offset    layout.Point
	StartSize int
	StartY    float64
}

// Result tells the host what to do after an event.
type Result struct {
	// Redraw is set when the model changed.
	Redraw bool
	Cursor Cursor
	// FocusInput asks the host to focus the text input; SelectInput also
	// selects its whole content so typing replaces it.
	FocusInput  bool
	SelectInput bool
	// Err carries a user-facing notice, such as a double-click with no image.
	Err error
}

// Document is the model the machine mutates. Session implements it.
type Document interface {
	hasImage() bool
	annotations() annotation.List
	selection() annotation.ID
	measurer() layout.Measurer
	selectAnnotation(id annotation.ID)
	moveAnnotation(id annotation.ID, pos layout.Point) bool
	resizeAnnotation(id annotation.ID, size int) bool
	removeAnnotation(id annotation.ID) bool
	beginEdit(id annotation.ID) bool
	createAt(p layout.Point) annotation.ID
}

type hitKind int

const (
	hitNone hitKind = iota
	hitDelete
	hitHandle
	hitBox
)

// hitTest resolves p against the selected annotation's delete affordance,
// then its handles, then every box from the top of the stack down.
func hitTest(doc Document, p layout.Point) (hitKind, annotation.ID) {
	list := doc.annotations()
	m := doc.measurer()
	if sel := list.Get(doc.selection()); sel != nil {
		box := sel.Box(m)
		if layout.DeleteButton(box).Contains(p) {
			return hitDelete, sel.ID
		}
		for _, h := range layout.Handles(box) {
			if h.Contains(p) {
				return hitHandle, sel.ID
			}
		}
	}
	if id, ok := list.TopmostAt(p, m); ok {
		return hitBox, id
	}
	return hitNone, 0
}

// Reduce applies ev to m against doc and returns the next machine state.
func Reduce(m Machine, doc Document, ev Event) (Machine, Result) {
	switch ev.Kind {
	case PointerDown:
		return pointerDown(doc, ev.Point)
	case PointerMove:
		return pointerMove(m, doc, ev.Point)
	case PointerUp:
		return Machine{}, Result{Cursor: hover(doc, ev.Point)}
	case DoubleClick:
		return doubleClick(doc, ev.Point)
	}
	return m, Result{}
}

func pointerDown(doc Document, p layout.Point) (Machine, Result) {
	kind, id := hitTest(doc, p)
	switch kind {
	case hitDelete:
		doc.removeAnnotation(id)
		doc.selectAnnotation(0)
		return Machine{}, Result{Redraw: true}
	case hitHandle:
		a := doc.annotations().Get(id)
		return Machine{State: Resizing, Target: id, StartSize: a.Size(), StartY: p.Y}, Result{Cursor: CursorResize}
	case hitBox:
		doc.selectAnnotation(id)
		a := doc.annotations().Get(id)
		return Machine{State: Dragging, Target: id, Offset: p.Sub(a.Position)}, Result{Redraw: true, Cursor: CursorMove}
	}
	return Machine{}, Result{}
}

func pointerMove(m Machine, doc Document, p layout.Point) (Machine, Result) {
	switch m.State {
	case Dragging:
		if !doc.moveAnnotation(m.Target, p.Sub(m.Offset)) {
			return Machine{}, Result{}
		}
		return m, Result{Redraw: true, Cursor: CursorMove}
	case Resizing:
		size := int(math.Round(float64(m.StartSize) + (p.Y-m.StartY)*resizeRate))
		if !doc.resizeAnnotation(m.Target, annotation.ClampFontSize(size)) {
			return Machine{}, Result{}
		}
		return m, Result{Redraw: true, Cursor: CursorResize}
	}
	return m, Result{Cursor: hover(doc, p)}
}

func hover(doc Document, p layout.Point) Cursor {
	switch kind, _ := hitTest(doc, p); kind {
	case hitDelete:
		return CursorPointer
	case hitHandle:
		return CursorResize
	case hitBox:
		return CursorMove
	}
	return CursorDefault
}

func doubleClick(doc Document, p layout.Point) (Machine, Result) {
	if !doc.hasImage() {
		return Machine{}, Result{Err: ErrNoImage}
	}
	if id, ok := doc.annotations().TopmostAt(p, doc.measurer()); ok {
		doc.selectAnnotation(id)
		doc.beginEdit(id)
		return Machine{}, Result{Redraw: true, FocusInput: true, Cursor: CursorMove}
	}
	doc.createAt(p)
	return Machine{}, Result{Redraw: true, FocusInput: true, SelectInput: true, Cursor: CursorMove}
}
