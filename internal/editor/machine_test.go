package editor

import (
	"testing"

	"github.com/example/memesmith/internal/layout"
)

func TestStateStrings(t *testing.T) {
	cases := map[State]string{Idle: "idle", Dragging: "dragging", Resizing: "resizing"}
	for st, want := range cases {
		if st.String() != want {
			t.Fatalf("%d.String() = %q, want %q", st, st.String(), want)
		}
	}
}

func TestHoverCursor(t *testing.T) {
	s := newSession(t)
	id := addText(t, s, "hello")
	if res := move(s, 5, 5); res.Cursor != CursorDefault {
		t.Fatalf("empty hover = %v", res.Cursor)
	}
	if res := move(s, 200, 150); res.Cursor != CursorMove {
		t.Fatalf("box hover = %v", res.Cursor)
	}
	s.Select(id)
	box := s.Annotations().Get(id).Box(halfEm)
	if res := move(s, box.Min.X, box.Min.Y); res.Cursor != CursorResize {
		t.Fatalf("handle hover = %v", res.Cursor)
	}
	c := layout.DeleteButton(box).Center
	if res := move(s, c.X, c.Y); res.Cursor != CursorPointer {
		t.Fatalf("delete hover = %v", res.Cursor)
	}
}

func TestHandlesOnlyForSelection(t *testing.T) {
	s := newSession(t)
	id := addText(t, s, "hello")
	box := s.Annotations().Get(id).Box(halfEm)
	// Corner points belong to the box too, so an unselected corner drags.
	down(s, box.Max.X, box.Max.Y)
	if s.Gesture() != Dragging {
		t.Fatalf("state = %v, want dragging", s.Gesture())
	}
}

func TestReduceUpAlwaysIdles(t *testing.T) {
	for _, st := range []State{Idle, Dragging, Resizing} {
		m, _ := Reduce(Machine{State: st, Target: 9}, New(WithMeasurer(halfEm)), Event{Kind: PointerUp})
		if m.State != Idle || m.Target != 0 {
			t.Fatalf("from %v: %+v", st, m)
		}
	}
}
