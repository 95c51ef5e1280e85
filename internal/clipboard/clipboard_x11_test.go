//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"testing"

	"github.com/jezek/xgb/xproto"
)

func TestAtomPacking(t *testing.T) {
	in := []xproto.Atom{4, 300, 70000}
	out := unpackAtoms(packAtoms(in))
	if len(out) != len(in) {
		t.Fatalf("got %v", out)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("atom %d: got %d want %d", i, out[i], in[i])
		}
	}
	if got := unpackAtoms([]byte{1, 2, 3}); len(got) != 0 {
		t.Fatalf("short buffer: got %v", got)
	}
}

func TestPickTargetPrefersOrder(t *testing.T) {
	const png, jpeg, text xproto.Atom = 10, 11, 12
	if a, ok := pickTarget([]xproto.Atom{text, jpeg, png}, []xproto.Atom{png, jpeg}); !ok || a != png {
		t.Fatalf("got %d %v, want png", a, ok)
	}
	if a, ok := pickTarget([]xproto.Atom{text, jpeg}, []xproto.Atom{png, jpeg}); !ok || a != jpeg {
		t.Fatalf("got %d %v, want jpeg", a, ok)
	}
	if _, ok := pickTarget([]xproto.Atom{text}, []xproto.Atom{png, jpeg}); ok {
		t.Fatalf("text only should not match")
	}
}
