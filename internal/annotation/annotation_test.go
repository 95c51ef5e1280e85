package annotation

import (
	"image/color"
	"testing"

	"github.com/example/memesmith/internal/layout"
)

var halfEm = layout.MeasureFunc(func(line string, size int) float64 {
	return float64(len([]rune(line))) * float64(size) * 0.5
})

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"hello":       "HELLO",
		"Mixed Case!": "MIXED CASE!",
		"straße":      "STRASSE",
		"two\nlines":  "TWO\nLINES",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaults(t *testing.T) {
	var a Annotation
	if a.FillColor() != DefaultFill || a.StrokeColor() != DefaultStroke {
		t.Fatalf("unexpected default colours")
	}
	if a.Size() != DefaultFontSize {
		t.Fatalf("size = %d", a.Size())
	}
	a.Fill = color.RGBA{255, 0, 0, 255}
	if a.FillColor() != a.Fill {
		t.Fatalf("explicit fill ignored")
	}
}

func TestSequenceNeverRepeats(t *testing.T) {
	var s Sequence
	seen := map[ID]bool{}
	for i := 0; i < 100; i++ {
		id := s.Next()
		if id == 0 || seen[id] {
			t.Fatalf("bad id %d", id)
		}
		seen[id] = true
	}
}

func TestListRemoveAndTopmost(t *testing.T) {
	l := List{
		{ID: 1, Text: "A", Position: layout.Pt(100, 100), FontSize: 40},
		{ID: 2, Text: "B", Position: layout.Pt(105, 100), FontSize: 40},
		{ID: 3, Text: "C", Position: layout.Pt(500, 500), FontSize: 40},
	}
	id, ok := l.TopmostAt(layout.Pt(102, 100), halfEm)
	if !ok || id != 2 {
		t.Fatalf("topmost = %d, %v; want 2", id, ok)
	}
	if _, ok := l.TopmostAt(layout.Pt(300, 300), halfEm); ok {
		t.Fatalf("expected miss")
	}
	orig := l.Clone()
	l, ok = l.Remove(2)
	if !ok || len(l) != 2 || l.Index(2) != -1 {
		t.Fatalf("remove failed: %+v", l)
	}
	if orig[1].ID != 2 {
		t.Fatalf("clone shares storage")
	}
	if _, ok := l.Remove(42); ok {
		t.Fatalf("removed missing id")
	}
}

func TestClampFontSize(t *testing.T) {
	if ClampFontSize(5) != MinFontSize || ClampFontSize(500) != MaxFontSize || ClampFontSize(60) != 60 {
		t.Fatalf("clamp out of range")
	}
}
