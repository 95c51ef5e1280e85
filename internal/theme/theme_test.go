package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseOverridesDefaults(t *testing.T) {
	th, err := Parse(strings.NewReader("Name: Test\n# comment\nselectionborder: #112233\nDeleteFill: #11223344\nUnknown: #000000\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if th.Name != "Test" {
		t.Fatalf("name = %q", th.Name)
	}
	if th.SelectionBorder != (color.RGBA{0x11, 0x22, 0x33, 0xFF}) {
		t.Fatalf("selection = %+v", th.SelectionBorder)
	}
	if th.DeleteFill != (color.RGBA{0x11, 0x22, 0x33, 0x44}) {
		t.Fatalf("delete = %+v", th.DeleteFill)
	}
	if th.HandleFill != Default().HandleFill {
		t.Fatalf("unset field lost its default")
	}
}

func TestParseRejectsBadColor(t *testing.T) {
	if _, err := Parse(strings.NewReader("HandleFill: red\n")); err == nil {
		t.Fatal("expected error")
	}
}

func TestHexRoundTrip(t *testing.T) {
	for _, c := range []color.RGBA{{1, 2, 3, 255}, {250, 128, 0, 17}} {
		got, err := ParseHex(Hex(c))
		if err != nil || got != c {
			t.Fatalf("round trip %+v -> %+v (%v)", c, got, err)
		}
	}
}

func TestLoaderEmbeddedAndFile(t *testing.T) {
	l := &Loader{}
	dark, err := l.Load("dark")
	if err != nil {
		t.Fatalf("load dark: %v", err)
	}
	if dark.Name != "Dark" {
		t.Fatalf("name = %q", dark.Name)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "mine.theme")
	if err := os.WriteFile(path, []byte("Name: Mine\nBackground: #010203\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mine, err := l.Load(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if mine.Background != (color.RGBA{1, 2, 3, 255}) {
		t.Fatalf("background = %+v", mine.Background)
	}

	l.ConfigDir = dir
	byName, err := l.Load("mine")
	if err != nil || byName.Name != "Mine" {
		t.Fatalf("load from config dir: %v %+v", err, byName)
	}

	if _, err := l.Load("does-not-exist"); err == nil {
		t.Fatal("expected missing theme error")
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) < 2 || names[0] != "dark" {
		t.Fatalf("names = %v", names)
	}
}
