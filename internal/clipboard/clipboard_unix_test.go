//go:build linux || freebsd || openbsd || netbsd || dragonfly

package clipboard

import (
	"errors"
	"sync"
	"testing"
)

func resetInit() {
	initOnce = sync.Once{}
	initErr = nil
}

func TestEnsureInitWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	resetInit()
	t.Cleanup(resetInit)

	if err := CopyPNG([]byte{0x89, 'P', 'N', 'G'}); !errors.Is(err, errNoDisplay) {
		t.Fatalf("CopyPNG: expected errNoDisplay, got %v", err)
	}
	if _, err := PasteImage(); !errors.Is(err, errNoDisplay) {
		t.Fatalf("PasteImage: expected errNoDisplay, got %v", err)
	}
}
