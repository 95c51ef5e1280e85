//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"image/color"
	"testing"

	"github.com/jezek/xgb/xproto"
)

func TestXImageToRGBA(t *testing.T) {
	setup := &xproto.SetupInfo{
		ImageByteOrder: xproto.ImageOrderLSBFirst,
		PixmapFormats:  []xproto.Format{{Depth: 24, BitsPerPixel: 32}},
	}
	// Two BGRX pixels; the pad byte must not become alpha.
	reply := &xproto.GetImageReply{Depth: 24, Data: []byte{10, 20, 30, 0, 40, 50, 60, 0}}
	img, err := xImageToRGBA(setup, reply, 2, 1, "screen")
	if err != nil {
		t.Fatal(err)
	}
	if c := img.RGBAAt(0, 0); c != (color.RGBA{30, 20, 10, 255}) {
		t.Fatalf("pixel 0 = %v", c)
	}
	if c := img.RGBAAt(1, 0); c != (color.RGBA{60, 50, 40, 255}) {
		t.Fatalf("pixel 1 = %v", c)
	}

	setup.ImageByteOrder = xproto.ImageOrderMSBFirst
	img, err = xImageToRGBA(setup, &xproto.GetImageReply{Depth: 24, Data: []byte{0, 1, 2, 3}}, 1, 1, "screen")
	if err != nil {
		t.Fatal(err)
	}
	if c := img.RGBAAt(0, 0); c != (color.RGBA{1, 2, 3, 255}) {
		t.Fatalf("msb pixel = %v", c)
	}

	if _, err := xImageToRGBA(setup, &xproto.GetImageReply{Depth: 8, Data: []byte{1}}, 1, 1, "screen"); err == nil {
		t.Fatalf("expected unsupported depth error")
	}
}

func TestRunningOnWayland(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "wayland")
	t.Setenv("WAYLAND_DISPLAY", "")
	if !runningOnWayland() {
		t.Fatalf("expected wayland session when XDG_SESSION_TYPE=wayland")
	}
	t.Setenv("XDG_SESSION_TYPE", "x11")
	t.Setenv("WAYLAND_DISPLAY", "wayland-0")
	if !runningOnWayland() {
		t.Fatalf("expected wayland session when WAYLAND_DISPLAY is set")
	}
	t.Setenv("WAYLAND_DISPLAY", "")
	if runningOnWayland() {
		t.Fatalf("did not expect wayland session when indicators are absent")
	}
}
