//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestPortalOptions(t *testing.T) {
	prev := portalHandleToken
	portalHandleToken = func() string { return "test-token" }
	t.Cleanup(func() { portalHandleToken = prev })

	opts := portalOptions(true, true)
	if v, _ := opts["interactive"].Value().(bool); !v {
		t.Fatalf("interactive not set")
	}
	if v, _ := opts["modal"].Value().(bool); !v {
		t.Fatalf("modal not set")
	}
	if v, _ := opts["cursor_mode"].Value().(string); v != "embedded" {
		t.Fatalf("cursor_mode = %q", v)
	}
	if v, _ := opts["handle_token"].Value().(string); v != "test-token" {
		t.Fatalf("handle_token = %q", v)
	}
	if v, _ := portalOptions(false, false)["cursor_mode"].Value().(string); v != "hidden" {
		t.Fatalf("default cursor_mode = %q", v)
	}
}

func TestPortalResult(t *testing.T) {
	ok := []interface{}{uint32(0), map[string]dbus.Variant{"uri": dbus.MakeVariant("file:///tmp/Screenshot%20from%20now.png")}}
	path, err := portalResult(ok)
	if err != nil {
		t.Fatal(err)
	}
	if path != "/tmp/Screenshot from now.png" {
		t.Fatalf("path = %q", path)
	}

	for name, body := range map[string][]interface{}{
		"short":     {uint32(0)},
		"cancelled": {uint32(1), map[string]dbus.Variant{}},
		"no uri":    {uint32(0), map[string]dbus.Variant{}},
		"http":      {uint32(0), map[string]dbus.Variant{"uri": dbus.MakeVariant("http://x/y.png")}},
	} {
		if _, err := portalResult(body); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
