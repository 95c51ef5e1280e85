package capture

import (
	"image"
	"image/color"
	"testing"
)

var monitors = []MonitorInfo{
	{Index: 0, Name: "HDMI-1", Rect: image.Rect(0, 0, 1920, 1080)},
	{Index: 1, Name: "eDP-1", Rect: image.Rect(1920, 0, 3200, 800), Primary: true},
}

func TestFindMonitor(t *testing.T) {
	tests := []struct {
		sel  string
		want int
	}{
		{"", 0},
		{"primary", 1},
		{"1", 1},
		{"#0", 0},
		{"edp", 1},
	}
	for _, tc := range tests {
		got, err := FindMonitor(monitors, tc.sel)
		if err != nil {
			t.Fatalf("FindMonitor(%q): %v", tc.sel, err)
		}
		if got.Index != tc.want {
			t.Fatalf("FindMonitor(%q) = %d, want %d", tc.sel, got.Index, tc.want)
		}
	}
	if _, err := FindMonitor(monitors, "7"); err == nil {
		t.Fatalf("expected out of range error")
	}
	if _, err := FindMonitor(monitors, "dp-9"); err == nil {
		t.Fatalf("expected not found error")
	}
	if _, err := FindMonitor(nil, ""); err != errNoMonitors {
		t.Fatalf("expected errNoMonitors, got %v", err)
	}
}

func TestCropToRect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	src.Set(60, 10, color.RGBA{1, 2, 3, 255})
	got, err := cropToRect(src, image.Rect(50, 0, 200, 40))
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds() != image.Rect(0, 0, 50, 40) {
		t.Fatalf("bounds = %v", got.Bounds())
	}
	if c := got.RGBAAt(10, 10); c != (color.RGBA{1, 2, 3, 255}) {
		t.Fatalf("pixel = %v", c)
	}
	if _, err := cropToRect(src, image.Rect(500, 500, 600, 600)); err == nil {
		t.Fatalf("expected error for region outside image")
	}
}
