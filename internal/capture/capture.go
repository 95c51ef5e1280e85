// Package capture grabs the desktop so a screenshot can become a meme's base
// image.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strconv"
	"strings"
)

var errNoMonitors = errors.New("no monitors available")

// Options controls a screen grab.
type Options struct {
	// Display selects a monitor by index, name fragment or "primary". Empty
	// grabs every monitor.
	Display string
	// Interactive lets the user pick a region through the desktop portal.
	Interactive bool
	// IncludeCursor asks the portal to embed the pointer.
	IncludeCursor bool
}

// MonitorInfo describes an individual monitor in the display layout.
type MonitorInfo struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	Primary bool
}

// Screen captures the desktop. X11 sessions are read directly from the root
// window; Wayland sessions and interactive grabs go through the screenshot
// portal.
func Screen(opts Options) (*image.RGBA, error) {
	var (
		img *image.RGBA
		err error
	)
	if opts.Interactive || runningOnWayland() {
		img, err = portalScreenshot(opts.Interactive, opts.IncludeCursor)
	} else {
		img, err = rootImage()
		if err != nil {
			var perr error
			img, perr = portalScreenshot(false, opts.IncludeCursor)
			if perr != nil {
				return nil, fmt.Errorf("screen capture: %v; portal fallback: %w", err, perr)
			}
			err = nil
		}
	}
	if err != nil {
		return nil, err
	}
	if opts.Display == "" || opts.Interactive {
		return img, nil
	}
	monitors, err := ListMonitors()
	if err != nil {
		return nil, err
	}
	mon, err := FindMonitor(monitors, opts.Display)
	if err != nil {
		return nil, err
	}
	return cropToRect(img, mon.Rect)
}

// FindMonitor resolves a monitor selector against the provided list.
func FindMonitor(monitors []MonitorInfo, selector string) (MonitorInfo, error) {
	if len(monitors) == 0 {
		return MonitorInfo{}, errNoMonitors
	}
	sel := strings.ToLower(strings.TrimSpace(selector))
	switch sel {
	case "":
		return monitors[0], nil
	case "primary":
		for _, mon := range monitors {
			if mon.Primary {
				return mon, nil
			}
		}
		return monitors[0], nil
	}
	if idx, err := strconv.Atoi(strings.TrimPrefix(sel, "#")); err == nil {
		if idx < 0 || idx >= len(monitors) {
			return MonitorInfo{}, fmt.Errorf("monitor index %d out of range", idx)
		}
		return monitors[idx], nil
	}
	for _, mon := range monitors {
		if strings.Contains(strings.ToLower(mon.Name), sel) {
			return mon, nil
		}
	}
	return MonitorInfo{}, fmt.Errorf("monitor %q not found", selector)
}

func cropToRect(src *image.RGBA, rect image.Rectangle) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("requested region outside captured image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst, nil
}
