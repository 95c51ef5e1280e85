//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && cgo

package clipboard

import (
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		initErr = clipboard.Init()
	})
	return initErr
}

// The library only speaks image/png; it converts nothing else.
func writeImage(data []byte) error {
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}

func readImage() ([]byte, error) {
	return clipboard.Read(clipboard.FmtImage), nil
}
