//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import "errors"

var errUnsupported = errors.New("clipboard operations are not supported on this platform")

func ensureInit() error { return errUnsupported }

func writeImage([]byte) error { return errUnsupported }

func readImage() ([]byte, error) { return nil, errUnsupported }
