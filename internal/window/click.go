package window

import (
	"image"
	"time"
)

const (
	doubleClickInterval = 400 * time.Millisecond
	doubleClickSlop     = 4
)

// clickTracker turns press timestamps into double-click detection. A second
// press close in time and space to the first counts; a third starts over.
type clickTracker struct {
	at    time.Time
	where image.Point
	armed bool
}

// press records a button press and reports whether it completes a double
// click.
func (c *clickTracker) press(p image.Point, now time.Time) bool {
	d := p.Sub(c.where)
	if c.armed && now.Sub(c.at) <= doubleClickInterval &&
		abs(d.X) <= doubleClickSlop && abs(d.Y) <= doubleClickSlop {
		c.armed = false
		return true
	}
	c.at = now
	c.where = p
	c.armed = true
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
