package feed

import (
	"fmt"
	"time"
)

// TimeAgo renders the age of t relative to now the way the feed shows it.
func TimeAgo(t, now time.Time) string {
	s := int64(now.Sub(t) / time.Second)
	switch {
	case s < 60:
		return "just now"
	case s < 3600:
		return fmt.Sprintf("%dm ago", s/60)
	case s < 86400:
		return fmt.Sprintf("%dh ago", s/3600)
	case s < 604800:
		return fmt.Sprintf("%dd ago", s/86400)
	}
	return fmt.Sprintf("%dw ago", s/604800)
}
