package editor

import "errors"

// Notice is a validation failure shown to the user as a transient message.
// Returning one never changes session state.
type Notice struct {
	msg string
}

func (n *Notice) Error() string { return n.msg }

var (
	ErrNoImage          = &Notice{"upload an image first"}
	ErrNothingToExport  = &Notice{"add some text before saving or posting"}
	ErrNotAuthenticated = &Notice{"sign in to post memes"}
	ErrPublishInFlight  = &Notice{"already posting"}
)

// ErrStaleLoad reports that a newer load superseded this one. Hosts drop it.
var ErrStaleLoad = errors.New("image load superseded")

// IsNotice reports whether err is a user-facing validation notice.
func IsNotice(err error) bool {
	var n *Notice
	return errors.As(err, &n)
}
