package platform

// AppName identifies the application to notification daemons.
const AppName = "memesmith"

// Urgency ranks a notification. The zero value is normal.
type Urgency int

const (
	UrgencyNormal Urgency = iota
	UrgencyLow
	UrgencyCritical
)

// level returns the freedesktop urgency byte.
func (u Urgency) level() byte {
	switch u {
	case UrgencyLow:
		return 0
	case UrgencyCritical:
		return 2
	}
	return 1
}

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Critical notifications stay on screen where the platform allows it.
	Urgency Urgency
}

// expireMillis is how long a notification stays up; zero keeps it until
// dismissed.
func (o Options) expireMillis() int32 {
	if o.Urgency == UrgencyCritical {
		return 0
	}
	return 5000
}
