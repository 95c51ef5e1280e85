package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/memesmith/internal/feed"
	"github.com/example/memesmith/internal/identity"
)

// Publisher stores a finished meme. feed.Manager implements it.
type Publisher interface {
	Publish(ctx context.Context, d feed.Draft) (string, error)
}

// Publishing reports whether a publish is in flight.
func (s *Session) Publishing() bool { return s.publishing }

// CanPublish reports whether the publish control should be enabled.
func (s *Session) CanPublish() bool { return s.CanExport() && !s.publishing }

// BeginPublish validates the session, renders the export raster and marks a
// publish as in flight. The caller must call EndPublish with the outcome.
func (s *Session) BeginPublish(user *identity.User, title string) (feed.Draft, error) {
	if user == nil {
		return feed.Draft{}, ErrNotAuthenticated
	}
	if s.publishing {
		return feed.Draft{}, ErrPublishInFlight
	}
	if !s.HasImage() {
		return feed.Draft{}, ErrNoImage
	}
	if len(s.list) == 0 {
		return feed.Draft{}, ErrNothingToExport
	}
	raster, err := s.ExportRaster()
	if err != nil {
		return feed.Draft{}, err
	}
	if title == "" {
		title = s.title
	}
	s.publishing = true
	return feed.Draft{
		Title:    strings.TrimSpace(title),
		Image:    raster,
		AuthorID: user.ID,
		Username: user.Username,
	}, nil
}

// EndPublish re-enables publishing. On success the session is reset; on
// failure every edit is kept so the user can retry.
func (s *Session) EndPublish(err error) {
	s.publishing = false
	if err == nil {
		s.Reset()
		return
	}
	s.redraw()
}

// Publish runs BeginPublish, the store round-trip and EndPublish in one call.
func (s *Session) Publish(ctx context.Context, p Publisher, user *identity.User, title string) (string, error) {
	d, err := s.BeginPublish(user, title)
	if err != nil {
		return "", err
	}
	id, err := p.Publish(ctx, d)
	s.EndPublish(err)
	if err != nil {
		return "", fmt.Errorf("publish meme: %w", err)
	}
	return id, nil
}
