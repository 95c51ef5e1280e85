// Package feed publishes memes to the content store and presents them as a
// sorted, votable list.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/memesmith/internal/store"
)

var (
	ErrEmptyImage = errors.New("meme has no image")
	ErrNoAuthor   = errors.New("meme has no author")
	ErrNoUser     = errors.New("sign in to vote")
)

// AnonymousName is shown for authors without a username.
const AnonymousName = "Anonymous"

// Draft is a finished meme ready to publish.
type Draft struct {
	Title    string
	Image    []byte
	AuthorID string
	Username string
}

// Sort orders the feed.
type Sort int

const (
	// SortRecent puts the newest meme first.
	SortRecent Sort = iota
	// SortPopular puts the most upvoted meme first.
	SortPopular
)

// ParseSort accepts "recent" or "popular".
func ParseSort(s string) (Sort, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "recent":
		return SortRecent, nil
	case "popular":
		return SortPopular, nil
	}
	return 0, fmt.Errorf("unknown sort %q", s)
}

func (s Sort) String() string {
	if s == SortPopular {
		return "popular"
	}
	return "recent"
}

// Item is a meme as seen by one user.
type Item struct {
	store.Meme
	Upvoted bool
}

// Author returns the username or AnonymousName.
func (i Item) Author() string {
	if i.Username == "" {
		return AnonymousName
	}
	return i.Username
}

// Manager runs feed operations against a store.
type Manager struct {
	store store.Store
	now   func() time.Time
	// votes serialises toggles so a double click cannot vote twice.
	votes sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides time.Now for creation stamps.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// NewManager returns a Manager over st.
func NewManager(st store.Store, opts ...Option) *Manager {
	m := &Manager{store: st, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Store returns the backing store.
func (m *Manager) Store() store.Store { return m.store }

// Publish stores d with a zero vote count and returns the new meme id.
func (m *Manager) Publish(ctx context.Context, d Draft) (string, error) {
	if len(d.Image) == 0 {
		return "", ErrEmptyImage
	}
	if d.AuthorID == "" {
		return "", ErrNoAuthor
	}
	meme := store.Meme{
		ID:        store.NewID(),
		Title:     strings.TrimSpace(d.Title),
		Image:     d.Image,
		AuthorID:  d.AuthorID,
		Username:  d.Username,
		CreatedAt: m.now(),
	}
	if err := m.store.Commit(ctx, store.PutMeme{Meme: meme}); err != nil {
		return "", err
	}
	return meme.ID, nil
}

func feedQuery(userID string) store.Query {
	return store.Query{Memes: true, VotesBy: userID}
}

func items(r store.Result, s Sort) []Item {
	voted := make(map[string]bool, len(r.Votes))
	for _, v := range r.Votes {
		voted[v.MemeID] = true
	}
	out := make([]Item, len(r.Memes))
	for i, meme := range r.Memes {
		out[i] = Item{Meme: meme, Upvoted: voted[meme.ID]}
	}
	SortItems(out, s)
	return out
}

// SortItems orders items in place. Popular ties keep newest first.
func SortItems(items []Item, s Sort) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if s == SortPopular && a.UpvoteCount != b.UpvoteCount {
			return a.UpvoteCount > b.UpvoteCount
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// List returns the feed for userID, which may be empty for a signed-out
// viewer.
func (m *Manager) List(ctx context.Context, userID string, s Sort) ([]Item, error) {
	r, err := m.store.QueryOnce(ctx, feedQuery(userID))
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}
	return items(r, s), nil
}

// Watch calls fn with the feed now and after every change.
func (m *Manager) Watch(ctx context.Context, userID string, s Sort, fn func([]Item)) (*store.Subscription, error) {
	return m.store.Subscribe(ctx, feedQuery(userID), func(r store.Result) {
		fn(items(r, s))
	})
}

// Meme fetches a single meme.
func (m *Manager) Meme(ctx context.Context, id string) (store.Meme, error) {
	r, err := m.store.QueryOnce(ctx, store.Query{MemeID: id})
	if err != nil {
		return store.Meme{}, err
	}
	if len(r.Memes) == 0 {
		return store.Meme{}, fmt.Errorf("meme %s: %w", id, store.ErrNotFound)
	}
	return r.Memes[0], nil
}

// ToggleUpvote adds userID's vote on memeID or takes it back. It reports
// whether the meme is upvoted afterwards.
func (m *Manager) ToggleUpvote(ctx context.Context, userID, memeID string) (bool, error) {
	if userID == "" {
		return false, ErrNoUser
	}
	m.votes.Lock()
	defer m.votes.Unlock()
	r, err := m.store.QueryOnce(ctx, store.Query{VotesBy: userID, VoteOn: memeID})
	if err != nil {
		return false, fmt.Errorf("query votes: %w", err)
	}
	if len(r.Votes) > 0 {
		muts := []store.Mutation{store.AdjustUpvotes{MemeID: memeID, Delta: -len(r.Votes)}}
		for _, v := range r.Votes {
			muts = append(muts, store.DeleteVote{ID: v.ID})
		}
		if err := m.store.Commit(ctx, muts...); err != nil {
			return true, fmt.Errorf("remove upvote: %w", err)
		}
		return false, nil
	}
	vote := store.Vote{ID: store.NewID(), UserID: userID, MemeID: memeID, CreatedAt: m.now()}
	if err := m.store.Commit(ctx,
		store.PutVote{Vote: vote},
		store.AdjustUpvotes{MemeID: memeID, Delta: 1},
	); err != nil {
		return false, fmt.Errorf("add upvote: %w", err)
	}
	return true, nil
}
