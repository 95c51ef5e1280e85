// Package store is the content store behind the meme feed: memes, votes and
// user records, live queries over them and atomic multi-record commits.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned when a mutation names a record that does not exist.
var ErrNotFound = errors.New("record not found")

// Meme is a published image.
type Meme struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Image       []byte    `json:"image"`
	AuthorID    string    `json:"authorId"`
	Username    string    `json:"username,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpvoteCount int       `json:"upvoteCount"`
}

// Vote records that a user upvoted a meme.
type Vote struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	MemeID    string    `json:"memeId"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is the profile stored the first time someone signs in with a name.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Query selects what a Result carries. Zero fields select nothing.
type Query struct {
	// Memes includes every meme, newest first.
	Memes bool
	// MemeID includes a single meme.
	MemeID string
	// VotesBy includes the votes cast by this user id.
	VotesBy string
	// VoteOn narrows VotesBy to one meme.
	VoteOn string
	// UserID includes that user's record.
	UserID string
}

// Result is a snapshot answering a Query.
type Result struct {
	Memes []Meme
	Votes []Vote
	Users []User
}

// Mutation is one change inside a Commit. The set of mutations is closed.
type Mutation interface {
	apply(d *dataset) error
}

// PutMeme inserts or replaces a meme.
type PutMeme struct{ Meme Meme }

// DeleteMeme removes a meme and every vote on it.
type DeleteMeme struct{ ID string }

// AdjustUpvotes adds Delta to a meme's count. The count never drops below
// zero.
type AdjustUpvotes struct {
	MemeID string
	Delta  int
}

// PutVote inserts or replaces a vote.
type PutVote struct{ Vote Vote }

// DeleteVote removes a vote.
type DeleteVote struct{ ID string }

// PutUser inserts or replaces a user record.
type PutUser struct{ User User }

// Store is implemented by content store backends.
type Store interface {
	// Subscribe calls fn with the current result and again after every
	// commit until the subscription is cancelled or ctx ends.
	Subscribe(ctx context.Context, q Query, fn func(Result)) (*Subscription, error)
	// QueryOnce returns the current result.
	QueryOnce(ctx context.Context, q Query) (Result, error)
	// Commit applies every mutation or none of them.
	Commit(ctx context.Context, muts ...Mutation) error
}

// Subscription is a live query handle.
type Subscription struct {
	cancel func()
}

// Cancel stops delivery. It is safe to call more than once.
func (s *Subscription) Cancel() {
	if s != nil && s.cancel != nil {
		s.cancel()
	}
}

// NewID returns a random 128-bit hex identifier.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}
