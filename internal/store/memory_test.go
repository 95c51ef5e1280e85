package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meme(id string, at time.Time) Meme {
	return Meme{ID: id, Title: id, Image: []byte{1, 2, 3}, AuthorID: "u1", CreatedAt: at}
}

func TestCommitAndQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Commit(ctx,
		PutMeme{meme("old", base)},
		PutMeme{meme("new", base.Add(time.Hour))},
	))
	r, err := s.QueryOnce(ctx, Query{Memes: true})
	require.NoError(t, err)
	require.Len(t, r.Memes, 2)
	assert.Equal(t, "new", r.Memes[0].ID)
	assert.Equal(t, "old", r.Memes[1].ID)

	r, err = s.QueryOnce(ctx, Query{MemeID: "old"})
	require.NoError(t, err)
	require.Len(t, r.Memes, 1)
	assert.Equal(t, "old", r.Memes[0].Title)
}

func TestCommitIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Commit(ctx, PutMeme{meme("m1", time.Now())}))
	err := s.Commit(ctx,
		AdjustUpvotes{MemeID: "m1", Delta: 1},
		DeleteVote{ID: "missing"},
	)
	require.True(t, errors.Is(err, ErrNotFound), "err = %v", err)
	r, err := s.QueryOnce(ctx, Query{MemeID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, 0, r.Memes[0].UpvoteCount)
}

func TestUpvotesFloorAtZero(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Commit(ctx, PutMeme{meme("m1", time.Now())}))
	require.NoError(t, s.Commit(ctx, AdjustUpvotes{MemeID: "m1", Delta: -1}))
	r, _ := s.QueryOnce(ctx, Query{MemeID: "m1"})
	assert.Equal(t, 0, r.Memes[0].UpvoteCount)
}

func TestVotesQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Now()
	require.NoError(t, s.Commit(ctx,
		PutMeme{meme("m1", now)},
		PutMeme{meme("m2", now)},
		PutVote{Vote{ID: "v1", UserID: "u1", MemeID: "m1"}},
		PutVote{Vote{ID: "v2", UserID: "u1", MemeID: "m2"}},
		PutVote{Vote{ID: "v3", UserID: "u2", MemeID: "m1"}},
	))
	r, _ := s.QueryOnce(ctx, Query{VotesBy: "u1"})
	assert.Len(t, r.Votes, 2)
	r, _ = s.QueryOnce(ctx, Query{VotesBy: "u1", VoteOn: "m2"})
	require.Len(t, r.Votes, 1)
	assert.Equal(t, "v2", r.Votes[0].ID)

	require.NoError(t, s.Commit(ctx, DeleteMeme{ID: "m1"}))
	r, _ = s.QueryOnce(ctx, Query{VotesBy: "u2"})
	assert.Empty(t, r.Votes)
}

func TestVoteNeedsMeme(t *testing.T) {
	err := NewMemory().Commit(context.Background(), PutVote{Vote{ID: "v", UserID: "u", MemeID: "nope"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

func (c *collector) last() (Result, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.results) == 0 {
		return Result{}, 0
	}
	return c.results[len(c.results)-1], len(c.results)
}

func TestSubscribeDeliversUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	var c collector
	sub, err := s.Subscribe(ctx, Query{Memes: true}, c.add)
	require.NoError(t, err)
	defer sub.Cancel()

	require.Eventually(t, func() bool { _, n := c.last(); return n >= 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Commit(ctx, PutMeme{meme("m1", time.Now())}))
	require.Eventually(t, func() bool {
		r, _ := c.last()
		return len(r.Memes) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSubscriptionCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewMemory()
	var c collector
	_, err := s.Subscribe(ctx, Query{Memes: true}, c.add)
	require.NoError(t, err)
	require.Eventually(t, func() bool { _, n := c.last(); return n == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.subs) == 0
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Commit(context.Background(), PutMeme{meme("m1", time.Now())}))
	time.Sleep(20 * time.Millisecond)
	_, n := c.last()
	assert.Equal(t, 1, n)
}

func TestCallbackMayCommit(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Commit(ctx, PutMeme{meme("m1", time.Now())}))
	done := make(chan struct{})
	var once sync.Once
	sub, err := s.Subscribe(ctx, Query{MemeID: "m1"}, func(r Result) {
		if len(r.Memes) == 1 && r.Memes[0].UpvoteCount == 0 {
			_ = s.Commit(ctx, AdjustUpvotes{MemeID: "m1", Delta: 1})
			return
		}
		once.Do(func() { close(done) })
	})
	require.NoError(t, err)
	defer sub.Cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nested commit not delivered")
	}
}

func TestOpenPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "store.json")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx,
		PutMeme{meme("m1", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))},
		PutUser{User{ID: "u1", Email: "a@example.com", Username: "alice"}},
	))

	again, err := Open(path)
	require.NoError(t, err)
	r, err := again.QueryOnce(ctx, Query{Memes: true, UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, r.Memes, 1)
	assert.Equal(t, []byte{1, 2, 3}, r.Memes[0].Image)
	require.Len(t, r.Users, 1)
	assert.Equal(t, "alice", r.Users[0].Username)
}

func TestNewIDUnique(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
