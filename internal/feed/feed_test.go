package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/memesmith/internal/store"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newManager() *Manager {
	c := &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewManager(store.NewMemory(), WithClock(c.now))
}

func publish(t *testing.T, m *Manager, title string) string {
	t.Helper()
	id, err := m.Publish(context.Background(), Draft{Title: title, Image: []byte("png"), AuthorID: "u1"})
	require.NoError(t, err)
	return id
}

func TestPublishValidates(t *testing.T) {
	m := newManager()
	_, err := m.Publish(context.Background(), Draft{AuthorID: "u1"})
	assert.ErrorIs(t, err, ErrEmptyImage)
	_, err = m.Publish(context.Background(), Draft{Image: []byte("x")})
	assert.ErrorIs(t, err, ErrNoAuthor)
}

func TestListSorts(t *testing.T) {
	ctx := context.Background()
	m := newManager()
	first := publish(t, m, "first")
	second := publish(t, m, "second")
	third := publish(t, m, "third")

	_, err := m.ToggleUpvote(ctx, "a", first)
	require.NoError(t, err)
	_, err = m.ToggleUpvote(ctx, "b", first)
	require.NoError(t, err)
	_, err = m.ToggleUpvote(ctx, "a", second)
	require.NoError(t, err)

	recent, err := m.List(ctx, "a", SortRecent)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{third, second, first}, ids(recent))
	assert.False(t, recent[0].Upvoted)
	assert.True(t, recent[1].Upvoted)
	assert.Equal(t, AnonymousName, recent[0].Author())

	popular, err := m.List(ctx, "", SortPopular)
	require.NoError(t, err)
	assert.Equal(t, []string{first, second, third}, ids(popular))
	assert.Equal(t, 2, popular[0].UpvoteCount)
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestToggleUpvoteIsSymmetric(t *testing.T) {
	ctx := context.Background()
	m := newManager()
	id := publish(t, m, "x")

	on, err := m.ToggleUpvote(ctx, "u2", id)
	require.NoError(t, err)
	assert.True(t, on)
	meme, err := m.Meme(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, meme.UpvoteCount)

	on, err = m.ToggleUpvote(ctx, "u2", id)
	require.NoError(t, err)
	assert.False(t, on)
	meme, _ = m.Meme(ctx, id)
	assert.Equal(t, 0, meme.UpvoteCount)

	_, err = m.ToggleUpvote(ctx, "", id)
	assert.ErrorIs(t, err, ErrNoUser)
	_, err = m.ToggleUpvote(ctx, "u2", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := newManager()
	var mu sync.Mutex
	var latest []Item
	_, err := m.Watch(ctx, "u1", SortRecent, func(items []Item) {
		mu.Lock()
		latest = items
		mu.Unlock()
	})
	require.NoError(t, err)
	publish(t, m, "live")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(latest) == 1 && latest[0].Title == "live"
	}, time.Second, 5*time.Millisecond)
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("Popular")
	require.NoError(t, err)
	assert.Equal(t, SortPopular, s)
	s, err = ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortRecent, s)
	_, err = ParseSort("hot")
	assert.Error(t, err)
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{0, "just now"},
		{59 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{7 * 24 * time.Hour, "1w ago"},
		{20 * 24 * time.Hour, "2w ago"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TimeAgo(now.Add(-c.ago), now), "ago %v", c.ago)
	}
}
