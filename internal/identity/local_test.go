package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/memesmith/internal/store"
)

type inbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *inbox) SendCode(_ context.Context, email, code string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.codes == nil {
		b.codes = map[string]string{}
	}
	b.codes[email] = code
	return nil
}

func (b *inbox) code(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[email]
}

func newLocal(st store.Store, opts ...Option) (*Local, *inbox) {
	box := &inbox{}
	return NewLocal(st, box, append([]Option{WithHashCost(bcrypt.MinCost)}, opts...)...), box
}

func TestSignInStoresUsername(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l, box := newLocal(st)

	require.NoError(t, l.SendCode(ctx, "Alice <alice@example.com>", "alice"))
	code := box.code("alice@example.com")
	require.Len(t, code, 6)

	u, err := l.VerifyCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, UserID("alice@example.com"), u.ID)
	assert.Same(t, u, l.Current())

	r, err := st.QueryOnce(ctx, store.Query{UserID: u.ID})
	require.NoError(t, err)
	require.Len(t, r.Users, 1)
	assert.Equal(t, "alice@example.com", r.Users[0].Email)

	// A later sign-in without a hint keeps the stored name.
	require.NoError(t, l.SendCode(ctx, "ALICE@example.com", ""))
	u, err = l.VerifyCode(ctx, box.code("ALICE@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestVerifyErrors(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l, box := newLocal(nil, WithClock(func() time.Time { return now }))

	_, err := l.VerifyCode(ctx, "123456")
	assert.ErrorIs(t, err, ErrNoPendingCode)

	require.NoError(t, l.SendCode(ctx, "bob@example.com", ""))
	wrong := "000000"
	if box.code("bob@example.com") == wrong {
		wrong = "111111"
	}
	_, err = l.VerifyCode(ctx, wrong)
	assert.ErrorIs(t, err, ErrInvalidCode)

	u, err := l.VerifyCode(ctx, box.code("bob@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", u.DisplayName())

	require.NoError(t, l.SendCode(ctx, "bob@example.com", ""))
	now = now.Add(CodeTTL + time.Second)
	_, err = l.VerifyCode(ctx, box.code("bob@example.com"))
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestTooManyAttempts(t *testing.T) {
	ctx := context.Background()
	l, box := newLocal(nil)
	require.NoError(t, l.SendCode(ctx, "eve@example.com", ""))
	code := box.code("eve@example.com")
	wrong := "999999"
	if code == wrong {
		wrong = "888888"
	}
	for i := 0; i < maxAttempts-1; i++ {
		_, err := l.VerifyCode(ctx, wrong)
		require.ErrorIs(t, err, ErrInvalidCode)
	}
	_, err := l.VerifyCode(ctx, wrong)
	require.ErrorIs(t, err, ErrTooManyTries)
	_, err = l.VerifyCode(ctx, code)
	assert.ErrorIs(t, err, ErrNoPendingCode)
}

func TestSendCodeRejectsBadEmail(t *testing.T) {
	l, _ := newLocal(nil)
	assert.Error(t, l.SendCode(context.Background(), "not an email", ""))
}

func TestOnChange(t *testing.T) {
	ctx := context.Background()
	l, box := newLocal(nil)
	var seen []*User
	cancel := l.OnChange(func(u *User) { seen = append(seen, u) })
	require.Len(t, seen, 1)
	assert.Nil(t, seen[0])

	require.NoError(t, l.SendCode(ctx, "carol@example.com", "carol"))
	_, err := l.VerifyCode(ctx, box.code("carol@example.com"))
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Equal(t, "carol", seen[1].Username)

	require.NoError(t, l.SignOut(ctx))
	require.Len(t, seen, 3)
	assert.Nil(t, seen[2])
	assert.Nil(t, l.Current())

	cancel()
	require.NoError(t, l.SignOut(ctx))
	assert.Len(t, seen, 3)
}
