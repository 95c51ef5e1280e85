package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/memesmith/internal/store"
)

const (
	// CodeTTL is how long a sign-in code stays valid.
	CodeTTL     = 15 * time.Minute
	codeDigits  = 6
	maxAttempts = 5
)

type pendingCode struct {
	email    string
	username string
	hash     []byte
	expires  time.Time
	attempts int
}

// Local is an in-process Service backed by a content store for user
// records.
type Local struct {
	store  store.Store
	mailer Mailer
	now    func() time.Time
	cost   int

	mu        sync.Mutex
	pending   *pendingCode
	current   *User
	listeners map[uint64]func(*User)
	nextID    uint64
}

// Option configures a Local service.
type Option func(*Local)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(l *Local) { l.now = now } }

// WithHashCost sets the bcrypt cost used for pending codes.
func WithHashCost(cost int) Option { return func(l *Local) { l.cost = cost } }

// NewLocal returns a service that stores users in st and sends codes with m.
// A nil mailer logs codes.
func NewLocal(st store.Store, m Mailer, opts ...Option) *Local {
	if m == nil {
		m = LogMailer{}
	}
	l := &Local{
		store:     st,
		mailer:    m,
		now:       time.Now,
		cost:      bcrypt.DefaultCost,
		listeners: map[uint64]func(*User){},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// UserID derives the stable user id for an email address.
func UserID(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:16])
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func (l *Local) SendCode(ctx context.Context, email, usernameHint string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("email %q: %w", email, err)
	}
	code, err := newCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), l.cost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	if err := l.mailer.SendCode(ctx, addr.Address, code); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	l.mu.Lock()
	l.pending = &pendingCode{
		email:    addr.Address,
		username: strings.TrimSpace(usernameHint),
		hash:     hash,
		expires:  l.now().Add(CodeTTL),
	}
	l.mu.Unlock()
	return nil
}

func (l *Local) VerifyCode(ctx context.Context, code string) (*User, error) {
	l.mu.Lock()
	p := l.pending
	if p == nil {
		l.mu.Unlock()
		return nil, ErrNoPendingCode
	}
	if l.now().After(p.expires) {
		l.pending = nil
		l.mu.Unlock()
		return nil, ErrCodeExpired
	}
	if err := bcrypt.CompareHashAndPassword(p.hash, []byte(strings.TrimSpace(code))); err != nil {
		p.attempts++
		if p.attempts >= maxAttempts {
			l.pending = nil
			l.mu.Unlock()
			return nil, ErrTooManyTries
		}
		l.mu.Unlock()
		return nil, ErrInvalidCode
	}
	l.pending = nil
	l.mu.Unlock()

	u, err := l.loadUser(ctx, p)
	if err != nil {
		return nil, err
	}
	l.setCurrent(u)
	return u, nil
}

// loadUser returns the stored record for p's email, creating one when a
// username was supplied for a first sign-in.
func (l *Local) loadUser(ctx context.Context, p *pendingCode) (*User, error) {
	id := UserID(p.email)
	u := &User{ID: id, Email: p.email, CreatedAt: l.now()}
	if l.store == nil {
		u.Username = p.username
		return u, nil
	}
	r, err := l.store.QueryOnce(ctx, store.Query{UserID: id})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(r.Users) > 0 {
		rec := r.Users[0]
		return &User{ID: rec.ID, Email: rec.Email, Username: rec.Username, CreatedAt: rec.CreatedAt}, nil
	}
	if p.username == "" {
		return u, nil
	}
	u.Username = p.username
	rec := store.User{ID: u.ID, Email: u.Email, Username: u.Username, CreatedAt: u.CreatedAt}
	if err := l.store.Commit(ctx, store.PutUser{User: rec}); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}
	return u, nil
}

func (l *Local) setCurrent(u *User) {
	l.mu.Lock()
	l.current = u
	fns := make([]func(*User), 0, len(l.listeners))
	for _, fn := range l.listeners {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
}

func (l *Local) OnChange(fn func(*User)) func() {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.listeners[id] = fn
	cur := l.current
	l.mu.Unlock()
	fn(cur)
	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

func (l *Local) SignOut(context.Context) error {
	l.setCurrent(nil)
	return nil
}

func (l *Local) Current() *User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

var _ Service = (*Local)(nil)
