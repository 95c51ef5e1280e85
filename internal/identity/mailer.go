package identity

import (
	"context"
	"log"
)

// Mailer delivers sign-in codes.
type Mailer interface {
	SendCode(ctx context.Context, email, code string) error
}

// MailerFunc adapts a function to Mailer.
type MailerFunc func(ctx context.Context, email, code string) error

func (f MailerFunc) SendCode(ctx context.Context, email, code string) error { return f(ctx, email, code) }

// LogMailer writes codes to a logger instead of sending mail. The local
// service uses it so codes show up on the terminal.
type LogMailer struct {
	Logger *log.Logger
}

func (m LogMailer) SendCode(_ context.Context, email, code string) error {
	if m.Logger != nil {
		m.Logger.Printf("sign-in code for %s: %s", email, code)
		return nil
	}
	log.Printf("sign-in code for %s: %s", email, code)
	return nil
}
