package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/example/memesmith/internal/identity"
	"github.com/example/memesmith/internal/store"
)

func openStore(r *root) (*store.Memory, error) {
	if r.storePath == "" {
		return store.NewMemory(), nil
	}
	st, err := store.Open(r.storePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newIdentity signs users in against the local store. Codes are printed on
// stderr since nothing sends mail.
func newIdentity(r *root, st store.Store) *identity.Local {
	return identity.NewLocal(st, identity.LogMailer{Logger: log.New(r.stderr, "", 0)})
}

// signIn requests a code for email and reads it back from stdin.
func signIn(ctx context.Context, r *root, svc identity.Service, email, username string) (*identity.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("-email is required to sign in")
	}
	if err := svc.SendCode(ctx, email, username); err != nil {
		return nil, fmt.Errorf("send code: %w", err)
	}
	fmt.Fprint(r.stderr, "enter sign-in code: ")
	line, err := bufio.NewReader(r.stdin).ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("read code: %w", err)
	}
	u, err := svc.VerifyCode(ctx, strings.TrimSpace(line))
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	fmt.Fprintf(r.stderr, "signed in as %s\n", u.DisplayName())
	return u, nil
}
