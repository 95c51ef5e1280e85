package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/example/memesmith/internal/feed"
)

// publishCmd composes a meme and posts it to the feed.
type publishCmd struct {
	*root
	fs      *flag.FlagSet
	compose composeFlags
	email   string
	user    string
}

func (p *publishCmd) FlagSet() *flag.FlagSet {
	return p.fs
}

func parsePublishCmd(args []string, r *root) (*publishCmd, error) {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	p := &publishCmd{root: r.subcommand("publish"), fs: fs}
	fs.Usage = usageFunc(p)
	p.compose.register(fs, r)
	fs.StringVar(&p.email, "email", "", "email to sign in with (required)")
	fs.StringVar(&p.user, "username", r.config.Author, "username stored on first sign-in")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, usageErrorf(p, "unexpected arguments: %v", fs.Args())
	}
	if p.email == "" {
		return nil, usageErrorf(p, "-email is required")
	}
	return p, nil
}

func (p *publishCmd) Run() error {
	sess, err := p.compose.build(p.root, true)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(p.root)
	if err != nil {
		return err
	}
	user, err := signIn(ctx, p.root, newIdentity(p.root, st), p.email, p.user)
	if err != nil {
		return err
	}
	preview, err := sess.ExportImage()
	if err != nil {
		return err
	}
	title := sess.Title()
	id, err := sess.Publish(ctx, feed.NewManager(st), user, title)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.stdout, id)
	if p.notifier != nil {
		p.notifier.Published(title, preview)
	}
	return nil
}
