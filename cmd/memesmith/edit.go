package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"

	"github.com/example/memesmith/internal/capture"
	"github.com/example/memesmith/internal/feed"
	"github.com/example/memesmith/internal/templates"
	"github.com/example/memesmith/internal/window"
)

// editCmd opens the desktop editor.
type editCmd struct {
	*root
	fs      *flag.FlagSet
	compose composeFlags
	output  string
	email   string
	user    string
}

func (e *editCmd) FlagSet() *flag.FlagSet {
	return e.fs
}

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	e := &editCmd{root: r.subcommand("edit"), fs: fs}
	fs.Usage = usageFunc(e)
	e.compose.register(fs, r)
	fs.StringVar(&e.output, "output", "", "file Ctrl+S writes to (default meme_<millis>.png in save_dir)")
	fs.StringVar(&e.email, "email", "", "sign in with this email before opening so Ctrl+P can post")
	fs.StringVar(&e.user, "username", r.config.Author, "username stored on first sign-in")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, usageErrorf(e, "unexpected arguments: %v", fs.Args())
	}
	return e, nil
}

func (e *editCmd) Run() error {
	sess, err := e.compose.build(e.root, false)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := openStore(e.root)
	if err != nil {
		return err
	}
	ident := newIdentity(e.root, st)
	if e.email != "" {
		if _, err := signIn(ctx, e.root, ident, e.email, e.user); err != nil {
			return err
		}
	}

	opts := []window.Option{
		window.WithSession(sess),
		window.WithNotifier(e.notifier),
		window.WithIdentity(ident),
		window.WithPublisher(feed.NewManager(st)),
		window.WithSaveDir(e.saveDir()),
		window.WithOutput(e.output),
		window.WithCapture(func() (*image.RGBA, error) {
			return captureScreenFn(capture.Options{Display: e.compose.display})
		}),
		window.WithOnClose(func() { fmt.Fprintln(e.stderr, "editor closed") }),
	}
	if rend := sess.Renderer(); rend != nil {
		opts = append(opts, window.WithRenderer(rend))
	}
	if cat, err := templates.Load(e.config.TemplatesDir); err != nil {
		log.Printf("templates: %v", err)
	} else {
		opts = append(opts, window.WithCatalog(cat))
	}
	return window.New(opts...).Run()
}
