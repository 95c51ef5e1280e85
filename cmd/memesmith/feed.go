package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/muesli/termenv"

	"github.com/example/memesmith/internal/feed"
	"github.com/example/memesmith/internal/identity"
)

// feedCmd lists, upvotes and exports published memes.
type feedCmd struct {
	*root
	fs     *flag.FlagSet
	sort   string
	email  string
	user   string
	limit  int
	output string
	now    func() time.Time
}

func (f *feedCmd) FlagSet() *flag.FlagSet {
	return f.fs
}

func parseFeedCmd(args []string, r *root) (*feedCmd, error) {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)
	f := &feedCmd{root: r.subcommand("feed"), fs: fs, now: time.Now}
	fs.Usage = usageFunc(f)
	fs.StringVar(&f.sort, "sort", "recent", "order: recent or popular")
	fs.StringVar(&f.email, "email", "", "viewer email; marks your upvotes and signs in for upvote")
	fs.StringVar(&f.user, "username", r.config.Author, "username stored on first sign-in")
	fs.IntVar(&f.limit, "limit", 0, "show at most this many memes (0 for all)")
	fs.StringVar(&f.output, "output", "", "file save writes to; - for stdout (default <id>.png)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *feedCmd) Run() error {
	args := f.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: f}
	}
	ctx := context.Background()
	switch args[0] {
	case "list", "ls":
		return f.runList(ctx)
	case "upvote":
		if len(args) != 2 {
			return usageErrorf(f, "upvote needs a meme id")
		}
		return f.runUpvote(ctx, args[1])
	case "save":
		if len(args) != 2 {
			return usageErrorf(f, "save needs a meme id")
		}
		return f.runSave(ctx, args[1])
	default:
		return usageErrorf(f, "unknown feed command: %s", args[0])
	}
}

func (f *feedCmd) manager() (*feed.Manager, error) {
	st, err := openStore(f.root)
	if err != nil {
		return nil, err
	}
	return feed.NewManager(st), nil
}

func (f *feedCmd) runList(ctx context.Context) error {
	order, err := feed.ParseSort(f.sort)
	if err != nil {
		return usageErrorf(f, "%v", err)
	}
	m, err := f.manager()
	if err != nil {
		return err
	}
	var viewer string
	if f.email != "" {
		viewer = identity.UserID(f.email)
	}
	items, err := m.List(ctx, viewer, order)
	if err != nil {
		return err
	}
	if f.limit > 0 && len(items) > f.limit {
		items = items[:f.limit]
	}
	printFeed(f.stdout, items, f.now())
	return nil
}

// printFeed writes one line per meme. Colour is used only when the writer
// is a terminal that supports it.
func printFeed(w io.Writer, items []feed.Item, now time.Time) {
	out := termenv.NewOutput(w)
	if len(items) == 0 {
		fmt.Fprintln(w, out.String("no memes yet").Faint())
		return
	}
	accent := out.Color("#f2c94c")
	for _, it := range items {
		mark := " "
		if it.Upvoted {
			mark = out.String("▲").Foreground(accent).String()
		}
		title := it.Title
		if strings.TrimSpace(title) == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "%s %s %4d %s  %s  %s\n",
			it.ID,
			mark,
			it.UpvoteCount,
			out.String(title).Bold(),
			it.Author(),
			out.String(feed.TimeAgo(it.CreatedAt, now)).Faint(),
		)
	}
}

func (f *feedCmd) runUpvote(ctx context.Context, id string) error {
	m, err := f.manager()
	if err != nil {
		return err
	}
	if _, err := m.Meme(ctx, id); err != nil {
		return err
	}
	user, err := signIn(ctx, f.root, newIdentity(f.root, m.Store()), f.email, f.user)
	if err != nil {
		return err
	}
	on, err := m.ToggleUpvote(ctx, user.ID, id)
	if err != nil {
		return err
	}
	if on {
		fmt.Fprintf(f.stdout, "upvoted %s\n", id)
	} else {
		fmt.Fprintf(f.stdout, "removed upvote from %s\n", id)
	}
	return nil
}

func (f *feedCmd) runSave(ctx context.Context, id string) error {
	m, err := f.manager()
	if err != nil {
		return err
	}
	meme, err := m.Meme(ctx, id)
	if err != nil {
		return err
	}
	path := f.output
	if path == "" {
		path = meme.ID + ".png"
	}
	if err := writeOutput(f.root, path, meme.Image); err != nil {
		return err
	}
	if path != "-" {
		f.notifySave(path)
	}
	return nil
}
