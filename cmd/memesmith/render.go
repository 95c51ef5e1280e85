package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/example/memesmith/internal/clipboard"
	"github.com/example/memesmith/internal/editor"
)

// renderCmd composes a meme without opening a window.
type renderCmd struct {
	*root
	fs      *flag.FlagSet
	compose composeFlags
	output  string
	copy    bool
	now     func() time.Time
}

func (c *renderCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	c := &renderCmd{root: r.subcommand("render"), fs: fs, now: time.Now}
	fs.Usage = usageFunc(c)
	c.compose.register(fs, r)
	fs.StringVar(&c.output, "output", "", "output file; - writes the PNG to stdout (default meme_<millis>.png in save_dir)")
	fs.StringVar(&c.output, "o", "", "shorthand for -output")
	fs.BoolVar(&c.copy, "copy", false, "copy the PNG to the clipboard")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, usageErrorf(c, "unexpected arguments: %v", fs.Args())
	}
	return c, nil
}

// saveDir is the configured save directory with ~ expanded.
func (r *root) saveDir() string {
	dir, err := homedir.Expand(r.config.SaveDir)
	if err != nil {
		return r.config.SaveDir
	}
	return dir
}

func (c *renderCmd) Run() error {
	sess, err := c.compose.build(c.root, true)
	if err != nil {
		return err
	}
	if !sess.CanExport() {
		return fmt.Errorf("%w: add at least one -text caption", editor.ErrNothingToExport)
	}
	data, err := sess.ExportRaster()
	if err != nil {
		return err
	}
	if c.copy {
		if err := clipboard.CopyPNG(data); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		c.notifyCopy("meme")
		if c.output == "" {
			return nil
		}
	}
	path := c.output
	if path == "" {
		path = filepath.Join(c.saveDir(), editor.DownloadName(c.now()))
	}
	if err := writeOutput(c.root, path, data); err != nil {
		return err
	}
	if path != "-" {
		fmt.Fprintf(c.stderr, "saved %s\n", path)
		c.notifySave(path)
	}
	return nil
}
