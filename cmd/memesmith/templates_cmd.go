package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/memesmith/internal/imagesrc"
	"github.com/example/memesmith/internal/templates"
)

// templatesCmd manages the template catalog on disk.
type templatesCmd struct {
	*root
	fs      *flag.FlagSet
	dir     string
	timeout time.Duration
	client  *http.Client
}

func (t *templatesCmd) FlagSet() *flag.FlagSet {
	return t.fs
}

func parseTemplatesCmd(args []string, r *root) (*templatesCmd, error) {
	fs := flag.NewFlagSet("templates", flag.ContinueOnError)
	t := &templatesCmd{root: r.subcommand("templates"), fs: fs}
	fs.Usage = usageFunc(t)
	fs.StringVar(&t.dir, "dir", r.config.TemplatesDir, "templates directory")
	fs.DurationVar(&t.timeout, "timeout", 30*time.Second, "download timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *templatesCmd) Run() error {
	args := t.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: t}
	}
	cat, err := templates.Load(t.dir)
	if err != nil {
		return err
	}
	switch args[0] {
	case "list", "ls":
		return t.runList(cat)
	case "fetch":
		return t.runFetch(cat, args[1:])
	case "add":
		if len(args) != 3 {
			return usageErrorf(t, "add needs NAME and FILE")
		}
		return t.runAdd(cat, args[1], args[2])
	default:
		return usageErrorf(t, "unknown templates command: %s", args[0])
	}
}

func (t *templatesCmd) runList(cat *templates.Catalog) error {
	have := map[string]bool{}
	for _, tp := range cat.Available() {
		have[tp.Name] = true
	}
	for _, tp := range cat.Templates {
		state := "missing"
		if have[tp.Name] {
			state = "ready"
		}
		title := tp.Title
		if title == "" {
			title = tp.Name
		}
		fmt.Fprintf(t.stdout, "%-12s %-8s %s\n", tp.Name, state, title)
	}
	fmt.Fprintf(t.stderr, "directory: %s\n", cat.Dir)
	return nil
}

func (t *templatesCmd) runFetch(cat *templates.Catalog, names []string) error {
	client := t.client
	if client == nil {
		client = &http.Client{Timeout: t.timeout}
	}
	results, err := cat.Fetch(context.Background(), client, names...)
	if err != nil {
		return err
	}
	var failed []string
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(t.stderr, "%s: %v\n", res.Template.Name, res.Err)
			failed = append(failed, res.Template.Name)
			continue
		}
		fmt.Fprintf(t.stdout, "%s -> %s\n", res.Template.Name, res.Path)
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to fetch %s", strings.Join(failed, ", "))
	}
	return nil
}

// runAdd copies a local image into the catalog and records it in the
// manifest.
func (t *templatesCmd) runAdd(cat *templates.Catalog, name, file string) error {
	if _, ok := cat.Find(name); ok {
		return fmt.Errorf("template %q already exists", name)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	mime, err := imagesrc.Sniff(data)
	if err != nil {
		return err
	}
	ext := strings.TrimPrefix(mime, "image/")
	if ext == "jpeg" {
		ext = "jpg"
	}
	tp := templates.Template{Name: name, File: name + "." + ext}
	if err := os.MkdirAll(cat.Dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", cat.Dir, err)
	}
	if err := os.WriteFile(filepath.Join(cat.Dir, tp.File), data, 0o644); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	if err := templates.WriteManifest(cat.Dir, append(cat.Templates, tp)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	fmt.Fprintf(t.stdout, "added %s\n", tp.File)
	return nil
}
