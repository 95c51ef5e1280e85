package templates

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/example/memesmith/internal/imagesrc"
)

// FetchResult reports one download.
type FetchResult struct {
	Template Template
	Path     string
	Err      error
}

// Fetch downloads every template with a URL, or only those named. Failures
// are reported per template and do not stop the others.
func (c *Catalog) Fetch(ctx context.Context, client *http.Client, names ...string) ([]FetchResult, error) {
	if client == nil {
		client = http.DefaultClient
	}
	var todo []Template
	if len(names) == 0 {
		todo = c.Templates
	} else {
		for _, n := range names {
			t, ok := c.Find(n)
			if !ok {
				return nil, fmt.Errorf("unknown template %q", n)
			}
			todo = append(todo, t)
		}
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", c.Dir, err)
	}
	results := make([]FetchResult, len(todo))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, t := range todo {
		results[i] = FetchResult{Template: t, Path: c.Path(t)}
		if t.URL == "" {
			results[i].Err = fmt.Errorf("%s has no url", t.Name)
			continue
		}
		g.Go(func() error {
			log.Printf("downloading %s", t.File)
			results[i].Err = download(ctx, client, t.URL, results[i].Path)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func download(ctx context.Context, client *http.Client, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, imagesrc.MaxUploadBytes+1))
	if err != nil {
		return fmt.Errorf("read %s: %w", url, err)
	}
	if len(data) > imagesrc.MaxUploadBytes {
		return fmt.Errorf("%s: too large", url)
	}
	if _, err := imagesrc.Sniff(data); err != nil {
		return fmt.Errorf("%s: %w", url, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
