package templates

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoadDefaultsToBuiltin(t *testing.T) {
	c, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Len(t, c.Templates, 4)
	d, ok := c.Find("Drake")
	require.True(t, ok)
	assert.Equal(t, "drake.jpg", d.File)
	_, ok = c.Find("mind.jpg")
	assert.True(t, ok)
	assert.Empty(t, c.Available())
}

func TestManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(`
templates:
  - file: cat.png
    title: Cat
  - name: dog
    file: dog.png
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cat.png"), pngBytes(t), 0o644))
	c, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, c.Templates, 2)
	assert.Equal(t, "cat", c.Templates[0].Name)
	avail := c.Available()
	require.Len(t, avail, 1)
	assert.Equal(t, "cat", avail[0].Name)

	img, tpl, err := c.Open("cat")
	require.NoError(t, err)
	assert.Equal(t, "cat.png", tpl.File)
	assert.Equal(t, image.Pt(4, 3), img.Bounds().Size())

	_, _, err = c.Open("dog")
	assert.Error(t, err)
}

func TestManifestRejectsPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte("templates:\n  - file: ../evil.png\n"), 0o644))
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestWriteManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteManifest(dir, Builtin[:2]))
	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Builtin[:2], c.Templates)
}

func TestFetch(t *testing.T) {
	data := pngBytes(t)
	var agent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent.Store(r.UserAgent())
		switch r.URL.Path {
		case "/ok.png":
			w.Write(data)
		case "/text":
			w.Write([]byte("hello"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := &Catalog{Dir: filepath.Join(t.TempDir(), "tpl"), Templates: []Template{
		{Name: "ok", File: "ok.png", URL: srv.URL + "/ok.png"},
		{Name: "text", File: "text.png", URL: srv.URL + "/text"},
		{Name: "gone", File: "gone.png", URL: srv.URL + "/gone"},
	}}
	res, err := c.Fetch(context.Background(), srv.Client())
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.NoError(t, res[0].Err)
	assert.Error(t, res[1].Err)
	assert.Error(t, res[2].Err)
	assert.Equal(t, UserAgent, agent.Load())

	got, err := os.ReadFile(filepath.Join(c.Dir, "ok.png"))
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Len(t, c.Available(), 1)

	_, err = c.Fetch(context.Background(), srv.Client(), "nope")
	assert.Error(t, err)
}

func TestRelevant(t *testing.T) {
	assert.True(t, relevant(fsnotify.Event{Name: "/x/a.JPG", Op: fsnotify.Create}))
	assert.True(t, relevant(fsnotify.Event{Name: "/x/" + ManifestName, Op: fsnotify.Write}))
	assert.False(t, relevant(fsnotify.Event{Name: "/x/.download-1", Op: fsnotify.Create}))
	assert.False(t, relevant(fsnotify.Event{Name: "/x/notes.txt", Op: fsnotify.Create}))
	assert.False(t, relevant(fsnotify.Event{Name: "/x/a.png", Op: fsnotify.Chmod}))
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	c := &Catalog{Dir: dir}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var hits atomic.Int32
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, func() { hits.Add(1) }) }()

	require.Eventually(t, func() bool {
		os.WriteFile(filepath.Join(dir, "new.png"), pngBytes(t), 0o644)
		return hits.Load() > 0
	}, 2*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}
