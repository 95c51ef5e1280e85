// Package templates manages the directory of stock meme backgrounds.
package templates

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/example/memesmith/internal/imagesrc"
)

// ManifestName is the optional catalog file inside a templates directory.
const ManifestName = "templates.yaml"

// UserAgent is sent with downloads; the image host refuses bare clients.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Template is one stock background.
type Template struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title,omitempty"`
	File  string `yaml:"file"`
	URL   string `yaml:"url,omitempty"`
}

// Builtin is the catalog used when a directory has no manifest.
var Builtin = []Template{
	{Name: "drake", Title: "Drake Hotline Bling", File: "drake.jpg", URL: "https://imgflip.com/s/meme/Drake-Hotline-Bling.jpg"},
	{Name: "distracted", Title: "Distracted Boyfriend", File: "distracted.jpg", URL: "https://imgflip.com/s/meme/Distracted-Boyfriend.jpg"},
	{Name: "buttons", Title: "Two Buttons", File: "buttons.jpg", URL: "https://imgflip.com/s/meme/Two-Buttons.jpg"},
	{Name: "mind", Title: "Change My Mind", File: "mind.jpg", URL: "https://imgflip.com/s/meme/Change-My-Mind.jpg"},
}

type manifest struct {
	Templates []Template `yaml:"templates"`
}

// Catalog is a templates directory and the templates it describes.
type Catalog struct {
	Dir       string
	Templates []Template
}

// Load reads dir's manifest, falling back to Builtin when there is none.
func Load(dir string) (*Catalog, error) {
	d, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", dir, err)
	}
	c := &Catalog{Dir: d, Templates: append([]Template(nil), Builtin...)}
	f, err := os.Open(filepath.Join(d, ManifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	var m manifest
	if err := yaml.NewDecoder(f).Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", ManifestName, err)
	}
	if len(m.Templates) > 0 {
		for i := range m.Templates {
			if err := m.Templates[i].validate(); err != nil {
				return nil, fmt.Errorf("%s entry %d: %w", ManifestName, i+1, err)
			}
		}
		c.Templates = m.Templates
	}
	return c, nil
}

func (t *Template) validate() error {
	if t.File == "" {
		return errors.New("missing file")
	}
	if filepath.Base(t.File) != t.File {
		return fmt.Errorf("file %q must be a bare name", t.File)
	}
	if t.Name == "" {
		t.Name = strings.TrimSuffix(t.File, filepath.Ext(t.File))
	}
	return nil
}

// WriteManifest saves templates as dir's manifest.
func WriteManifest(dir string, templates []Template) error {
	b, err := yaml.Marshal(manifest{Templates: templates})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestName), b, 0o644)
}

// Path returns where t lives on disk.
func (c *Catalog) Path(t Template) string { return filepath.Join(c.Dir, t.File) }

// Find looks a template up by name or file name.
func (c *Catalog) Find(name string) (Template, bool) {
	for _, t := range c.Templates {
		if strings.EqualFold(t.Name, name) || t.File == name {
			return t, true
		}
	}
	return Template{}, false
}

// Available returns the templates whose files are present, sorted by name.
func (c *Catalog) Available() []Template {
	var out []Template
	for _, t := range c.Templates {
		if fi, err := os.Stat(c.Path(t)); err == nil && fi.Mode().IsRegular() {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Open decodes the named template.
func (c *Catalog) Open(name string) (*image.RGBA, Template, error) {
	t, ok := c.Find(name)
	if !ok {
		return nil, Template{}, fmt.Errorf("unknown template %q", name)
	}
	img, err := imagesrc.DecodeFile(c.Path(t))
	if err != nil {
		return nil, t, fmt.Errorf("template %s: %w", t.Name, err)
	}
	return img, t, nil
}
