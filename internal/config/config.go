package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/example/memesmith/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Save    bool
	Copy    bool
	Publish bool
	Error   bool
}

// Editor holds the canvas and text defaults.
type Editor struct {
	MaxWidth  int
	MaxHeight int
	FontSize  int
	Fill      string
	Stroke    string
	AddMode   string
}

// Config holds the application configuration.
type Config struct {
	Theme        string
	SaveDir      string
	TemplatesDir string
	Store        string
	Author       string
	Editor       Editor
	Notify       Notify
	Themes       map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme:        "", // Default to empty to allow fallback to Env/Default
		TemplatesDir: "~/.local/share/memesmith/templates",
		Store:        "~/.local/share/memesmith/store.json",
		Editor: Editor{
			MaxWidth:  1000,
			MaxHeight: 700,
			FontSize:  40,
			Fill:      "#ffffff",
			Stroke:    "#000000",
			AddMode:   "commit",
		},
		Notify: Notify{Error: true},
		Themes: make(map[string]*theme.Theme),
	}
}

// Env names read by ApplyEnv.
const (
	EnvTheme        = "MEMESMITH_THEME"
	EnvSaveDir      = "MEMESMITH_SAVE_DIR"
	EnvTemplatesDir = "MEMESMITH_TEMPLATES_DIR"
	EnvStore        = "MEMESMITH_STORE"
	EnvAuthor       = "MEMESMITH_AUTHOR"
)

// ApplyEnv overrides root settings from the environment. A nil getenv uses
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	for env, dst := range map[string]*string{
		EnvTheme:        &c.Theme,
		EnvSaveDir:      &c.SaveDir,
		EnvTemplatesDir: &c.TemplatesDir,
		EnvStore:        &c.Store,
		EnvAuthor:       &c.Author,
	} {
		if v := strings.TrimSpace(getenv(env)); v != "" {
			*dst = v
		}
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	for _, kv := range [][2]string{
		{"theme", c.Theme},
		{"save_dir", c.SaveDir},
		{"templates_dir", c.TemplatesDir},
		{"store", c.Store},
		{"author", c.Author},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&sb, "%s = %s\n", kv[0], kv[1])
		}
	}
	sb.WriteString("\n")

	sb.WriteString("[editor]\n")
	fmt.Fprintf(&sb, "max_width = %d\n", c.Editor.MaxWidth)
	fmt.Fprintf(&sb, "max_height = %d\n", c.Editor.MaxHeight)
	fmt.Fprintf(&sb, "font_size = %d\n", c.Editor.FontSize)
	fmt.Fprintf(&sb, "fill = %s\n", c.Editor.Fill)
	fmt.Fprintf(&sb, "stroke = %s\n", c.Editor.Stroke)
	fmt.Fprintf(&sb, "add_mode = %s\n", c.Editor.AddMode)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "publish = %v\n", c.Notify.Publish)
	fmt.Fprintf(&sb, "error = %v\n", c.Notify.Error)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name = %s\n", t.Name)
		t.Fields(func(field string, col color.RGBA) {
			fmt.Fprintf(&sb, "%s = %s\n", field, theme.Hex(col))
		})
		sb.WriteString("\n")
	}

	return sb.String()
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(c.String()), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
