package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/example/memesmith/internal/capture"
	"github.com/example/memesmith/internal/clipboard"
	"github.com/example/memesmith/internal/editor"
	"github.com/example/memesmith/internal/imagesrc"
	"github.com/example/memesmith/internal/layout"
	"github.com/example/memesmith/internal/render"
	"github.com/example/memesmith/internal/templates"
)

var (
	captureScreenFn = capture.Screen
	pasteImageFn    = clipboard.PasteImage
)

// Vertical anchors for the named caption positions, as a fraction of the
// canvas height.
const (
	topAnchor    = 0.12
	bottomAnchor = 0.88
)

// position is where a caption goes. Coordinates are pixels unless the
// matching percent flag is set.
type position struct {
	X, Y       float64
	PercentX   bool
	PercentY   bool
	Name       string
	Configured bool
}

func (p position) resolve(size image.Point) layout.Point {
	w, h := float64(size.X), float64(size.Y)
	switch p.Name {
	case "top":
		return layout.Pt(w/2, h*topAnchor)
	case "bottom":
		return layout.Pt(w/2, h*bottomAnchor)
	case "center", "centre":
		return layout.Pt(w/2, h/2)
	}
	if !p.Configured {
		return layout.Pt(w/2, h/2)
	}
	x, y := p.X, p.Y
	if p.PercentX {
		x = w * x / 100
	}
	if p.PercentY {
		y = h * y / 100
	}
	return layout.Pt(x, y)
}

type caption struct {
	Text string
	At   position
}

func parseCoord(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid coordinate %q", s)
	}
	return v, pct, nil
}

// parseCaption reads TEXT[@top|bottom|center|X,Y]. Coordinates may carry a
// % suffix. A literal \n in TEXT starts a new line. An @ suffix that is not
// a position stays part of the text.
func parseCaption(s string) (caption, error) {
	text, at := s, position{}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		if p, err := parsePosition(s[i+1:]); err == nil {
			text, at = s[:i], p
		}
	}
	text = strings.ReplaceAll(text, `\n`, "\n")
	if strings.TrimSpace(text) == "" {
		return caption{}, errors.New("caption text is empty")
	}
	return caption{Text: text, At: at}, nil
}

func parsePosition(at string) (position, error) {
	at = strings.TrimSpace(at)
	switch strings.ToLower(at) {
	case "":
		return position{}, nil
	case "top", "bottom", "center", "centre":
		return position{Name: strings.ToLower(at)}, nil
	}
	parts := strings.Split(at, ",")
	if len(parts) != 2 {
		return position{}, fmt.Errorf("invalid caption position %q: want top, bottom, center or X,Y", at)
	}
	x, px, err := parseCoord(parts[0])
	if err != nil {
		return position{}, err
	}
	y, py, err := parseCoord(parts[1])
	if err != nil {
		return position{}, err
	}
	return position{X: x, Y: y, PercentX: px, PercentY: py, Configured: true}, nil
}

// captionList collects repeated -text flags.
type captionList []caption

func (c *captionList) String() string {
	if c == nil {
		return ""
	}
	texts := make([]string, len(*c))
	for i, cp := range *c {
		texts[i] = cp.Text
	}
	return strings.Join(texts, ", ")
}

func (c *captionList) Set(v string) error {
	cp, err := parseCaption(v)
	if err != nil {
		return err
	}
	*c = append(*c, cp)
	return nil
}

// composeFlags are the base image and caption options shared by edit,
// render and publish.
type composeFlags struct {
	image         string
	template      string
	screenshot    bool
	display       string
	fromClipboard bool
	captions      captionList
	size          int
	fill          string
	stroke        string
	appendMode    bool
	title         string
}

func (c *composeFlags) register(fs *flag.FlagSet, r *root) {
	ed := r.config.Editor
	fs.StringVar(&c.image, "image", "", "base image file (png, jpeg, gif, webp or bmp); - reads stdin")
	fs.StringVar(&c.template, "template", "", "base image from the template catalog")
	fs.BoolVar(&c.screenshot, "screenshot", false, "grab the screen as the base image")
	fs.StringVar(&c.display, "display", "", "monitor for -screenshot (index, name or primary)")
	fs.BoolVar(&c.fromClipboard, "from-clipboard", false, "use the clipboard image as the base image")
	fs.Var(&c.captions, "text", "caption TEXT[@top|bottom|center|X,Y]; repeatable")
	fs.IntVar(&c.size, "size", ed.FontSize, "font size for captions")
	fs.StringVar(&c.fill, "fill", ed.Fill, "caption fill colour (name or #rrggbb)")
	fs.StringVar(&c.stroke, "stroke", ed.Stroke, "caption outline colour (name or #rrggbb)")
	fs.BoolVar(&c.appendMode, "append", ed.AddMode == "append", "always append on commit instead of ending the selection")
	fs.StringVar(&c.title, "title", "", "post title")
}

func (c *composeFlags) sources() int {
	n := 0
	for _, set := range []bool{c.image != "", c.template != "", c.screenshot, c.fromClipboard} {
		if set {
			n++
		}
	}
	return n
}

// sessionOptions turns the config and flags into session options.
func (c *composeFlags) sessionOptions(r *root, rend *render.Renderer) ([]editor.Option, error) {
	ed := r.config.Editor
	fill, err := render.ParseColor(c.fill)
	if err != nil {
		return nil, fmt.Errorf("-fill: %w", err)
	}
	stroke, err := render.ParseColor(c.stroke)
	if err != nil {
		return nil, fmt.Errorf("-stroke: %w", err)
	}
	mode, err := editor.ParseAddMode(ed.AddMode)
	if err != nil {
		return nil, fmt.Errorf("config add_mode: %w", err)
	}
	if c.appendMode {
		mode = editor.AddAppend
	}
	size := c.size
	if size < editor.FontSizeMin || size > editor.FontSizeMax {
		return nil, fmt.Errorf("-size %d out of range %d-%d", size, editor.FontSizeMin, editor.FontSizeMax)
	}
	opts := []editor.Option{
		editor.WithRenderer(rend),
		editor.WithAddMode(mode),
		editor.WithStyle(editor.Style{FontSize: size, Fill: fill, Stroke: stroke}),
	}
	if ed.MaxWidth > 0 && ed.MaxHeight > 0 {
		opts = append(opts, editor.WithMaxCanvas(ed.MaxWidth, ed.MaxHeight))
	}
	return opts, nil
}

// loadBase decodes the chosen base image. It returns nil when no source was
// given.
func (c *composeFlags) loadBase(r *root) (*image.RGBA, editor.Source, error) {
	upload := editor.Source{View: editor.ViewUpload}
	switch {
	case c.image == "-":
		img, _, err := imagesrc.Decode(r.stdin)
		if err != nil {
			return nil, upload, fmt.Errorf("read stdin: %w", err)
		}
		return img, upload, nil
	case c.image != "":
		img, err := imagesrc.DecodeFile(c.image)
		if err != nil {
			return nil, upload, err
		}
		return img, upload, nil
	case c.template != "":
		cat, err := templates.Load(r.config.TemplatesDir)
		if err != nil {
			return nil, upload, err
		}
		img, t, err := cat.Open(c.template)
		if err != nil {
			return nil, upload, err
		}
		return img, editor.Source{View: editor.ViewTemplate, Template: t.Name}, nil
	case c.screenshot:
		img, err := captureScreenFn(capture.Options{Display: c.display})
		if err != nil {
			return nil, upload, fmt.Errorf("failed to capture screen: %w", err)
		}
		return img, upload, nil
	case c.fromClipboard:
		img, err := pasteImageFn()
		if err != nil {
			return nil, upload, fmt.Errorf("read clipboard: %w", err)
		}
		return img, upload, nil
	}
	return nil, upload, nil
}

// build creates a session with the base image loaded and every caption
// placed.
func (c *composeFlags) build(r *root, requireImage bool) (*editor.Session, error) {
	if n := c.sources(); n > 1 {
		return nil, errors.New("use only one of -image, -template, -screenshot or -from-clipboard")
	} else if n == 0 && requireImage {
		return nil, errors.New("one of -image, -template, -screenshot or -from-clipboard is required")
	}
	rend, err := render.New(r.activeTheme)
	if err != nil {
		return nil, err
	}
	opts, err := c.sessionOptions(r, rend)
	if err != nil {
		return nil, err
	}
	sess := editor.New(opts...)
	sess.SetTitle(c.title)

	img, src, err := c.loadBase(r)
	if err != nil {
		return nil, err
	}
	if img == nil {
		if len(c.captions) > 0 {
			return nil, editor.ErrNoImage
		}
		return sess, nil
	}
	if err := sess.LoadImage(img, src); err != nil {
		return nil, err
	}
	for _, cp := range c.captions {
		if _, err := sess.AddTextAt(cp.Text, cp.At.resolve(sess.CanvasSize())); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func writeOutput(r *root, path string, data []byte) error {
	if path == "-" {
		_, err := r.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
