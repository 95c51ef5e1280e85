// Package editor owns one meme editing session: the base image, the text
// annotations laid over it and the pointer gesture in progress.
package editor

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"strings"
	"time"

	"github.com/example/memesmith/internal/annotation"
	"github.com/example/memesmith/internal/imagesrc"
	"github.com/example/memesmith/internal/layout"
	"github.com/example/memesmith/internal/render"
)

const (
	// FontSizeMin and FontSizeMax bound the size control. Handle drags use
	// the narrower annotation range.
	FontSizeMin = 10
	FontSizeMax = 200
)

// DefaultMaxCanvas is the box images are fitted into.
var DefaultMaxCanvas = image.Pt(1000, 700)

// AddMode selects what committing the text input does.
type AddMode int

const (
	// AddCommitOrDeselect ends the current selection if there is one and
	// appends otherwise.
	AddCommitOrDeselect AddMode = iota
	// AddAppend always appends a new annotation.
	AddAppend
)

// ParseAddMode accepts "append" or "commit".
func ParseAddMode(s string) (AddMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "commit", "commit-or-deselect":
		return AddCommitOrDeselect, nil
	case "append":
		return AddAppend, nil
	}
	return 0, fmt.Errorf("unknown add mode %q", s)
}

func (m AddMode) String() string {
	if m == AddAppend {
		return "append"
	}
	return "commit"
}

// View records where the base image came from.
type View int

const (
	ViewUpload View = iota
	ViewTemplate
)

// Source describes a base image for LoadImage.
type Source struct {
	View     View
	Template string
}

// Style is the state of the size and colour controls.
type Style struct {
	FontSize int
	Fill     color.RGBA
	Stroke   color.RGBA
}

// DefaultStyle is white text with a black outline at the default size.
func DefaultStyle() Style {
	return Style{FontSize: annotation.DefaultFontSize, Fill: annotation.DefaultFill, Stroke: annotation.DefaultStroke}
}

// LoadTicket identifies one asynchronous image load.
type LoadTicket uint64

// Session is a single editing session. It is not safe for concurrent use;
// hosts drive it from one goroutine.
type Session struct {
	renderer    *render.Renderer
	meas        layout.Measurer
	maxCanvas   image.Point
	addMode     AddMode
	placeholder string
	onRedraw    func()

	base    *image.RGBA
	natural image.Point
	source  Source
	title   string

	seq      annotation.Sequence
	list     annotation.List
	selected annotation.ID
	editing  annotation.ID
	preview  *annotation.Annotation
	input    string
	style    Style
	machine  Machine

	loadSeq    uint64
	publishing bool
}

// Option modifies a Session during creation.
type Option func(*Session)

// WithRenderer sets the renderer used for display and export. It also
// becomes the measurer unless WithMeasurer is given.
func WithRenderer(r *render.Renderer) Option { return func(s *Session) { s.renderer = r } }

// WithMeasurer overrides text measurement.
func WithMeasurer(m layout.Measurer) Option { return func(s *Session) { s.meas = m } }

// WithMaxCanvas sets the box images are fitted into.
func WithMaxCanvas(w, h int) Option {
	return func(s *Session) { s.maxCanvas = image.Pt(w, h) }
}

// WithAddMode selects the commit behaviour.
func WithAddMode(m AddMode) Option { return func(s *Session) { s.addMode = m } }

// WithStyle sets the initial control values.
func WithStyle(st Style) Option { return func(s *Session) { s.style = st } }

// WithPlaceholder sets the text given to double-click creations.
func WithPlaceholder(text string) Option { return func(s *Session) { s.placeholder = text } }

// WithRedraw registers a hook run after every model change.
func WithRedraw(fn func()) Option { return func(s *Session) { s.onRedraw = fn } }

// New creates a session with the provided options.
func New(opts ...Option) *Session {
	s := &Session{
		maxCanvas:   DefaultMaxCanvas,
		placeholder: annotation.Placeholder,
		style:       DefaultStyle(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.meas == nil {
		if err := s.ensureRenderer(); err != nil {
			log.Fatalf("renderer: %v", err)
		}
		s.meas = s.renderer
	}
	if s.style.FontSize <= 0 {
		s.style.FontSize = annotation.DefaultFontSize
	}
	return s
}

func (s *Session) ensureRenderer() error {
	if s.renderer != nil {
		return nil
	}
	r, err := render.New(nil)
	if err != nil {
		return err
	}
	s.renderer = r
	return nil
}

// SetRedrawHook replaces the hook registered with WithRedraw.
func (s *Session) SetRedrawHook(fn func()) { s.onRedraw = fn }

func (s *Session) redraw() {
	if s.onRedraw != nil {
		s.onRedraw()
	}
}

// HasImage reports whether a base image is loaded.
func (s *Session) HasImage() bool { return s.base != nil }

// CanvasSize is the fitted size of the base image, or zero.
func (s *Session) CanvasSize() image.Point {
	if s.base == nil {
		return image.Point{}
	}
	return s.base.Bounds().Size()
}

// NaturalSize is the decoded size before fitting.
func (s *Session) NaturalSize() image.Point { return s.natural }

// Source reports where the current base image came from.
func (s *Session) Source() Source { return s.source }

// Annotations returns a copy of the annotation list.
func (s *Session) Annotations() annotation.List { return s.list.Clone() }

// Selected returns the selected annotation id, or zero.
func (s *Session) Selected() annotation.ID { return s.selected }

// Editing returns the annotation being edited in place, or zero.
func (s *Session) Editing() annotation.ID { return s.editing }

// Preview returns a copy of the preview annotation, or nil.
func (s *Session) Preview() *annotation.Annotation {
	if s.preview == nil {
		return nil
	}
	p := *s.preview
	return &p
}

// Input returns the text input contents.
func (s *Session) Input() string { return s.input }

// Style returns the control values.
func (s *Session) Style() Style { return s.style }

// Gesture returns the interaction state.
func (s *Session) Gesture() State { return s.machine.State }

// Title returns the post title.
func (s *Session) Title() string { return s.title }

// SetTitle sets the post title.
func (s *Session) SetTitle(t string) { s.title = t }

// AddMode returns the commit behaviour.
func (s *Session) AddMode() AddMode { return s.addMode }

// SetAddMode changes the commit behaviour.
func (s *Session) SetAddMode(m AddMode) {
	s.addMode = m
	s.redraw()
}

// Renderer returns the renderer used for display and export, or nil until
// one is needed.
func (s *Session) Renderer() *render.Renderer { return s.renderer }

// Measurer returns the text measurer used for layout.
func (s *Session) Measurer() layout.Measurer { return s.meas }

// BeginLoad starts an asynchronous load. Only the most recent ticket can
// finish; earlier ones get ErrStaleLoad.
func (s *Session) BeginLoad() LoadTicket {
	s.loadSeq++
	return LoadTicket(s.loadSeq)
}

// FinishLoad installs img if t is still current. The annotation list,
// selection, preview and input are cleared.
func (s *Session) FinishLoad(t LoadTicket, img image.Image, src Source) error {
	if uint64(t) != s.loadSeq {
		return ErrStaleLoad
	}
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("load image: empty image")
	}
	s.natural = img.Bounds().Size()
	s.base = imagesrc.Scale(img, layout.Fit(s.natural, s.maxCanvas))
	s.source = src
	s.clearAnnotations()
	s.redraw()
	return nil
}

// LoadImage installs img immediately.
func (s *Session) LoadImage(img image.Image, src Source) error {
	return s.FinishLoad(s.BeginLoad(), img, src)
}

func (s *Session) clearAnnotations() {
	s.list = nil
	s.selected = 0
	s.editing = 0
	s.preview = nil
	s.input = ""
	s.machine = Machine{}
}

// Reset clears the image, annotations, selection, preview and title. Pending
// loads are invalidated. Ids keep increasing across resets.
func (s *Session) Reset() {
	s.loadSeq++
	s.base = nil
	s.natural = image.Point{}
	s.source = Source{}
	s.title = ""
	s.clearAnnotations()
	s.redraw()
}

func (s *Session) center() layout.Point {
	size := s.CanvasSize()
	return layout.Pt(float64(size.X)/2, float64(size.Y)/2)
}

func (s *Session) styled(text string, pos layout.Point) annotation.Annotation {
	return annotation.Annotation{
		Text:     annotation.Normalize(text),
		Position: pos,
		FontSize: s.style.FontSize,
		Fill:     s.style.Fill,
		Stroke:   s.style.Stroke,
	}
}

// SetInput updates the text input. While an annotation is being edited in
// place the change applies to it directly, and emptying the input removes
// it. Otherwise the input drives the preview.
func (s *Session) SetInput(text string) {
	s.input = text
	if s.editing != 0 {
		if a := s.list.Get(s.editing); a != nil {
			if annotation.IsBlank(text) {
				s.removeAnnotation(s.editing)
			} else {
				a.Text = annotation.Normalize(text)
			}
			s.redraw()
			return
		}
		s.editing = 0
	}
	if annotation.IsBlank(text) || !s.HasImage() {
		s.preview = nil
	} else {
		p := s.styled(text, s.center())
		s.preview = &p
	}
	s.redraw()
}

// AddText commits the text input. It returns the new annotation id, or zero
// when nothing was appended. Blank input is a silent no-op.
func (s *Session) AddText() (annotation.ID, error) {
	if !s.HasImage() {
		return 0, ErrNoImage
	}
	if s.editing != 0 {
		s.finishEdit()
		return 0, nil
	}
	if s.addMode == AddCommitOrDeselect && s.selected != 0 {
		s.selected = 0
		s.redraw()
		return 0, nil
	}
	text := strings.TrimSpace(s.input)
	if text == "" {
		return 0, nil
	}
	a := s.styled(text, s.center())
	a.ID = s.seq.Next()
	s.list = append(s.list, a)
	s.input = ""
	s.preview = nil
	s.redraw()
	return a.ID, nil
}

// AddTextAt appends text centred on p with the current style, leaving the
// text input and selection alone. Blank text appends nothing.
func (s *Session) AddTextAt(text string, p layout.Point) (annotation.ID, error) {
	if !s.HasImage() {
		return 0, ErrNoImage
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	a := s.styled(text, p)
	a.ID = s.seq.Next()
	s.list = append(s.list, a)
	s.redraw()
	return a.ID, nil
}

// finishEdit ends an in-place edit; the text has already been applied.
func (s *Session) finishEdit() {
	s.editing = 0
	s.input = ""
	s.preview = nil
	if s.addMode == AddCommitOrDeselect {
		s.selected = 0
	}
	s.redraw()
}

// CancelEdit leaves in-place editing and clears the input and preview
// without touching the list.
func (s *Session) CancelEdit() {
	s.editing = 0
	s.input = ""
	s.preview = nil
	s.redraw()
}

// SetText replaces an annotation's text, as the list editor does. Blank text
// removes the annotation.
func (s *Session) SetText(id annotation.ID, text string) bool {
	a := s.list.Get(id)
	if a == nil {
		return false
	}
	if annotation.IsBlank(text) {
		s.removeAnnotation(id)
	} else {
		a.Text = annotation.Normalize(text)
		if id == s.editing {
			s.input = text
		}
	}
	s.redraw()
	return true
}

// Delete removes an annotation and clears the selection if it pointed there.
func (s *Session) Delete(id annotation.ID) bool {
	ok := s.removeAnnotation(id)
	if ok {
		s.redraw()
	}
	return ok
}

// Select marks id as selected and loads its style into the controls. Zero
// deselects.
func (s *Session) Select(id annotation.ID) {
	s.selectAnnotation(id)
	s.redraw()
}

// SetFontSize updates the size control and the selected annotation.
func (s *Session) SetFontSize(size int) {
	if size < FontSizeMin {
		size = FontSizeMin
	}
	if size > FontSizeMax {
		size = FontSizeMax
	}
	s.style.FontSize = size
	s.applyStyle(func(a *annotation.Annotation) { a.FontSize = size })
}

// SetFill updates the fill control and the selected annotation.
func (s *Session) SetFill(c color.RGBA) {
	s.style.Fill = c
	s.applyStyle(func(a *annotation.Annotation) { a.Fill = c })
}

// SetStroke updates the outline control and the selected annotation.
func (s *Session) SetStroke(c color.RGBA) {
	s.style.Stroke = c
	s.applyStyle(func(a *annotation.Annotation) { a.Stroke = c })
}

func (s *Session) applyStyle(fn func(*annotation.Annotation)) {
	if a := s.list.Get(s.selected); a != nil {
		fn(a)
	}
	if s.preview != nil {
		fn(s.preview)
	}
	s.redraw()
}

// Handle feeds a pointer event through the interaction machine.
func (s *Session) Handle(ev Event) Result {
	m, res := Reduce(s.machine, s, ev)
	s.machine = m
	if res.Redraw {
		s.redraw()
	}
	return res
}

// CanExport reports whether there is something worth saving: a base image
// and at least one annotation.
func (s *Session) CanExport() bool {
	return s.HasImage() && len(s.list) > 0
}

// Scene returns a snapshot for the renderer, decorations included. It is
// safe to hand to another goroutine.
func (s *Session) Scene() render.Scene {
	return render.Scene{
		Base:        s.base,
		Annotations: s.list.Clone(),
		Selected:    s.selected,
		Preview:     s.Preview(),
	}
}

// Draw renders the canvas with selection and preview decorations into dst.
func (s *Session) Draw(dst *image.RGBA) error {
	if err := s.ensureRenderer(); err != nil {
		return err
	}
	s.renderer.Render(dst, s.Scene())
	return nil
}

// ExportImage renders the canvas without decorations, flattened on white.
func (s *Session) ExportImage() (*image.RGBA, error) {
	if !s.HasImage() {
		return nil, ErrNoImage
	}
	if err := s.ensureRenderer(); err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, s.base.Bounds().Dx(), s.base.Bounds().Dy()))
	s.renderer.Render(dst, render.Scene{Base: s.base, Annotations: s.list})
	return render.Flatten(dst, color.White), nil
}

// ExportRaster returns the decoration-free canvas as PNG bytes.
func (s *Session) ExportRaster() ([]byte, error) {
	img, err := s.ExportImage()
	if err != nil {
		return nil, err
	}
	data, err := render.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return data, nil
}

// DownloadName returns the default file name for a saved meme.
func DownloadName(now time.Time) string {
	return fmt.Sprintf("meme_%d.png", now.UnixMilli())
}

// Document implementation.

func (s *Session) hasImage() bool { return s.HasImage() }

func (s *Session) annotations() annotation.List { return s.list }

func (s *Session) selection() annotation.ID { return s.selected }

func (s *Session) measurer() layout.Measurer { return s.meas }

func (s *Session) selectAnnotation(id annotation.ID) {
	a := s.list.Get(id)
	if a == nil {
		s.selected = 0
		if s.editing != 0 {
			s.editing = 0
			s.input = ""
		}
		return
	}
	s.selected = id
	if s.editing != 0 && s.editing != id {
		s.editing = 0
		s.input = ""
		s.preview = nil
	}
	s.style = Style{FontSize: a.Size(), Fill: a.FillColor(), Stroke: a.StrokeColor()}
}

func (s *Session) moveAnnotation(id annotation.ID, pos layout.Point) bool {
	a := s.list.Get(id)
	if a == nil {
		return false
	}
	a.Position = pos
	return true
}

func (s *Session) resizeAnnotation(id annotation.ID, size int) bool {
	a := s.list.Get(id)
	if a == nil {
		return false
	}
	a.FontSize = size
	if id == s.selected {
		s.style.FontSize = size
	}
	return true
}

func (s *Session) removeAnnotation(id annotation.ID) bool {
	var ok bool
	s.list, ok = s.list.Remove(id)
	if !ok {
		return false
	}
	if s.selected == id {
		s.selected = 0
	}
	if s.editing == id {
		s.editing = 0
		s.input = ""
	}
	return true
}

func (s *Session) beginEdit(id annotation.ID) bool {
	a := s.list.Get(id)
	if a == nil {
		return false
	}
	s.editing = id
	s.input = a.Text
	s.preview = nil
	return true
}

func (s *Session) createAt(p layout.Point) annotation.ID {
	a := s.styled(s.placeholder, p)
	a.ID = s.seq.Next()
	s.list = append(s.list, a)
	s.selectAnnotation(a.ID)
	s.beginEdit(a.ID)
	return a.ID
}
