package populate

import (
	"errors"
	"fmt"
	"time"

	"github.com/olimci/bijou/pkg/content"
	"github.com/olimci/bijou/pkg/events"
	"github.com/olimci/bijou/pkg/lang"
	"github.com/olimci/bijou/pkg/prefs"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	SwitchID   = "languageSwitch"
	wiredAttr  = "data-bijou-wired"
	eventsName = "populate"
)

var ErrAlreadyWired = errors.New("document already wired")

// State is everything a render depends on besides content.
type State struct {
	Lang   lang.Lang
	Filter string
}

// Routes build the links attached by Wire.
type Routes struct {
	Lang   func(l lang.Lang) string
	Filter func(filter string) string
}

// Controller owns the page state and renders it into documents.
type Controller struct {
	state    State
	bundle   content.Bundle
	store    prefs.Store
	bindings []Binding
	fields   Fields
	now      func() time.Time
	title    string
	events   events.Handler
	routes   *Routes
}

type Option func(*Controller)

func WithStore(s prefs.Store) Option {
	return func(c *Controller) { c.store = s }
}

func WithBindings(b []Binding) Option {
	return func(c *Controller) { c.bindings = b }
}

func WithFields(f Fields) Option {
	return func(c *Controller) { c.fields = f }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithTitle sets the document title used when settings have none.
func WithTitle(title string) Option {
	return func(c *Controller) { c.title = title }
}

func WithEvents(h events.Handler) Option {
	return func(c *Controller) { c.events = h }
}

// WithLanguage overrides the stored preference for the initial state.
func WithLanguage(l lang.Lang) Option {
	return func(c *Controller) {
		if l.Valid() {
			c.state.Lang = l
		}
	}
}

func WithFilter(filter string) Option {
	return func(c *Controller) {
		if filter != "" {
			c.state.Filter = filter
		}
	}
}

// NewController starts in the stored language, else French, with the
// gallery unfiltered.
func NewController(bundle content.Bundle, opts ...Option) *Controller {
	c := &Controller{
		bundle:   bundle,
		store:    prefs.NewMemoryStore(),
		bindings: DefaultBindings(),
		fields:   DefaultFields(),
		now:      time.Now,
		title:    DefaultTitle,
	}

	for _, opt := range opts {
		opt(c)
	}

	if !c.state.Lang.Valid() {
		c.state.Lang = prefs.Resolve(c.store)
	}
	if c.state.Filter == "" {
		c.state.Filter = content.FilterAll
	}
	return c
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Bundle() content.Bundle {
	return c.bundle
}

// SetBundle swaps the content, for example after re-aggregation. The next
// render uses it.
func (c *Controller) SetBundle(b content.Bundle) {
	c.bundle = b
}

// Render performs the initial render of doc in the current state.
func (c *Controller) Render(doc *Document) error {
	return c.render(doc)
}

// Toggle switches to the other language.
func (c *Controller) Toggle(doc *Document) error {
	return c.SetLanguage(doc, c.state.Lang.Other())
}

// SetLanguage switches to l, persists it, and re-renders the page keeping the
// active gallery filter.
func (c *Controller) SetLanguage(doc *Document, l lang.Lang) error {
	if !l.Valid() {
		return fmt.Errorf("%w: %q", lang.ErrUnsupported, l)
	}

	c.state.Lang = l
	if c.store != nil {
		if err := c.store.SetLanguage(l); err != nil {
			events.Emit(c.events, events.Warn, eventsName, "failed to persist language", err)
		}
	}
	return c.render(doc)
}

// SelectFilter activates filter and re-renders the gallery in the current
// language.
func (c *Controller) SelectFilter(doc *Document, filter string) error {
	if filter == "" {
		filter = content.FilterAll
	}
	c.state.Filter = markFilter(doc, filter)

	c.wireLinks(doc)
	return RenderGallery(doc, c.bundle.Gallery, c.fields.Gallery, c.state.Lang, c.state.Filter)
}

// Wire attaches navigation targets for the language switch and the filter
// buttons. A document is wired once; later calls return ErrAlreadyWired.
func (c *Controller) Wire(doc *Document, routes Routes) error {
	root := doc.HTML()
	if root == nil {
		return nil
	}
	if _, ok := Attr(root, wiredAttr); ok {
		return ErrAlreadyWired
	}
	SetAttr(root, wiredAttr, "")

	c.routes = &routes
	c.wireLinks(doc)
	return nil
}

func (c *Controller) render(doc *Document) error {
	l := c.state.Lang

	if root := doc.HTML(); root != nil {
		SetAttr(root, "lang", string(l))
		SetAttr(root, "dir", l.Dir())
	}

	// brand spans are left to renderLogo
	for _, n := range doc.ElementsWithAttr("data-lang") {
		if id, _ := Attr(n, "id"); id == "brand-fr" || id == "brand-ar" {
			continue
		}
		v, _ := Attr(n, "data-lang")
		ToggleClass(n, HiddenClass, v != string(l))
	}

	if sw := doc.ElementByID(SwitchID); sw != nil {
		SetText(sw, l.SwitchLabel())
	}

	for _, b := range c.bindings {
		if err := Apply(doc, b, c.bundle, l); err != nil {
			return fmt.Errorf("region %s: %w", b.ID(l), err)
		}
	}

	s := site{doc: doc, bundle: c.bundle, lang: l, now: c.now(), title: c.title}
	if err := s.render(); err != nil {
		return err
	}

	if err := RenderProducts(doc, c.bundle.Products, c.fields.Products, l); err != nil {
		return fmt.Errorf("products: %w", err)
	}

	c.state.Filter = markFilter(doc, c.state.Filter)
	if err := RenderGallery(doc, c.bundle.Gallery, c.fields.Gallery, l, c.state.Filter); err != nil {
		return fmt.Errorf("gallery: %w", err)
	}

	c.wireLinks(doc)
	return nil
}

// wireLinks points the switch at the other language and each filter button
// at its filter. Buttons become anchors so they navigate without script.
func (c *Controller) wireLinks(doc *Document) {
	if c.routes == nil {
		return
	}

	if sw := doc.ElementByID(SwitchID); sw != nil && c.routes.Lang != nil {
		asLink(sw, c.routes.Lang(c.state.Lang.Other()))
	}

	if c.routes.Filter == nil {
		return
	}
	for _, btn := range doc.ElementsByClass(FilterBtnClass) {
		if f, ok := Attr(btn, "data-filter"); ok {
			asLink(btn, c.routes.Filter(f))
		}
	}
}

func asLink(n *html.Node, href string) {
	if n.DataAtom != atom.A {
		n.DataAtom = atom.A
		n.Data = "a"
		RemoveAttr(n, "type")
		SetAttr(n, "role", "button")
	}
	SetAttr(n, "href", href)
}
