package populate

import (
	"strings"

	"github.com/olimci/bijou/pkg/content"
	"github.com/olimci/bijou/pkg/lang"
)

// Kind is how a value is written into a region.
type Kind uint8

const (
	// Text replaces the text content.
	Text Kind = iota
	// Markup replaces the inner markup.
	Markup
	// Image sets src and shows the element, or hides it when the value is
	// empty.
	Image
	// Link sets href when the value is non-empty.
	Link
	// Form sets action when the value is non-empty.
	Form
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Markup:
		return "markup"
	case Image:
		return "image"
	case Link:
		return "link"
	case Form:
		return "form"
	default:
		return "unknown"
	}
}

// From selects the document a binding reads.
type From uint8

const (
	FromHome From = iota
	FromSettings
)

// HiddenClass hides an element.
const HiddenClass = "hidden"

// Binding ties one page region to one content field.
type Binding struct {
	// Target is an element id. "{lang}" expands to the active language.
	Target string
	Field  string
	Kind   Kind
	// Localized reads Field_<lang> instead of Field.
	Localized bool
	From      From
	// Defaults are used when the field is absent.
	Defaults map[lang.Lang]string
}

// ID expands the target for l.
func (b Binding) ID(l lang.Lang) string {
	return strings.ReplaceAll(b.Target, "{lang}", string(l))
}

// Value resolves the binding against the bundle.
func (b Binding) Value(bundle content.Bundle, l lang.Lang) string {
	doc := bundle.Home
	if b.From == FromSettings {
		doc = bundle.Settings
	}

	var v string
	if b.Localized {
		v = doc.Localized(b.Field, l)
	} else {
		v = doc.String(b.Field)
	}
	if v == "" {
		v = b.Defaults[l]
	}
	return v
}

func text(target, field string) Binding {
	return Binding{Target: target, Field: field, Kind: Text, Localized: true}
}

func nav(target, field, fr, ar string) Binding {
	b := text(target, field)
	b.Defaults = map[lang.Lang]string{lang.French: fr, lang.Arabic: ar}
	return b
}

// DefaultBindings is the region table of the site page.
func DefaultBindings() []Binding {
	bindings := []Binding{
		{Target: "favicon", Field: "site_favicon", Kind: Link, From: FromSettings},
		{Target: "social-link-facebook", Field: "social_facebook", Kind: Link, From: FromSettings},
		{Target: "social-link-instagram", Field: "social_instagram", Kind: Link, From: FromSettings},
		{Target: "social-link-pinterest", Field: "social_pinterest", Kind: Link, From: FromSettings},
	}

	for _, prefix := range []string{"nav", "mobile-nav"} {
		bindings = append(bindings,
			nav(prefix+"-home-{lang}", "nav_home_text", "Accueil", "الرئيسية"),
			nav(prefix+"-about-{lang}", "nav_about_text", "Notre Histoire", "قصتنا"),
			nav(prefix+"-collections-{lang}", "nav_collections_text", "Collections", "المجموعات"),
			nav(prefix+"-contact-{lang}", "nav_contact_text", "Contact", "اتصل بنا"),
		)
	}

	return append(bindings,
		Binding{Target: "hero-image", Field: "hero_background", Kind: Image},
		text("hero-title-{lang}", "hero_title"),
		text("hero-subtitle-{lang}", "hero_subtitle"),
		text("hero-button-{lang}", "hero_button_text"),
		Binding{Target: "hero-button-link", Field: "hero_button_link", Kind: Link},

		Binding{Target: "welcome-image", Field: "about_image", Kind: Image},
		text("welcome-title-{lang}", "about_title"),
		text("welcome-text-{lang}", "about_text"),
		text("welcome-button-{lang}", "about_button_text"),
		Binding{Target: "welcome-button-link", Field: "about_button_link", Kind: Link},

		text("featured-title-{lang}", "featured_products_title"),

		text("about-title-{lang}", "story_section_title"),
		text("about-subtitle-{lang}", "story_intro"),
		text("about-story-title-{lang}", "story_title"),
		text("about-story-text-{lang}", "story_text"),
		text("about-quote-{lang}", "story_quote"),
		Binding{Target: "about-image", Field: "story_image", Kind: Image},

		text("collections-title-{lang}", "collections_section_title"),
		text("collections-subtitle-{lang}", "collections_subtitle"),
		text("filter-all-{lang}", "filter_all_text"),
		text("filter-rings-{lang}", "filter_rings_text"),
		text("filter-necklaces-{lang}", "filter_necklaces_text"),
		text("filter-bracelets-{lang}", "filter_bracelets_text"),
		text("filter-watches-{lang}", "filter_watches_text"),

		text("contact-title-{lang}", "contact_section_title"),
		text("contact-subtitle-{lang}", "contact_section_subtitle"),
		text("form-title-{lang}", "form_title"),
		Binding{Target: "contactForm", Field: "form_shortcode", Kind: Form},
		text("form-label-name-{lang}", "form_name_label"),
		text("form-label-email-{lang}", "form_email_label"),
		text("form-label-message-{lang}", "form_message_label"),
		text("form-button-{lang}", "form_submit_button"),

		text("footer-brand-{lang}", "footer_logo_text"),
		text("footer-slogan-{lang}", "footer_text"),
	)
}
