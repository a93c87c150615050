// Package populate writes content into the named regions of a bilingual page
// and owns the page's language and gallery filter state.
package populate

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/olimci/bijou/pkg/content"
	"github.com/olimci/bijou/pkg/lang"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const DefaultTitle = "Bijouterie"

// Apply writes one binding into doc. Missing elements are skipped, and an
// absent value leaves the region as authored, except for images, which are
// hidden.
func Apply(doc *Document, b Binding, bundle content.Bundle, l lang.Lang) error {
	n := doc.ElementByID(b.ID(l))
	if n == nil {
		return nil
	}
	return write(n, b.Kind, b.Value(bundle, l))
}

func write(n *html.Node, kind Kind, value string) error {
	switch kind {
	case Text:
		if value != "" {
			SetText(n, value)
		}
	case Markup:
		if value != "" {
			return SetInnerHTML(n, value)
		}
	case Image:
		if value == "" {
			AddClass(n, HiddenClass)
			return nil
		}
		SetAttr(n, "src", value)
		RemoveClass(n, HiddenClass)
	case Link:
		if value != "" {
			SetAttr(n, "href", value)
		}
	case Form:
		if value != "" {
			SetAttr(n, "action", value)
		}
	default:
		return fmt.Errorf("unknown region kind %d", kind)
	}
	return nil
}

// site renders the regions that need more than a field copy.
type site struct {
	doc    *Document
	bundle content.Bundle
	lang   lang.Lang
	now    time.Time
	title  string
}

func (s site) render() error {
	s.renderHead()
	s.renderLogo()
	if err := s.renderContact(); err != nil {
		return err
	}
	if err := s.renderMap(); err != nil {
		return err
	}
	return s.renderCopyright()
}

func (s site) renderHead() {
	title := s.bundle.Settings.String("site_title")
	if title == "" {
		title = s.title
	}
	if title == "" {
		title = DefaultTitle
	}

	t := s.doc.First(func(n *html.Node) bool { return n.DataAtom == atom.Title })
	if t == nil {
		if head := s.doc.Head(); head != nil {
			t = &html.Node{Type: html.ElementNode, DataAtom: atom.Title, Data: "title"}
			head.AppendChild(t)
		}
	}
	if t != nil {
		SetText(t, title)
	}

	if desc := s.bundle.Settings.String("site_description"); desc != "" {
		if meta := s.doc.MetaByName("description"); meta != nil {
			SetAttr(meta, "content", desc)
		}
	}
}

// renderLogo shows the logo image when set, else the brand text of the
// current language.
func (s site) renderLogo() {
	img := s.doc.ElementByID("header-logo-img")
	brands := []*html.Node{s.doc.ElementByID("brand-fr"), s.doc.ElementByID("brand-ar")}

	if logo := s.bundle.Settings.String("site_logo"); logo != "" {
		if img != nil {
			SetAttr(img, "src", logo)
			RemoveClass(img, HiddenClass)
		}
		for _, b := range brands {
			if b != nil {
				AddClass(b, HiddenClass)
			}
		}
		return
	}

	if img != nil {
		AddClass(img, HiddenClass)
	}
	for i, l := range []lang.Lang{lang.French, lang.Arabic} {
		b := brands[i]
		if b == nil {
			continue
		}
		ToggleClass(b, HiddenClass, l != s.lang)
		if v := s.bundle.Home.String("header_logo_text_" + string(l)); v != "" {
			SetText(b, v)
		}
	}
}

// iconSpacing puts the gap on the side facing the text.
func iconSpacing(l lang.Lang) string {
	if l == lang.Arabic {
		return "ml-2"
	}
	return "mr-2"
}

var contactLine = template.Must(template.New("contact").Parse(
	`<i class="fas {{.Icon}} text-[var(--gold-primary)] w-6 {{.Spacing}}"></i> {{.Value}}`))

func (s site) renderContact() error {
	lines := []struct {
		target, icon, value string
	}{
		{"contact-address-", "fa-map-marker-alt", s.bundle.Home.Localized("contact_address", s.lang)},
		{"contact-phone-", "fa-phone", s.bundle.Home.String("contact_phone")},
		{"contact-email-", "fa-envelope", s.bundle.Home.String("contact_email")},
	}

	for _, line := range lines {
		n := s.doc.ElementByID(line.target + string(s.lang))
		if n == nil || line.value == "" {
			continue
		}

		var sb strings.Builder
		err := contactLine.Execute(&sb, map[string]string{
			"Icon":    line.icon,
			"Spacing": iconSpacing(s.lang),
			"Value":   line.value,
		})
		if err != nil {
			return err
		}
		if err := SetInnerHTML(n, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func (s site) renderMap() error {
	container := s.doc.ElementByID("google-map-container")
	embed := s.bundle.Home.String("contact_map_embed")
	if container == nil || embed == "" {
		return nil
	}

	if err := SetInnerHTML(container, embed); err != nil {
		return err
	}

	var iframe *html.Node
	walk(container, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Iframe {
			iframe = n
			return false
		}
		return true
	})
	if iframe != nil {
		MergeStyle(iframe, [][2]string{{"width", "100%"}, {"height", "100%"}, {"border", "0"}})
	}
	return nil
}

func (s site) renderCopyright() error {
	n := s.doc.ElementByID("footer-copyright-" + string(s.lang))
	if n == nil {
		return nil
	}

	line := "© " + strconv.Itoa(s.now.Year())
	if v := s.bundle.Home.Localized("footer_copyright", s.lang); v != "" {
		line += " " + v
	}
	return SetInnerHTML(n, line)
}
