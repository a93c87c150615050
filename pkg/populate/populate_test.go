package populate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/olimci/bijou/pkg/aggregate"
	"github.com/olimci/bijou/pkg/config"
	"github.com/olimci/bijou/pkg/content"
	"github.com/olimci/bijou/pkg/events"
	"github.com/olimci/bijou/pkg/lang"
	"github.com/olimci/bijou/pkg/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func loadPage(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseFile(filepath.Join("testdata", "page.html"))
	require.NoError(t, err)
	return doc
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func sampleBundle() content.Bundle {
	return content.Bundle{
		Settings: content.Document{
			"site_title":       "Bijouterie Atlas",
			"site_description": "Bijoux faits main",
			"social_facebook":  "https://facebook.com/atlas",
		},
		Home: content.Document{
			"hero_title_fr":       "Éclat d'or",
			"hero_title_ar":       "بريق الذهب",
			"hero_background":     "/img/hero.jpg",
			"contact_address_fr":  "12 rue <Atlas>",
			"contact_address_ar":  "12 شارع الأطلس",
			"contact_phone":       "+212 600",
			"footer_copyright_fr": "Tous droits réservés",
			"header_logo_text_fr": "Atlas",
			"header_logo_text_ar": "أطلس",
			"contact_map_embed":   `<iframe src="https://maps.example.com/embed" style="width: 600px; margin: 0"></iframe>`,
		},
		Products: content.Collection{
			{"produit_title_fr": "Bague", "produit_title_ar": "خاتم", "produit_image": "/img/p1.jpg"},
			{"produit_title_fr": "Collier", "produit_title_ar": "قلادة", "produit_image": "/img/p2.jpg"},
		},
		Gallery: content.Collection{
			{"collection_title_fr": "Bague Or", "collection_title_ar": "خاتم ذهب", "collection_image": "/img/r1.jpg", "collection_category": "bagues"},
			{"collection_title_fr": "Collier Perle", "collection_title_ar": "قلادة لؤلؤ", "collection_image": "/img/n1.jpg", "collection_category": "colliers"},
			{"collection_title_fr": "Bague Argent", "collection_title_ar": "خاتم فضة", "collection_image": "/img/r2.jpg", "collection_category": "bagues"},
		},
	}
}

func textOf(doc *Document, id string) string {
	return strings.TrimSpace(TextContent(doc.ElementByID(id)))
}

func hidden(doc *Document, id string) bool {
	return HasClass(doc.ElementByID(id), HiddenClass)
}

func galleryTitles(doc *Document) []string {
	var out []string
	for _, item := range GalleryItems(doc) {
		var title string
		walk(item, func(n *html.Node) bool {
			if n.Type == html.ElementNode && n.Data == "img" {
				title, _ = Attr(n, "alt")
				return false
			}
			return true
		})
		out = append(out, title)
	}
	return out
}

func TestInitialRender(t *testing.T) {
	doc := loadPage(t)
	c := NewController(sampleBundle(), WithClock(fixedClock))
	require.NoError(t, c.Render(doc))

	root := doc.HTML()
	v, _ := Attr(root, "lang")
	assert.Equal(t, "fr", v)
	v, _ = Attr(root, "dir")
	assert.Equal(t, "ltr", v)

	assert.Equal(t, "Bijouterie Atlas", TextContent(doc.First(func(n *html.Node) bool { return n.Data == "title" })))
	desc, _ := Attr(doc.MetaByName("description"), "content")
	assert.Equal(t, "Bijoux faits main", desc)

	assert.Equal(t, "Éclat d'or", textOf(doc, "hero-title-fr"))
	assert.Equal(t, "Accueil", textOf(doc, "nav-home-fr"), "nav falls back to the built-in label")
	assert.Equal(t, "AR", textOf(doc, SwitchID))

	src, _ := Attr(doc.ElementByID("hero-image"), "src")
	assert.Equal(t, "/img/hero.jpg", src)

	href, _ := Attr(doc.ElementByID("social-link-facebook"), "href")
	assert.Equal(t, "https://facebook.com/atlas", href)

	assert.True(t, hidden(doc, "header-logo-img"))
	assert.False(t, hidden(doc, "brand-fr"))
	assert.True(t, hidden(doc, "brand-ar"))
	assert.Equal(t, "Atlas", textOf(doc, "brand-fr"))

	assert.Len(t, doc.ElementsByClass("collection-card"), 2)
	assert.Equal(t, []string{"Bague Or", "Collier Perle", "Bague Argent"}, galleryTitles(doc))
	assert.Equal(t, "© 2024 Tous droits réservés", textOf(doc, "footer-copyright-fr"))
}

func TestToggleFrenchToArabic(t *testing.T) {
	doc := loadPage(t)
	store := prefs.NewMemoryStore()
	c := NewController(sampleBundle(), WithStore(store), WithClock(fixedClock))
	require.NoError(t, c.Render(doc))
	require.Equal(t, lang.French, c.State().Lang)

	require.NoError(t, c.Toggle(doc))

	assert.Equal(t, lang.Arabic, c.State().Lang)
	stored, ok := store.Language()
	require.True(t, ok)
	assert.Equal(t, lang.Arabic, stored)

	dir, _ := Attr(doc.HTML(), "dir")
	assert.Equal(t, "rtl", dir)
	l, _ := Attr(doc.HTML(), "lang")
	assert.Equal(t, "ar", l)

	for _, n := range doc.ElementsWithAttr("data-lang") {
		id, _ := Attr(n, "id")
		v, _ := Attr(n, "data-lang")
		assert.Equal(t, v == "fr", HasClass(n, HiddenClass), "element %q", id)
	}

	assert.Equal(t, "بريق الذهب", textOf(doc, "hero-title-ar"))
	assert.Equal(t, "الرئيسية", textOf(doc, "nav-home-ar"))
	assert.Equal(t, "FR", textOf(doc, SwitchID))
	assert.Equal(t, []string{"خاتم ذهب", "قلادة لؤلؤ", "خاتم فضة"}, galleryTitles(doc))

	address := doc.ElementByID("contact-address-ar")
	icon := address.FirstChild
	require.NotNil(t, icon)
	assert.True(t, HasClass(icon, "ml-2"))

	assert.Equal(t, "أطلس", textOf(doc, "brand-ar"))

	require.NoError(t, c.Toggle(doc))
	assert.Equal(t, lang.French, c.State().Lang)
	assert.True(t, hidden(doc, "hero-title-ar"))
	assert.False(t, hidden(doc, "hero-title-fr"))
	assert.True(t, hidden(doc, "brand-ar"))
	assert.False(t, hidden(doc, "brand-fr"))
}

func TestInitialLanguageFromStore(t *testing.T) {
	store := prefs.NewMemoryStore()
	require.NoError(t, store.SetLanguage(lang.Arabic))

	c := NewController(content.Bundle{}, WithStore(store))
	assert.Equal(t, State{Lang: lang.Arabic, Filter: content.FilterAll}, c.State())

	c = NewController(content.Bundle{}, WithStore(store), WithLanguage(lang.French), WithFilter("bagues"))
	assert.Equal(t, State{Lang: lang.French, Filter: "bagues"}, c.State())
}

func TestSelectFilter(t *testing.T) {
	doc := loadPage(t)
	c := NewController(sampleBundle(), WithClock(fixedClock))
	require.NoError(t, c.Render(doc))

	require.NoError(t, c.SelectFilter(doc, "bagues"))
	assert.Equal(t, []string{"Bague Or", "Bague Argent"}, galleryTitles(doc))
	for _, item := range GalleryItems(doc) {
		v, _ := Attr(item, "data-category")
		assert.Equal(t, "bagues", v)
	}

	var active []string
	for _, btn := range doc.ElementsByClass(FilterBtnClass) {
		if HasClass(btn, "active") {
			f, _ := Attr(btn, "data-filter")
			active = append(active, f)
			assert.True(t, HasClass(btn, "btn-gold"))
		} else {
			assert.True(t, HasClass(btn, "btn-outline-gold"))
			assert.False(t, HasClass(btn, "btn-gold"))
		}
	}
	assert.Equal(t, []string{"bagues"}, active)
	assert.Equal(t, "bagues", ActiveFilter(doc))

	require.NoError(t, c.Toggle(doc))
	assert.Equal(t, []string{"خاتم ذهب", "خاتم فضة"}, galleryTitles(doc), "toggle keeps the filter")

	require.NoError(t, c.SelectFilter(doc, content.FilterAll))
	assert.Len(t, GalleryItems(doc), 3)
	assert.Equal(t, content.FilterAll, ActiveFilter(doc))
}

func TestUnknownFilterFallsBackToAll(t *testing.T) {
	doc := loadPage(t)
	c := NewController(sampleBundle(), WithClock(fixedClock), WithFilter("bracelets"))
	require.NoError(t, c.Render(doc))

	assert.Equal(t, content.FilterAll, c.State().Filter)
	assert.Equal(t, content.FilterAll, ActiveFilter(doc))
	assert.Len(t, GalleryItems(doc), 3)

	require.NoError(t, c.SelectFilter(doc, "bagues"))
	require.NoError(t, c.SelectFilter(doc, "xyz"))

	var active int
	for _, btn := range doc.ElementsByClass(FilterBtnClass) {
		if HasClass(btn, "active") {
			active++
		}
	}
	assert.Equal(t, 1, active)
	assert.Equal(t, content.FilterAll, ActiveFilter(doc))
	assert.Len(t, GalleryItems(doc), 3)
}

func TestCopyrightMarkup(t *testing.T) {
	bundle := sampleBundle()
	bundle.Home["footer_copyright_ar"] = `<a href="/">أطلس</a>`

	doc := loadPage(t)
	c := NewController(bundle, WithClock(fixedClock), WithLanguage(lang.Arabic))
	require.NoError(t, c.Render(doc))

	n := doc.ElementByID("footer-copyright-ar")
	assert.Equal(t, "© 2024 أطلس", strings.TrimSpace(TextContent(n)))

	var link *html.Node
	walk(n, func(x *html.Node) bool {
		if x.Type == html.ElementNode && x.Data == "a" {
			link = x
			return false
		}
		return true
	})
	require.NotNil(t, link, "copyright markup is kept")
	href, _ := Attr(link, "href")
	assert.Equal(t, "/", href)
}

func TestEndToEndFromMarkdown(t *testing.T) {
	root := t.TempDir()
	md := filepath.Join(root, "content", "gallery", "r1.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(md), 0o755))
	require.NoError(t, os.WriteFile(md, []byte("---\ntitle_fr: \"Bague Or\"\ntitle_ar: \"خاتم ذهب\"\nimage: \"/img/r1.jpg\"\ncategory: \"bagues\"\n---\n"), 0o644))

	a := &aggregate.Aggregator{
		ContentDir:  filepath.Join(root, "content"),
		OutputDir:   filepath.Join(root, "assets", "data"),
		Collections: aggregate.DefaultCollections(),
	}
	_, err := a.Aggregate(context.Background())
	require.NoError(t, err)

	bundle := content.Load(context.Background(), content.NewFSSource(root), content.DefaultPaths(), nil)
	require.Len(t, bundle.Gallery, 1)

	fields := DefaultFields()
	fields.Gallery = FieldSet{Title: "title", Image: "image", Category: "category"}

	doc := loadPage(t)
	c := NewController(bundle, WithFields(fields), WithClock(fixedClock))
	require.NoError(t, c.Render(doc))

	items := GalleryItems(doc)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"Bague Or"}, galleryTitles(doc))
	assert.Contains(t, doc.String(), `src="/img/r1.jpg"`)

	require.NoError(t, c.Toggle(doc))
	assert.Equal(t, []string{"خاتم ذهب"}, galleryTitles(doc))
	assert.Contains(t, doc.String(), `src="/img/r1.jpg"`)
}

func TestFailedSourceKeepsOthers(t *testing.T) {
	root := t.TempDir()
	settings := filepath.Join(root, "content", "data", "settings.yml")
	require.NoError(t, os.MkdirAll(filepath.Dir(settings), 0o755))
	require.NoError(t, os.WriteFile(settings, []byte("site_title: Maison Or\nsite_logo: /img/logo.png\n"), 0o644))

	collector := events.NewCollector(nil)
	bundle := content.Load(context.Background(), content.NewFSSource(root), content.DefaultPaths(), collector)
	assert.Len(t, collector.AtLevel(events.Warn), 3)

	doc := loadPage(t)
	c := NewController(bundle, WithClock(fixedClock))
	require.NoError(t, c.Render(doc))

	assert.Equal(t, "Maison Or", TextContent(doc.First(func(n *html.Node) bool { return n.Data == "title" })))
	src, _ := Attr(doc.ElementByID("header-logo-img"), "src")
	assert.Equal(t, "/img/logo.png", src)
	assert.False(t, hidden(doc, "header-logo-img"))
	assert.True(t, hidden(doc, "brand-fr"))

	assert.Equal(t, "Titre par défaut", textOf(doc, "hero-title-fr"), "absent field keeps authored text")
	desc, _ := Attr(doc.MetaByName("description"), "content")
	assert.Equal(t, "Bijouterie artisanale", desc, "absent description keeps authored text")
	assert.True(t, hidden(doc, "hero-image"), "absent image is hidden")
	action, _ := Attr(doc.ElementByID("contactForm"), "action")
	assert.Equal(t, "/merci", action)
	assert.Empty(t, GalleryItems(doc))
	assert.Empty(t, doc.ElementsByClass("collection-card"))
	assert.Equal(t, "© 2024", textOf(doc, "footer-copyright-fr"))
}

func TestContactAndMap(t *testing.T) {
	doc := loadPage(t)
	c := NewController(sampleBundle(), WithClock(fixedClock))
	require.NoError(t, c.Render(doc))

	out := doc.String()
	assert.Contains(t, out, "12 rue &lt;Atlas&gt;")
	assert.Contains(t, out, `<i class="fas fa-map-marker-alt text-[var(--gold-primary)] w-6 mr-2"></i>`)
	assert.Equal(t, "+212 600", textOf(doc, "contact-phone-fr"))

	var iframe *html.Node
	walk(doc.ElementByID("google-map-container"), func(n *html.Node) bool {
		if n.Data == "iframe" {
			iframe = n
			return false
		}
		return true
	})
	require.NotNil(t, iframe)
	style, _ := Attr(iframe, "style")
	assert.Equal(t, "margin: 0; width: 100%; height: 100%; border: 0;", style)
}

func TestWire(t *testing.T) {
	doc := loadPage(t)
	c := NewController(sampleBundle(), WithClock(fixedClock))

	routes := Routes{
		Lang:   func(l lang.Lang) string { return "/_bijou/lang?to=" + string(l) },
		Filter: func(f string) string { return "/?filter=" + f },
	}
	require.NoError(t, c.Wire(doc, routes))
	assert.ErrorIs(t, c.Wire(doc, routes), ErrAlreadyWired)
	require.NoError(t, c.Render(doc))

	sw := doc.ElementByID(SwitchID)
	assert.Equal(t, "a", sw.Data)
	href, _ := Attr(sw, "href")
	assert.Equal(t, "/_bijou/lang?to=ar", href)
	_, hasType := Attr(sw, "type")
	assert.False(t, hasType)

	for _, btn := range doc.ElementsByClass(FilterBtnClass) {
		f, _ := Attr(btn, "data-filter")
		href, _ := Attr(btn, "href")
		assert.Equal(t, "/?filter="+f, href)
	}

	require.NoError(t, c.Toggle(doc))
	href, _ = Attr(doc.ElementByID(SwitchID), "href")
	assert.Equal(t, "/_bijou/lang?to=fr", href)
}

func TestApplyKinds(t *testing.T) {
	doc, err := ParseString(`<html><body>
		<p id="t">authored</p>
		<img id="i" src="/a.jpg">
		<a id="l" href="/keep">x</a>
		<form id="f" action="/keep"></form>
		<div id="m"></div>
	</body></html>`)
	require.NoError(t, err)

	bundle := content.Bundle{Home: content.Document{"markup": "<b>bold</b>", "link": "/new"}}

	require.NoError(t, Apply(doc, Binding{Target: "t", Field: "missing", Kind: Text}, bundle, lang.French))
	assert.Equal(t, "authored", textOf(doc, "t"))

	require.NoError(t, Apply(doc, Binding{Target: "i", Field: "missing", Kind: Image}, bundle, lang.French))
	assert.True(t, hidden(doc, "i"))

	require.NoError(t, Apply(doc, Binding{Target: "l", Field: "missing", Kind: Link}, bundle, lang.French))
	href, _ := Attr(doc.ElementByID("l"), "href")
	assert.Equal(t, "/keep", href)

	require.NoError(t, Apply(doc, Binding{Target: "l", Field: "link", Kind: Link}, bundle, lang.French))
	href, _ = Attr(doc.ElementByID("l"), "href")
	assert.Equal(t, "/new", href)

	require.NoError(t, Apply(doc, Binding{Target: "f", Field: "missing", Kind: Form}, bundle, lang.French))
	action, _ := Attr(doc.ElementByID("f"), "action")
	assert.Equal(t, "/keep", action)

	require.NoError(t, Apply(doc, Binding{Target: "m", Field: "markup", Kind: Markup}, bundle, lang.French))
	assert.Contains(t, doc.String(), `<div id="m"><b>bold</b></div>`)

	require.NoError(t, Apply(doc, Binding{Target: "nope", Field: "link", Kind: Link}, bundle, lang.French))
}

func TestDocumentHelpers(t *testing.T) {
	doc, err := ParseString(`<html><body><p id="p" class="a b">x</p></body></html>`)
	require.NoError(t, err)

	p := doc.ElementByID("p")
	AddClass(p, "c", "a")
	RemoveClass(p, "b")
	v, _ := Attr(p, "class")
	assert.Equal(t, "a c", v)

	ToggleClass(p, HiddenClass, true)
	assert.True(t, HasClass(p, HiddenClass))
	ToggleClass(p, HiddenClass, false)
	assert.False(t, HasClass(p, HiddenClass))

	clone := doc.Clone()
	SetText(clone.ElementByID("p"), "changed")
	assert.Equal(t, "x", textOf(doc, "p"))
	assert.Equal(t, "changed", textOf(clone, "p"))
}

func TestDefaultBindingsExpand(t *testing.T) {
	seen := make(map[string]bool)
	for _, b := range DefaultBindings() {
		for _, l := range lang.All {
			id := b.ID(l)
			assert.NotContains(t, id, "{lang}")
			if strings.Contains(b.Target, "{lang}") {
				assert.True(t, strings.HasSuffix(id, "-"+string(l)), id)
			}
		}
		key := b.Target + "|" + b.Field
		assert.False(t, seen[key], "duplicate binding %s", key)
		seen[key] = true
	}
}

func TestFieldsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Render.Fields.Gallery = config.ConfigFieldSet{Title: "title", Category: "category"}

	fields := FieldsFromConfig(cfg)
	assert.Equal(t, FieldSet{Title: "title", Image: "collection_image", Category: "category"}, fields.Gallery)
	assert.Equal(t, DefaultFields().Products, fields.Products)
}
