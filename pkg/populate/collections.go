package populate

import (
	"html/template"
	"strings"

	"github.com/olimci/bijou/pkg/content"
	"github.com/olimci/bijou/pkg/lang"
	"golang.org/x/net/html"
)

const (
	ProductsID     = "featured-products-grid"
	GalleryClass   = "gallery-container"
	FilterBtnClass = "filter-btn"
)

// FieldSet names the item fields a card is built from. Title is
// language-qualified.
type FieldSet struct {
	Title    string
	Image    string
	Category string
}

type Fields struct {
	Products FieldSet
	Gallery  FieldSet
}

func DefaultFields() Fields {
	return Fields{
		Products: FieldSet{Title: "produit_title", Image: "produit_image"},
		Gallery:  FieldSet{Title: "collection_title", Image: "collection_image", Category: "collection_category"},
	}
}

type card struct {
	Title    string
	Image    string
	Category string
	Delay    int
}

var (
	productCard = template.Must(template.New("product").Parse(`
<div class="collection-card bg-white rounded-lg scroll-animate" style="transition-delay: {{.Delay}}ms;">
	<div class="rounded-lg overflow-hidden shadow-lg aspect-[4/5]">
		<img src="{{.Image}}" alt="{{.Title}}" class="w-full h-full object-cover transition-transform duration-500 hover:scale-110" loading="lazy">
	</div>
	<div class="p-4 text-center">
		<h3 class="text-base md:text-xl font-serif font-bold text-gray-800">{{.Title}}</h3>
	</div>
</div>`))

	galleryCard = template.Must(template.New("gallery").Parse(`
<div class="gallery-item scroll-animate" data-category="{{.Category}}">
	<a href="{{.Image}}" data-lightbox="collection" data-title="{{.Title}}">
		<div class="rounded-lg overflow-hidden shadow-md hover:shadow-xl transition-shadow duration-300 aspect-[4/5]">
			<img src="{{.Image}}" alt="{{.Title}}" class="w-full h-full object-cover transition-transform duration-500 hover:scale-110" loading="lazy">
		</div>
	</a>
</div>`))
)

func makeCard(item content.Document, fields FieldSet, l lang.Lang) card {
	return card{
		Title:    item.Localized(fields.Title, l),
		Image:    item.String(fields.Image),
		Category: item.String(fields.Category),
	}
}

// RenderProducts replaces the product grid with one card per item.
func RenderProducts(doc *Document, items content.Collection, fields FieldSet, l lang.Lang) error {
	container := doc.ElementByID(ProductsID)
	if container == nil {
		return nil
	}

	var sb strings.Builder
	for i, item := range items {
		c := makeCard(item, fields, l)
		c.Delay = i * 100
		if err := productCard.Execute(&sb, c); err != nil {
			return err
		}
	}
	return SetInnerHTML(container, sb.String())
}

// RenderGallery replaces the gallery with the items matching filter.
func RenderGallery(doc *Document, items content.Collection, fields FieldSet, l lang.Lang, filter string) error {
	container := doc.FirstByClass(GalleryClass)
	if container == nil {
		return nil
	}

	var sb strings.Builder
	for _, item := range items.Filter(fields.Category, filter) {
		if err := galleryCard.Execute(&sb, makeCard(item, fields, l)); err != nil {
			return err
		}
	}
	return SetInnerHTML(container, sb.String())
}

// markFilter activates the button for filter and deactivates the others. A
// filter without a button falls back to "all"; the filter in effect is
// returned.
func markFilter(doc *Document, filter string) string {
	buttons := doc.ElementsByClass(FilterBtnClass)
	if len(buttons) == 0 {
		return filter
	}

	found := false
	for _, btn := range buttons {
		if v, _ := Attr(btn, "data-filter"); v == filter {
			found = true
			break
		}
	}
	if !found {
		filter = content.FilterAll
	}

	for _, btn := range buttons {
		v, _ := Attr(btn, "data-filter")
		if v == filter {
			RemoveClass(btn, "btn-outline-gold")
			AddClass(btn, "active", "btn-gold")
		} else {
			RemoveClass(btn, "active", "btn-gold")
			AddClass(btn, "btn-outline-gold")
		}
	}
	return filter
}

// ActiveFilter reads the filter of the active button, defaulting to all.
func ActiveFilter(doc *Document) string {
	for _, btn := range doc.ElementsByClass(FilterBtnClass) {
		if HasClass(btn, "active") {
			if v, ok := Attr(btn, "data-filter"); ok && v != "" {
				return v
			}
		}
	}
	return content.FilterAll
}

// GalleryItems returns the rendered gallery cards, for inspection.
func GalleryItems(doc *Document) []*html.Node {
	container := doc.FirstByClass(GalleryClass)
	if container == nil {
		return nil
	}
	var out []*html.Node
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && HasClass(c, "gallery-item") {
			out = append(out, c)
		}
	}
	return out
}
