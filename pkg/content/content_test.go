package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/olimci/bijou/pkg/events"
	"github.com/olimci/bijou/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentLookups(t *testing.T) {
	doc := Document{
		"hero_title_fr": "Éclat",
		"hero_title_ar": "بريق",
		"welcome_title": map[string]any{"fr": "Bienvenue", "ar": "مرحبا"},
		"phone":         int64(212600),
		"price":         1200.5,
		"opened":        time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC),
		"nested":        map[string]any{"a": 1},
		"empty":         nil,
	}

	assert.Equal(t, "Éclat", doc.Localized("hero_title", lang.French))
	assert.Equal(t, "بريق", doc.Localized("hero_title", lang.Arabic))
	assert.Equal(t, "مرحبا", doc.Localized("welcome_title", lang.Arabic))
	assert.Equal(t, "", doc.Localized("missing", lang.French))

	assert.Equal(t, "212600", doc.String("phone"))
	assert.Equal(t, "1200.5", doc.String("price"))
	assert.Equal(t, "2020-05-01", doc.String("opened"))
	assert.Equal(t, "", doc.String("nested"))
	assert.Equal(t, "", doc.String("empty"))
	assert.False(t, doc.Has("empty"))

	var nilDoc Document
	assert.Equal(t, "", nilDoc.Localized("hero_title", lang.French))
}

func TestCollectionFilter(t *testing.T) {
	col := Collection{
		{"collection_category": "bagues", "id": "1"},
		{"collection_category": "colliers", "id": "2"},
		{"collection_category": "bagues", "id": "3"},
		{"id": "4"},
	}

	assert.Len(t, col.Filter("collection_category", FilterAll), 4)
	assert.Len(t, col.Filter("collection_category", ""), 4)

	bagues := col.Filter("collection_category", "bagues")
	require.Len(t, bagues, 2)
	assert.Equal(t, "1", bagues.Filter("id", "1")[0].String("id"))
	assert.Equal(t, "3", bagues[1].String("id"))

	assert.Empty(t, col.Filter("collection_category", "Bagues"))
	assert.Equal(t, []string{"bagues", "colliers"}, col.Categories("collection_category"))
}

func TestHTTPSource(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()

		switch r.URL.Path {
		case "/content/data/home.yml":
			w.Write([]byte("hero_title_fr: Éclat\n"))
		case "/boom":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/", time.Second)
	src.Now = func() time.Time { return time.UnixMilli(1700000000123) }

	r, err := src.Open(context.Background(), "/content/data/home.yml")
	require.NoError(t, err)
	doc, err := ParseDocument(r)
	r.Close()
	require.NoError(t, err)
	assert.Equal(t, "Éclat", doc.String("hero_title_fr"))

	_, err = src.Open(context.Background(), "/missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = src.Open(context.Background(), "/boom")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, queries)
	assert.Equal(t, "v=1700000000123", queries[0])
}

func TestHTTPSourceNoCacheBust(t *testing.T) {
	src := NewHTTPSource("https://bijoux.example.com", time.Second)
	src.CacheBust = false

	u, err := src.URL("/assets/data/products.json")
	require.NoError(t, err)
	assert.Equal(t, "https://bijoux.example.com/assets/data/products.json", u)
}

func TestFSSource(t *testing.T) {
	src := &FSSource{FS: fstest.MapFS{
		"assets/data/gallery.json": {Data: []byte(`[{"collection_title_fr":"Bague Or","order":3}]`)},
	}}

	r, err := src.Open(context.Background(), "/assets/data/gallery.json")
	require.NoError(t, err)
	col, err := ParseCollection(r)
	r.Close()
	require.NoError(t, err)
	require.Len(t, col, 1)
	assert.Equal(t, "Bague Or", col[0].String("collection_title_fr"))
	assert.Equal(t, "3", col[0].String("order"))

	_, err = src.Open(context.Background(), "/content/data/home.yml")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Open(context.Background(), "/../etc/passwd")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestParseEdgeCases(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader(""))
	require.NoError(t, err)
	assert.NotNil(t, doc)
	assert.Empty(t, doc)

	_, err = ParseDocument(strings.NewReader("- a\n- b\n"))
	assert.Error(t, err)

	col, err := ParseCollection(strings.NewReader("null"))
	require.NoError(t, err)
	assert.NotNil(t, col)

	_, err = ParseCollection(strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
}

func TestLoadDegradesPerSource(t *testing.T) {
	src := &FSSource{FS: fstest.MapFS{
		"content/data/settings.yml": {Data: []byte("site_title: Maison Or\nphone: \"+212 600\"\n")},
		"content/data/home.yml":     {Data: []byte("hero_title_fr: [broken\n")},
		"assets/data/gallery.json":  {Data: []byte(`[{"collection_title_fr":"Bague Or"}]`)},
	}}

	collector := events.NewCollector(nil)
	b := Load(context.Background(), src, DefaultPaths(), collector)

	assert.Equal(t, "Maison Or", b.Settings.String("site_title"))
	assert.NotNil(t, b.Home)
	assert.Empty(t, b.Home)
	assert.NotNil(t, b.Products)
	assert.Empty(t, b.Products)
	require.Len(t, b.Gallery, 1)

	warns := collector.AtLevel(events.Warn)
	require.Len(t, warns, 2)

	sources := []string{warns[0].Source, warns[1].Source}
	assert.ElementsMatch(t, []string{"/content/data/home.yml", "/assets/data/products.json"}, sources)
}

func TestLoadOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.FS(fstest.MapFS{
		"content/data/settings.yml": {Data: []byte("site_title: Bijouterie Atlas\n")},
		"content/data/home.yml":     {Data: []byte("hero_title:\n  fr: Éclat\n  ar: بريق\n")},
		"assets/data/products.json": {Data: []byte(`[{"produit_title_fr":"Bague"}]`)},
		"assets/data/gallery.json":  {Data: []byte(`[]`)},
	})))
	defer srv.Close()

	b := Load(context.Background(), NewHTTPSource(srv.URL, time.Second), DefaultPaths(), nil)

	assert.Equal(t, "Bijouterie Atlas", b.Settings.String("site_title"))
	assert.Equal(t, "بريق", b.Home.Localized("hero_title", lang.Arabic))
	assert.Len(t, b.Products, 1)
	assert.Empty(t, b.Gallery)
}
