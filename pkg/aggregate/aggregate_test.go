package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/olimci/bijou/pkg/events"
	"github.com/olimci/bijou/pkg/frontmatter"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readItems(t *testing.T, path string) []map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var items []map[string]any
	if err := json.Unmarshal(b, &items); err != nil {
		t.Fatalf("decode %s: %v\n%s", path, err, b)
	}
	return items
}

func TestCollect(t *testing.T) {
	fsys := fstest.MapFS{
		"gallery/b.md":          {Data: []byte("---\ncollection_title_fr: B\norder: 2\n---\nbody\n")},
		"gallery/a.md":          {Data: []byte("---\ncollection_title_fr: A\norder: 10\n---\n")},
		"gallery/nested/c.md":   {Data: []byte("+++\ncollection_title_fr = \"C\"\n+++\n")},
		"gallery/notes.txt":     {Data: []byte("ignored")},
		"products/p.md":         {Data: []byte("---\nproduit_title_fr: P\n---\n")},
		"gallery/nested/d.json": {Data: []byte("{}")},
	}

	items, err := Collect(fsys, "gallery")
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	var titles []string
	for _, item := range items {
		titles = append(titles, item["collection_title_fr"].(string))
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectMissingFolder(t *testing.T) {
	items, err := Collect(fstest.MapFS{}, "products")
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("Collect() = %#v, want empty non-nil slice", items)
	}
}

func TestSortBy(t *testing.T) {
	items := []frontmatter.Metadata{
		{"id": "none-1"},
		{"id": "ten", "order": 10},
		{"id": "two", "order": 2},
		{"id": "none-2"},
		{"id": "three", "order": json.Number("3")},
	}
	SortBy(items, "order")

	var got []string
	for _, item := range items {
		got = append(got, item["id"].(string))
	}
	want := []string{"two", "three", "ten", "none-1", "none-2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	output := filepath.Join(root, "assets", "data")

	writeTree(t, content, map[string]string{
		"gallery/r1.md": "---\ntitle_fr: \"Bague Or\"\ntitle_ar: \"خاتم ذهب\"\nimage: \"/img/r1.jpg\"\ncategory: \"bagues\"\n---\n",
		"gallery/r2.md": "---\ntitle_fr: Collier\nprice: 1200\nfeatured: true\ntags: [or, argent]\n---\nSome body.\n",
	})

	collector := events.NewCollector(nil)
	a := &Aggregator{
		ContentDir:  content,
		OutputDir:   output,
		Collections: DefaultCollections(),
		Events:      collector,
	}

	results, err := a.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	products := readItems(t, filepath.Join(output, "products.json"))
	if len(products) != 0 {
		t.Errorf("products = %v, want empty array", products)
	}
	raw, _ := os.ReadFile(filepath.Join(output, "products.json"))
	if string(raw) != "[]\n" {
		t.Errorf("products.json = %q, want %q", raw, "[]\n")
	}

	gallery := readItems(t, filepath.Join(output, "gallery.json"))
	want := []map[string]any{
		{"title_fr": "Bague Or", "title_ar": "خاتم ذهب", "image": "/img/r1.jpg", "category": "bagues"},
		{"title_fr": "Collier", "price": float64(1200), "featured": true, "tags": []any{"or", "argent"}},
	}
	if diff := cmp.Diff(want, gallery); diff != "" {
		t.Errorf("gallery mismatch (-want +got):\n%s", diff)
	}

	var messages []string
	for _, e := range collector.AtLevel(events.Info) {
		messages = append(messages, e.Message)
	}
	wantMessages := []string{
		"found 0 files in 'products'",
		"found 2 files in 'gallery'",
		"aggregated products to " + filepath.Join(output, "products.json"),
		"aggregated gallery to " + filepath.Join(output, "gallery.json"),
		"aggregation finished",
	}
	if diff := cmp.Diff(wantMessages, messages); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"content/products/z.md": "---\nproduit_title_fr: Z\nproduit_title_ar: ز\nb: 1\na: 2\n---\n",
		"content/products/y.md": "---\nproduit_title_fr: Y\n---\n",
	})

	a := &Aggregator{
		ContentDir:  filepath.Join(root, "content"),
		OutputDir:   filepath.Join(root, "out"),
		Collections: []Collection{{Name: "products", Output: "products.json"}},
	}

	first, err := a.Aggregate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(first[0].Path)

	second, err := a.Aggregate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	after, _ := os.ReadFile(second[0].Path)

	if string(before) != string(after) {
		t.Errorf("output changed between runs:\n%s\n---\n%s", before, after)
	}
	if !first[0].Changed || second[0].Changed {
		t.Errorf("Changed = %v then %v, want true then false", first[0].Changed, second[0].Changed)
	}
}

func TestAggregateMinify(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"content/gallery/a.md": "---\ncollection_title_fr: A\n---\n",
	})

	a := &Aggregator{
		ContentDir:  filepath.Join(root, "content"),
		OutputDir:   filepath.Join(root, "out"),
		Collections: []Collection{{Name: "gallery"}},
		Minify:      true,
	}
	if _, err := a.Aggregate(context.Background()); err != nil {
		t.Fatal(err)
	}

	raw, _ := os.ReadFile(filepath.Join(root, "out", "gallery.json"))
	if string(raw) != `[{"collection_title_fr":"A"}]` {
		t.Errorf("gallery.json = %q", raw)
	}
}

func TestAggregateBodyKey(t *testing.T) {
	fsys := fstest.MapFS{
		"products/a.md": {Data: []byte("---\nproduit_title_fr: A\n---\n# Bague\n\nEn *or*.\n")},
	}
	a := (&Aggregator{
		OutputDir:   t.TempDir(),
		Collections: []Collection{{Name: "products"}},
		BodyKey:     "body",
	}).WithFS(fsys)

	results, err := a.Aggregate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	items := readItems(t, results[0].Path)
	if got := items[0]["body"]; got != "<h1>Bague</h1>\n<p>En <em>or</em>.</p>\n" {
		t.Errorf("body = %q", got)
	}
}

func TestAggregateFailureWritesNothing(t *testing.T) {
	fsys := fstest.MapFS{
		"products/ok.md":  {Data: []byte("---\nproduit_title_fr: OK\n---\n")},
		"gallery/bad.md":  {Data: []byte("---\ncollection_title_fr: [unclosed\n---\n")},
		"gallery/good.md": {Data: []byte("---\ncollection_title_fr: Good\n---\n")},
	}
	out := filepath.Join(t.TempDir(), "data")

	collector := events.NewCollector(nil)
	a := (&Aggregator{
		OutputDir:   out,
		Collections: DefaultCollections(),
		Events:      collector,
	}).WithFS(fsys)

	_, err := a.Aggregate(context.Background())
	if !errors.Is(err, ErrAggregate) {
		t.Fatalf("Aggregate() error = %v, want ErrAggregate", err)
	}
	if !errors.Is(err, frontmatter.ErrFailedToParseFrontmatter) {
		t.Errorf("Aggregate() error = %v, want parse error in chain", err)
	}
	if _, statErr := os.Stat(filepath.Join(out, "products.json")); !os.IsNotExist(statErr) {
		t.Errorf("products.json was written despite failure (stat err = %v)", statErr)
	}
	if !collector.HasLevel(events.Error) {
		t.Error("no error event reported")
	}
}

func TestAggregateMissingFrontmatterWarns(t *testing.T) {
	fsys := fstest.MapFS{
		"gallery/plain.md": {Data: []byte("just text\n")},
	}
	collector := events.NewCollector(nil)
	a := (&Aggregator{
		OutputDir:   t.TempDir(),
		Collections: []Collection{{Name: "gallery"}},
		Events:      collector,
	}).WithFS(fsys)

	results, err := a.Aggregate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Items != 1 {
		t.Errorf("Items = %d, want 1", results[0].Items)
	}
	warns := collector.AtLevel(events.Warn)
	if len(warns) != 1 || warns[0].Source != "gallery/plain.md" {
		t.Errorf("warnings = %v", warns)
	}
}

func TestAggregateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := (&Aggregator{OutputDir: t.TempDir()}).WithFS(fstest.MapFS{})
	if _, err := a.Aggregate(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Aggregate() error = %v, want context.Canceled", err)
	}
}
