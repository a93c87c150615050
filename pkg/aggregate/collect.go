package aggregate

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/olimci/bijou/pkg/events"
	"github.com/olimci/bijou/pkg/frontmatter"
	"github.com/yuin/goldmark"
)

// Collect returns the front-matter of every Markdown file below name in fsys,
// in lexical path order. A missing or empty folder yields an empty slice.
func Collect(fsys fs.FS, name string) ([]frontmatter.Metadata, error) {
	return (&Aggregator{}).collect(fsys, Collection{Name: name})
}

func (a *Aggregator) collect(fsys fs.FS, col Collection) ([]frontmatter.Metadata, error) {
	files, err := doublestar.Glob(fsys, Pattern(col.Name), doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	slices.Sort(files)

	var md goldmark.Markdown
	if a.BodyKey != "" {
		md = goldmark.New()
	}

	items := make([]frontmatter.Metadata, 0, len(files))
	for _, file := range files {
		doc, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		meta, body, err := frontmatter.Parse(doc)
		switch {
		case errors.Is(err, frontmatter.ErrNoFrontmatter):
			a.emit(events.Warn, file, "no front-matter, recorded as an empty item", nil)
			meta = frontmatter.Metadata{}
		case err != nil:
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		meta = normalize(meta)

		if md != nil {
			var buf bytes.Buffer
			if err := md.Convert(body, &buf); err != nil {
				return nil, fmt.Errorf("%s: rendering body: %w", file, err)
			}
			meta[a.BodyKey] = buf.String()
		}

		a.emit(events.Debug, file, "collected", nil)
		items = append(items, meta)
	}

	if col.OrderBy != "" {
		SortBy(items, col.OrderBy)
	}

	return items, nil
}

// Pattern is the recursive glob matching the Markdown files of a collection.
func Pattern(name string) string {
	return path.Join(name, "**", "*.md")
}

// SortBy stable-sorts items by the value under key. Numbers compare
// numerically, everything else as text, and items without the key keep
// their relative order after the others.
func SortBy(items []frontmatter.Metadata, key string) {
	slices.SortStableFunc(items, func(a, b frontmatter.Metadata) int {
		av, aok := a[key]
		bv, bok := b[key]
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}

		an, aNum := number(av)
		bn, bNum := number(bv)
		if aNum && bNum {
			return cmp.Compare(an, bn)
		}
		return cmp.Compare(fmt.Sprint(av), fmt.Sprint(bv))
	})
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// normalize rewrites nested maps with non-string keys, which yaml produces
// for keys such as numbers, into string-keyed maps that encode as JSON.
func normalize(meta frontmatter.Metadata) frontmatter.Metadata {
	for k, v := range meta {
		meta[k] = normalizeValue(v)
	}
	return meta
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[fmt.Sprint(k)] = normalizeValue(vv)
		}
		return out
	case map[string]any:
		for k, vv := range x {
			x[k] = normalizeValue(vv)
		}
		return x
	case []any:
		for i, vv := range x {
			x[i] = normalizeValue(vv)
		}
		return x
	default:
		return v
	}
}
