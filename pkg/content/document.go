// Package content loads the documents and collections a page is populated
// from.
package content

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olimci/bijou/pkg/lang"
)

// Document is a schema-less key/value content source.
type Document map[string]any

// Value returns the raw value under key.
func (d Document) Value(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d[key]
	return v, ok && v != nil
}

// Has reports whether key holds a non-empty value.
func (d Document) Has(key string) bool {
	return d.String(key) != ""
}

// String formats the scalar under key. Missing keys and nested values
// return "".
func (d Document) String(key string) string {
	v, ok := d.Value(key)
	if !ok {
		return ""
	}
	return scalar(v)
}

// Localized returns key_<lang>, falling back to the nested form
// key: {<lang>: ...}.
func (d Document) Localized(key string, l lang.Lang) string {
	if s := d.String(key + "_" + string(l)); s != "" {
		return s
	}

	v, ok := d.Value(key)
	if !ok {
		return ""
	}
	switch m := v.(type) {
	case map[string]any:
		return Document(m).String(string(l))
	case map[any]any:
		if x, ok := m[string(l)]; ok && x != nil {
			return scalar(x)
		}
	}
	return ""
}

func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	case map[string]any, map[any]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// Collection is an ordered list of items from one aggregated array.
type Collection []Document

// FilterAll is the filter value that selects every item.
const FilterAll = "all"

// Filter returns the items whose field equals category exactly. "all" and ""
// return the whole collection.
func (c Collection) Filter(field, category string) Collection {
	if category == "" || category == FilterAll {
		return c
	}

	out := make(Collection, 0, len(c))
	for _, item := range c {
		if item.String(field) == category {
			out = append(out, item)
		}
	}
	return out
}

// Categories lists the distinct values of field in first-seen order.
func (c Collection) Categories(field string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range c {
		v := item.String(field)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Bundle is everything one page render needs.
type Bundle struct {
	Settings Document
	Home     Document
	Products Collection
	Gallery  Collection
}
