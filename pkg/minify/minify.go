// Package minify post-processes generated pages and data files.
package minify

import (
	"bytes"
	"io"
	"path/filepath"

	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
	minhtml "github.com/tdewolff/minify/v2/html"
	minjs "github.com/tdewolff/minify/v2/js"
	minjson "github.com/tdewolff/minify/v2/json"
)

const (
	MimeHTML = "text/html"
	MimeCSS  = "text/css"
	MimeJS   = "application/javascript"
	MimeJSON = "application/json"
)

var mimes = map[string]string{
	".html": MimeHTML,
	".css":  MimeCSS,
	".js":   MimeJS,
	".json": MimeJSON,
}

// Minifier wraps writers by file type. A disabled Minifier passes bytes
// through untouched.
type Minifier struct {
	m *minify.M
}

func New(enabled bool) *Minifier {
	if !enabled {
		return &Minifier{}
	}

	m := minify.New()
	m.Add(MimeHTML, &minhtml.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc(MimeCSS, mincss.Minify)
	m.AddFunc(MimeJS, minjs.Minify)
	m.AddFunc(MimeJSON, minjson.Minify)

	return &Minifier{m: m}
}

func (m *Minifier) Enabled() bool {
	return m != nil && m.m != nil
}

// MimeFor maps a target path to the mime type it is minified as, or "".
func MimeFor(target string) string {
	return mimes[filepath.Ext(target)]
}

// Writer wraps w so that output for target is minified. The returned writer
// must be closed to flush.
func (m *Minifier) Writer(target string, w io.Writer) io.WriteCloser {
	mime := MimeFor(target)
	if !m.Enabled() || mime == "" {
		return nopCloser{w}
	}
	return m.m.Writer(mime, w)
}

// Bytes minifies b as the type of target.
func (m *Minifier) Bytes(target string, b []byte) ([]byte, error) {
	mime := MimeFor(target)
	if !m.Enabled() || mime == "" {
		return b, nil
	}

	var buf bytes.Buffer
	if err := m.m.Minify(mime, &buf, bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
