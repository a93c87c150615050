// Package frontmatter splits a content document into its metadata header and body.
//
// Three header syntaxes are recognised: YAML fenced by "---", TOML fenced by
// "+++", and a bare JSON object at the very start of the document.
package frontmatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Metadata is the schema-less key/value header of a document.
type Metadata map[string]any

var (
	ErrUnknownFrontmatterType   = errors.New("unknown frontmatter type")
	ErrFailedToParseFrontmatter = errors.New("failed to parse frontmatter")
	ErrNoFrontmatter            = errors.New("no frontmatter")
)

// Format identifies the syntax of a header block.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// Parse extracts the metadata and the body of doc. A document without a
// header returns ErrNoFrontmatter together with the full document as body.
func Parse(doc []byte) (Metadata, []byte, error) {
	b := trimBOM(doc)

	format, start, end, bodyStart := detectBlock(b)
	if format == FormatNone {
		return nil, b, ErrNoFrontmatter
	}

	meta, err := decode(format, b[start:end])
	if err != nil {
		return nil, doc, fmt.Errorf("%w (%s): %w", ErrFailedToParseFrontmatter, format, err)
	}
	return meta, b[bodyStart:], nil
}

// Detect reports the header format of doc without decoding it.
func Detect(doc []byte) Format {
	format, _, _, _ := detectBlock(trimBOM(doc))
	return format
}

func decode(format Format, payload []byte) (Metadata, error) {
	meta := Metadata{}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(payload, &meta); err != nil {
			return nil, err
		}
	case FormatTOML:
		if err := toml.Unmarshal(payload, &meta); err != nil {
			return nil, err
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.UseNumber()
		if err := dec.Decode(&meta); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownFrontmatterType
	}

	// yaml leaves the map nil for an empty block
	if meta == nil {
		meta = Metadata{}
	}
	return meta, nil
}

// detectBlock returns (format, start, end, bodyStart) of the header block.
func detectBlock(b []byte) (Format, int, int, int) {
	if len(b) == 0 {
		return FormatNone, 0, 0, 0
	}

	switch {
	case hasPrefixAtLineStart(b, []byte("---")):
		return scanFencedBlock(b, []byte("---"), FormatYAML)
	case hasPrefixAtLineStart(b, []byte("+++")):
		return scanFencedBlock(b, []byte("+++"), FormatTOML)
	default:
		return scanJSONObjectPrefix(b)
	}
}

func scanFencedBlock(b []byte, fence []byte, format Format) (Format, int, int, int) {
	payloadStart := lineEnd(b, 0)

	for i := payloadStart; i < len(b); {
		next := lineEnd(b, i)
		if bytes.Equal(bytes.TrimRight(b[i:next], " \t\r\n"), fence) {
			return format, payloadStart, i, next
		}
		i = next
	}
	return FormatNone, 0, 0, 0
}

func scanJSONObjectPrefix(b []byte) (Format, int, int, int) {
	if b[0] != '{' {
		return FormatNone, 0, 0, 0
	}

	var (
		depth   = 0
		inStr   = false
		escaped = false
	)

	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}

		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return FormatJSON, 0, i + 1, skipLineEnding(b, i+1)
			}
		}
	}

	return FormatNone, 0, 0, 0
}

func skipLineEnding(b []byte, i int) int {
	if i < len(b) && b[i] == '\r' {
		i++
	}
	if i < len(b) && b[i] == '\n' {
		i++
	}
	return i
}

func hasPrefixAtLineStart(b, prefix []byte) bool {
	if !bytes.HasPrefix(b, prefix) {
		return false
	}
	line := bytes.TrimRight(b[:lineEnd(b, 0)], " \t\r\n")
	return bytes.Equal(line, prefix)
}

// lineEnd returns the index just past the next newline at or after start.
func lineEnd(b []byte, start int) int {
	if i := bytes.IndexByte(b[start:], '\n'); i >= 0 {
		return start + i + 1
	}
	return len(b)
}

func trimBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
}
