// Package lang models the two display languages of the site.
package lang

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var ErrUnsupported = errors.New("unsupported language")

type Lang string

const (
	French Lang = "fr"
	Arabic Lang = "ar"

	Default = French
)

// All lists the supported languages, default first.
var All = []Lang{French, Arabic}

var matcher = language.NewMatcher([]language.Tag{language.French, language.Arabic})

// Parse accepts a bare code ("ar") or any BCP 47 tag whose base language is
// supported ("fr-FR", "ar-MA").
func Parse(s string) (Lang, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrUnsupported)
	}

	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrUnsupported, s, err)
	}

	base, _ := tag.Base()
	switch base.String() {
	case "fr":
		return French, nil
	case "ar":
		return Arabic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
	}
}

// ParseOr parses s, falling back to def on any error.
func ParseOr(s string, def Lang) Lang {
	if l, err := Parse(s); err == nil {
		return l
	}
	return def
}

// Match picks the best supported language for an Accept-Language header.
func Match(acceptLanguage string) Lang {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return All[idx]
}

func (l Lang) String() string {
	return string(l)
}

func (l Lang) Valid() bool {
	return l == French || l == Arabic
}

// Dir is the value of the html dir attribute.
func (l Lang) Dir() string {
	if l == Arabic {
		return "rtl"
	}
	return "ltr"
}

func (l Lang) Other() Lang {
	if l == Arabic {
		return French
	}
	return Arabic
}

// SwitchLabel is the text of the toggle button, which names the language the
// click switches to.
func (l Lang) SwitchLabel() string {
	return strings.ToUpper(string(l.Other()))
}

func (l Lang) Tag() language.Tag {
	if l == Arabic {
		return language.Arabic
	}
	return language.French
}
