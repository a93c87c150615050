package scaffold

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/olimci/bijou/pkg/lang"
)

const DefaultTitle = "Bijouterie"

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	dashRuns     = regexp.MustCompile(`-+`)
)

// Variables are the values available to .tmpl files.
type Variables struct {
	Title   string
	Slug    string
	Lang    lang.Lang
	Dir     string
	Version string
	Year    string
}

type VariablesConfig struct {
	Directory string
	Title     string
	Lang      lang.Lang
	Version   string
	Now       time.Time
}

func NewVariables(cfg VariablesConfig) *Variables {
	title := strings.TrimSpace(cfg.Title)
	if title == "" {
		title = deriveTitle(cfg.Directory)
	}

	l := cfg.Lang
	if !l.Valid() {
		l = lang.Default
	}

	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}

	return &Variables{
		Title:   title,
		Slug:    toSlug(title),
		Lang:    l,
		Dir:     l.Dir(),
		Version: cfg.Version,
		Year:    strconv.Itoa(now.Year()),
	}
}

func (v *Variables) ToMap() map[string]any {
	return map[string]any{
		"Title":   v.Title,
		"Slug":    v.Slug,
		"Lang":    string(v.Lang),
		"Dir":     v.Dir,
		"Version": v.Version,
		"Year":    v.Year,
	}
}

func deriveTitle(dir string) string {
	if dir == "" || dir == "." {
		return DefaultTitle
	}

	name := filepath.Base(dir)
	if name == "." || name == string(filepath.Separator) {
		return DefaultTitle
	}

	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")

	return toTitleCase(name)
}

func toSlug(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", " ")
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = dashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func toTitleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			runes := []rune(word)
			runes[0] = unicode.ToUpper(runes[0])
			words[i] = string(runes)
		}
	}
	return strings.Join(words, " ")
}
