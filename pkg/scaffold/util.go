package scaffold

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/bmatcuk/doublestar/v4"
)

var funcs = template.FuncMap{
	// quote emits a double-quoted string valid in TOML and YAML.
	"quote": strconv.Quote,
}

func processTemplate(source io.Reader, destination io.Writer, vars map[string]any) error {
	content, err := io.ReadAll(source)
	if err != nil {
		return fmt.Errorf("reading: %w", err)
	}

	tmpl, err := template.New("template").Funcs(funcs).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}

	if err := tmpl.Execute(destination, vars); err != nil {
		return fmt.Errorf("executing: %w", err)
	}

	return nil
}

func matchesGlobs(relPath string, patterns []string) bool {
	relPath = filepath.ToSlash(relPath)

	for _, pattern := range patterns {
		if doublestar.MatchUnvalidated(filepath.ToSlash(pattern), relPath) {
			return true
		}
	}
	return false
}

func destinationPath(relPath string, isTemplate bool) string {
	if isTemplate {
		relPath = strings.TrimSuffix(relPath, ".tmpl")
	}
	return relPath
}
