package build

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/olimci/bijou/pkg/aggregate"
	"github.com/olimci/bijou/pkg/config"
	"github.com/olimci/bijou/pkg/content"
	"github.com/olimci/bijou/pkg/lang"
	"github.com/olimci/bijou/pkg/minify"
	"github.com/olimci/bijou/pkg/populate"
	"github.com/olimci/bijou/pkg/prefs"
	"github.com/olimci/bijou/pkg/utils/fileutils"
)

var ErrNoTemplate = errors.New("page template not found")

const (
	stepAggregate = "aggregate"
	stepTemplate  = "template"
	stepStatic    = "static"
	stepLoad      = "load"
	stepRender    = "render:"
)

func StepAggregate() Step {
	return StepFunc(stepAggregate, func(sc *StepContext) error {
		results, err := aggregate.New(sc.Config, sc).Aggregate(sc.Ctx)
		if err != nil {
			return err
		}
		Set(sc.State, AggregateK, results)
		return nil
	})
}

func StepTemplate() Step {
	return StepFunc(stepTemplate, func(sc *StepContext) error {
		page := sc.Config.PagePath()

		doc, err := populate.ParseFile(page)
		if errors.Is(err, fs.ErrNotExist) {
			return sc.Error(page, "cannot render", ErrNoTemplate)
		}
		if err != nil {
			return sc.Error(page, "failed to parse page", err)
		}

		Set(sc.State, TemplateK, doc)
		return nil
	})
}

// StepStatic copies the configured static directories into the output
// directory, minifying by file type. It waits for aggregation so that
// freshly written collections are copied.
func StepStatic() Step {
	return StepFunc(stepStatic, func(sc *StepContext) error {
		root := sc.Config.Site.Root
		fsys := os.DirFS(root)
		dist := sc.Config.DistDir()
		m := minify.New(sc.Config.Render.Minify)

		for _, dir := range sc.Config.Render.Static {
			files, err := doublestar.Glob(fsys, path.Join(dir, "**"), doublestar.WithFilesOnly())
			if err != nil {
				return sc.Error(dir, "bad static directory", err)
			}
			if len(files) == 0 {
				sc.Debug(dir, "no static files")
				continue
			}

			for _, rel := range files {
				full := filepath.Join(root, filepath.FromSlash(rel))
				if within(full, dist) {
					continue
				}

				data, err := os.ReadFile(full)
				if err != nil {
					return sc.Error(rel, "failed to read", err)
				}
				if out, err := m.Bytes(rel, data); err != nil {
					sc.Warn(rel, "minification failed, copying as-is", err)
				} else {
					data = out
				}

				target := filepath.Join(dist, filepath.FromSlash(rel))
				if _, err := fileutils.WriteIfChanged(target, data); err != nil {
					return sc.Error(target, "failed to write", err)
				}
				Append(sc.State, OutputsK, target)
			}
			sc.Debugf(dir, "copied %d files", len(files))
		}
		return nil
	}, stepAggregate)
}

func StepLoad() Step {
	return StepFunc(stepLoad, func(sc *StepContext) error {
		src := sc.Options.source
		if src == nil {
			src = content.NewSource(sc.Config)
		}

		bundle := content.Load(sc.Ctx, src, content.PathsFromConfig(sc.Config), sc)
		Set(sc.State, BundleK, bundle)
		return nil
	}, stepAggregate)
}

// StepRender returns one render step per configured language. The default
// language is also written as the site index.
func StepRender(cfg *config.Config) []Step {
	langs := cfg.Languages()
	steps := make([]Step, 0, len(langs))

	for i, l := range langs {
		targets := []string{filepath.Join(cfg.DistDir(), string(l), "index.html")}
		if i == 0 {
			targets = append(targets, filepath.Join(cfg.DistDir(), "index.html"))
		}
		steps = append(steps, stepRenderLang(l, targets))
	}
	return steps
}

func stepRenderLang(l lang.Lang, targets []string) Step {
	return StepFunc(stepRender+string(l), func(sc *StepContext) error {
		tmpl, ok := Get(sc.State, TemplateK)
		if !ok {
			return sc.Error(sc.StepID, "no page template", ErrNoTemplate)
		}
		bundle, _ := Get(sc.State, BundleK)

		data, err := RenderPage(tmpl, bundle, sc.Config, l, content.FilterAll,
			populate.WithEvents(sc),
			populate.WithClock(sc.Options.now),
		)
		if err != nil {
			return sc.Error(sc.StepID, "failed to render", err)
		}

		for _, target := range targets {
			if _, err := fileutils.WriteIfChanged(target, data); err != nil {
				return sc.Error(target, "failed to write", err)
			}
			Append(sc.State, OutputsK, target)
			sc.Infof(sc.StepID, "rendered %s", target)
		}
		return nil
	}, stepLoad, stepTemplate)
}

// RenderPage renders a copy of tmpl in language l with the gallery filtered,
// minified when the config asks for it. The template is left untouched.
func RenderPage(tmpl *populate.Document, bundle content.Bundle, cfg *config.Config, l lang.Lang, filter string, opts ...populate.Option) ([]byte, error) {
	doc := tmpl.Clone()

	base := populate.ConfigOptions(cfg, prefs.NewMemoryStore(), nil)
	base = append(base, populate.WithLanguage(l), populate.WithFilter(filter))
	c := populate.NewController(bundle, append(base, opts...)...)

	return RenderWith(c, doc, cfg)
}

// RenderWith renders doc with c and serializes it.
func RenderWith(c *populate.Controller, doc *populate.Document, cfg *config.Config) ([]byte, error) {
	if err := c.Render(doc); err != nil {
		return nil, err
	}
	return Serialize(doc, cfg)
}

// Serialize writes doc out, minified when the config asks for it.
func Serialize(doc *populate.Document, cfg *config.Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, err
	}

	data, err := minify.New(cfg.Render.Minify).Bytes("index.html", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify: %w", err)
	}
	return data, nil
}

// within reports whether p is dir or below it.
func within(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
