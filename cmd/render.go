package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/olimci/bijou/pkg/build"
	"github.com/olimci/bijou/pkg/content"
	"github.com/olimci/bijou/pkg/lang"
	"github.com/olimci/bijou/pkg/populate"
	"github.com/olimci/bijou/pkg/prefs"
	"github.com/olimci/bijou/pkg/utils/fileutils"
	"github.com/urfave/cli/v3"
)

// Render populates the page once, from the local site or a deployed one, and
// writes it to --out or stdout.
func Render(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if u := strings.TrimSpace(cmd.String("url")); u != "" {
		cfg.Site.URL = u
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	l, err := renderLanguage(cmd)
	if err != nil {
		return err
	}

	tmpl, err := populate.ParseFile(cfg.PagePath())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", build.ErrNoTemplate, cfg.PagePath(), err)
	}

	out := cmd.String("out")
	toStdout := out == "" || out == "-"

	// the page itself may go to stdout, so events always use stderr
	printer := newLogPrinter(outputRich, os.Stderr, eventLevel(log.GetLevel()))

	bundle := content.Load(ctx, content.NewSource(cfg), content.PathsFromConfig(cfg), printer)

	data, err := build.RenderPage(tmpl, bundle, cfg, l, cmd.String("filter"), populate.WithEvents(printer))
	if err != nil {
		return err
	}

	if toStdout {
		_, err := os.Stdout.Write(data)
		return err
	}
	err = fileutils.AtomicWrite(out, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "OK  rendered %s (%s) -> %s\n", l, l.Dir(), out)
	return nil
}

// renderLanguage is --lang when given, else the stored CLI preference.
func renderLanguage(cmd *cli.Command) (lang.Lang, error) {
	if s := strings.TrimSpace(cmd.String("lang")); s != "" {
		return lang.Parse(s)
	}

	store, err := langStore(cmd)
	if err != nil {
		return lang.Default, nil
	}
	return prefs.Resolve(store), nil
}
