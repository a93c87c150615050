package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/olimci/bijou/pkg/config"
	"github.com/olimci/bijou/pkg/version"
	"github.com/urfave/cli/v3"
)

var Version = version.String()

func Execute(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:  "bijou",
		Usage: "Build and preview a bilingual jewelry site",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: config.DefaultPath, Usage: "config file path"},
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Value: "", Usage: "site root (overrides config)"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error"},
			&cli.StringSliceFlag{Name: "env-file", Value: []string{".env"}, Usage: "KEY=value files loaded before the config"},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "version",
				Usage:  "print version",
				Action: runVersion,
			},
			{
				Name:      "init",
				Usage:     "Scaffold a new site",
				ArgsUsage: "[directory]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Value: "", Usage: "Site title"},
					&cli.StringFlag{Name: "lang", Aliases: []string{"l"}, Value: "fr", Usage: "Default language (fr or ar)"},
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Value: false, Usage: "Overwrite existing files"},
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Value: false, Usage: "Skip the interactive form"},
					&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Value: false, Usage: "Suppress output"},
				},
				Action: Init,
			},
			{
				Name:  "aggregate",
				Usage: "Aggregate content collections into JSON",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "minify", Aliases: []string{"m"}, Value: false, Usage: "write compact JSON"},
				},
				Action: Aggregate,
			},
			{
				Name:  "render",
				Usage: "Render the populated page once",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "lang", Aliases: []string{"l"}, Value: "", Usage: "display language (defaults to the stored preference)"},
					&cli.StringFlag{Name: "filter", Value: "all", Usage: "gallery category"},
					&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Value: "", Usage: "fetch content from a deployed site"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "-", Usage: "output file, - for stdout"},
					&cli.StringFlag{Name: "prefs", Value: "", Usage: "language preference file"},
				},
				Action: Render,
			},
			{
				Name:  "build",
				Usage: "Aggregate and render the site into a dist directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dist", Aliases: []string{"d"}, Value: "", Usage: "output directory (overrides config)"},
					&cli.BoolFlag{Name: "strict", Aliases: []string{"s"}, Value: false, Usage: "fail on warnings (strict mode)"},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Value: 0, Usage: "parallel steps (0 for one per CPU)"},
				},
				Action: Build,
			},
			{
				Name:  "dev",
				Usage: "Serve the site with live rendering and reload",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host", Value: "127.0.0.1", Usage: "HTTP host"},
					&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 0, Usage: "HTTP port (overrides config)"},
					&cli.DurationFlag{Name: "debounce", Value: 0, Usage: "Debounce window for rebuilds (overrides config)"},
					&cli.BoolFlag{Name: "no-ui", Value: false, Usage: "Disable interactive UI and log to stdout only"},
				},
				Action: RunDevServer,
			},
			{
				Name:      "lang",
				Usage:     "Print or change the stored language preference",
				ArgsUsage: "[fr|ar|toggle]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefs", Value: "", Usage: "language preference file"},
				},
				Action: Lang,
			},
		},
	}

	return app.Run(ctx, args)
}

func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level, err := log.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return ctx, fmt.Errorf("--log-level: %w", err)
	}
	log.SetLevel(level)
	log.SetTimeFormat(time.Kitchen)

	if err := config.LoadEnv(cmd.StringSlice("env-file")...); err != nil {
		return ctx, fmt.Errorf("loading env: %w", err)
	}
	return ctx, nil
}
