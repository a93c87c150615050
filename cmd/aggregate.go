package cmd

import (
	"context"
	"fmt"

	"github.com/olimci/bijou/pkg/aggregate"
	"github.com/urfave/cli/v3"
)

// Aggregate writes one JSON array per content collection.
func Aggregate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("minify") {
		cfg.Content.Minify = true
	}

	results, err := aggregate.New(cfg, stdoutPrinter()).Aggregate(ctx)
	if err != nil {
		return err
	}

	for _, r := range results {
		state := "written"
		if !r.Changed {
			state = "unchanged"
		}
		fmt.Printf("OK  %s: %d item(s) -> %s (%s)\n", r.Collection, r.Items, r.Path, state)
	}
	return nil
}
