package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/olimci/bijou/pkg/build"
	"github.com/urfave/cli/v3"
)

// Build aggregates the content and renders every configured language into
// the dist directory.
func Build(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := overrideDist(cfg, cmd.String("dist")); err != nil {
		return err
	}

	printer := stdoutPrinter()
	opts := []build.Option{build.WithEvents(printer)}
	if n := cmd.Int("workers"); n > 0 {
		opts = append(opts, build.WithMaxWorkers(n))
	}
	if cmd.Bool("strict") {
		opts = append(opts, build.WithFailOnWarn())
	}

	start := time.Now()
	report, err := build.Build(ctx, cfg, opts...)
	if report != nil && hasProblems(report.Summary()) {
		for _, line := range formatSummary(report.Summary()) {
			fmt.Println(line)
		}
	}
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Printf("OK  built %d file(s) in %s -> %s\n",
		len(report.Outputs()),
		time.Since(start).Truncate(time.Millisecond),
		cfg.DistDir())

	return nil
}
