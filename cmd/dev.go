package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/olimci/bijou/cmd/internal"
	"github.com/urfave/cli/v3"
)

// RunDevServer starts the development server with file watching and live
// rendering.
func RunDevServer(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt)
	defer stopSignals()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	port := cfg.Dev.Port
	if p := cmd.Int("port"); p > 0 {
		port = p
	}
	debounce := cfg.Dev.Debounce.Duration
	if d := cmd.Duration("debounce"); d > 0 {
		debounce = d
	}

	devServer, err := internal.NewDevServer(internal.DevServerConfig{
		Config:     cfg,
		Host:       cmd.String("host"),
		Port:       port,
		Debounce:   debounce,
		NoUI:       cmd.Bool("no-ui") || !isTerminal(os.Stdout),
		WatchPaths: cfg.WatchedPaths(),
	})
	if err != nil {
		return err
	}
	defer devServer.Close()

	return devServer.Run(ctx)
}
