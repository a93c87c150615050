package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/olimci/bijou/pkg/config"
	"github.com/olimci/bijou/pkg/prefs"
	"github.com/urfave/cli/v3"
)

// loadConfig reads the --config file (defaults when it is missing), applies
// BIJOU_* overrides, and resolves the site root against the config's
// directory.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	configPath := strings.TrimSpace(cmd.String("config"))
	if configPath == "" {
		configPath = config.DefaultPath
	}

	absConfigPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}

	cfg, found, err := config.LoadOrDefault(absConfigPath)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Debug("no config file, using defaults", "path", absConfigPath)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	cfg.Resolve(filepath.Dir(absConfigPath), cmd.String("root"))
	return cfg, nil
}

// overrideDist points the render output at dir, given relative to the
// working directory.
func overrideDist(cfg *config.Config, dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(cfg.Site.Root, abs)
	if err != nil {
		return fmt.Errorf("dist %s: %w", dir, err)
	}
	cfg.Render.Output = rel
	return nil
}

// langStore is the CLI's language preference file, --prefs or the user
// config default.
func langStore(cmd *cli.Command) (*prefs.FileStore, error) {
	path := strings.TrimSpace(cmd.String("prefs"))
	if path == "" {
		var err error
		if path, err = prefs.DefaultPath(); err != nil {
			return nil, fmt.Errorf("locating preferences: %w", err)
		}
	}
	return prefs.NewFileStore(path), nil
}
