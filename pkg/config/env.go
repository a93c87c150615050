package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvSiteURL = "BIJOU_SITE_URL"
	EnvRoot    = "BIJOU_ROOT"
)

// LoadEnv reads KEY=value files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv overrides site settings from BIJOU_* environment variables and
// re-validates.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvSiteURL); ok {
		c.Site.URL = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvRoot); ok && strings.TrimSpace(v) != "" {
		c.Site.Root = strings.TrimSpace(v)
	}
	return c.Validate()
}
