package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olimci/bijou/pkg/lang"
	"github.com/olimci/bijou/pkg/version"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "bijou.toml"

var ErrInvalidConfig = errors.New("invalid config")

// Config represents the configuration of a site.
type Config struct {
	Bijou   ConfigBijou   `toml:"bijou" yaml:"bijou" json:"bijou"`
	Site    ConfigSite    `toml:"site" yaml:"site" json:"site"`
	Content ConfigContent `toml:"content" yaml:"content" json:"content"`
	Sources ConfigSources `toml:"sources" yaml:"sources" json:"sources"`
	Render  ConfigRender  `toml:"render" yaml:"render" json:"render"`
	Dev     ConfigDev     `toml:"dev" yaml:"dev" json:"dev"`
}

type ConfigBijou struct {
	Version string `toml:"version" yaml:"version" json:"version"`
}

type ConfigSite struct {
	Title string `toml:"title" yaml:"title" json:"title"`
	// Root is the site directory; relative paths below are resolved against it.
	Root string `toml:"root" yaml:"root" json:"root"`
	// URL of a deployed site to fetch content sources from instead of Root.
	URL string `toml:"url" yaml:"url" json:"url"`
}

type ConfigContent struct {
	Dir         string             `toml:"dir" yaml:"dir" json:"dir"`
	Output      string             `toml:"output" yaml:"output" json:"output"`
	Collections []ConfigCollection `toml:"collections" yaml:"collections" json:"collections"`
	BodyKey     string             `toml:"body_key" yaml:"body_key" json:"body_key"`
	Minify      bool               `toml:"minify" yaml:"minify" json:"minify"`
}

type ConfigCollection struct {
	Name    string `toml:"name" yaml:"name" json:"name"`
	Output  string `toml:"output" yaml:"output" json:"output"`
	OrderBy string `toml:"order_by" yaml:"order_by" json:"order_by"`
}

type ConfigSources struct {
	Settings  string   `toml:"settings" yaml:"settings" json:"settings"`
	Home      string   `toml:"home" yaml:"home" json:"home"`
	Products  string   `toml:"products" yaml:"products" json:"products"`
	Gallery   string   `toml:"gallery" yaml:"gallery" json:"gallery"`
	CacheBust bool     `toml:"cache_bust" yaml:"cache_bust" json:"cache_bust"`
	Timeout   Duration `toml:"timeout" yaml:"timeout" json:"timeout"`
}

type ConfigRender struct {
	Page            string   `toml:"page" yaml:"page" json:"page"`
	Output          string   `toml:"output" yaml:"output" json:"output"`
	Languages       []string `toml:"languages" yaml:"languages" json:"languages"`
	DefaultLanguage string   `toml:"default_language" yaml:"default_language" json:"default_language"`
	Minify          bool     `toml:"minify" yaml:"minify" json:"minify"`
	// Static lists site directories copied into Output as-is.
	Static []string     `toml:"static" yaml:"static" json:"static"`
	Fields ConfigFields `toml:"fields" yaml:"fields" json:"fields"`
}

// ConfigFields names the front-matter keys read from collection items.
// Title keys are language-qualified at render time.
type ConfigFields struct {
	Products ConfigFieldSet `toml:"products" yaml:"products" json:"products"`
	Gallery  ConfigFieldSet `toml:"gallery" yaml:"gallery" json:"gallery"`
}

type ConfigFieldSet struct {
	Title    string `toml:"title" yaml:"title" json:"title"`
	Image    string `toml:"image" yaml:"image" json:"image"`
	Category string `toml:"category" yaml:"category" json:"category"`
}

type ConfigDev struct {
	Port     int      `toml:"port" yaml:"port" json:"port"`
	Debounce Duration `toml:"debounce" yaml:"debounce" json:"debounce"`
}

// Duration decodes "250ms"-style strings in any of the config formats.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig constructs a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Bijou: ConfigBijou{
			Version: version.String(),
		},
		Site: ConfigSite{
			Title: "Bijouterie",
			Root:  ".",
		},
		Content: ConfigContent{
			Dir:    "content",
			Output: "assets/data",
			Collections: []ConfigCollection{
				{Name: "products", Output: "products.json"},
				{Name: "gallery", Output: "gallery.json"},
			},
		},
		Sources: ConfigSources{
			Settings:  "/content/data/settings.yml",
			Home:      "/content/data/home.yml",
			Products:  "/assets/data/products.json",
			Gallery:   "/assets/data/gallery.json",
			CacheBust: true,
			Timeout:   Duration{10 * time.Second},
		},
		Render: ConfigRender{
			Page:            "index.html",
			Output:          "dist",
			Languages:       []string{string(lang.French), string(lang.Arabic)},
			DefaultLanguage: string(lang.Default),
			Static:          []string{"assets"},
			Fields: ConfigFields{
				Products: ConfigFieldSet{
					Title: "produit_title",
					Image: "produit_image",
				},
				Gallery: ConfigFieldSet{
					Title:    "collection_title",
					Image:    "collection_image",
					Category: "collection_category",
				},
			},
		},
		Dev: ConfigDev{
			Port:     6767,
			Debounce: Duration{250 * time.Millisecond},
		},
	}
}

// Load loads a Config from a file, on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// decoders reuse the backing array of a non-nil slice, which would leak
	// default fields into user-declared collections
	defaults, static := cfg.Content.Collections, cfg.Render.Static
	cfg.Content.Collections = nil
	cfg.Render.Languages = nil
	cfg.Render.Static = nil

	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Content.Collections) == 0 {
		cfg.Content.Collections = defaults
	}
	if cfg.Render.Static == nil {
		cfg.Render.Static = static
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when path does
// not exist. The boolean reports whether a file was read.
func LoadOrDefault(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		if err := cfg.Validate(); err != nil {
			return nil, false, err
		}
		return cfg, false, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}

// Validate normalizes the Config and rejects unusable values.
func (c *Config) Validate() error {
	if err := version.CheckCompatible(c.Bijou.Version); err != nil {
		return fmt.Errorf("%w: bijou.version: %w", ErrInvalidConfig, err)
	}

	if strings.TrimSpace(c.Site.Root) == "" {
		c.Site.Root = "."
	}

	c.Site.URL = strings.TrimRight(strings.TrimSpace(c.Site.URL), "/")
	if c.Site.URL != "" {
		if !(strings.HasPrefix(c.Site.URL, "http://") || strings.HasPrefix(c.Site.URL, "https://")) {
			return fmt.Errorf("%w: site.url must start with http:// or https:// (got %q)", ErrInvalidConfig, c.Site.URL)
		}
		if _, err := url.Parse(c.Site.URL); err != nil {
			return fmt.Errorf("%w: site.url is not a valid URL (got %q): %w", ErrInvalidConfig, c.Site.URL, err)
		}
	}

	if strings.TrimSpace(c.Content.Dir) == "" {
		c.Content.Dir = "content"
	}
	if strings.TrimSpace(c.Content.Output) == "" {
		c.Content.Output = "assets/data"
	}
	if len(c.Content.Collections) == 0 {
		return fmt.Errorf("%w: content.collections must not be empty", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Content.Collections))
	for i := range c.Content.Collections {
		col := &c.Content.Collections[i]
		col.Name = strings.Trim(strings.TrimSpace(col.Name), "/")
		if col.Name == "" {
			return fmt.Errorf("%w: content.collections[%d].name is required", ErrInvalidConfig, i)
		}
		if seen[col.Name] {
			return fmt.Errorf("%w: duplicate collection %q", ErrInvalidConfig, col.Name)
		}
		seen[col.Name] = true

		if strings.TrimSpace(col.Output) == "" {
			col.Output = col.Name + ".json"
		}
		if filepath.Base(col.Output) != col.Output {
			return fmt.Errorf("%w: collection %q output must be a file name (got %q)", ErrInvalidConfig, col.Name, col.Output)
		}
	}

	for name, p := range map[string]*string{
		"settings": &c.Sources.Settings,
		"home":     &c.Sources.Home,
		"products": &c.Sources.Products,
		"gallery":  &c.Sources.Gallery,
	} {
		*p = strings.TrimSpace(*p)
		if *p == "" {
			return fmt.Errorf("%w: sources.%s is required", ErrInvalidConfig, name)
		}
		if !strings.HasPrefix(*p, "/") {
			*p = "/" + *p
		}
	}
	if c.Sources.Timeout.Duration <= 0 {
		c.Sources.Timeout = Duration{10 * time.Second}
	}

	if strings.TrimSpace(c.Render.Page) == "" {
		c.Render.Page = "index.html"
	}
	if strings.TrimSpace(c.Render.Output) == "" {
		c.Render.Output = "dist"
	}
	if len(c.Render.Languages) == 0 {
		c.Render.Languages = []string{string(lang.French), string(lang.Arabic)}
	}
	for i, s := range c.Render.Languages {
		l, err := lang.Parse(s)
		if err != nil {
			return fmt.Errorf("%w: render.languages: %w", ErrInvalidConfig, err)
		}
		c.Render.Languages[i] = string(l)
	}
	for i, dir := range c.Render.Static {
		dir = filepath.ToSlash(filepath.Clean(strings.TrimSpace(dir)))
		if dir == "." || dir == "" || strings.HasPrefix(dir, "../") || dir == ".." || filepath.IsAbs(dir) {
			return fmt.Errorf("%w: render.static entries must be directories inside the site root (got %q)", ErrInvalidConfig, c.Render.Static[i])
		}
		c.Render.Static[i] = dir
	}

	if strings.TrimSpace(c.Render.DefaultLanguage) == "" {
		c.Render.DefaultLanguage = c.Render.Languages[0]
	}
	l, err := lang.Parse(c.Render.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("%w: render.default_language: %w", ErrInvalidConfig, err)
	}
	c.Render.DefaultLanguage = string(l)

	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return fmt.Errorf("%w: dev.port out of range (got %d)", ErrInvalidConfig, c.Dev.Port)
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = 6767
	}
	if c.Dev.Debounce.Duration <= 0 {
		c.Dev.Debounce = Duration{250 * time.Millisecond}
	}

	return nil
}

// Languages returns the configured render languages, default first.
func (c *Config) Languages() []lang.Lang {
	def := lang.ParseOr(c.Render.DefaultLanguage, lang.Default)
	out := []lang.Lang{def}
	for _, s := range c.Render.Languages {
		if l := lang.ParseOr(s, def); l != def {
			out = append(out, l)
		}
	}
	return out
}

// Resolve makes Site.Root absolute relative to baseDir, and applies a root
// override when non-empty.
func (c *Config) Resolve(baseDir, rootOverride string) {
	if rootOverride = strings.TrimSpace(rootOverride); rootOverride != "" {
		c.Site.Root = rootOverride
	}
	c.Site.Root = resolvePath(baseDir, c.Site.Root)
}

// Path joins rel onto the site root.
func (c *Config) Path(rel ...string) string {
	return filepath.Join(append([]string{c.Site.Root}, rel...)...)
}

// ContentDir is the absolute directory holding the collections.
func (c *Config) ContentDir() string {
	return c.Path(c.Content.Dir)
}

// OutputDir is the absolute directory receiving aggregated collections.
func (c *Config) OutputDir() string {
	return c.Path(c.Content.Output)
}

// PagePath is the absolute path of the page template.
func (c *Config) PagePath() string {
	return c.Path(c.Render.Page)
}

// DistDir is the absolute directory receiving rendered pages.
func (c *Config) DistDir() string {
	return c.Path(c.Render.Output)
}

// WatchedPaths lists the paths whose changes invalidate aggregated or
// rendered output.
func (c *Config) WatchedPaths() []string {
	paths := []string{c.ContentDir(), c.PagePath()}
	for _, p := range []string{c.Sources.Settings, c.Sources.Home} {
		paths = append(paths, c.Path(filepath.FromSlash(strings.TrimPrefix(p, "/"))))
	}
	return paths
}

func resolvePath(baseDir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
