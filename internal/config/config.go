// Package config loads, normalizes, and validates superlinks configuration.
//
// Settings come from a TOML file (default ~/.config/superlinks/config.toml).
// A missing file yields defaults; SUPERLINKS_CATALOG overrides the catalog
// source when the file leaves it empty. Paths beginning with "~" are
// expanded.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pbaille/superlinks/internal/selection"
)

// CatalogEnv overrides an empty catalog source
const CatalogEnv = "SUPERLINKS_CATALOG"

// Catalog configures where the baseline document comes from.
type Catalog struct {
	Source         string `toml:"source"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Watch          bool   `toml:"watch"`
}

// Store configures overlay persistence.
type Store struct {
	Path string `toml:"path"`
}

// Quotas are the default unpinned item counts per lens.
type Quotas struct {
	Category    int `toml:"category"`
	Subcategory int `toml:"subcategory"`
	Subclass    int `toml:"subclass"`
	Random      int `toml:"random"`
	Favorites   int `toml:"favorites"`
}

// API configures the HTTP server.
type API struct {
	Bind           string   `toml:"bind"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values.
type Config struct {
	Catalog Catalog `toml:"catalog"`
	Store   Store   `toml:"store"`
	Quotas  Quotas  `toml:"quotas"`
	API     API     `toml:"api"`
	Logging Logging `toml:"logging"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	q := selection.DefaultQuotas()
	return Config{
		Catalog: Catalog{Source: "data.json", TimeoutSeconds: 30},
		Store:   Store{Path: "~/.superlinks/overlay.db"},
		Quotas: Quotas{
			Category:    q.Category,
			Subcategory: q.Subcategory,
			Subclass:    q.Subclass,
			Random:      q.Random,
			Favorites:   q.Favorites,
		},
		API:     API{Bind: "127.0.0.1:8080", AllowedOrigins: []string{"*"}},
		Logging: Logging{Level: "info", Format: "console"},
	}
}

// DefaultPath returns the absolute path to the default configuration file location.
func DefaultPath() (string, error) {
	return expandPath("~/.config/superlinks/config.toml")
}

// Load reads path (or the default location when empty), applies defaults,
// normalizes and validates. A missing file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Start from an empty source so an omitted key falls through to the env.
		cfg.Catalog.Source = ""
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		cfg.Catalog.Source = ""
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Catalog.Source = strings.TrimSpace(c.Catalog.Source)
	if c.Catalog.Source == "" {
		c.Catalog.Source = strings.TrimSpace(os.Getenv(CatalogEnv))
	}
	if c.Catalog.Source == "" {
		c.Catalog.Source = Default().Catalog.Source
	}
	if !isURL(c.Catalog.Source) {
		p, err := expandPath(c.Catalog.Source)
		if err != nil {
			return err
		}
		c.Catalog.Source = p
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		c.Catalog.TimeoutSeconds = Default().Catalog.TimeoutSeconds
	}

	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = Default().Store.Path
	}
	p, err := expandPath(c.Store.Path)
	if err != nil {
		return err
	}
	c.Store.Path = p

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	return nil
}

// Validate rejects settings the rest of the program cannot honor.
func (c *Config) Validate() error {
	quotas := map[string]int{
		"category":    c.Quotas.Category,
		"subcategory": c.Quotas.Subcategory,
		"subclass":    c.Quotas.Subclass,
		"random":      c.Quotas.Random,
		"favorites":   c.Quotas.Favorites,
	}
	for name, q := range quotas {
		if q < 0 {
			return fmt.Errorf("quotas.%s: must not be negative (got %d)", name, q)
		}
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if strings.TrimSpace(c.API.Bind) == "" {
		return errors.New("api.bind: must not be empty")
	}
	return nil
}

// SelectionQuotas converts the quota section for the selection engine.
func (c *Config) SelectionQuotas() selection.Quotas {
	return selection.Quotas{
		Category:    c.Quotas.Category,
		Subcategory: c.Quotas.Subcategory,
		Subclass:    c.Quotas.Subclass,
		Random:      c.Quotas.Random,
		Favorites:   c.Quotas.Favorites,
	}
}

// Sample renders the configuration as TOML.
func (c *Config) Sample() (string, error) {
	out, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
