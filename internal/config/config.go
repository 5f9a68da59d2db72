package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/solaproject/sola/internal/cache"
	"github.com/solaproject/sola/internal/cms"
	"github.com/solaproject/sola/internal/dataset"
	"github.com/solaproject/sola/internal/i18n"
	"github.com/solaproject/sola/internal/site"
	"github.com/solaproject/sola/internal/sola"
	"github.com/solaproject/sola/internal/visualization"
)

// ProjectFile is the name of a per-directory config file that overrides
// the user config.
const ProjectFile = ".sola.toml"

// Config holds sola configuration.
type Config struct {
	API      APIConfig            `toml:"api"`
	Cache    CacheConfig          `toml:"cache"`
	Site     SiteConfig           `toml:"site"`
	Timeline visualization.Config `toml:"timeline"`
	Colors   visualization.Colors `toml:"colors"`
	Log      LogConfig            `toml:"log"`
}

// APIConfig controls access to the SOLA backend.
type APIConfig struct {
	BaseURL     string        `toml:"base_url"`
	PageLimit   int           `toml:"page_limit"`
	UserAgent   string        `toml:"user_agent"`
	Timeout     time.Duration `toml:"timeout"`
	Concurrency int           `toml:"concurrency"`
	// AuthorsMode is "person-set" or "relation-type".
	AuthorsMode   string                `toml:"authors_mode"`
	RelationTypes dataset.RelationTypes `toml:"relation_types"`
}

// CacheConfig selects the query cache backend.
type CacheConfig struct {
	Backend   string        `toml:"backend"` // "memory", "file", "redis"
	Retention time.Duration `toml:"retention"`
	Dir       string        `toml:"dir"`
	RedisURL  string        `toml:"redis_url"`
	Prefix    string        `toml:"prefix"`
}

// SiteConfig controls the web site.
type SiteConfig struct {
	URL           string   `toml:"url"`
	Addr          string   `toml:"addr"`
	ContentDir    string   `toml:"content_dir"`
	Locales       []string `toml:"locales"`
	DefaultLocale string   `toml:"default_locale"`
	// TimelineTicks bounds the simulation of server-rendered timelines.
	TimelineTicks int `toml:"timeline_ticks"`
	// ImprintServiceID selects the imprint from the imprint service. Zero
	// serves the imprint page from the content directory.
	ImprintServiceID int    `toml:"imprint_service_id"`
	ImprintURL       string `toml:"imprint_url"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "text", "json"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:       sola.DefaultBaseURL,
			PageLimit:     sola.DefaultPageLimit,
			UserAgent:     sola.DefaultUserAgent,
			Concurrency:   sola.EntityTypeCount,
			AuthorsMode:   dataset.AuthorsByPersonSet.String(),
			RelationTypes: dataset.DefaultRelationTypes(),
		},
		Cache: CacheConfig{Backend: "memory"},
		Site: SiteConfig{
			URL:           "https://sola.acdh.oeaw.ac.at",
			Addr:          "localhost:8080",
			ContentDir:    "content",
			Locales:       i18n.Locales(),
			DefaultLocale: i18n.DefaultLocale,
			TimelineTicks: 300,
			ImprintURL:    cms.DefaultImprintURL,
		},
		Timeline: visualization.DefaultConfig(),
		Colors:   visualization.DefaultColors(),
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// ConfigDir returns the sola config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "sola")
}

// Path returns the user config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the user config file and then a project config found in the
// working directory or one of its parents. Missing or unreadable files
// leave the defaults in place.
func Load() *Config {
	cfg := Default()
	_ = decodeFile(Path(), cfg)
	if project := findProjectConfig(); project != "" {
		_ = decodeFile(project, cfg)
	}
	return cfg
}

// LoadFile reads one config file over the defaults. Unlike Load, a missing
// or malformed file is an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	_, err := toml.DecodeFile(path, cfg)
	return err
}

// findProjectConfig walks up from the working directory looking for
// ProjectFile.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, ProjectFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	_, err := os.Stat(Path())
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return Save(Default())
}

// Client returns the SOLA client configuration.
func (c *Config) Client() sola.Config {
	return sola.Config{
		BaseURL:       c.API.BaseURL,
		UserAgent:     c.API.UserAgent,
		Timeout:       c.API.Timeout,
		DefaultLocale: c.Site.DefaultLocale,
	}
}

// Dataset returns the dataset service configuration.
func (c *Config) Dataset() (dataset.Config, error) {
	mode, err := dataset.ParseAuthorsMode(c.API.AuthorsMode)
	if err != nil {
		return dataset.Config{}, err
	}
	return dataset.Config{
		PageLimit:     c.API.PageLimit,
		AuthorsMode:   mode,
		RelationTypes: c.API.RelationTypes,
		Concurrency:   c.API.Concurrency,
	}, nil
}

// CacheOptions returns the cache store options.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:   c.Cache.Backend,
		Retention: c.Cache.Retention,
		Dir:       c.Cache.Dir,
		RedisURL:  c.Cache.RedisURL,
		Prefix:    c.Cache.Prefix,
	}
}

// Visualization returns the timeline configuration with the colors
// applied.
func (c *Config) Visualization() visualization.Config {
	v := c.Timeline
	v.Colors = c.Colors
	return v
}

// SiteServer returns the web site configuration.
func (c *Config) SiteServer() site.Config {
	return site.Config{
		Addr:          c.Site.Addr,
		URL:           c.Site.URL,
		Locales:       c.Site.Locales,
		TimelineTicks: c.Site.TimelineTicks,
		Timeline:      c.Visualization(),
	}
}

// Imprint returns the imprint service, or nil when the imprint comes from
// the content directory.
func (c *Config) Imprint() *cms.Imprint {
	if c.Site.ImprintServiceID <= 0 {
		return nil
	}
	return &cms.Imprint{BaseURL: c.Site.ImprintURL, ServiceID: c.Site.ImprintServiceID}
}
