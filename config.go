package pressfront

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/eringen/pressfront/wordpress"
)

// SiteConfig holds all configuration for a pressfront site.
type SiteConfig struct {
	APIURL      string // WordPress REST root, e.g. https://cms.example.com/wp-json/wp/v2
	Name        string // Site name (default "LNK Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags

	Addr string // Listen address (default ":3000")

	HomeCount       int // Articles on the home page (default 3)
	ArticlesPerPage int // Articles per list page (default 20)

	ListingTTL      time.Duration // Freshness of list and slug lookups (default 60s)
	SlugsTTL        time.Duration // Freshness of the slug enumeration (default 1h)
	UpstreamTimeout time.Duration // Per-request timeout to WordPress (default 10s)

	SnapshotDB string // SQLite path for cached responses; empty disables it

	RemotePatterns    []RemotePattern // Image proxy allow-list (default DefaultRemotePatterns)
	ImagesUnoptimized bool            // Link source images directly instead of through /_image

	LogLevel string
}

// siteEnv holds the raw environment values behind SiteConfig.
type siteEnv struct {
	APIURL            string        `env:"WORDPRESS_API_URL"`
	Name              string        `env:"SITE_NAME"           envDefault:"LNK Blog"`
	URL               string        `env:"SITE_URL"            envDefault:"http://localhost:3000"`
	Description       string        `env:"SITE_DESCRIPTION"`
	Addr              string        `env:"ADDR"                envDefault:":3000"`
	HomeCount         int           `env:"HOME_COUNT"          envDefault:"3"`
	ArticlesPerPage   int           `env:"ARTICLES_PER_PAGE"   envDefault:"20"`
	ListingTTL        time.Duration `env:"LISTING_TTL"         envDefault:"60s"`
	SlugsTTL          time.Duration `env:"SLUGS_TTL"           envDefault:"1h"`
	UpstreamTimeout   time.Duration `env:"UPSTREAM_TIMEOUT"    envDefault:"10s"`
	SnapshotDB        string        `env:"SNAPSHOT_DB"`
	ImagePatternsFile string        `env:"IMAGE_PATTERNS_FILE"`
	ImagesUnoptimized bool          `env:"IMAGES_UNOPTIMIZED"`
	LogLevel          string        `env:"LOG_LEVEL"           envDefault:"info"`
}

// ConfigError reports a missing or invalid setting.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("pressfront: config: %v", e.Err)
	}
	return fmt.Sprintf("pressfront: config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var errRequired = errors.New("required")

// LoadConfig reads envFile (when present) into the process environment,
// parses the environment and validates the result.
func LoadConfig(envFile string) (SiteConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return SiteConfig{}, &ConfigError{Field: "env file", Err: err}
		}
	}

	var raw siteEnv
	if err := env.Parse(&raw); err != nil {
		return SiteConfig{}, &ConfigError{Err: fmt.Errorf("parse env: %w", err)}
	}

	cfg := SiteConfig{
		APIURL:            raw.APIURL,
		Name:              raw.Name,
		URL:               raw.URL,
		Description:       raw.Description,
		Addr:              raw.Addr,
		HomeCount:         raw.HomeCount,
		ArticlesPerPage:   raw.ArticlesPerPage,
		ListingTTL:        raw.ListingTTL,
		SlugsTTL:          raw.SlugsTTL,
		UpstreamTimeout:   raw.UpstreamTimeout,
		SnapshotDB:        raw.SnapshotDB,
		ImagesUnoptimized: raw.ImagesUnoptimized,
		LogLevel:          raw.LogLevel,
	}
	if raw.ImagePatternsFile != "" {
		patterns, err := LoadRemotePatterns(raw.ImagePatternsFile)
		if err != nil {
			return SiteConfig{}, &ConfigError{Field: "IMAGE_PATTERNS_FILE", Err: err}
		}
		cfg.RemotePatterns = patterns
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return SiteConfig{}, err
	}
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "LNK Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.HomeCount <= 0 {
		c.HomeCount = 3
	}
	if c.ArticlesPerPage <= 0 {
		c.ArticlesPerPage = 20
	}
	if c.ListingTTL <= 0 {
		c.ListingTTL = 60 * time.Second
	}
	if c.SlugsTTL <= 0 {
		c.SlugsTTL = time.Hour
	}
	if c.UpstreamTimeout <= 0 {
		c.UpstreamTimeout = 10 * time.Second
	}
	if c.RemotePatterns == nil {
		c.RemotePatterns = DefaultRemotePatterns()
	}
}

// Validate reports the first setting that would prevent the site from
// starting.
func (c SiteConfig) Validate() error {
	if c.APIURL == "" {
		return &ConfigError{Field: "WORDPRESS_API_URL", Err: errRequired}
	}
	if _, err := wordpress.ParseBaseURL(c.APIURL); err != nil {
		return &ConfigError{Field: "WORDPRESS_API_URL", Err: err}
	}
	if c.ArticlesPerPage > wordpress.MaxSlugPageSize {
		return &ConfigError{Field: "ARTICLES_PER_PAGE", Err: fmt.Errorf("must be at most %d", wordpress.MaxSlugPageSize)}
	}
	if c.HomeCount > wordpress.MaxSlugPageSize {
		return &ConfigError{Field: "HOME_COUNT", Err: fmt.Errorf("must be at most %d", wordpress.MaxSlugPageSize)}
	}
	for i, p := range c.RemotePatterns {
		if err := p.validate(); err != nil {
			return &ConfigError{Field: fmt.Sprintf("remote pattern %d", i), Err: err}
		}
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithSource replaces the WordPress client behind the content cache.
// Tests use it to run the site against an in-memory source.
func WithSource(src Source) Option {
	return func(a *App) {
		a.source = src
	}
}

// WithHTTPClient sets the client used by the image proxy.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.imageClient = hc
	}
}
