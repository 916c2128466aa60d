// Package pressfront is a blog front end for a headless WordPress site,
// built with Go, Echo, and templ. It reads posts over the WordPress REST
// API, caches them, and serves or exports the home page, the article list
// and article pages.
//
// Pages are rendered through the ViewFuncs struct, so a site can replace
// any default template with its own templ components while pressfront
// handles fetching, caching, routing and middleware.
package pressfront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/pressfront/logger"
	"github.com/eringen/pressfront/views"
	"github.com/eringen/pressfront/wordpress"
)

const (
	imageRequestsPerMinute = 120
	snapshotRetention      = 30 * 24 * time.Hour
	shutdownTimeout        = 10 * time.Second
)

// ViewFuncs holds the templ components the site renders. Nil fields fall
// back to the defaults in the views package.
type ViewFuncs struct {
	Home        func(site views.Site, articles []views.Article) templ.Component
	Articles    func(site views.Site, articles []views.Article, page views.Pagination) templ.Component
	Article     func(site views.Site, article views.Article) templ.Component
	NotFound    func(site views.Site) templ.Component
	ServerError func(site views.Site) templ.Component
}

func (v *ViewFuncs) setDefaults() {
	if v.Home == nil {
		v.Home = views.HomePage
	}
	if v.Articles == nil {
		v.Articles = views.ArticlesPage
	}
	if v.Article == nil {
		v.Article = views.ArticlePage
	}
	if v.NotFound == nil {
		v.NotFound = views.NotFoundPage
	}
	if v.ServerError == nil {
		v.ServerError = views.ServerErrorPage
	}
}

// App is the central pressfront application. It wires together the
// WordPress source, content cache, handlers, middleware, and templates.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Content *ContentCache
	Views   ViewFuncs

	source       Source
	snapshots    *SnapshotStore
	images       *allowList
	imageLimiter *RateLimiter
	imageClient  *http.Client
	customRoutes []func(*App)
}

// New validates cfg and builds an App with its routes registered. The
// returned App is ready to serve through Start or a.Echo.ServeHTTP.
func New(cfg SiteConfig, vf ViewFuncs, opts ...Option) (*App, error) {
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	vf.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  vf,
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}

	if a.source == nil {
		client, err := wordpress.New(wordpress.Config{
			BaseURL:   cfg.APIURL,
			Timeout:   cfg.UpstreamTimeout,
			UserAgent: "pressfront/" + Version,
		})
		if err != nil {
			return nil, &ConfigError{Field: "WORDPRESS_API_URL", Err: err}
		}
		a.source = client
	}

	if cfg.SnapshotDB != "" {
		snapshots, err := OpenSnapshotStore(cfg.SnapshotDB)
		if err != nil {
			return nil, fmt.Errorf("pressfront: open snapshot store: %w", err)
		}
		if n, err := snapshots.Prune(context.Background(), time.Now().Add(-snapshotRetention)); err != nil {
			logger.WarnWithFields("snapshot prune failed", logger.Fields{"error": err.Error()})
		} else if n > 0 {
			logger.InfoWithFields("pruned snapshots", logger.Fields{"count": n})
		}
		a.snapshots = snapshots
	}
	a.Content = NewContentCache(a.source, cfg.ListingTTL, cfg.SlugsTTL, a.snapshots)

	images, err := compileAllowList(cfg.RemotePatterns)
	if err != nil {
		a.Close()
		return nil, &ConfigError{Field: "remote patterns", Err: err}
	}
	a.images = images
	a.imageLimiter = NewRateLimiter(imageRequestsPerMinute, time.Minute)
	if a.imageClient == nil {
		a.imageClient = &http.Client{Timeout: cfg.UpstreamTimeout}
	}
	a.imageClient = a.guardRedirects(a.imageClient)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return a, nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/public/*", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(publicFS())))))
	e.GET("/placeholder-image.svg", a.handlePlaceholder)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/healthz", a.handleHealth)
	e.GET("/_image", a.handleImage)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/articles/", a.handleArticles)
	e.GET("/articles/:slug/", a.handleArticle)
}

// Start serves HTTP on Config.Addr until ctx is cancelled, then shuts the
// server down gracefully.
func (a *App) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoWithFields("server starting", logger.Fields{
			"addr":     a.Config.Addr,
			"upstream": a.Config.APIURL,
		})
		errCh <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Log.Info("server shutting down")
		return a.Echo.Shutdown(shutdownCtx)
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.imageLimiter != nil {
		a.imageLimiter.Stop()
	}
	if a.snapshots != nil {
		return a.snapshots.Close()
	}
	return nil
}

func (a *App) site() views.Site {
	return views.Site{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Year:        time.Now().Year(),
	}
}
