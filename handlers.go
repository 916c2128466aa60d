package pressfront

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/pressfront/logger"
	"github.com/eringen/pressfront/trace"
	"github.com/eringen/pressfront/views"
)

const (
	feedItemCount = 20
	healthTimeout = 3 * time.Second
)

func (a *App) handleHome(c echo.Context) error {
	return Render(c, a.pages().home(c.Request().Context()))
}

func (a *App) handleArticles(c echo.Context) error {
	return Render(c, a.pages().articleList(c.Request().Context(), parsePage(c.QueryParam("page"))))
}

func (a *App) handleArticle(c echo.Context) error {
	cmp, ok := a.pages().articleDetail(c.Request().Context(), c.Param("slug"))
	if !ok {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site()))
	}
	return Render(c, cmp)
}

// home lists the most recent posts; a failed fetch shows the empty state.
func (b pageBuilder) home(ctx context.Context) templ.Component {
	a := b.app
	posts, err := a.Content.ListRecentPosts(ctx, a.Config.HomeCount)
	if err != nil {
		logFetchError(ctx, "home: list recent posts", err)
		posts = nil
	}
	return a.Views.Home(a.site(), b.articles(posts))
}

func (b pageBuilder) articleList(ctx context.Context, page int) templ.Component {
	a := b.app
	posts, err := a.Content.ListPosts(ctx, a.Config.ArticlesPerPage, page)
	if err != nil {
		logFetchError(ctx, "articles: list posts", err)
		posts = nil
	}
	p := views.Pagination{
		Page: page,
		// A full page may be followed by more; WordPress answers an
		// out-of-range page with an error, which renders the empty state.
		// Exports only write page 1, so they never link onward.
		HasNext: !b.static && len(posts) == a.Config.ArticlesPerPage,
	}
	return a.Views.Articles(a.site(), b.articles(posts), p)
}

// articleDetail reports ok=false when the slug is unknown or the lookup
// failed; both render as not found.
func (b pageBuilder) articleDetail(ctx context.Context, slug string) (templ.Component, bool) {
	a := b.app
	post, found, err := a.Content.GetPostBySlug(ctx, slug)
	if err != nil {
		logFetchError(ctx, "article: get post by slug", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return a.Views.Article(a.site(), b.article(post, true)), true
}

func logFetchError(ctx context.Context, msg string, err error) {
	logger.ErrorWithFields(msg, logger.Fields{
		"error":      err.Error(),
		"request_id": trace.RequestID(ctx),
	})
}

// parsePage reads ?page=N; anything that is not a positive integer is page 1.
func parsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	slugs, err := a.Content.ListAllSlugs(ctx)
	if err != nil {
		logFetchError(ctx, "sitemap: list slugs", err)
		slugs = nil
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return a.writeSitemap(c.Response(), slugs)
}

func (a *App) handleFeed(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.Content.ListRecentPosts(ctx, feedItemCount)
	if err != nil {
		logFetchError(ctx, "feed: list recent posts", err)
		posts = nil
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return a.writeRSS(c.Response(), posts)
}

func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, a.robotsTxt())
}

func (a *App) robotsTxt() string {
	return fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s\n", BuildURL(a.Config.URL)+"sitemap.xml")
}

func (a *App) handlePlaceholder(c echo.Context) error {
	b, err := fs.ReadFile(EmbeddedAssets, placeholderFile)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/svg+xml", b)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (a *App) handleHealth(c echo.Context) error {
	p, ok := a.source.(pinger)
	if !ok {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		logger.ErrorWithFields("server error", logger.Fields{
			"error":      err.Error(),
			"uri":        c.Request().RequestURI,
			"request_id": trace.RequestID(c.Request().Context()),
		})
		_ = RenderStatus(c, code, a.Views.ServerError(a.site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
