package pressfront

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pressfront/trace"
	"github.com/eringen/pressfront/views"
	"github.com/eringen/pressfront/wordpress"
)

func serve(t *testing.T, a *App, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func samplePosts() []wordpress.Post {
	return []wordpress.Post{
		testPostWithEmbeds(1, "first", "First &amp; Foremost", "http://localhost:8080/wp-content/uploads/2024/03/first.jpg"),
		testPost(2, "second", "Second"),
		testPost(3, "third", "Third"),
		testPost(4, "fourth", "Fourth"),
	}
}

func TestHomeListsRecentPosts(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{posts: samplePosts()})

	rec := serve(t, a, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=UTF-8", rec.Header().Get("Content-Type"))

	doc := document(t, rec)
	titles := doc.Find(".card-title a").Map(func(_ int, s *goquery.Selection) string { return s.Text() })
	assert.Equal(t, []string{"First & Foremost", "Second", "Third"}, titles)
	assert.Equal(t, "LNK Blog", doc.Find("title").Text())

	src, _ := doc.Find(".article-card img").First().Attr("src")
	assert.Equal(t, "/_image?url=http%3A%2F%2Flocalhost%3A8080%2Fwp-content%2Fuploads%2F2024%2F03%2Ffirst.jpg&w=640", src)
	placeholder, _ := doc.Find(".article-card img").Eq(1).Attr("src")
	assert.Equal(t, "/placeholder-image.svg", placeholder)
	assert.Equal(t, "Excerpt of Second …", doc.Find(".article-excerpt").Eq(1).Text())
}

func TestHomeShowsEmptyStateOnUpstreamFailure(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{err: errUpstreamDown})

	rec := serve(t, a, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)
	assert.Equal(t, 0, doc.Find(".article-card").Length())
	assert.Equal(t, "No Articles Available", doc.Find(".empty-state h2").Text())
}

func TestArticlesPaginates(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{posts: samplePosts()})

	doc := document(t, serve(t, a, "/articles/"))
	assert.Equal(t, 2, doc.Find(".article-card").Length())
	next, _ := doc.Find(`a[rel="next"]`).Attr("href")
	assert.Equal(t, "/articles/?page=2", next)
	assert.Equal(t, 0, doc.Find(`a[rel="prev"]`).Length())

	doc = document(t, serve(t, a, "/articles/?page=2"))
	assert.Equal(t, "Third", doc.Find(".card-title a").First().Text())
	prev, _ := doc.Find(`a[rel="prev"]`).Attr("href")
	assert.Equal(t, "/articles/?page=1", prev)
}

func TestArticlesInvalidPageFallsBackToFirst(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{posts: samplePosts()})

	for _, q := range []string{"?page=0", "?page=-3", "?page=abc"} {
		doc := document(t, serve(t, a, "/articles/"+q))
		assert.Equal(t, "First & Foremost", doc.Find(".card-title a").First().Text(), q)
	}
}

func TestArticlesEmptyStateOnUpstreamFailure(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{err: errUpstreamDown})

	rec := serve(t, a, "/articles/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No Articles Found", document(t, rec).Find(".empty-state h2").Text())
}

func TestArticleRendersPost(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{posts: samplePosts()})

	rec := serve(t, a, "/articles/first/")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)

	assert.Equal(t, "First & Foremost | LNK Blog", doc.Find("title").Text())
	assert.Equal(t, "First & Foremost", doc.Find(".article-header h1").Text())
	assert.Equal(t, "March 5, 2024", doc.Find(".article-header time").Text())
	assert.Equal(t, "By Dana", doc.Find(".article-header .byline").Text())

	desc, _ := doc.Find(`meta[name="description"]`).Attr("content")
	assert.Equal(t, "Excerpt of First & Foremost …", desc)
	ogImage, _ := doc.Find(`meta[property="og:image"]`).Attr("content")
	assert.Equal(t, "http://localhost:8080/wp-content/uploads/2024/03/first.jpg", ogImage)
	alt, _ := doc.Find(".hero-image img").Attr("alt")
	assert.Equal(t, "Cover image", alt)

	img := doc.Find(".article-content img")
	loading, _ := img.Attr("loading")
	assert.Equal(t, "lazy", loading)
	assert.Equal(t, "Body of First & Foremost", strings.TrimSpace(doc.Find(".article-content p").Text()))
}

func TestArticleWithoutImageOmitsSocialImage(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{posts: samplePosts()})

	doc := document(t, serve(t, a, "/articles/second/"))
	assert.Equal(t, 0, doc.Find(`meta[property="og:image"]`).Length())
	assert.Equal(t, 0, doc.Find(".hero-image").Length())
	assert.Equal(t, "By Unknown Author", doc.Find(".article-header .byline").Text())
}

func TestArticleUnknownSlugIsNotFound(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{posts: samplePosts()})

	rec := serve(t, a, "/articles/nope/")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Article Not Found", document(t, rec).Find("main h1").Text())
}

func TestArticleUpstreamFailureIsNotFound(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{err: errUpstreamDown})

	rec := serve(t, a, "/articles/first/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRouteRendersNotFoundView(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{})

	rec := serve(t, a, "/no/such/page/")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Article Not Found", document(t, rec).Find("main h1").Text())
}

func TestTrailingSlashRedirect(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{posts: samplePosts()})

	rec := serve(t, a, "/articles/first")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/articles/first/", rec.Header().Get("Location"))

	rec = serve(t, a, "/sitemap.xml")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSitemapListsArticles(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{posts: samplePosts()})

	rec := serve(t, a, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<loc>https://blog.example.com/</loc>")
	assert.Contains(t, body, "<loc>https://blog.example.com/articles/</loc>")
	assert.Contains(t, body, "<loc>https://blog.example.com/articles/fourth/</loc>")
}

func TestSitemapSurvivesSlugFailure(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{err: errUpstreamDown})

	rec := serve(t, a, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, strings.Count(rec.Body.String(), "<loc>"))
}

func TestFeedParses(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{posts: samplePosts()})

	rec := serve(t, a, "/feed.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/rss+xml; charset=utf-8", rec.Header().Get("Content-Type"))

	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "LNK Blog", feed.Title)
	assert.Equal(t, "rss", feed.FeedType)
	require.Len(t, feed.Items, 4)
	assert.Equal(t, "First & Foremost", feed.Items[0].Title)
	assert.Equal(t, "https://blog.example.com/articles/first/", feed.Items[0].Link)
	require.NotNil(t, feed.Items[0].PublishedParsed)
	assert.Equal(t, 2024, feed.Items[0].PublishedParsed.Year())
}

func TestRobots(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{})

	rec := serve(t, a, "/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sitemap: https://blog.example.com/sitemap.xml")
}

func TestRobotsAndFeedsWithBareHostURL(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://localhost:3000"
	a := newTestApp(t, cfg, &fakeSource{posts: samplePosts()})

	rec := serve(t, a, "/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sitemap: http://localhost:3000/sitemap.xml")

	rec = serve(t, a, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<loc>http://localhost:3000/</loc>")

	rec = serve(t, a, "/feed.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/", feed.Link)

	doc := document(t, serve(t, a, "/"))
	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	assert.Equal(t, "http://localhost:3000/", canonical)
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"http://localhost:3000", nil, "http://localhost:3000/"},
		{"https://blog.example.com/", nil, "https://blog.example.com/"},
		{"https://blog.example.com", []string{"articles"}, "https://blog.example.com/articles/"},
		{"https://example.com/blog", []string{"articles", "first"}, "https://example.com/blog/articles/first/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segments...); got != tt.want {
			t.Errorf("BuildURL(%q, %q) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
}

func TestPlaceholderAndPublicAssets(t *testing.T) {
	a := newTestApp(t, testConfig(), &fakeSource{})

	rec := serve(t, a, "/placeholder-image.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))

	rec = serve(t, a, "/public/site.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".article-card")
}

type pingSource struct {
	fakeSource
	pingErr error
}

func (p *pingSource) Ping(context.Context) error { return p.pingErr }

func TestHealth(t *testing.T) {
	a := newTestApp(t, testConfig(), &pingSource{})
	rec := serve(t, a, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	a = newTestApp(t, testConfig(), &pingSource{pingErr: errUpstreamDown})
	rec = serve(t, a, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body["status"])
}

func TestRequestIDIsEchoedAndForwarded(t *testing.T) {
	var seen string
	src := &fakeSource{posts: samplePosts()}
	a := newTestApp(t, testConfig(), src, WithCustomRoutes(func(a *App) {
		a.Echo.GET("/whoami/", func(c echo.Context) error {
			seen = trace.RequestID(c.Request().Context())
			return c.NoContent(http.StatusNoContent)
		})
	}))

	req := httptest.NewRequest(http.MethodGet, "/whoami/", nil)
	req.Header.Set(trace.HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(trace.HeaderRequestID))
	assert.Equal(t, "req-123", seen)
}

func TestCustomViews(t *testing.T) {
	cfg := testConfig()
	a, err := New(cfg, ViewFuncs{
		NotFound: func(site views.Site) templ.Component {
			return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
				_, err := io.WriteString(w, "custom 404 for "+site.Name)
				return err
			})
		},
	}, WithSource(&fakeSource{}))
	require.NoError(t, err)
	defer a.Close()

	rec := serve(t, a, "/articles/missing/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "custom 404 for LNK Blog", rec.Body.String())
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"1", 1},
		{"7", 7},
		{"0", 1},
		{"-2", 1},
		{"two", 1},
	}
	for _, tt := range tests {
		if got := parsePage(tt.raw); got != tt.want {
			t.Errorf("parsePage(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
