package pressfront

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eringen/pressfront/wordpress"
)

var errUpstreamDown = &wordpress.UpstreamError{Op: "test", Status: 503, Err: errors.New("service unavailable")}

// fakeSource is an in-memory Source. Setting err makes every call fail.
type fakeSource struct {
	mu    sync.Mutex
	posts []wordpress.Post
	slugs []string
	err   error

	calls atomic.Int64
	// gate, when set, blocks each call until it is closed.
	gate chan struct{}
}

func (f *fakeSource) begin() ([]wordpress.Post, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]wordpress.Post(nil), f.posts...), nil
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSource) ListPosts(_ context.Context, pageSize, page int) ([]wordpress.Post, error) {
	posts, err := f.begin()
	if err != nil {
		return nil, err
	}
	start := (page - 1) * pageSize
	if start >= len(posts) {
		return []wordpress.Post{}, nil
	}
	return posts[start:min(start+pageSize, len(posts))], nil
}

func (f *fakeSource) ListRecentPosts(_ context.Context, count int) ([]wordpress.Post, error) {
	posts, err := f.begin()
	if err != nil {
		return nil, err
	}
	return posts[:min(count, len(posts))], nil
}

func (f *fakeSource) GetPostBySlug(_ context.Context, slug string) (wordpress.Post, bool, error) {
	posts, err := f.begin()
	if err != nil {
		return wordpress.Post{}, false, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, true, nil
		}
	}
	return wordpress.Post{}, false, nil
}

func (f *fakeSource) ListAllSlugs(_ context.Context) ([]string, error) {
	posts, err := f.begin()
	if err != nil {
		return nil, err
	}
	if f.slugs != nil {
		return f.slugs, nil
	}
	slugs := make([]string, 0, len(posts))
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	return slugs, nil
}

func testPost(id int, slug, title string) wordpress.Post {
	return wordpress.Post{
		ID:      id,
		Date:    "2024-03-05T10:00:00",
		Slug:    slug,
		Title:   wordpress.Rendered{Rendered: title},
		Content: wordpress.Rendered{Rendered: `<p>Body of ` + title + `</p><img src="https://cdn.example.com/inline.jpg">`},
		Excerpt: wordpress.Rendered{Rendered: "<p>Excerpt of " + title + " &hellip;</p>"},
	}
}

func testPostWithEmbeds(id int, slug, title, image string) wordpress.Post {
	p := testPost(id, slug, title)
	p.Embedded = &wordpress.Embedded{
		FeaturedMedia: []wordpress.Media{{ID: 9, SourceURL: image, AltText: "Cover image"}},
		Authors:       []wordpress.Author{{ID: 1, Name: "Dana"}},
	}
	return p
}

func testConfig() SiteConfig {
	return SiteConfig{
		APIURL:          "http://cms.test/wp-json/wp/v2",
		Name:            "LNK Blog",
		URL:             "https://blog.example.com",
		Description:     "Stories from the team",
		HomeCount:       3,
		ArticlesPerPage: 2,
	}
}

func newTestApp(t *testing.T, cfg SiteConfig, src Source, opts ...Option) *App {
	t.Helper()
	a, err := New(cfg, ViewFuncs{}, append([]Option{WithSource(src)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}
