package wordpress

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pressfront/trace"
)

const samplePosts = `[
  {
    "id": 7,
    "date": "2024-03-05T10:00:00",
    "slug": "hello-world",
    "title": {"rendered": "Hello &amp; welcome"},
    "content": {"rendered": "<p>Body</p>"},
    "excerpt": {"rendered": "<p>Short</p>"},
    "author": 2,
    "featured_media": 11,
    "_embedded": {
      "author": [{"id": 2, "name": "Dana", "slug": "dana"}],
      "wp:featuredmedia": [{
        "id": 11,
        "source_url": "http://localhost:8080/wp-content/uploads/cover.jpg",
        "alt_text": "Cover",
        "media_details": {"width": 1200, "height": 630}
      }]
    }
  }
]`

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/wp-json/wp/v2/"})
	require.NoError(t, err)
	return c, srv
}

func TestListPostsQueryAndDecode(t *testing.T) {
	var got url.Values
	var gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePosts))
	})

	posts, err := c.ListPosts(context.Background(), 20, 2)
	require.NoError(t, err)

	assert.Equal(t, "/wp-json/wp/v2/posts", gotPath)
	assert.Equal(t, "20", got.Get("per_page"))
	assert.Equal(t, "2", got.Get("page"))
	assert.True(t, got.Has("_embed"))

	require.Len(t, posts, 1)
	p := posts[0]
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, "hello-world", p.Slug)
	assert.Equal(t, "Hello &amp; welcome", p.Title.Rendered)

	media, ok := p.FeaturedMediaRecord()
	require.True(t, ok)
	assert.Equal(t, "Cover", media.AltText)
	assert.Equal(t, 1200, media.MediaDetails.Width)

	author, ok := p.AuthorRecord()
	require.True(t, ok)
	assert.Equal(t, "Dana", author.Name)
}

func TestListPostsClampsPaging(t *testing.T) {
	var got url.Values
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.ListPosts(context.Background(), 500, 0)
	require.NoError(t, err)
	assert.Equal(t, "100", got.Get("per_page"))
	assert.Equal(t, "1", got.Get("page"))
}

func TestListRecentPostsOrdering(t *testing.T) {
	var got url.Values
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(samplePosts))
	})

	posts, err := c.ListRecentPosts(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "3", got.Get("per_page"))
	assert.Equal(t, "date", got.Get("orderby"))
	assert.Equal(t, "desc", got.Get("order"))
}

func TestGetPostBySlugFound(t *testing.T) {
	var got url.Values
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(samplePosts))
	})

	post, ok, err := c.GetPostBySlug(context.Background(), "hello-world")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, "hello-world", got.Get("slug"))
	assert.True(t, got.Has("_embed"))
}

func TestGetPostBySlugNoMatchIsNotAnError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	post, ok, err := c.GetPostBySlug(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Post{}, post)
}

func TestGetPostBySlugTransportFailure(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, ok, err := c.GetPostBySlug(context.Background(), "any")
	require.Error(t, err)
	assert.False(t, ok)

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "GetPostBySlug", ue.Op)
	assert.Equal(t, 0, ue.Status)
	assert.True(t, IsUpstream(err))
}

func TestNonSuccessStatusIsUpstreamError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"rest_post_invalid_page_number"}`, http.StatusBadRequest)
	})

	_, err := c.ListPosts(context.Background(), 10, 99)
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusBadRequest, ue.Status)
	assert.Contains(t, ue.Error(), "rest_post_invalid_page_number")
}

func TestWrongShapeIsUpstreamError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"posts": []}`))
	})

	_, err := c.ListRecentPosts(context.Background(), 3)
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusOK, ue.Status)
}

func TestListAllSlugs(t *testing.T) {
	var got url.Values
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`[{"slug":"a"},{"slug":""},{"slug":"b"}]`))
	})

	slugs, err := c.ListAllSlugs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, slugs)
	assert.Equal(t, "100", got.Get("per_page"))
	assert.Equal(t, "slug", got.Get("_fields"))
	assert.False(t, got.Has("_embed"))
}

func TestListAllSlugsFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	slugs, err := c.ListAllSlugs(context.Background())
	assert.Nil(t, slugs)
	assert.True(t, IsUpstream(err))
}

func TestRequestIDIsForwarded(t *testing.T) {
	var gotID string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(trace.HeaderRequestID)
		_, _ = w.Write([]byte(`[]`))
	})

	ctx := trace.WithRequestID(context.Background(), "req-123")
	_, err := c.ListPosts(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "req-123", gotID)
}

func TestPing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "id", r.URL.Query().Get("_fields"))
		_, _ = w.Write([]byte(`[{"id":1}]`))
	})
	assert.NoError(t, c.Ping(context.Background()))
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "cms.example.com/wp-json", "ftp://cms.example.com", "http://"} {
		_, err := New(Config{BaseURL: raw})
		assert.ErrorIs(t, err, ErrInvalidBaseURL, "base %q", raw)
	}
}

func TestParseBaseURLTrimsSlash(t *testing.T) {
	u, err := ParseBaseURL("https://cms.example.com/wp-json/wp/v2/")
	require.NoError(t, err)
	assert.Equal(t, "https://cms.example.com/wp-json/wp/v2", u.String())
}
