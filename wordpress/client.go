// Package wordpress is a read-only client for the WordPress REST API
// (`/wp-json/wp/v2`). It only knows how to fetch posts; presentation
// concerns live in the normalize package.
package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxSlugPageSize caps ListAllSlugs. WordPress rejects per_page > 100.
	MaxSlugPageSize = 100

	maxPageSize     = 100
	maxBodySize     = 4 << 20
	maxErrorSnippet = 2048
	defaultTimeout  = 10 * time.Second
)

// Config configures a Client.
type Config struct {
	// BaseURL is the REST namespace root, e.g.
	// "https://cms.example.com/wp-json/wp/v2".
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the default client. Its transport is wrapped
	// with request logging.
	HTTPClient *http.Client
}

// Client fetches posts from a WordPress site.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	base, err := ParseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	inner := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		inner = cfg.HTTPClient.Transport
	}
	hc := &http.Client{
		Timeout:   timeout,
		Transport: &loggingRoundTripper{inner: inner, userAgent: cfg.UserAgent},
	}
	return &Client{httpClient: hc, baseURL: base}, nil
}

// ParseBaseURL checks that raw is an absolute http(s) URL and strips any
// trailing slash from its path.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidBaseURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidBaseURL, raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListPosts returns one page of posts with embedded media and author.
func (c *Client) ListPosts(ctx context.Context, pageSize, page int) ([]Post, error) {
	q := url.Values{}
	q.Set("_embed", "1")
	q.Set("per_page", strconv.Itoa(clampPageSize(pageSize)))
	q.Set("page", strconv.Itoa(max(page, 1)))

	var posts []Post
	if err := c.getJSON(ctx, "ListPosts", q, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListRecentPosts returns the count most recently published posts, newest first.
func (c *Client) ListRecentPosts(ctx context.Context, count int) ([]Post, error) {
	q := url.Values{}
	q.Set("_embed", "1")
	q.Set("per_page", strconv.Itoa(clampPageSize(count)))
	q.Set("orderby", "date")
	q.Set("order", "desc")

	var posts []Post
	if err := c.getJSON(ctx, "ListRecentPosts", q, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPostBySlug returns the post with the given slug. ok is false, with a
// nil error, when no post matches.
func (c *Client) GetPostBySlug(ctx context.Context, slug string) (post Post, ok bool, err error) {
	q := url.Values{}
	q.Set("slug", slug)
	q.Set("_embed", "1")

	var posts []Post
	if err := c.getJSON(ctx, "GetPostBySlug", q, &posts); err != nil {
		return Post{}, false, err
	}
	if len(posts) == 0 {
		return Post{}, false, nil
	}
	return posts[0], true, nil
}

// ListAllSlugs returns the slugs of up to MaxSlugPageSize posts. It drives
// optional pre-generation, so callers should treat an error as "no slugs".
func (c *Client) ListAllSlugs(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(MaxSlugPageSize))
	q.Set("_fields", "slug")

	var rows []struct {
		Slug string `json:"slug"`
	}
	if err := c.getJSON(ctx, "ListAllSlugs", q, &rows); err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Slug != "" {
			slugs = append(slugs, r.Slug)
		}
	}
	return slugs, nil
}

// Ping issues the cheapest possible posts query to check reachability.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("per_page", "1")
	q.Set("_fields", "id")

	var rows []json.RawMessage
	return c.getJSON(ctx, "Ping", q, &rows)
}

func (c *Client) postsURL(q url.Values) string {
	u := *c.baseURL
	u.Path = path.Join(u.Path, "posts")
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) getJSON(ctx context.Context, op string, q url.Values, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.postsURL(q), nil)
	if err != nil {
		return &UpstreamError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSnippet))
		return &UpstreamError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(b))),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return &UpstreamError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func clampPageSize(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}
