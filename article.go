package pressfront

import (
	"html/template"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/eringen/pressfront/normalize"
	"github.com/eringen/pressfront/views"
	"github.com/eringen/pressfront/wordpress"
)

const (
	cardImageWidth = 640
	heroImageWidth = 1200
)

// ArticleLink returns the site path of a post.
func ArticleLink(slug string) string {
	return "/articles/" + url.PathEscape(slug) + "/"
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// pageBuilder turns posts into rendered pages. direct links images at
// their source instead of through the /_image proxy; static marks pages
// written by Export, which has no proxy and no query strings.
type pageBuilder struct {
	app    *App
	direct bool
	static bool
}

func (a *App) pages() pageBuilder {
	return pageBuilder{app: a, direct: a.Config.ImagesUnoptimized}
}

func (a *App) staticPages() pageBuilder {
	return pageBuilder{app: a, direct: true, static: true}
}

// article projects a post into its display form. The body is only prepared
// when withBody is set; list cards never show it.
func (b pageBuilder) article(p wordpress.Post, withBody bool) views.Article {
	imageURL := normalize.FeaturedImageURL(p)
	a := views.Article{
		ID:          p.ID,
		Slug:        p.Slug,
		Link:        ArticleLink(p.Slug),
		Title:       normalize.Title(p),
		Excerpt:     normalize.Excerpt(p),
		Description: normalize.Description(p, normalize.DescriptionLength),
		Date:        p.Date,
		DateText:    normalize.FormatDate(p.Date),
		Author:      normalize.AuthorName(p),
		ImageURL:    imageURL,
		ImageAlt:    normalize.FeaturedImageAlt(p),
		HasImage:    !normalize.IsPlaceholder(imageURL),
		CardSrc:     b.imageSrc(imageURL, cardImageWidth),
		HeroSrc:     b.imageSrc(imageURL, heroImageWidth),
	}
	if withBody {
		// Post content is trusted CMS output.
		a.Body = template.HTML(normalize.PrepareBody(p.Content.Rendered))
	}
	return a
}

func (b pageBuilder) articles(posts []wordpress.Post) []views.Article {
	out := make([]views.Article, 0, len(posts))
	for _, p := range posts {
		out = append(out, b.article(p, false))
	}
	return out
}

// imageSrc routes an image through the resizing proxy when the proxy
// would accept it.
func (b pageBuilder) imageSrc(src string, width int) string {
	if b.direct || normalize.IsPlaceholder(src) {
		return src
	}
	u, err := url.Parse(src)
	if err != nil || !b.app.images.Allowed(u) {
		return src
	}
	return "/_image?url=" + url.QueryEscape(src) + "&w=" + strconv.Itoa(width)
}
