// Package views holds the default page templates. Pages are html/template
// files embedded into the binary and exposed as templ components, so the
// site can swap any of them for a hand-written templ.Component.
package views

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	homeTmpl        = mustPage("home.html")
	articlesTmpl    = mustPage("articles.html")
	articleTmpl     = mustPage("article.html")
	notFoundTmpl    = mustPage("notfound.html")
	serverErrorTmpl = mustPage("servererror.html")
)

func mustPage(name string) *template.Template {
	return template.Must(template.New(name).ParseFS(templateFS,
		"templates/layout.html",
		"templates/partials.html",
		"templates/"+name,
	))
}

type pageData struct {
	Site     Site
	Meta     PageMeta
	JSONLD   template.JS
	Nav      string
	Articles []Article
	Article  Article
	Page     Pagination
}

// page renders the layout into a buffer first so a template error never
// leaves a half-written response.
func page(t *template.Template, data pageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// HomePage renders the landing page with the most recent articles.
func HomePage(site Site, articles []Article) templ.Component {
	return page(homeTmpl, pageData{
		Site: site,
		Meta: PageMeta{
			Title:       site.Name,
			Description: site.Description,
			URL:         buildURL(site.URL),
			OGType:      "website",
		},
		JSONLD:   WebsiteJsonLD(site),
		Nav:      "home",
		Articles: articles,
	})
}

// ArticlesPage renders one page of the article list.
func ArticlesPage(site Site, articles []Article, p Pagination) templ.Component {
	return page(articlesTmpl, pageData{
		Site: site,
		Meta: PageMeta{
			Title:       ComposeTitle("All Articles", site.Name),
			Description: "Explore our collection of insightful articles and stories",
			URL:         buildURL(site.URL, "articles"),
			OGType:      "website",
		},
		Nav:      "articles",
		Articles: articles,
		Page:     p,
	})
}

// ArticlePage renders a single article.
func ArticlePage(site Site, a Article) templ.Component {
	meta := PageMeta{
		Title:         ComposeTitle(a.Title, site.Name),
		Description:   a.Description,
		URL:           buildURL(site.URL, "articles", a.Slug),
		OGType:        "article",
		PublishedTime: a.Date,
	}
	if a.HasImage {
		meta.Image = a.ImageURL
	}
	return page(articleTmpl, pageData{
		Site:    site,
		Meta:    meta,
		JSONLD:  ArticleJsonLD(site, a),
		Nav:     "articles",
		Article: a,
	})
}

// NotFoundPage renders the 404 page.
func NotFoundPage(site Site) templ.Component {
	return page(notFoundTmpl, pageData{
		Site: site,
		Meta: PageMeta{
			Title:       ComposeTitle("Article Not Found", site.Name),
			Description: "The requested article could not be found.",
			OGType:      "website",
		},
	})
}

// ServerErrorPage renders the 5xx page.
func ServerErrorPage(site Site) templ.Component {
	return page(serverErrorTmpl, pageData{
		Site: site,
		Meta: PageMeta{
			Title:  ComposeTitle("Error", site.Name),
			OGType: "website",
		},
	})
}
