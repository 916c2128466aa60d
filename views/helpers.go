package views

import (
	"encoding/json"
	"html/template"
	"net/url"
	"path"
	"strings"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
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

// ComposeTitle appends the site name to a page title.
func ComposeTitle(title, siteName string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return siteName
	}
	if siteName == "" || strings.HasSuffix(title, " | "+siteName) {
		return title
	}
	return title + " | " + siteName
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block.
func WebsiteJsonLD(site Site) template.JS {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     site.Name,
		"url":      buildURL(site.URL),
	}
	if site.Description != "" {
		data["description"] = site.Description
	}
	return marshalJS(data)
}

// ArticleJsonLD produces a Schema.org BlogPosting JSON-LD block.
func ArticleJsonLD(site Site, a Article) template.JS {
	postURL := buildURL(site.URL, "articles", a.Slug)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      a.Title,
		"description":   a.Description,
		"datePublished": a.Date,
		"url":           postURL,
		"author": map[string]string{
			"@type": "Person",
			"name":  a.Author,
		},
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  site.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if a.HasImage {
		data["image"] = a.ImageURL
	}
	return marshalJS(data)
}

// json.Marshal escapes <, > and & so the output is safe inside <script>.
func marshalJS(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return template.JS(b)
}
