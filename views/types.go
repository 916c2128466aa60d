package views

import "html/template"

// Site holds site-wide settings every page template reads.
type Site struct {
	Name        string
	URL         string // canonical base, no trailing slash needed
	Description string
	Year        int // footer copyright year
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title         string
	Description   string
	URL           string // canonical + og:url
	OGType        string // "website" or "article"
	Image         string // absolute image URL; empty hides og:image
	PublishedTime string
}

// Article is the display-ready projection of a WordPress post.
type Article struct {
	ID          int
	Slug        string
	Link        string // site-relative path, e.g. /articles/hello/
	Title       string
	Excerpt     string
	Description string
	Date        string // raw ISO timestamp for <time datetime>
	DateText    string
	Author      string
	ImageURL    string // media source URL or the placeholder
	ImageAlt    string
	HasImage    bool   // false when ImageURL is the placeholder
	CardSrc     string // src for list cards
	HeroSrc     string // src for the article header image
	Body        template.HTML
}

// Pagination describes the article list position.
type Pagination struct {
	Page    int
	HasNext bool
}

// HasPrev reports whether a newer page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// PrevPage is the newer page number.
func (p Pagination) PrevPage() int { return p.Page - 1 }

// NextPage is the older page number.
func (p Pagination) NextPage() int { return p.Page + 1 }
