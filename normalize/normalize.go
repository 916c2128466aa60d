// Package normalize turns raw WordPress posts into display-ready values.
// Every function is pure and total: malformed input degrades to a best
// effort result, never an error.
package normalize

import (
	"regexp"
	"strings"

	"github.com/eringen/pressfront/wordpress"
)

const (
	// PlaceholderImage is served when a post has no readable featured media.
	PlaceholderImage = "/placeholder-image.svg"
	// UnknownAuthor is shown when a post has no embedded author name.
	UnknownAuthor = "Unknown Author"
	// DescriptionLength is the rune budget for meta descriptions.
	DescriptionLength = 160
)

var reTag = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes tags, decodes character references and trims
// surrounding whitespace.
func StripHTML(markup string) string {
	text := reTag.ReplaceAllString(markup, "")
	return strings.TrimSpace(DecodeEntities(text))
}

// FeaturedImageURL returns the source URL of the post's featured media,
// or PlaceholderImage.
func FeaturedImageURL(post wordpress.Post) string {
	media, ok := post.FeaturedMediaRecord()
	if !ok {
		return PlaceholderImage
	}
	return media.SourceURL
}

// FeaturedImageAlt returns the media alt text, falling back to the plain
// post title.
func FeaturedImageAlt(post wordpress.Post) string {
	if media, ok := post.FeaturedMediaRecord(); ok && strings.TrimSpace(media.AltText) != "" {
		return media.AltText
	}
	return StripHTML(post.Title.Rendered)
}

// AuthorName returns the embedded author's display name, or UnknownAuthor.
func AuthorName(post wordpress.Post) string {
	if author, ok := post.AuthorRecord(); ok && strings.TrimSpace(author.Name) != "" {
		return author.Name
	}
	return UnknownAuthor
}

// IsPlaceholder reports whether url is the placeholder sentinel.
func IsPlaceholder(url string) bool {
	return url == PlaceholderImage
}

// Title returns the post title as plain text.
func Title(post wordpress.Post) string {
	return StripHTML(post.Title.Rendered)
}

// Excerpt returns the post excerpt as plain text.
func Excerpt(post wordpress.Post) string {
	return StripHTML(post.Excerpt.Rendered)
}

// Description returns the plain excerpt cut to at most n runes.
func Description(post wordpress.Post, n int) string {
	return Truncate(Excerpt(post), n)
}

// Truncate cuts s to at most n runes. n <= 0 returns "".
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
