package wordpress

// Rendered is the WordPress `{ "rendered": "..." }` wrapper used for
// title, content and excerpt.
type Rendered struct {
	Rendered string `json:"rendered"`
}

// MediaDetails holds the intrinsic size of a media item.
type MediaDetails struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Media is an embedded `wp:featuredmedia` record.
type Media struct {
	ID           int          `json:"id"`
	SourceURL    string       `json:"source_url"`
	AltText      string       `json:"alt_text"`
	MediaDetails MediaDetails `json:"media_details"`
}

// Author is an embedded `author` record.
type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Embedded holds the optional `_embed` expansions of a post.
type Embedded struct {
	FeaturedMedia []Media  `json:"wp:featuredmedia,omitempty"`
	Authors       []Author `json:"author,omitempty"`
}

// Post is a post as returned by `GET /wp/v2/posts`.
type Post struct {
	ID            int       `json:"id"`
	Date          string    `json:"date"`
	Modified      string    `json:"modified,omitempty"`
	Slug          string    `json:"slug"`
	Title         Rendered  `json:"title"`
	Content       Rendered  `json:"content"`
	Excerpt       Rendered  `json:"excerpt"`
	AuthorID      int       `json:"author"`
	FeaturedMedia int       `json:"featured_media"`
	Embedded      *Embedded `json:"_embedded,omitempty"`
}

// FeaturedMediaRecord returns the first embedded featured media item.
// WordPress embeds an error object in place of the media when it is not
// readable; such entries have no source URL and report ok=false.
func (p Post) FeaturedMediaRecord() (Media, bool) {
	if p.Embedded == nil || len(p.Embedded.FeaturedMedia) == 0 {
		return Media{}, false
	}
	m := p.Embedded.FeaturedMedia[0]
	if m.SourceURL == "" {
		return Media{}, false
	}
	return m, true
}

// AuthorRecord returns the first embedded author.
func (p Post) AuthorRecord() (Author, bool) {
	if p.Embedded == nil || len(p.Embedded.Authors) == 0 {
		return Author{}, false
	}
	return p.Embedded.Authors[0], true
}
