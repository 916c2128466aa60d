package normalize

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PrepareBody adds loading="lazy" and decoding="async" to every <img> in
// the post body that does not set them. All other markup is copied byte
// for byte. If the tokenizer fails the input is returned unchanged.
func PrepareBody(markup string) string {
	if !strings.Contains(markup, "<img") && !strings.Contains(markup, "<IMG") {
		return markup
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	b.Grow(len(markup) + 64)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return b.String()
			}
			return markup
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := string(z.Raw())
			tok := z.Token()
			if tok.DataAtom != atom.Img {
				b.WriteString(raw)
				continue
			}
			changed := false
			if !hasAttr(tok, "loading") {
				tok.Attr = append(tok.Attr, html.Attribute{Key: "loading", Val: "lazy"})
				changed = true
			}
			if !hasAttr(tok, "decoding") {
				tok.Attr = append(tok.Attr, html.Attribute{Key: "decoding", Val: "async"})
				changed = true
			}
			if changed {
				b.WriteString(tok.String())
			} else {
				b.WriteString(raw)
			}
		default:
			b.Write(z.Raw())
		}
	}
}

func hasAttr(tok html.Token, key string) bool {
	for _, a := range tok.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
