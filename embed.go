package pressfront

import (
	"embed"
	"io/fs"
)

// EmbeddedAssets contains static assets shipped with the site:
// site.css and placeholder-image.svg.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

const placeholderFile = "embedded/placeholder-image.svg"

func publicFS() fs.FS {
	sub, err := fs.Sub(EmbeddedAssets, "embedded")
	if err != nil {
		panic(err)
	}
	return sub
}
