package pressfront

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/pressfront/logger"
)

// ExportReport summarizes an Export run.
type ExportReport struct {
	Pages   int      // HTML pages written
	Skipped []string // slugs that were unsafe, missing or failed to load
}

// Export pre-renders the site into outDir: the home page, the first page
// of the article list, one page per known slug, a 404 page, the sitemap,
// the feed and the embedded assets. Images are linked at their source.
//
// A failed slug enumeration is logged and yields no article pages; a slug
// that cannot be loaded is skipped. Only filesystem errors are returned.
func (a *App) Export(ctx context.Context, outDir string) (ExportReport, error) {
	var report ExportReport
	b := a.staticPages()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return report, fmt.Errorf("create output dir: %w", err)
	}

	writePage := func(rel string, cmp templ.Component) error {
		if err := writeFile(ctx, outDir, rel, cmp.Render); err != nil {
			return err
		}
		report.Pages++
		return nil
	}

	if err := writePage("index.html", b.home(ctx)); err != nil {
		return report, err
	}
	if err := writePage(filepath.Join("articles", "index.html"), b.articleList(ctx, 1)); err != nil {
		return report, err
	}

	slugs, err := a.Content.ListAllSlugs(ctx)
	if err != nil {
		logger.WarnWithFields("export: slug enumeration failed, writing no article pages", logger.Fields{"error": err.Error()})
		slugs = nil
	}
	exported := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !safeSlug(slug) {
			logger.WarnWithFields("export: skipping unsafe slug", logger.Fields{"slug": slug})
			report.Skipped = append(report.Skipped, slug)
			continue
		}
		cmp, ok := b.articleDetail(ctx, slug)
		if !ok {
			logger.WarnWithFields("export: skipping article", logger.Fields{"slug": slug})
			report.Skipped = append(report.Skipped, slug)
			continue
		}
		if err := writePage(filepath.Join("articles", slug, "index.html"), cmp); err != nil {
			return report, err
		}
		exported = append(exported, slug)
	}

	if err := writePage("404.html", a.Views.NotFound(a.site())); err != nil {
		return report, err
	}

	if err := writeFile(ctx, outDir, "sitemap.xml", func(_ context.Context, w io.Writer) error {
		return a.writeSitemap(w, exported)
	}); err != nil {
		return report, err
	}

	posts, err := a.Content.ListRecentPosts(ctx, feedItemCount)
	if err != nil {
		logger.WarnWithFields("export: feed posts unavailable", logger.Fields{"error": err.Error()})
		posts = nil
	}
	if err := writeFile(ctx, outDir, "feed.xml", func(_ context.Context, w io.Writer) error {
		return a.writeRSS(w, posts)
	}); err != nil {
		return report, err
	}

	if err := writeFile(ctx, outDir, "robots.txt", func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, a.robotsTxt())
		return err
	}); err != nil {
		return report, err
	}

	if err := copyAssets(outDir); err != nil {
		return report, err
	}

	logger.InfoWithFields("export finished", logger.Fields{
		"dir":     outDir,
		"pages":   report.Pages,
		"skipped": len(report.Skipped),
	})
	return report, nil
}

// writeFile renders into memory first so a failed render leaves no
// partial file behind.
func writeFile(ctx context.Context, outDir, rel string, render func(context.Context, io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(ctx, &buf); err != nil {
		return fmt.Errorf("render %s: %w", rel, err)
	}
	path := filepath.Join(outDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// copyAssets writes the placeholder image at the root and the rest of the
// embedded assets under public/.
func copyAssets(outDir string) error {
	placeholder, err := fs.ReadFile(EmbeddedAssets, placeholderFile)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "placeholder-image.svg"), placeholder, 0o644); err != nil {
		return err
	}
	return fs.WalkDir(publicFS(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := fs.ReadFile(publicFS(), path)
		if err != nil {
			return err
		}
		dst := filepath.Join(outDir, "public", filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return os.WriteFile(dst, b, 0o644)
	})
}

// safeSlug rejects slugs that would escape their directory when used as a
// path segment.
func safeSlug(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	return !strings.ContainsAny(slug, "/\\\x00")
}
