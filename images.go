package pressfront

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/pressfront/logger"
	"github.com/eringen/pressfront/trace"
)

const (
	defaultImageWidth  = 1200
	minImageWidth      = 16
	maxImageWidth      = 3840
	jpegQuality        = 80
	maxSourceImageSize = 20 << 20 // 20MB
	maxImageRedirects  = 5
	maxSourcePixels    = 40_000_000

	svgContentSecurityPolicy = "default-src 'none'; script-src 'none'; sandbox;"
)

var (
	errImageTooLarge   = errors.New("source image too large")
	errImageDimensions = errors.New("source image dimensions too large")
)

// resizeImage decodes an image from data and scales it down to maxWidth when
// it is wider. PNG stays PNG; everything else is re-encoded as JPEG. The
// header is checked against maxSourcePixels before any pixels are decoded.
func resizeImage(data []byte, maxWidth int) ([]byte, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxSourcePixels {
		return nil, "", fmt.Errorf("%w: %dx%d", errImageDimensions, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxWidth {
		newH := max(h*maxWidth/w, 1)
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// parseImageWidth reads ?w=; empty means the default width.
func parseImageWidth(raw string) (int, error) {
	if raw == "" {
		return defaultImageWidth, nil
	}
	w, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("w must be an integer")
	}
	if w < minImageWidth || w > maxImageWidth {
		return 0, fmt.Errorf("w must be between %d and %d", minImageWidth, maxImageWidth)
	}
	return w, nil
}

func (a *App) handleImage(c echo.Context) error {
	if !a.imageLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many image requests")
	}

	src, err := url.Parse(c.QueryParam("url"))
	if err != nil || !a.images.Allowed(src) {
		return echo.NewHTTPError(http.StatusBadRequest, "url is not an allowed remote image")
	}
	width, err := parseImageWidth(c.QueryParam("w"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	data, contentType, err := a.fetchImage(c, src)
	if err != nil {
		logger.WarnWithFields("image fetch failed", logger.Fields{
			"url":        src.String(),
			"error":      err.Error(),
			"request_id": trace.RequestID(c.Request().Context()),
		})
		return echo.NewHTTPError(http.StatusBadGateway, "could not fetch image")
	}

	if isSVG(contentType, src.Path) {
		c.Response().Header().Set("Content-Security-Policy", svgContentSecurityPolicy)
		return c.Blob(http.StatusOK, "image/svg+xml", data)
	}

	out, outType, err := resizeImage(data, width)
	if err != nil {
		logger.WarnWithFields("image resize failed", logger.Fields{
			"url":   src.String(),
			"error": err.Error(),
		})
		return echo.NewHTTPError(http.StatusBadGateway, "could not decode image")
	}
	return c.Blob(http.StatusOK, outType, out)
}

func (a *App) fetchImage(c echo.Context, src *url.URL) ([]byte, string, error) {
	ctx := c.Request().Context()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.String(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "image/*")
	if id := trace.RequestID(ctx); id != "" {
		req.Header.Set(trace.HeaderRequestID, id)
	}

	resp, err := a.imageClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceImageSize+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxSourceImageSize {
		return nil, "", errImageTooLarge
	}
	return data, resp.Header.Get(echo.HeaderContentType), nil
}

func isSVG(contentType, path string) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "image/svg+xml" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(path), ".svg")
}

// guardRedirects returns a copy of hc that only follows redirects to
// allow-listed URLs.
func (a *App) guardRedirects(hc *http.Client) *http.Client {
	guarded := *hc
	guarded.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxImageRedirects {
			return errors.New("too many redirects")
		}
		if !a.images.Allowed(req.URL) {
			return fmt.Errorf("redirect to %s is not allowed", req.URL.Redacted())
		}
		return nil
	}
	return &guarded
}
