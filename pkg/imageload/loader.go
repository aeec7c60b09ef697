// loader.go — Fetch and decode images from URLs, data URLs and blobs.
package imageload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels bounds decoded dimensions so the sharpen pass stays cheap.
const DefaultMaxPixels = 40_000_000

// Loader decodes a Source into a bitmap.
type Loader interface {
	Load(ctx context.Context, src Source) (image.Image, error)
}

// HTTPLoader is the default Loader. Remote URLs are fetched with Client.
type HTTPLoader struct {
	Client    *http.Client
	MaxBytes  int64 // body size limit (default DefaultUploadLimit)
	MaxPixels int   // decoded pixel limit (default DefaultMaxPixels)
}

// NewLoader returns an HTTPLoader with a 30s client timeout.
func NewLoader(maxBytes int64) *HTTPLoader {
	return &HTTPLoader{
		Client:   &http.Client{Timeout: 30 * time.Second},
		MaxBytes: maxBytes,
	}
}

// Load resolves src to bytes and decodes them, applying EXIF orientation.
// Every failure is an *ImageLoadError.
func (l *HTTPLoader) Load(ctx context.Context, src Source) (image.Image, error) {
	data, err := l.read(ctx, src)
	if err != nil {
		return nil, &ImageLoadError{Source: src.String(), Err: err}
	}

	img, err := l.decode(data)
	if err != nil {
		return nil, &ImageLoadError{Source: src.String(), Err: err}
	}
	return img, nil
}

func (l *HTTPLoader) read(ctx context.Context, src Source) ([]byte, error) {
	switch {
	case len(src.Data) > 0:
		return src.Data, nil
	case strings.HasPrefix(src.URL, "data:"):
		return decodeDataURL(src.URL)
	case strings.HasPrefix(src.URL, "http://"), strings.HasPrefix(src.URL, "https://"):
		return l.fetch(ctx, src.URL)
	case src.URL == "":
		return nil, errors.New("no image data")
	default:
		return nil, fmt.Errorf("unsupported URL scheme in %q", src.URL)
	}
}

func (l *HTTPLoader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch: unexpected status %s", resp.Status)
	}

	limit := l.maxBytes()
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image larger than %d bytes", limit)
	}
	return data, nil
}

func (l *HTTPLoader) decode(data []byte) (image.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decode header: %s image has no pixels", format)
	}
	if px := cfg.Width * cfg.Height; px > l.maxPixels() {
		return nil, fmt.Errorf("%s image is %dx%d, over the %d pixel limit", format, cfg.Width, cfg.Height, l.maxPixels())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return img, nil
}

func (l *HTTPLoader) maxBytes() int64 {
	if l.MaxBytes <= 0 {
		return DefaultUploadLimit
	}
	return l.MaxBytes
}

func (l *HTTPLoader) maxPixels() int {
	if l.MaxPixels <= 0 {
		return DefaultMaxPixels
	}
	return l.MaxPixels
}

// decodeDataURL extracts the payload of a data: URL (RFC 2397).
func decodeDataURL(raw string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URL: missing ','")
	}

	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop padding.
			if data, err2 := base64.RawStdEncoding.DecodeString(payload); err2 == nil {
				return data, nil
			}
			return nil, fmt.Errorf("malformed data URL: %w", err)
		}
		return data, nil
	}

	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed data URL: %w", err)
	}
	return []byte(s), nil
}

// DataURL encodes data as a base64 data: URL.
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
