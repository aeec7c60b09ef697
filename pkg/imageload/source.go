// Package imageload decodes user uploads, data URLs and remote images into bitmaps.
package imageload

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Source identifies an image to load. Exactly one of URL or Data is expected;
// URL may be an http(s) URL or a data: URL.
type Source struct {
	URL         string
	Data        []byte
	Name        string
	ContentType string
}

// IsZero reports whether s names nothing.
func (s Source) IsZero() bool {
	return s.URL == "" && len(s.Data) == 0
}

// Key identifies the source content for caching. Blobs are keyed by digest so
// re-uploading the same file does not force a new decode.
func (s Source) Key() string {
	if len(s.Data) > 0 {
		sum := sha256.Sum256(s.Data)
		return "blob:" + hex.EncodeToString(sum[:])
	}
	if strings.HasPrefix(s.URL, "data:") {
		sum := sha256.Sum256([]byte(s.URL))
		return "data:" + hex.EncodeToString(sum[:])
	}
	return s.URL
}

// String is a short log-safe description (data URLs and blobs are not dumped).
func (s Source) String() string {
	switch {
	case len(s.Data) > 0:
		if s.Name != "" {
			return fmt.Sprintf("upload %q (%d bytes)", s.Name, len(s.Data))
		}
		return fmt.Sprintf("blob (%d bytes)", len(s.Data))
	case strings.HasPrefix(s.URL, "data:"):
		return fmt.Sprintf("data URL (%d chars)", len(s.URL))
	case s.URL != "":
		return s.URL
	default:
		return "empty source"
	}
}
