// validate.go — Upload checks that run before any decode.
package imageload

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
)

// DefaultUploadLimit is the upload size ceiling (10 MB).
const DefaultUploadLimit int64 = 10 << 20

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// CheckUpload validates an upload's declared type and size. When contentType
// is empty or generic, the type is sniffed from head (the first bytes of the file).
func CheckUpload(name, contentType string, size, limit int64, head []byte) error {
	if limit <= 0 {
		limit = DefaultUploadLimit
	}
	if size > limit {
		return &UploadError{Name: name, Reason: fmt.Sprintf("file is %s, limit is %s", humanize.IBytes(uint64(size)), humanize.IBytes(uint64(limit)))}
	}
	if size == 0 {
		return &UploadError{Name: name, Reason: "file is empty"}
	}

	mt := mediaType(contentType)
	if mt == "" || mt == "application/octet-stream" {
		mt = mediaType(http.DetectContentType(head))
	}
	if !allowedTypes[mt] {
		return &UploadError{Name: name, Reason: fmt.Sprintf("type %q is not an accepted image (jpeg, png, webp)", mt)}
	}
	return nil
}

func mediaType(ct string) string {
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

// CheckRemoteURL decides whether a client-supplied image URL may be loaded by
// the server. Data URLs are always accepted; anything fetched over the network
// must be https and hosted on one of allowedHosts.
func CheckRemoteURL(raw string, allowedHosts []string) error {
	if strings.HasPrefix(raw, "data:") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &UploadError{Reason: "malformed image URL"}
	}
	if u.Scheme != "https" {
		return &UploadError{Reason: fmt.Sprintf("image URL scheme %q not allowed, use https or a data URL", u.Scheme)}
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range allowedHosts {
		if host != "" && strings.EqualFold(strings.TrimSpace(h), host) {
			return nil
		}
	}
	return &UploadError{Reason: fmt.Sprintf("image host %q is not on the allowed list", host)}
}
