package imageload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadBlob(t *testing.T) {
	img, err := NewLoader(0).Load(context.Background(), Source{Data: pngBytes(t, 20, 10), Name: "a.png"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Fatalf("bounds = %v", b)
	}
}

func TestLoadDataURL(t *testing.T) {
	data := pngBytes(t, 3, 4)
	img, err := NewLoader(0).Load(context.Background(), Source{URL: DataURL("image/png", data)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 4 {
		t.Fatalf("bounds = %v", b)
	}
}

func TestLoadRemote(t *testing.T) {
	data := pngBytes(t, 8, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	l := NewLoader(0)
	if _, err := l.Load(context.Background(), Source{URL: srv.URL + "/ok.png"}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	_, err := l.Load(context.Background(), Source{URL: srv.URL + "/missing.png"})
	var le *ImageLoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want *ImageLoadError", err)
	}
	if !strings.Contains(le.Source, "/missing.png") {
		t.Fatalf("Source = %q", le.Source)
	}
}

func TestLoadRemoteTooLarge(t *testing.T) {
	data := pngBytes(t, 64, 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	l := NewLoader(int64(len(data) - 1))
	if _, err := l.Load(context.Background(), Source{URL: srv.URL}); err == nil {
		t.Fatal("expected size error")
	}
}

func TestLoadRejectsCorruptAndHuge(t *testing.T) {
	l := NewLoader(0)
	tests := []struct {
		name string
		src  Source
	}{
		{"garbage", Source{Data: []byte("definitely not an image")}},
		{"bad data url", Source{URL: "data:image/png;base64"}},
		{"unsupported scheme", Source{URL: "ftp://example.com/a.png"}},
		{"empty", Source{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Load(context.Background(), tc.src)
			var le *ImageLoadError
			if !errors.As(err, &le) {
				t.Fatalf("err = %v, want *ImageLoadError", err)
			}
		})
	}

	small := &HTTPLoader{MaxPixels: 50}
	if _, err := small.Load(context.Background(), Source{Data: pngBytes(t, 10, 10)}); err == nil {
		t.Fatal("expected pixel limit error")
	}
}

func TestCheckUpload(t *testing.T) {
	pngHead := pngBytes(t, 1, 1)
	tests := []struct {
		name        string
		contentType string
		size        int64
		head        []byte
		wantErr     bool
	}{
		{"jpeg", "image/jpeg", 1000, nil, false},
		{"jpg alias", "image/jpg", 1000, nil, false},
		{"webp", "image/webp", 1000, nil, false},
		{"png with params", "image/png; charset=binary", 1000, nil, false},
		{"sniffed png", "", int64(len(pngHead)), pngHead, false},
		{"pdf", "application/pdf", 1000, nil, true},
		{"gif not accepted", "image/gif", 1000, nil, true},
		{"sniffed text", "application/octet-stream", 5, []byte("hello"), true},
		{"oversized", "image/jpeg", 11 << 20, nil, true},
		{"empty", "image/jpeg", 0, nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckUpload("file", tc.contentType, tc.size, 10<<20, tc.head)
			if (err != nil) != tc.wantErr {
				t.Fatalf("CheckUpload err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				var ue *UploadError
				if !errors.As(err, &ue) {
					t.Fatalf("err = %T, want *UploadError", err)
				}
			}
		})
	}
}

func TestCheckRemoteURL(t *testing.T) {
	allowed := []string{"cdn.example.test", " Media.Example.Test "}
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"data url", "data:image/png;base64,AAAA", false},
		{"allowed host", "https://cdn.example.test/a.jpg", false},
		{"allowed host any case", "https://MEDIA.example.test/b.png", false},
		{"allowed host with port", "https://cdn.example.test:8443/a.jpg", false},
		{"plain http", "http://cdn.example.test/a.jpg", true},
		{"other host", "https://internal.example.test/a.jpg", true},
		{"metadata address", "http://169.254.169.254/latest/meta-data/", true},
		{"loopback", "https://127.0.0.1/a.jpg", true},
		{"file scheme", "file:///etc/passwd", true},
		{"suffix trick", "https://cdn.example.test.evil.test/a.jpg", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckRemoteURL(tc.url, allowed)
			if (err != nil) != tc.wantErr {
				t.Fatalf("CheckRemoteURL(%q) = %v, wantErr %v", tc.url, err, tc.wantErr)
			}
			var ue *UploadError
			if err != nil && !errors.As(err, &ue) {
				t.Fatalf("err = %T, want *UploadError", err)
			}
		})
	}

	if err := CheckRemoteURL("https://cdn.example.test/a.jpg", nil); err == nil {
		t.Fatal("remote URL accepted with no allowed hosts")
	}
}

func TestSourceKey(t *testing.T) {
	a := Source{Data: []byte{1, 2, 3}}
	b := Source{Data: []byte{1, 2, 3}, Name: "other"}
	if a.Key() != b.Key() {
		t.Fatal("same bytes should share a key")
	}
	if a.Key() == (Source{Data: []byte{1, 2, 4}}).Key() {
		t.Fatal("different bytes share a key")
	}
	if (Source{URL: "https://x/y.png"}).Key() != "https://x/y.png" {
		t.Fatal("remote URL key should be the URL")
	}
	if !(Source{}).IsZero() {
		t.Fatal("zero source not reported as zero")
	}
}
