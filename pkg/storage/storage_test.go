package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewKey(t *testing.T) {
	a := NewKey("posts", "jpg")
	b := NewKey("posts", ".jpg")
	if !strings.HasPrefix(a, "posts/") || !strings.HasSuffix(a, ".jpg") {
		t.Fatalf("key = %q", a)
	}
	if a == b {
		t.Fatal("keys are not unique")
	}
	if err := checkKey(a); err != nil {
		t.Fatalf("generated key rejected: %v", err)
	}
}

func TestCheckKey(t *testing.T) {
	tests := []struct {
		key string
		ok  bool
	}{
		{"posts/a.jpg", true},
		{"a.jpg", true},
		{"", false},
		{"/etc/passwd", false},
		{"../secret", false},
		{"posts/../../x", false},
		{"posts//a.jpg", false},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			if err := checkKey(tc.key); (err == nil) != tc.ok {
				t.Fatalf("checkKey(%q) = %v, want ok=%v", tc.key, err, tc.ok)
			}
		})
	}
}

func exerciseStore(t *testing.T, s Store, wantURLPrefix string) {
	t.Helper()
	ctx := context.Background()
	data := []byte{0xff, 0xd8, 0xff, 1, 2, 3}

	url, err := s.Put(ctx, "posts/x.jpg", "image/jpeg", data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != wantURLPrefix+"/posts/x.jpg" {
		t.Fatalf("url = %q, want prefix %q", url, wantURLPrefix)
	}

	got, err := s.Get(ctx, "posts/x.jpg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("Get = %v, want %v", got, data)
	}

	if err := s.Delete(ctx, "posts/x.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "posts/x.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete = %v, want ErrNotFound", err)
	}

	if _, err := s.Put(ctx, "../escape.jpg", "image/jpeg", data); err == nil {
		t.Fatal("Put accepted a traversal key")
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory("https://cdn.example.test"), "https://cdn.example.test")
}

func TestFilesystemStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFilesystem(dir, "http://localhost:8080/media/")
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s, "http://localhost:8080/media")

	if _, err := s.Put(context.Background(), "posts/y.jpg", "image/jpeg", []byte("y")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "posts", "y.jpg")); err != nil {
		t.Fatalf("file not written: %v", err)
	}
}

func TestNewDefaultsToMemory(t *testing.T) {
	s, err := New(context.Background(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("store = %T, want *Memory", s)
	}
	if _, err := New(context.Background(), Config{Type: "s3"}); err == nil {
		t.Fatal("s3 without bucket accepted")
	}
}
