package generator

import (
	"bytes"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#ff8000", color.RGBA{255, 128, 0, 255}, false},
		{"FFF", color.RGBA{255, 255, 255, 255}, false},
		{"#000000ff", color.RGBA{0, 0, 0, 255}, false},
		{"#ffffff00", color.RGBA{0, 0, 0, 0}, false},
		{"#12345", color.RGBA{}, true},
		{"#gggggg", color.RGBA{}, true},
	}
	for _, tc := range tests {
		got, err := ParseColor(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseColor(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseHexRGBAFallback(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	if got := ParseHexRGBA("nope", white); got != white {
		t.Fatalf("ParseHexRGBA fallback = %v", got)
	}
}

func TestGenerateWritesJPEG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "post.jpg")
	src := NewSolidImage(64, 32, color.RGBA{0x33, 0x66, 0x99, 0xff})
	if err := Generate(out, Config{Image: src}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Fatalf("bounds = %v, want 64x32", b)
	}
}

func TestGenerateRejectsUnknownExtension(t *testing.T) {
	if err := Generate(filepath.Join(t.TempDir(), "x.gif"), Config{Image: NewSolidImage(4, 4, color.Black)}); err == nil {
		t.Fatal("expected error for .gif output")
	}
}

func TestGenerateRequiresImage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.jpg")
	if err := Generate(out, Config{}); err == nil {
		t.Fatal("expected error without an image")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output written without an image: %v", err)
	}
}

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(NewSolidImage(8, 8, color.Black), 90)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatal("output is not a JPEG stream")
	}
}
