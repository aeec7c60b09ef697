package design

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xob0t/instapost/pkg/layout"
)

func TestParseExample(t *testing.T) {
	d, warnings, err := Parse([]byte(ExampleJSON()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}
	if d.Canvas.Width != 1080 || d.Canvas.Height != 1440 {
		t.Fatalf("canvas = %dx%d, want 1080x1440", d.Canvas.Width, d.Canvas.Height)
	}
	in := d.Input(nil, nil)
	if in.Place.Fill != layout.Fill || in.Text.Align != layout.AlignCenter || in.Text.FontSize != 60 {
		t.Fatalf("input = %+v", in)
	}
}

func TestParseDefaultsAndWarnings(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		w, h      int
		warnCount int
	}{
		{"empty document", `{}`, 1080, 1440, 0},
		{"square preset", `{"canvas":{"preset":"instagram_square"}}`, 1080, 1080, 0},
		{"explicit size", `{"canvas":{"width":600,"height":800}}`, 600, 800, 0},
		{"unknown preset", `{"canvas":{"preset":"billboard"}}`, 1080, 1440, 1},
		{"bad align and fill", `{"text":{"align":"justify"},"image":{"fill":"tile"}}`, 1080, 1440, 2},
		{"out of range", `{"image":{"x":-5,"y":150},"text":{"vertical":300}}`, 1080, 1440, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, warnings, err := Parse([]byte(tc.json))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if d.Canvas.Width != tc.w || d.Canvas.Height != tc.h {
				t.Errorf("canvas = %dx%d, want %dx%d", d.Canvas.Width, d.Canvas.Height, tc.w, tc.h)
			}
			if len(warnings) != tc.warnCount {
				t.Errorf("warnings = %v, want %d", warnings, tc.warnCount)
			}
			if d.Image.Zoom != 100 || d.Text.FontSize != 60 {
				t.Errorf("defaults not applied: %+v %+v", d.Image, d.Text)
			}
			p, c := d.Placement(), d.Caption()
			if p.X < 0 || p.X > 100 || p.Y < 0 || p.Y > 100 || c.Vertical > 100 {
				t.Errorf("percent not clamped: %+v %+v", p, c)
			}
		})
	}
}

func TestParseKeepsExplicitZeroPercents(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		x, y, vert float64
	}{
		{"unset", `{}`, 50, 50, 80},
		{"top left pan", `{"image":{"x":0,"y":0}}`, 0, 0, 80},
		{"x only", `{"image":{"x":0}}`, 0, 50, 80},
		{"caption at top", `{"text":{"vertical":0}}`, 50, 50, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, warnings, err := Parse([]byte(tc.json))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(warnings) != 0 {
				t.Fatalf("warnings = %v", warnings)
			}
			p, c := d.Placement(), d.Caption()
			if p.X != tc.x || p.Y != tc.y || c.Vertical != tc.vert {
				t.Errorf("x,y,vertical = %v,%v,%v, want %v,%v,%v", p.X, p.Y, c.Vertical, tc.x, tc.y, tc.vert)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	if _, _, err := Parse([]byte(`{"canvas":`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadFileResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "design.json")
	doc := `{"image":{"source":"photo.jpg"},"mockup":"https://cdn.example.test/frame.png"}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	d, _, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if d.Image.Source != filepath.Join(dir, "photo.jpg") {
		t.Errorf("image source = %q", d.Image.Source)
	}
	if d.Mockup != "https://cdn.example.test/frame.png" {
		t.Errorf("mockup = %q, remote URL must be kept", d.Mockup)
	}
	if !IsRemote("data:image/png;base64,AAAA") || IsRemote(filepath.Join(dir, "x.png")) {
		t.Error("IsRemote misclassified")
	}
	if !strings.HasSuffix(d.Image.Source, "photo.jpg") {
		t.Error("source lost file name")
	}
}
