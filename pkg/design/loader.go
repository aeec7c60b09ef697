// loader.go — Parse design.json and apply defaults.
package design

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xob0t/instapost/pkg/compositor"
	"github.com/xob0t/instapost/pkg/layout"
)

// LoadFile reads and parses a design file. Relative image and mockup paths
// are resolved against the file's directory.
func LoadFile(path string) (*Design, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read design: %w", err)
	}

	d, warnings, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}

	baseDir := filepath.Dir(path)
	d.Image.Source = resolvePath(d.Image.Source, baseDir)
	d.Mockup = resolvePath(d.Mockup, baseDir)

	return d, warnings, nil
}

// Parse decodes a design document and applies defaults. Malformed JSON is an
// error; questionable values are corrected and reported as warnings.
func Parse(data []byte) (*Design, []string, error) {
	var d Design
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, nil, fmt.Errorf("parse design JSON: %w", err)
	}

	warnings := applyDefaults(&d)
	return &d, warnings, nil
}

// IsRemote reports whether src is fetched over the network or inline rather than from disk.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") ||
		strings.HasPrefix(src, "https://") ||
		strings.HasPrefix(src, "data:")
}

func resolvePath(p, baseDir string) string {
	if p == "" || IsRemote(p) || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// applyDefaults sets sane fallbacks and clamps percentages.
func applyDefaults(d *Design) []string {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	// Canvas preset.
	c := &d.Canvas
	if c.Preset == "" && (c.Width <= 0 || c.Height <= 0) {
		c.Preset = DefaultPreset
	}
	if c.Preset != "" {
		dims, ok := Presets[c.Preset]
		if !ok {
			warn("unknown canvas preset %q, using %s", c.Preset, DefaultPreset)
			c.Preset = DefaultPreset
			dims = Presets[DefaultPreset]
		}
		c.Width, c.Height = dims[0], dims[1]
	}
	if c.Background == "" {
		c.Background = layout.DefaultCanvas.Background
	}

	// Photo placement.
	img := &d.Image
	if img.Zoom <= 0 {
		img.Zoom = compositor.DefaultPlacement.Zoom
	}
	img.X = clampPercent(img.X, compositor.DefaultPlacement.X, "image.x", warn)
	img.Y = clampPercent(img.Y, compositor.DefaultPlacement.Y, "image.y", warn)
	switch img.Fill {
	case "":
		img.Fill = string(layout.Fill)
	case string(layout.Fill), string(layout.Fit), "contain", "cover":
	default:
		warn("unknown fill mode %q, using fill", img.Fill)
		img.Fill = string(layout.Fill)
	}

	// Caption.
	t := &d.Text
	if t.FontSize <= 0 {
		t.FontSize = compositor.DefaultCaption.FontSize
	}
	t.Vertical = clampPercent(t.Vertical, compositor.DefaultCaption.Vertical, "text.vertical", warn)
	switch t.Align {
	case "":
		t.Align = string(layout.AlignCenter)
	case string(layout.AlignLeft), string(layout.AlignCenter), string(layout.AlignRight):
	default:
		warn("unknown text align %q, using center", t.Align)
		t.Align = string(layout.AlignCenter)
	}
	if t.Color == "" {
		t.Color = compositor.DefaultCaption.Color
	}

	return warnings
}

// clampPercent fills an unset percentage with def and clamps it to 0–100.
// An explicit 0 is kept.
func clampPercent(p *float64, def float64, field string, warn func(string, ...any)) *float64 {
	v := def
	if p != nil {
		v = *p
	}
	switch {
	case v < 0:
		warn("%s %v below 0, clamped", field, v)
		v = 0
	case v > 100:
		warn("%s %v above 100, clamped", field, v)
		v = 100
	}
	return &v
}
