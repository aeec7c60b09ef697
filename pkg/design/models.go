// Package design provides JSON post designs: canvas preset, photo placement,
// caption and mockup frame, as consumed by the CLI and the WASM renderer.
package design

import (
	"image"

	"github.com/xob0t/instapost/pkg/compositor"
	"github.com/xob0t/instapost/pkg/layout"
)

// ── Document types ──

// Design is the top-level structure of a design.json file.
type Design struct {
	Meta   Meta   `json:"meta"`
	Canvas Canvas `json:"canvas"`
	Image  Image  `json:"image"`
	Text   Text   `json:"text"`
	Mockup string `json:"mockup,omitempty"` // URL or path of the overlay frame
}

// Meta holds design metadata.
type Meta struct {
	Name        string `json:"name"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// Canvas defines output dimensions. Preset overrides explicit Width/Height.
type Canvas struct {
	Preset     string `json:"preset"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background"`
}

// Image is the photo and its placement.
type Image struct {
	Source string   `json:"source"` // path, http(s) URL or data URL
	Zoom   float64  `json:"zoom"`   // percent
	X      *float64 `json:"x"`      // 0–100, unset = 50
	Y      *float64 `json:"y"`      // 0–100, unset = 50
	Fill   string   `json:"fill"`   // "fill" or "fit"
}

// Text is the caption overlay.
type Text struct {
	Content  string   `json:"content"`
	FontSize int      `json:"fontSize"`
	Vertical *float64 `json:"vertical"` // unset = 80
	Align    string   `json:"align"`
	Color    string   `json:"color"`
}

// ── Presets for Instagram formats ──

// DefaultPreset is used when a design names neither a preset nor dimensions.
const DefaultPreset = "instagram_portrait"

// Presets maps preset names to [width, height].
var Presets = map[string][2]int{
	"instagram_portrait": {1080, 1440},
	"instagram_square":   {1080, 1080},
	"instagram_story":    {1080, 1920},
}

// CanvasSpec returns the resolved canvas.
func (d *Design) CanvasSpec() layout.CanvasSpec {
	return layout.CanvasSpec{Width: d.Canvas.Width, Height: d.Canvas.Height, Background: d.Canvas.Background}
}

// Placement returns the photo geometry.
func (d *Design) Placement() compositor.Placement {
	return compositor.Placement{
		Zoom: d.Image.Zoom,
		X:    percent(d.Image.X, compositor.DefaultPlacement.X),
		Y:    percent(d.Image.Y, compositor.DefaultPlacement.Y),
		Fill: layout.ParseFillMode(d.Image.Fill),
	}
}

// Caption returns the text overlay.
func (d *Design) Caption() compositor.Caption {
	return compositor.Caption{
		Content:  d.Text.Content,
		FontSize: d.Text.FontSize,
		Vertical: percent(d.Text.Vertical, compositor.DefaultCaption.Vertical),
		Align:    layout.ParseAlign(d.Text.Align),
		Color:    d.Text.Color,
	}
}

func percent(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Input builds a compositor input from the design and the decoded bitmaps.
func (d *Design) Input(photo, mockup image.Image) compositor.Input {
	return compositor.Input{
		Canvas: d.CanvasSpec(),
		Image:  photo,
		Place:  d.Placement(),
		Text:   d.Caption(),
		Mockup: mockup,
	}
}
