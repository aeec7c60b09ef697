// Package compositor paints post graphics: background, placed photo, mockup
// frame, readability band and caption, in that order, onto a fresh surface.
package compositor

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/xob0t/instapost/pkg/generator"
	"github.com/xob0t/instapost/pkg/imageload"
	"github.com/xob0t/instapost/pkg/layout"
)

const (
	// BandOpacity is the alpha of the black band behind the caption.
	BandOpacity = 0.5
	// BandPadding extends the band above the first and below the last line.
	BandPadding = 20
)

var (
	black = color.RGBA{0, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

// Placement is the user-controlled geometry of the photo.
type Placement struct {
	Zoom float64         `json:"zoom"` // percent of the base scale
	X    float64         `json:"x"`    // 0–100, 50 = centered
	Y    float64         `json:"y"`    // 0–100, 50 = centered
	Fill layout.FillMode `json:"fill"`
}

// DefaultPlacement is a centered photo at base scale covering the canvas.
var DefaultPlacement = Placement{Zoom: 100, X: 50, Y: 50, Fill: layout.Fill}

// Caption is the text overlay. An empty Content draws nothing.
type Caption struct {
	Content  string       `json:"content"`
	FontSize int          `json:"fontSize"` // pixels
	Vertical float64      `json:"vertical"` // 0–100, block center as percent of canvas height
	Align    layout.Align `json:"align"`
	Color    string       `json:"color"`
}

// DefaultCaption is an empty, centered white caption at 60px.
var DefaultCaption = Caption{FontSize: 60, Vertical: 80, Align: layout.AlignCenter, Color: "#ffffff"}

// Input is everything one render depends on. Image and Mockup may be nil.
type Input struct {
	Canvas layout.CanvasSpec
	Image  image.Image
	Place  Placement
	Text   Caption
	Mockup image.Image
}

// Result is an encoded composition.
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	HasImage    bool // false when the photo was still loading at render time
}

// DataURL returns the result as a data: URL for previews.
func (r *Result) DataURL() string {
	return imageload.DataURL(r.ContentType, r.Data)
}

// Compositor renders Inputs. It holds no per-render state and is safe for concurrent use.
type Compositor struct {
	fonts   *FontManager
	quality int
}

// New creates a compositor with the given caption font (empty for the embedded default).
func New(fontPath string) (*Compositor, error) {
	fm, err := NewFontManager(fontPath)
	if err != nil {
		return nil, err
	}
	return &Compositor{fonts: fm, quality: generator.DefaultQuality}, nil
}

// Render draws in and encodes it as JPEG.
func (c *Compositor) Render(in Input) (*Result, error) {
	img, err := c.Draw(in)
	if err != nil {
		return nil, err
	}

	data, err := generator.EncodeJPEG(img, c.quality)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	return &Result{
		Data:        data,
		ContentType: "image/jpeg",
		Width:       in.Canvas.Width,
		Height:      in.Canvas.Height,
		HasImage:    in.Image != nil,
	}, nil
}

// Draw paints in onto a new surface:
// 1. background color
// 2. photo, scaled and positioned by layout.PlaceImage
// 3. mockup frame stretched to the canvas
// 4. semi-transparent band and wrapped caption lines, when the caption is not empty.
func (c *Compositor) Draw(in Input) (*image.RGBA, error) {
	cs := in.Canvas
	if cs.Width <= 0 || cs.Height <= 0 {
		return nil, fmt.Errorf("draw: invalid canvas %dx%d", cs.Width, cs.Height)
	}

	dst := generator.NewSolidImage(cs.Width, cs.Height, generator.ParseHexRGBA(cs.Background, black))

	if in.Image != nil {
		if err := drawPhoto(dst, in.Image, in.Place); err != nil {
			return nil, err
		}
	}

	if in.Mockup != nil && !in.Mockup.Bounds().Empty() {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), in.Mockup, in.Mockup.Bounds(), xdraw.Over, nil)
	}

	if strings.TrimSpace(in.Text.Content) != "" {
		if err := c.drawCaption(dst, in.Text); err != nil {
			return nil, err
		}
	}

	return dst, nil
}

func drawPhoto(dst *image.RGBA, src image.Image, p Placement) error {
	if p.Zoom <= 0 || math.IsNaN(p.Zoom) || math.IsInf(p.Zoom, 0) {
		return fmt.Errorf("draw: invalid zoom %v", p.Zoom)
	}
	sb := src.Bounds()
	if sb.Empty() {
		return fmt.Errorf("draw: photo has no pixels")
	}

	db := dst.Bounds()
	r := layout.PlaceImage(float64(sb.Dx()), float64(sb.Dy()), float64(db.Dx()), float64(db.Dy()), p.Zoom, p.X, p.Y, p.Fill)

	// Only the visible part of the photo is resampled; a 500% zoom would
	// otherwise need a scratch buffer the size of the whole scaled photo.
	vis := image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)), int(math.Ceil(r.Y+r.Height)),
	).Intersect(db)
	if vis.Empty() {
		return nil
	}

	kx := float64(sb.Dx()) / r.Width
	ky := float64(sb.Dy()) / r.Height
	sr := image.Rect(
		sb.Min.X+int(math.Floor((float64(vis.Min.X)-r.X)*kx)),
		sb.Min.Y+int(math.Floor((float64(vis.Min.Y)-r.Y)*ky)),
		sb.Min.X+int(math.Ceil((float64(vis.Max.X)-r.X)*kx)),
		sb.Min.Y+int(math.Ceil((float64(vis.Max.Y)-r.Y)*ky)),
	).Intersect(sb)
	if sr.Empty() {
		return nil
	}

	dr := image.Rect(
		int(math.Round(r.X+float64(sr.Min.X-sb.Min.X)/kx)),
		int(math.Round(r.Y+float64(sr.Min.Y-sb.Min.Y)/ky)),
		int(math.Round(r.X+float64(sr.Max.X-sb.Min.X)/kx)),
		int(math.Round(r.Y+float64(sr.Max.Y-sb.Min.Y)/ky)),
	)
	xdraw.CatmullRom.Scale(dst, dr, src, sr, xdraw.Over, nil)
	return nil
}

func (c *Compositor) drawCaption(dst *image.RGBA, t Caption) error {
	if t.FontSize <= 0 {
		return fmt.Errorf("draw: invalid font size %d", t.FontSize)
	}

	face, err := c.fonts.NewFace(float64(t.FontSize))
	if err != nil {
		return err
	}
	defer face.Close()

	dc := gg.NewContextForRGBA(dst)
	dc.SetFontFace(face)

	w := float64(dst.Bounds().Dx())
	h := float64(dst.Bounds().Dy())

	lines := layout.LayoutText(t.Content, layout.MaxTextWidth(w), func(s string) float64 {
		width, _ := dc.MeasureString(s)
		return width
	})
	if len(lines) == 0 {
		return nil
	}

	block := layout.TextBlock(len(lines), float64(t.FontSize), h, t.Vertical, layout.BottomPadding)

	dc.SetRGBA(0, 0, 0, BandOpacity)
	dc.DrawRectangle(0, block.Top-BandPadding, w, block.Height()+2*BandPadding)
	dc.Fill()

	dc.SetColor(generator.ParseHexRGBA(t.Color, white))
	x := layout.AnchorX(t.Align, w)
	ax := layout.AnchorRatio(t.Align)
	for i, line := range lines {
		dc.DrawStringAnchored(line, x, block.LineCenter(i), ax, 0.5)
	}
	return nil
}
