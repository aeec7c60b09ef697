// Package layout computes image placement and caption geometry for post canvases.
// Nothing here performs I/O; invalid numeric input is a programming error and panics.
package layout

import (
	"fmt"
	"math"
	"strings"
)

// FillMode selects how the background image is scaled onto the canvas.
type FillMode string

const (
	// Fill scales to cover: the canvas is fully covered, overflow is cropped.
	Fill FillMode = "fill"
	// Fit scales to contain: the whole image is visible, gaps show the background color.
	Fit FillMode = "fit"
)

// ParseFillMode maps a user string to a FillMode. Unknown values fall back to Fill.
func ParseFillMode(s string) FillMode {
	switch FillMode(strings.ToLower(strings.TrimSpace(s))) {
	case Fit, "contain":
		return Fit
	default:
		return Fill
	}
}

// CanvasSpec is the fixed output surface of one editing session.
type CanvasSpec struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background"` // "#rrggbb"
}

// DefaultCanvas is the portrait Instagram feed format.
var DefaultCanvas = CanvasSpec{Width: 1080, Height: 1440, Background: "#000000"}

// Rect is a placement in canvas pixels. Values are not rounded.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// CenterX returns the horizontal center of r.
func (r Rect) CenterX() float64 { return r.X + r.Width/2 }

// CenterY returns the vertical center of r.
func (r Rect) CenterY() float64 { return r.Y + r.Height/2 }

// PlaceImage positions an imgW×imgH image on a canvasW×canvasH canvas.
//
// zoomPct is a percentage of the base scale (100 = base). posXPct and posYPct
// move the image center relative to the canvas center, 50 meaning centered,
// expressed as a percentage of the canvas dimension.
func PlaceImage(imgW, imgH, canvasW, canvasH, zoomPct, posXPct, posYPct float64, mode FillMode) Rect {
	if imgW <= 0 || imgH <= 0 || canvasW <= 0 || canvasH <= 0 {
		panic(fmt.Sprintf("layout: non-positive dimensions image=%vx%v canvas=%vx%v", imgW, imgH, canvasW, canvasH))
	}
	if zoomPct <= 0 || math.IsNaN(zoomPct) || math.IsInf(zoomPct, 0) {
		panic(fmt.Sprintf("layout: invalid zoom %v", zoomPct))
	}

	sx := canvasW / imgW
	sy := canvasH / imgH

	var base float64
	if mode == Fit {
		base = math.Min(sx, sy)
	} else {
		base = math.Max(sx, sy)
	}

	scale := base * (zoomPct / 100)
	w := imgW * scale
	h := imgH * scale

	offsetX := (posXPct - 50) / 100 * canvasW
	offsetY := (posYPct - 50) / 100 * canvasH

	return Rect{
		X:      canvasW/2 - w/2 + offsetX,
		Y:      canvasH/2 - h/2 + offsetY,
		Width:  w,
		Height: h,
	}
}
