// state.go — Editable session state and its validation.
package editor

import (
	"errors"
	"fmt"
	"math"

	"github.com/xob0t/instapost/pkg/compositor"
	"github.com/xob0t/instapost/pkg/imageload"
	"github.com/xob0t/instapost/pkg/layout"
)

var (
	// ErrNoImage is returned by Continue before any photo decoded successfully.
	ErrNoImage = errors.New("editor: no image loaded")
	// ErrSuperseded is returned by UpdateImage when a newer load replaced this one.
	ErrSuperseded = errors.New("editor: image load superseded")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("editor: session closed")
	// ErrInvalidState wraps rejected image or text parameters.
	ErrInvalidState = errors.New("editor: invalid state")
)

// ImageState is the photo and its placement. A zero Source keeps the current photo.
type ImageState struct {
	Source imageload.Source
	compositor.Placement
}

// TextState is the caption overlay.
type TextState = compositor.Caption

// Snapshot is a read-only view of a session for status endpoints.
type Snapshot struct {
	Placement  compositor.Placement `json:"placement"`
	Text       TextState            `json:"text"`
	Source     string               `json:"source,omitempty"`
	HasImage   bool                 `json:"hasImage"`
	Generation uint64               `json:"generation"`
	Revision   uint64               `json:"revision"`
	Renders    int                  `json:"renders"`
}

func validatePlacement(p compositor.Placement) (compositor.Placement, error) {
	if p.Zoom <= 0 || math.IsNaN(p.Zoom) || math.IsInf(p.Zoom, 0) {
		return p, fmt.Errorf("%w: zoom must be positive, got %v", ErrInvalidState, p.Zoom)
	}
	if !inPercent(p.X) || !inPercent(p.Y) {
		return p, fmt.Errorf("%w: position (%v, %v) outside 0–100", ErrInvalidState, p.X, p.Y)
	}
	p.Fill = layout.ParseFillMode(string(p.Fill))
	return p, nil
}

func validateText(t TextState) (TextState, error) {
	if t.FontSize <= 0 {
		return t, fmt.Errorf("%w: font size must be positive, got %d", ErrInvalidState, t.FontSize)
	}
	if !inPercent(t.Vertical) {
		return t, fmt.Errorf("%w: vertical position %v outside 0–100", ErrInvalidState, t.Vertical)
	}
	t.Align = layout.ParseAlign(string(t.Align))
	if t.Color == "" {
		t.Color = compositor.DefaultCaption.Color
	}
	return t, nil
}

func inPercent(v float64) bool {
	return v >= 0 && v <= 100
}
