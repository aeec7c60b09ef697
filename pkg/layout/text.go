// text.go — Caption wrapping and vertical placement.
package layout

import (
	"fmt"
	"strings"
)

const (
	// LineHeightFactor is the line advance as a multiple of the font size.
	LineHeightFactor = 1.2
	// SideMargin is the distance of left/right anchored text from the canvas edge.
	SideMargin = 40
	// BottomPadding keeps the last caption line clear of the canvas bottom.
	BottomPadding = 100
)

// Align is the horizontal caption alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// ParseAlign maps a user string to an Align. Unknown values fall back to center.
func ParseAlign(s string) Align {
	switch Align(strings.ToLower(strings.TrimSpace(s))) {
	case AlignLeft:
		return AlignLeft
	case AlignRight:
		return AlignRight
	default:
		return AlignCenter
	}
}

// AnchorX returns the x coordinate text lines are anchored at.
func AnchorX(a Align, canvasW float64) float64 {
	switch a {
	case AlignLeft:
		return SideMargin
	case AlignRight:
		return canvasW - SideMargin
	default:
		return canvasW / 2
	}
}

// AnchorRatio is the horizontal anchor used when drawing a line at AnchorX:
// 0 means the line starts at the anchor, 1 means it ends there.
func AnchorRatio(a Align) float64 {
	switch a {
	case AlignLeft:
		return 0
	case AlignRight:
		return 1
	default:
		return 0.5
	}
}

// MaxTextWidth is the usable caption width for a canvas.
func MaxTextWidth(canvasW float64) float64 {
	return canvasW - 2*SideMargin
}

// MeasureFunc returns the rendered width of s in pixels.
type MeasureFunc func(s string) float64

// LayoutText upper-cases text and greedily wraps it into lines no wider than
// maxWidth. Words are never split; a word wider than maxWidth gets its own line.
func LayoutText(text string, maxWidth float64, measure MeasureFunc) []string {
	words := strings.Fields(strings.ToUpper(text))
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if measure(candidate) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// Block is the vertical geometry of a wrapped caption.
type Block struct {
	Top        float64 // y of the first line's top edge
	LineHeight float64
	Lines      int
}

// Height is the total height of all lines.
func (b Block) Height() float64 { return float64(b.Lines) * b.LineHeight }

// Bottom is the y of the last line's bottom edge.
func (b Block) Bottom() float64 { return b.Top + b.Height() }

// LineCenter returns the vertical center of line i.
func (b Block) LineCenter(i int) float64 {
	return b.Top + float64(i)*b.LineHeight + b.LineHeight/2
}

// TextBlock centers lines around verticalPct of the canvas height and pulls the
// block up when its bottom would pass canvasH-bottomPadding.
func TextBlock(lines int, fontSize, canvasH, verticalPct, bottomPadding float64) Block {
	if fontSize <= 0 || canvasH <= 0 {
		panic(fmt.Sprintf("layout: invalid text block font=%v canvas height=%v", fontSize, canvasH))
	}

	b := Block{LineHeight: fontSize * LineHeightFactor, Lines: lines}
	b.Top = canvasH*verticalPct/100 - b.Height()/2

	if limit := canvasH - bottomPadding; b.Bottom() > limit {
		b.Top = limit - b.Height()
	}
	return b
}
