// fonts.go - Caption font loading with custom TTF support and an embedded bold fallback.
// Uses golang.org/x/image/font/opentype. The parsed font is shared; faces are
// not safe for concurrent use, so every render creates its own.
package compositor

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// FontManager handles font loading with fallback.
type FontManager struct {
	parsed *opentype.Font
}

// NewFontManager creates a font manager with the specified font.
// If customPath is empty or unreadable, uses the embedded Go Bold font.
func NewFontManager(customPath string) (*FontManager, error) {
	var fontData []byte

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			logrus.WithError(err).WithField("path", customPath).Warn("Could not load custom font, using default")
		} else {
			fontData = data
		}
	}

	if fontData == nil {
		fontData = gobold.TTF
	}

	parsed, err := opentype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	return &FontManager{parsed: parsed}, nil
}

// NewFace returns a face whose em size is sizePx pixels (72 DPI, so points = pixels).
// The caller owns the face and should Close it.
func (fm *FontManager) NewFace(sizePx float64) (font.Face, error) {
	face, err := opentype.NewFace(fm.parsed, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}
