// writer.go — File writers.
package generator

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
)

// writePNG encodes img to a PNG file at the given path.
func writePNG(output string, img image.Image) error {
	return writeFile(output, img, imaging.PNG)
}

// writeJPEG encodes img to a JPEG file at the given path.
func writeJPEG(output string, img image.Image, q int) error {
	return writeFile(output, img, imaging.JPEG, imaging.JPEGQuality(q))
}

func writeFile(output string, img image.Image, format imaging.Format, opts ...imaging.EncodeOption) error {
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer f.Close()

	if err := imaging.Encode(f, img, format, opts...); err != nil {
		return fmt.Errorf("encode %s: %w", output, err)
	}
	return f.Sync()
}
