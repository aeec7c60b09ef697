// Package enhance sharpens uploaded photos before they are placed on a post.
package enhance

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/instapost/pkg/generator"
)

// Enhanced is a sharpened image and its JPEG encoding.
type Enhanced struct {
	Image *image.NRGBA
	Data  []byte
}

// Sharpen applies the 3×3 kernel
//
//	 0 -1  0
//	-1  5 -1
//	 0 -1  0
//
// to the R, G and B channels of every interior pixel. Border pixels and the
// alpha channel are copied unchanged. The input is never modified.
func Sharpen(src image.Image) *image.NRGBA {
	in := imaging.Clone(src)
	out := imaging.Clone(in)

	w, h := in.Rect.Dx(), in.Rect.Dy()
	if w < 3 || h < 3 {
		return out
	}

	stride := in.Stride
	for y := 1; y < h-1; y++ {
		row := y * stride
		for x := 1; x < w-1; x++ {
			i := row + x*4
			for c := 0; c < 3; c++ {
				v := 5*int(in.Pix[i+c]) -
					int(in.Pix[i+c-4]) -
					int(in.Pix[i+c+4]) -
					int(in.Pix[i+c-stride]) -
					int(in.Pix[i+c+stride])
				out.Pix[i+c] = clamp(v)
			}
		}
	}
	return out
}

func clamp(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Enhance sharpens img and encodes the result as a high quality JPEG.
func Enhance(img image.Image) (*Enhanced, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("enhance: empty image")
	}

	sharp := Sharpen(img)
	data, err := generator.EncodeJPEG(sharp, generator.EnhanceQuality)
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}
	return &Enhanced{Image: sharp, Data: data}, nil
}

// EnhanceOrOriginal returns the sharpened image, or img itself when enhancement
// fails. Failures are logged and never returned.
func EnhanceOrOriginal(img image.Image, log *logrus.Entry) image.Image {
	e, err := Enhance(img)
	if err != nil {
		if log != nil {
			log.WithError(err).Warn("Enhancement failed, using original image")
		}
		return img
	}
	return e.Image
}
