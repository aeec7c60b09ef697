// render.go — Load a design's images and draw it.
package design

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/instapost/pkg/compositor"
	"github.com/xob0t/instapost/pkg/enhance"
	"github.com/xob0t/instapost/pkg/imageload"
)

// Renderer draws designs. Photos are always sharpened; a mockup frame that
// fails to load is skipped with a warning.
type Renderer struct {
	Loader     imageload.Loader
	Compositor *compositor.Compositor
	Log        *logrus.Entry
}

// Draw loads photo and mockup (either may be zero) and paints the post.
func (r *Renderer) Draw(ctx context.Context, d *Design, photo, mockup imageload.Source) (*image.RGBA, error) {
	log := r.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	var img image.Image
	if !photo.IsZero() {
		loaded, err := r.Loader.Load(ctx, photo)
		if err != nil {
			return nil, err
		}
		img = enhance.EnhanceOrOriginal(loaded, log.WithField("image", photo.String()))
	}

	var frame image.Image
	if !mockup.IsZero() {
		loaded, err := r.Loader.Load(ctx, mockup)
		if err != nil {
			log.WithError(err).Warn("Mockup unavailable, rendering without frame")
		} else {
			frame = loaded
		}
	}

	out, err := r.Compositor.Draw(d.Input(img, frame))
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return out, nil
}
