// Package editor holds one post-editing session: the photo, its placement, the
// caption, debounced re-rendering and the final hand-off.
package editor

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/instapost/pkg/compositor"
	"github.com/xob0t/instapost/pkg/enhance"
	"github.com/xob0t/instapost/pkg/imageload"
	"github.com/xob0t/instapost/pkg/layout"
)

const (
	// DefaultDebounce is the quiet period after the last edit before re-rendering.
	DefaultDebounce = 150 * time.Millisecond

	backgroundRenderTimeout = 30 * time.Second
)

// Options configures a Controller. Loader and Compositor are required.
type Options struct {
	Canvas     layout.CanvasSpec
	Loader     imageload.Loader
	Compositor *compositor.Compositor
	Mockups    *MockupCache
	MockupURL  string
	Debounce   time.Duration
	Enhance    bool // sharpen photos after decode
	Logger     *logrus.Entry
	OnRender   func(*compositor.Result) // called after every debounced render
}

// Controller mediates edits, debounced renders and the final render of one session.
// All methods are safe for concurrent use.
type Controller struct {
	opts Options
	log  *logrus.Entry

	mu        sync.Mutex
	place     compositor.Placement
	text      TextState
	source    imageload.Source
	sourceKey string
	wantKey   string // source of the latest request, committed or in flight
	bitmap    image.Image
	gen       uint64 // latest requested image load
	placeRev  uint64 // bumps on placement-only edits
	rev       uint64 // bumps on every applied edit
	timer     *time.Timer
	closed    bool
	latest    *compositor.Result
	latestRev uint64
	renders   int

	renderMu sync.Mutex
}

// New creates a controller with empty state.
func New(opts Options) *Controller {
	if opts.Canvas.Width <= 0 || opts.Canvas.Height <= 0 {
		opts.Canvas = layout.DefaultCanvas
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Controller{
		opts:  opts,
		log:   log,
		place: compositor.DefaultPlacement,
		text:  compositor.DefaultCaption,
	}
}

// Canvas returns the session's fixed output size.
func (c *Controller) Canvas() layout.CanvasSpec { return c.opts.Canvas }

// UpdateImage applies placement changes and, when st.Source differs from the
// current photo, decodes the new photo first. Load errors leave the previous
// state untouched. If another UpdateImage with a new source starts while this
// one is decoding, this call returns ErrSuperseded and its bitmap is dropped.
func (c *Controller) UpdateImage(ctx context.Context, st ImageState) error {
	place, err := validatePlacement(st.Placement)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	key := st.Source.Key()
	if !st.Source.IsZero() && key == c.sourceKey && c.wantKey != key {
		// Back to the current photo while another one decodes: drop that load.
		c.gen++
		c.wantKey = key
	}
	if st.Source.IsZero() || key == c.sourceKey {
		c.place = place
		c.placeRev++
		c.rev++
		c.scheduleLocked()
		c.mu.Unlock()
		return nil
	}

	c.gen++
	c.wantKey = key
	gen := c.gen
	placeRev := c.placeRev
	c.mu.Unlock()

	log := c.log.WithFields(logrus.Fields{"source": st.Source.String(), "generation": gen})
	img, err := c.decode(ctx, st.Source, log)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if gen != c.gen {
		log.Debug("Discarding superseded image load")
		return ErrSuperseded
	}
	if err != nil {
		c.wantKey = c.sourceKey
		log.WithError(err).Warn("Image load failed, keeping previous image")
		return err
	}

	c.source = st.Source
	c.sourceKey = key
	c.bitmap = img
	if c.placeRev == placeRev {
		c.place = place
	}
	c.rev++
	c.scheduleLocked()

	log.WithFields(logrus.Fields{
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	}).Info("Image loaded")
	return nil
}

func (c *Controller) decode(ctx context.Context, src imageload.Source, log *logrus.Entry) (image.Image, error) {
	img, err := c.opts.Loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	if c.opts.Enhance {
		img = enhance.EnhanceOrOriginal(img, log)
	}
	return img, nil
}

// UpdateText replaces the caption and schedules a render.
func (c *Controller) UpdateText(st TextState) error {
	st, err := validateText(st)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.text = st
	c.rev++
	c.scheduleLocked()
	return nil
}

// SetMockupURL switches the overlay frame; an empty url removes it.
func (c *Controller) SetMockupURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opts.MockupURL == url || c.closed {
		return
	}
	c.opts.MockupURL = url
	c.rev++
	c.scheduleLocked()
}

// scheduleLocked (re)arms the debounce timer. Callers hold c.mu.
func (c *Controller) scheduleLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.opts.Debounce, c.fire)
}

func (c *Controller) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundRenderTimeout)
	defer cancel()

	res, err := c.render(ctx)
	if err != nil {
		return
	}
	if c.opts.OnRender != nil {
		c.opts.OnRender(res)
	}
}

// Continue cancels any pending debounced render, renders the current state
// immediately and returns it. A decoded photo is required.
func (c *Controller) Continue(ctx context.Context) (*compositor.Result, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	hasImage := c.bitmap != nil
	c.mu.Unlock()

	if !hasImage {
		return nil, ErrNoImage
	}
	return c.render(ctx)
}

// render draws the state as of now. Renders are serialised; a failed render
// keeps the previous result.
func (c *Controller) render(ctx context.Context) (*compositor.Result, error) {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	in := compositor.Input{
		Canvas: c.opts.Canvas,
		Image:  c.bitmap,
		Place:  c.place,
		Text:   c.text,
	}
	rev := c.rev
	mockupURL := c.opts.MockupURL
	c.mu.Unlock()

	if c.opts.Mockups != nil && mockupURL != "" {
		m, err := c.opts.Mockups.Get(ctx, mockupURL)
		if err != nil {
			c.log.WithError(err).WithField("url", mockupURL).Warn("Mockup frame unavailable, rendering without it")
		}
		in.Mockup = m
	}

	res, err := c.opts.Compositor.Render(in)
	if err != nil {
		c.log.WithError(err).Error("Render failed, keeping previous result")
		return nil, fmt.Errorf("render: %w", err)
	}

	c.mu.Lock()
	if rev >= c.latestRev {
		c.latest = res
		c.latestRev = rev
	}
	c.renders++
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"revision": rev, "bytes": len(res.Data), "hasImage": res.HasImage}).Debug("Rendered")
	return res, nil
}

// Latest returns the most recent composition, or nil before the first render.
func (c *Controller) Latest() *compositor.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Placement:  c.place,
		Text:       c.text,
		HasImage:   c.bitmap != nil,
		Generation: c.gen,
		Revision:   c.rev,
		Renders:    c.renders,
	}
	if !c.source.IsZero() {
		s.Source = c.source.String()
	}
	return s
}

// Close stops pending renders and rejects further edits.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.closed = true
	c.bitmap = nil
}
