// Package publish hands a finished post to the publishing pipeline: it
// validates the caption and schedule, uploads the image and calls the webhook.
package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/instapost/pkg/compositor"
	"github.com/xob0t/instapost/pkg/delivery"
	"github.com/xob0t/instapost/pkg/editor"
	"github.com/xob0t/instapost/pkg/storage"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// MaxCaption is Instagram's caption length limit.
	MaxCaption = 2200
)

// Request is what the user fills in on the publish step.
type Request struct {
	Title    string             `json:"title"`
	Caption  string             `json:"caption"`
	Schedule *delivery.Schedule `json:"schedule,omitempty"`
}

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks required fields and the schedule format. An all-empty
// schedule means publish immediately.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if strings.TrimSpace(r.Caption) == "" {
		return &ValidationError{Field: "caption", Reason: "required"}
	}
	if n := len([]rune(r.Caption)); n > MaxCaption {
		return &ValidationError{Field: "caption", Reason: fmt.Sprintf("%d characters, limit is %d", n, MaxCaption)}
	}

	s := r.Schedule
	if s == nil || (s.Date == "" && s.Time == "") {
		r.Schedule = nil
		return nil
	}
	if s.Date == "" || s.Time == "" {
		return &ValidationError{Field: "schedule", Reason: "date and time must both be set"}
	}
	if _, err := time.Parse(dateLayout, s.Date); err != nil {
		return &ValidationError{Field: "schedule.date", Reason: "expected YYYY-MM-DD"}
	}
	if _, err := time.Parse(timeLayout, s.Time); err != nil {
		return &ValidationError{Field: "schedule.time", Reason: "expected HH:mm"}
	}
	return nil
}

// Publisher uploads finished posts and notifies the webhook.
type Publisher struct {
	Store    storage.Store
	Delivery *delivery.Client
	Now      func() time.Time
}

// Publish validates req, stores res under posts/ and delivers the payload
// describing it. The payload is returned on success; when delivery fails the
// stored image is removed again.
func (p *Publisher) Publish(ctx context.Context, res *compositor.Result, snap editor.Snapshot, req Request) (*delivery.Payload, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if res == nil || len(res.Data) == 0 {
		return nil, editor.ErrNoImage
	}

	key := storage.NewKey("posts", ".jpg")
	log := logrus.WithFields(logrus.Fields{"key": key, "title": req.Title})

	url, err := p.Store.Put(ctx, key, res.ContentType, res.Data)
	if err != nil {
		log.WithError(err).Error("Upload failed")
		return nil, fmt.Errorf("upload post: %w", err)
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	payload := delivery.NewPayload(now(), req.Title,
		delivery.Visual{
			ImageURL:      url,
			TextSize:      snap.Text.FontSize,
			TextAlign:     string(snap.Text.Align),
			ImageZoom:     snap.Placement.Zoom,
			ImagePosition: delivery.Position{X: snap.Placement.X, Y: snap.Placement.Y},
		},
		delivery.Instagram{Caption: req.Caption, Schedule: req.Schedule},
	)

	if err := p.Delivery.Deliver(ctx, payload); err != nil {
		// A retry uploads under a new key; this one would be orphaned.
		if derr := p.Store.Delete(ctx, key); derr != nil {
			log.WithError(derr).Warn("Could not remove undelivered post")
		}
		return nil, err
	}

	log.WithField("url", url).Info("Post published")
	return &payload, nil
}
