// Package delivery posts finished posts to the outbound publishing webhook.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Payload is the JSON document the publishing webhook consumes.
type Payload struct {
	Type      string    `json:"type"`
	Timestamp string    `json:"timestamp"`
	Content   Content   `json:"content"`
	Visual    Visual    `json:"visual"`
	Instagram Instagram `json:"instagram"`
}

type Content struct {
	Title string `json:"title"`
}

type Visual struct {
	ImageURL      string   `json:"image_url"`
	TextSize      int      `json:"text_size"`
	TextAlign     string   `json:"text_align"`
	ImageZoom     float64  `json:"image_zoom"`
	ImagePosition Position `json:"image_position"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Instagram struct {
	Caption  string    `json:"caption"`
	Schedule *Schedule `json:"schedule,omitempty"`
}

// Schedule is a publication slot: Date "YYYY-MM-DD", Time "HH:mm".
type Schedule struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// NewPayload returns an instagram payload stamped with now.
func NewPayload(now time.Time, title string, visual Visual, ig Instagram) Payload {
	return Payload{
		Type:      "instagram",
		Timestamp: now.UTC().Format(time.RFC3339),
		Content:   Content{Title: title},
		Visual:    visual,
		Instagram: ig,
	}
}

// Error is a non-2xx webhook response.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook returned %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook returned %d: %s", e.StatusCode, e.Body)
}

const maxErrorBody = 512

// Client delivers payloads with a single POST. Failures are returned, never retried.
type Client struct {
	URL  string
	HTTP *http.Client
}

// NewClient creates a client for url with a 15s timeout.
func NewClient(url string) *Client {
	return &Client{URL: url, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

// Deliver posts p as JSON.
func (c *Client) Deliver(ctx context.Context, p Payload) error {
	if c.URL == "" {
		return fmt.Errorf("deliver: webhook URL not configured")
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("deliver: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("deliver: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("deliver: %w", err)
	}
	defer resp.Body.Close()

	log := logrus.WithFields(logrus.Fields{"status": resp.StatusCode, "title": p.Content.Title})
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn("Webhook rejected post")
		return &Error{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	io.Copy(io.Discard, resp.Body)
	log.Info("Post delivered")
	return nil
}
