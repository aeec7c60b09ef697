// mockup.go — Process-wide cache of decoded mockup frames, keyed by URL.
package editor

import (
	"context"
	"image"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/instapost/pkg/imageload"
)

// MockupCache holds decoded mockup frames. Entries are written at most once
// per URL in the common case; a concurrent duplicate fetch overwrites with an
// equal bitmap, which is harmless.
type MockupCache struct {
	loader imageload.Loader

	mu     sync.RWMutex
	frames map[string]image.Image
}

// NewMockupCache creates an empty cache that fetches through loader.
func NewMockupCache(loader imageload.Loader) *MockupCache {
	return &MockupCache{loader: loader, frames: make(map[string]image.Image)}
}

// Cached returns the frame for url if it is already decoded.
func (m *MockupCache) Cached(url string) (image.Image, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.frames[url]
	return img, ok
}

// Get returns the frame for url, fetching and decoding it on first use.
// An empty url means no mockup and returns (nil, nil).
func (m *MockupCache) Get(ctx context.Context, url string) (image.Image, error) {
	if url == "" {
		return nil, nil
	}
	if img, ok := m.Cached(url); ok {
		return img, nil
	}

	img, err := m.loader.Load(ctx, imageload.Source{URL: url})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.frames[url] = img
	m.mu.Unlock()

	logrus.WithField("url", url).Debug("Mockup frame cached")
	return img, nil
}

// Forget drops url from the cache, e.g. after the configured frame changed.
func (m *MockupCache) Forget(url string) {
	m.mu.Lock()
	delete(m.frames, url)
	m.mu.Unlock()
}
