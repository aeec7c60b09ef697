package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Memory keeps objects in process memory.
type Memory struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory creates an empty store. URLs are baseURL/key, or memory://key without a base.
func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: baseURL, objects: make(map[string][]byte)}
}

func (m *Memory) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.objects[key] = buf
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{"key": key, "data_length": len(data)}).Debug("Object stored in memory")
	if m.baseURL == "" {
		return "memory://" + key, nil
	}
	return publicURL(m.baseURL, key), nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, ErrNotFound)
	}
	return data, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}
