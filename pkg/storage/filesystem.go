package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Filesystem stores objects as files under a root directory.
type Filesystem struct {
	root    string
	baseURL string
}

// NewFilesystem creates root if needed. Without baseURL, URLs are file:// paths.
func NewFilesystem(root, baseURL string) (*Filesystem, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = "file://" + filepath.ToSlash(abs)
	}
	return &Filesystem{root: abs, baseURL: baseURL}, nil
}

func (s *Filesystem) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *Filesystem) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	p := s.path(key)
	log := logrus.WithFields(logrus.Fields{"key": key, "file_path": p})

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		log.WithError(err).Error("Failed to create object directory")
		return "", err
	}

	// Write to a temp file first so readers never see a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		log.WithError(err).Error("Failed to store object")
		return "", err
	}

	log.Info("Object stored")
	return publicURL(s.baseURL, key), nil
}

func (s *Filesystem) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("get %s: %w", key, ErrNotFound)
	}
	return data, err
}

func (s *Filesystem) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
