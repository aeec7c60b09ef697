// Package storage uploads rendered posts to object storage and returns their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("storage: object not found")

// Store is an object store with public URLs.
type Store interface {
	// Put stores data under key and returns the URL it is reachable at.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewKey returns a unique, time-sortable key such as "posts/01hx….jpg".
func NewKey(prefix, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(prefix, strings.ToLower(ulid.Make().String())+ext)
}

// checkKey rejects keys that could escape the store root.
func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || path.Clean(key) != key {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return fmt.Errorf("storage: invalid key %q", key)
		}
	}
	return nil
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// Config selects and configures a backend.
type Config struct {
	Type          string // "memory" (default), "filesystem" or "s3"
	LocalPath     string
	PublicBaseURL string
	Bucket        string
}

// New opens the backend named by cfg.Type.
func New(ctx context.Context, cfg Config) (Store, error) {
	fields := logrus.Fields{"storageType": cfg.Type}

	var (
		store Store
		err   error
	)
	switch cfg.Type {
	case "filesystem":
		if cfg.LocalPath == "" {
			cfg.LocalPath = "./data"
		}
		fields["basePath"] = cfg.LocalPath
		store, err = NewFilesystem(cfg.LocalPath, cfg.PublicBaseURL)
	case "s3":
		if cfg.Bucket == "" {
			return nil, errors.New("storage: S3_BUCKET_NAME must be set for s3 storage")
		}
		fields["bucketName"] = cfg.Bucket
		store, err = NewS3(ctx, cfg.Bucket, cfg.PublicBaseURL)
	default:
		fields["storageType"] = "in-memory"
		store = NewMemory(cfg.PublicBaseURL)
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(fields).Info("Use storage")
	return store, nil
}
