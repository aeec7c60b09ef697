// Package config loads service settings from .env files and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/instapost/pkg/imageload"
	"github.com/xob0t/instapost/pkg/storage"
)

type Config struct {
	Listen      string
	LogLevel    string
	LogFormat   string // "text" or "json"
	UploadLimit int64
	Debounce    time.Duration
	FontPath    string
	WebhookURL  string
	MockupURL   string   // seeds the settings record when it is unset
	RemoteHosts []string // hosts clients may point image URLs at

	Storage storage.Config

	SettingsDriver string
	SettingsDSN    string
}

// Load reads .env and .env.local when present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	c := Config{
		Listen:      getenv("INSTAPOST_LISTEN", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "text"),
		UploadLimit: imageload.DefaultUploadLimit,
		FontPath:    os.Getenv("FONT_PATH"),
		WebhookURL:  os.Getenv("WEBHOOK_URL"),
		MockupURL:   os.Getenv("MOCKUP_URL"),
		Storage: storage.Config{
			Type:          getenv("STORAGE_TYPE", "memory"),
			LocalPath:     getenv("LOCAL_STORAGE_PATH", "./data"),
			PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
			Bucket:        os.Getenv("S3_BUCKET_NAME"),
		},
		SettingsDriver: getenv("SETTINGS_DRIVER", "memory"),
	}

	if v := os.Getenv("UPLOAD_LIMIT_MB"); v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil || mb <= 0 {
			return c, fmt.Errorf("UPLOAD_LIMIT_MB: invalid value %q", v)
		}
		c.UploadLimit = mb << 20
	}

	if v := os.Getenv("DEBOUNCE_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return c, fmt.Errorf("DEBOUNCE_MS: invalid value %q", v)
		}
		c.Debounce = time.Duration(ms) * time.Millisecond
	}

	for _, h := range strings.Split(os.Getenv("REMOTE_IMAGE_HOSTS"), ",") {
		if h = strings.TrimSpace(h); h != "" {
			c.RemoteHosts = append(c.RemoteHosts, h)
		}
	}

	switch c.SettingsDriver {
	case "sqlite":
		c.SettingsDSN = getenv("DATA_SOURCE_NAME", "instapost.db")
	case "postgres":
		c.SettingsDSN = os.Getenv("DATABASE_URL")
	}

	return c, nil
}

// SetupLogging configures the standard logrus logger.
func SetupLogging(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	logrus.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
