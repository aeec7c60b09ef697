// Package server provides the instapost editing service: one editor session
// per post, live previews, final render, download and publishing.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/instapost/pkg/compositor"
	"github.com/xob0t/instapost/pkg/config"
	"github.com/xob0t/instapost/pkg/delivery"
	"github.com/xob0t/instapost/pkg/editor"
	"github.com/xob0t/instapost/pkg/imageload"
	"github.com/xob0t/instapost/pkg/layout"
	"github.com/xob0t/instapost/pkg/publish"
	"github.com/xob0t/instapost/pkg/settings"
	"github.com/xob0t/instapost/pkg/storage"
)

const (
	sessionIdle   = 30 * time.Minute
	sweepInterval = time.Minute
)

// Options wires a Server. Loader, Compositor, Settings and Publisher are required.
type Options struct {
	Canvas      layout.CanvasSpec
	Loader      imageload.Loader
	Compositor  *compositor.Compositor
	Mockups     *editor.MockupCache
	Settings    settings.Store
	Publisher   *publish.Publisher
	UploadLimit int64
	Debounce    time.Duration
	Enhance     bool
	MockupURL   string   // used when the settings record is unset
	RemoteHosts []string // hosts image URLs may be fetched from
}

// Server holds the editing sessions.
type Server struct {
	opts     Options
	sessions *sessionManager
}

// New creates a server with no sessions.
func New(opts Options) *Server {
	if opts.UploadLimit <= 0 {
		opts.UploadLimit = imageload.DefaultUploadLimit
	}
	if opts.Canvas.Width <= 0 || opts.Canvas.Height <= 0 {
		opts.Canvas = layout.DefaultCanvas
	}
	if opts.Mockups == nil {
		opts.Mockups = editor.NewMockupCache(opts.Loader)
	}
	return &Server{opts: opts, sessions: newSessionManager()}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger,
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "X-Requested-With"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/settings/mockup", func(r chi.Router) {
			r.Get("/", s.handleGetMockup)
			r.Put("/", s.handlePutMockup)
		})

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/image", s.handleUploadImage)
			r.Patch("/image", s.handlePatchImage)
			r.Patch("/text", s.handlePatchText)
			r.Get("/preview", s.handlePreview)
			r.Post("/continue", s.handleContinue)
			r.Get("/download", s.handleDownload)
			r.Post("/publish", s.handlePublish)
		})
	})

	// Published images, for stores without a public endpoint of their own.
	r.Get("/media/*", s.handleMedia)

	return r
}

// sweep runs until ctx is done, closing idle sessions.
func (s *Server) sweep(ctx context.Context) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sessions.sweep(sessionIdle)
		}
	}
}

// Close ends every session.
func (s *Server) Close() {
	s.sessions.closeAll()
}

// RunServe builds the service from cfg and serves until SIGINT/SIGTERM.
func RunServe(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comp, err := compositor.New(cfg.FontPath)
	if err != nil {
		return err
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	st, err := settings.Open(ctx, cfg.SettingsDriver, cfg.SettingsDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.WebhookURL == "" {
		logrus.Warn("WEBHOOK_URL is not set, publishing will fail")
	}

	loader := imageload.NewLoader(cfg.UploadLimit)
	s := New(Options{
		Loader:      loader,
		Compositor:  comp,
		Mockups:     editor.NewMockupCache(loader),
		Settings:    st,
		Publisher:   &publish.Publisher{Store: store, Delivery: delivery.NewClient(cfg.WebhookURL)},
		UploadLimit: cfg.UploadLimit,
		Debounce:    cfg.Debounce,
		Enhance:     true,
		MockupURL:   cfg.MockupURL,
		RemoteHosts: cfg.RemoteHosts,
	})
	defer s.Close()
	go s.sweep(ctx)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.Listen).Info("instapost listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs one line per request through logrus.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logrus.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("Request")
	})
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}
