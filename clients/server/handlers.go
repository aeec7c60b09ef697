package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/instapost/pkg/compositor"
	"github.com/xob0t/instapost/pkg/delivery"
	"github.com/xob0t/instapost/pkg/editor"
	"github.com/xob0t/instapost/pkg/imageload"
	"github.com/xob0t/instapost/pkg/layout"
	"github.com/xob0t/instapost/pkg/publish"
	"github.com/xob0t/instapost/pkg/settings"
	"github.com/xob0t/instapost/pkg/storage"
)

type ctxKey struct{}

func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.get(chi.URLParam(r, "id"))
		if !ok {
			renderError(w, r, http.StatusNotFound, "session not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *session {
	return r.Context().Value(ctxKey{}).(*session)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"status": "ok", "sessions": s.sessions.count()})
}

// ── Sessions ──

func (s *Server) mockupURL(ctx context.Context) string {
	url, err := settings.Lookup(ctx, s.opts.Settings, settings.MockupURLKey, s.opts.MockupURL)
	if err != nil {
		logrus.WithError(err).Warn("Could not read mockup setting, continuing without frame")
		return ""
	}
	return url
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := newSessionID()
	ctrl := editor.New(editor.Options{
		Canvas:     s.opts.Canvas,
		Loader:     s.opts.Loader,
		Compositor: s.opts.Compositor,
		Mockups:    s.opts.Mockups,
		MockupURL:  s.mockupURL(r.Context()),
		Debounce:   s.opts.Debounce,
		Enhance:    s.opts.Enhance,
		Logger:     logrus.WithField("session", id),
	})
	s.sessions.add(id, ctrl)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{
		"id":          id,
		"canvas":      ctrl.Canvas(),
		"uploadLimit": humanize.IBytes(uint64(s.opts.UploadLimit)),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, sessionFrom(r).Ctrl.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.remove(sessionFrom(r).ID)
	w.WriteHeader(http.StatusNoContent)
}

// ── Image ──

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	limit := s.opts.UploadLimit

	// Multipart framing needs a little room beyond the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			renderError(w, r, http.StatusRequestEntityTooLarge, "file exceeds upload limit of "+humanize.IBytes(uint64(limit)))
			return
		}
		renderError(w, r, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "no file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	contentType := header.Header.Get("Content-Type")
	if err := imageload.CheckUpload(header.Filename, contentType, header.Size, limit, data); err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	snap := sess.Ctrl.Snapshot()
	err = sess.Ctrl.UpdateImage(r.Context(), editor.ImageState{
		Source:    imageload.Source{Data: data, Name: header.Filename, ContentType: contentType},
		Placement: snap.Placement,
	})
	if err != nil {
		s.renderEditError(w, r, err)
		return
	}
	render.JSON(w, r, sess.Ctrl.Snapshot())
}

type imagePatch struct {
	URL  string   `json:"url"` // optional data URL, or https URL on an allowed host, replacing the photo
	Zoom *float64 `json:"zoom"`
	X    *float64 `json:"x"`
	Y    *float64 `json:"y"`
	Fill *string  `json:"fill"`
}

func (s *Server) handlePatchImage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var p imagePatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	place := sess.Ctrl.Snapshot().Placement
	if p.Zoom != nil {
		place.Zoom = *p.Zoom
	}
	if p.X != nil {
		place.X = *p.X
	}
	if p.Y != nil {
		place.Y = *p.Y
	}
	if p.Fill != nil {
		place.Fill = layout.FillMode(*p.Fill)
	}

	st := editor.ImageState{Placement: place}
	if p.URL != "" {
		if err := imageload.CheckRemoteURL(p.URL, s.opts.RemoteHosts); err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		st.Source = imageload.Source{URL: p.URL}
	}
	if err := sess.Ctrl.UpdateImage(r.Context(), st); err != nil {
		s.renderEditError(w, r, err)
		return
	}
	render.JSON(w, r, sess.Ctrl.Snapshot())
}

// ── Text ──

type textPatch struct {
	Content  *string  `json:"content"`
	FontSize *int     `json:"fontSize"`
	Vertical *float64 `json:"vertical"`
	Align    *string  `json:"align"`
	Color    *string  `json:"color"`
}

func (s *Server) handlePatchText(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var p textPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	t := sess.Ctrl.Snapshot().Text
	if p.Content != nil {
		t.Content = *p.Content
	}
	if p.FontSize != nil {
		t.FontSize = *p.FontSize
	}
	if p.Vertical != nil {
		t.Vertical = *p.Vertical
	}
	if p.Align != nil {
		t.Align = layout.Align(*p.Align)
	}
	if p.Color != nil {
		t.Color = *p.Color
	}

	if err := sess.Ctrl.UpdateText(t); err != nil {
		s.renderEditError(w, r, err)
		return
	}
	render.JSON(w, r, sess.Ctrl.Snapshot())
}

// ── Output ──

type previewResponse struct {
	DataURL  string `json:"dataUrl"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	HasImage bool   `json:"hasImage"`
}

// handlePreview returns the latest render as JPEG, or as JSON with a data URL
// when called with ?format=json.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	res := sessionFrom(r).Ctrl.Latest()
	if res == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.URL.Query().Get("format") == "json" {
		w.Header().Set("Cache-Control", "no-store")
		render.JSON(w, r, previewResponse{
			DataURL:  res.DataURL(),
			Width:    res.Width,
			Height:   res.Height,
			HasImage: res.HasImage,
		})
		return
	}
	writeImage(w, res, "")
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	res, err := sessionFrom(r).Ctrl.Continue(r.Context())
	if err != nil {
		s.renderEditError(w, r, err)
		return
	}
	writeImage(w, res, "")
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	res, err := sessionFrom(r).Ctrl.Continue(r.Context())
	if err != nil {
		s.renderEditError(w, r, err)
		return
	}
	writeImage(w, res, "instagram-post.jpg")
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req publish.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		renderError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := sess.Ctrl.Continue(r.Context())
	if err != nil {
		s.renderEditError(w, r, err)
		return
	}

	payload, err := s.opts.Publisher.Publish(r.Context(), res, sess.Ctrl.Snapshot(), req)
	if err != nil {
		var de *delivery.Error
		var ve *publish.ValidationError
		switch {
		case errors.As(err, &ve):
			renderError(w, r, http.StatusUnprocessableEntity, err.Error())
		case errors.As(err, &de):
			renderError(w, r, http.StatusBadGateway, "publishing webhook failed: "+err.Error())
		default:
			logrus.WithError(err).WithField("session", sess.ID).Error("Publish failed")
			renderError(w, r, http.StatusBadGateway, "publish failed: "+err.Error())
		}
		return
	}
	render.JSON(w, r, payload)
}

func writeImage(w http.ResponseWriter, res *compositor.Result, attachment string) {
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	if attachment != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+attachment+`"`)
	}
	io.Copy(w, bytes.NewReader(res.Data))
}

// renderEditError maps editor and loader errors to status codes.
func (s *Server) renderEditError(w http.ResponseWriter, r *http.Request, err error) {
	var le *imageload.ImageLoadError
	var ue *imageload.UploadError
	switch {
	case errors.Is(err, editor.ErrInvalidState), errors.As(err, &ue):
		renderError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &le):
		renderError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, editor.ErrNoImage):
		renderError(w, r, http.StatusUnprocessableEntity, "upload an image first")
	case errors.Is(err, editor.ErrSuperseded):
		renderError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, editor.ErrClosed):
		renderError(w, r, http.StatusGone, err.Error())
	default:
		logrus.WithError(err).Error("Editor operation failed")
		renderError(w, r, http.StatusInternalServerError, err.Error())
	}
}

// ── Media ──

// handleMedia serves a published image from the post store.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	data, err := s.opts.Publisher.Store.Get(r.Context(), key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logrus.WithError(err).WithField("key", key).Warn("Could not read published image")
		}
		renderError(w, r, http.StatusNotFound, "not found")
		return
	}

	ct := mime.TypeByExtension(path.Ext(key))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}

// ── Settings ──

func (s *Server) handleGetMockup(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"url": s.mockupURL(r.Context())})
}

func (s *Server) handlePutMockup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if req.URL != "" {
		if err := imageload.CheckRemoteURL(req.URL, s.opts.RemoteHosts); err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	old := s.mockupURL(r.Context())
	if err := s.opts.Settings.Set(r.Context(), settings.MockupURLKey, req.URL); err != nil {
		logrus.WithError(err).Error("Failed to save mockup setting")
		renderError(w, r, http.StatusInternalServerError, "could not save setting")
		return
	}
	if old != req.URL {
		s.opts.Mockups.Forget(old)
		s.sessions.each(func(sess *session) { sess.Ctrl.SetMockupURL(req.URL) })
	}
	render.JSON(w, r, map[string]string{"url": req.URL})
}
