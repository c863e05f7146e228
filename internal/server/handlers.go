package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	werrors "github.com/matzehuels/waterfall/pkg/errors"
	"github.com/matzehuels/waterfall/pkg/layout"
	"github.com/matzehuels/waterfall/pkg/photo"
	"github.com/matzehuels/waterfall/pkg/photoapi"
	"github.com/matzehuels/waterfall/pkg/thumbs"
)

type errorBody struct {
	Code    werrors.Code `json:"code"`
	Message string       `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"items":  len(s.view.Items()),
		"refs":   s.resolver.Refs().Len(),
	})
}

// handleLayout answers GET /api/layout?width=&scrollbar=.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	vp, err := parseViewport(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.view.Resize(r.Context(), vp)
	if err != nil {
		s.respondError(w, werrors.Wrap(werrors.ErrCodeInvalidViewport, err, "layout for width %v", vp.Width))
		return
	}
	s.respondJSON(w, http.StatusOK, res.Document())
}

// handleBlob answers GET /blob/{ref}. The ref may be given with or without
// the blob: scheme.
func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(chi.URLParam(r, "ref"), thumbs.RefScheme)
	if err := werrors.ValidateRef(token); err != nil {
		s.respondError(w, err)
		return
	}
	data, ok := s.resolver.Refs().Get(thumbs.RefScheme + token)
	if !ok {
		s.respondError(w, werrors.New(werrors.ErrCodeBlobNotFound, "no blob for reference %s", token))
		return
	}
	writeImage(w, data, "private, max-age=3600")
}

// handlePhoto answers GET /api/photos/{id}/{tier}.
func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := werrors.ValidatePhotoID(id); err != nil {
		s.respondError(w, err)
		return
	}
	tier, err := photo.ParseTier(chi.URLParam(r, "tier"))
	if err != nil {
		s.respondError(w, werrors.Wrap(werrors.ErrCodeInvalidTier, err, "photo %s", id))
		return
	}

	data, outcome, err := s.resolver.Tier(r.Context(), id, tier)
	if err != nil {
		s.respondError(w, classify(err, "photo %s/%s", id, tier))
		return
	}
	w.Header().Set("X-Cache", outcome.String())
	writeImage(w, data, "private, max-age=86400")
}

func parseViewport(r *http.Request) (layout.Viewport, error) {
	q := r.URL.Query()
	raw := q.Get("width")
	if raw == "" {
		return layout.Viewport{}, werrors.New(werrors.ErrCodeInvalidViewport, "width is required")
	}
	width, err := strconv.ParseFloat(raw, 64)
	if err != nil || width <= 0 {
		return layout.Viewport{}, werrors.New(werrors.ErrCodeInvalidViewport, "width must be a positive number, got %q", raw)
	}
	vp := layout.Viewport{Width: width}
	if raw := q.Get("scrollbar"); raw != "" {
		sb, err := strconv.ParseFloat(raw, 64)
		if err != nil || sb < 0 {
			return layout.Viewport{}, werrors.New(werrors.ErrCodeInvalidViewport, "scrollbar must be a non-negative number, got %q", raw)
		}
		vp.ScrollbarWidth = sb
	}
	return vp, nil
}

// classify attaches a code to a photo service error.
func classify(err error, format string, args ...any) error {
	var code werrors.Code
	switch {
	case errors.Is(err, photoapi.ErrNotFound):
		code = werrors.ErrCodePhotoNotFound
	case errors.Is(err, photoapi.ErrUnauthorized):
		code = werrors.ErrCodeUnauthorized
	case errors.Is(err, photoapi.ErrUnavailable):
		code = werrors.ErrCodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = werrors.ErrCodeTimeout
	case errors.Is(err, photoapi.ErrNetwork):
		code = werrors.ErrCodeNetwork
	case errors.Is(err, thumbs.ErrNoID):
		code = werrors.ErrCodeInvalidPhotoID
	default:
		code = werrors.ErrCodeInternal
	}
	return werrors.Wrap(code, err, format, args...)
}

func writeImage(w http.ResponseWriter, data []byte, cacheControl string) {
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", cacheControl)
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // HTTP response write errors are not recoverable
	w.Write(data)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // HTTP response write errors are not recoverable
	w.Write(data)
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := werrors.HTTPStatus(err)
	code := werrors.GetCode(err)
	if code == "" {
		code = werrors.ErrCodeInternal
	}
	if status >= 500 {
		s.logger.Error("request failed", "code", code, "err", err)
	} else {
		s.logger.Debug("request rejected", "code", code, "err", err)
	}
	s.respondJSON(w, status, errorBody{Code: code, Message: werrors.UserMessage(err)})
}
