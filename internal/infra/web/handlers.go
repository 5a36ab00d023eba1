package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"docchat-service/internal/domain"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "docchat",
		"status":  "running",
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessions.Create(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setSessionCookie(w, id)
	writeJSON(w, http.StatusCreated, map[string]any{"session_id": id})
}

func (s *Server) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	id := resolveSessionID(r)
	if id == "" {
		s.writeError(w, r, domain.ErrSessionNotFound)
		return
	}
	info, err := s.sessions.Info(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := resolveSessionID(r)
	if id == "" {
		s.writeError(w, r, fmt.Errorf("%w: session id required", domain.ErrInvalidArgument))
		return
	}
	deleted, err := s.sessions.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id, created, err := s.resolveOrCreate(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Cap the request body before parsing; the engine re-validates the
	// decoded size anyway.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: multipart form required: %v", domain.ErrInvalidArgument, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: file field required", domain.ErrInvalidArgument))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: read upload: %v", domain.ErrInternal, err))
		return
	}

	res, err := s.ingest.Ingest(r.Context(), id, data, header.Filename)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":      id,
		"session_created": created,
		"filename":        res.Filename,
		"chunk_count":     res.ChunkCount,
		"ready":           res.Ready,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	id, created, err := s.resolveOrCreate(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: json body with question required", domain.ErrInvalidArgument))
		return
	}

	answer, err := s.query.Ask(r.Context(), id, body.Question)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":      id,
		"session_created": created,
		"answer":          answer,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := "ok"
	reaperHealthy := s.reaper == nil || s.reaper.Healthy()
	if !reaperHealthy {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          status,
		"active_sessions": st.Active,
		"total_sessions":  st.Total,
		"reaper_healthy":  reaperHealthy,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := s.sessions.Cleanup(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// resolveOrCreate returns a live session id, creating one when nothing
// resolves or the resolved id is stale.
func (s *Server) resolveOrCreate(w http.ResponseWriter, r *http.Request) (string, bool, error) {
	if id := resolveSessionID(r); id != "" && s.sessions.Validate(r.Context(), id) {
		return id, false, nil
	}
	id, err := s.sessions.Create(r.Context())
	if err != nil {
		return "", false, err
	}
	setSessionCookie(w, id)
	return id, true, nil
}

// resolveSessionID checks, in order: query parameter, header, cookie.
func resolveSessionID(r *http.Request) string {
	if id := r.URL.Query().Get(sessionQueryKey); id != "" {
		return id
	}
	if id := r.Header.Get(sessionHeaderKey); id != "" {
		return id
	}
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cookieLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps engine errors to HTTP statuses. Every failure carries a
// human-readable reason.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	if errors.Is(err, domain.ErrLockTimeout) || errors.Is(err, domain.ErrRateLimited) {
		w.Header().Set("Retry-After", "2")
	}
	writeJSON(w, code, map[string]any{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrEmptyFile),
		errors.Is(err, domain.ErrUnsupportedType),
		errors.Is(err, domain.ErrNoDocument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrExtraction),
		errors.Is(err, domain.ErrIndexBuild):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrLockTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
