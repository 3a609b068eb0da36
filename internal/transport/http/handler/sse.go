package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redibo/rental-api/internal/infrastructure/sse"
	"github.com/redibo/rental-api/internal/transport/http/middleware"
)

// SSEHandler opens long-lived event streams and hands them to the registry.
type SSEHandler struct {
	registry *sse.Registry
}

func NewSSEHandler(registry *sse.Registry) *SSEHandler {
	return &SSEHandler{registry: registry}
}

// Connect opens the caller's event stream.
func (h *SSEHandler) Connect(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.serve(w, r, claims.UserID)
}

// ConnectAs opens the stream named in the path. A user may only open
// their own stream.
func (h *SSEHandler) ConnectAs(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID := chi.URLParam(r, "usuarioId")
	if userID != claims.UserID {
		writeError(w, http.StatusForbidden, "cannot open another user's stream")
		return
	}
	h.serve(w, r, userID)
}

type flushWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func (fw flushWriter) Write(p []byte) (int, error) { return fw.w.Write(p) }
func (fw flushWriter) Flush()                      { fw.f.Flush() }

func (h *SSEHandler) serve(w http.ResponseWriter, r *http.Request, userID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	// Disable buffering in nginx so frames reach the client immediately.
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// The greeting goes out before registration so no dispatched frame can
	// interleave with it: once registered, all writes go through the registry.
	fmt.Fprintf(w, "event: conectado\ndata: {\"id\":%q}\n\n", userID)
	flusher.Flush()

	conn := h.registry.Register(userID, flushWriter{w: w, f: flusher})
	defer h.registry.Release(conn)

	// Block until the client goes away or a newer connection for the same
	// user supersedes this one. All writes happen through the registry.
	select {
	case <-r.Context().Done():
	case <-conn.Done():
	}
}
