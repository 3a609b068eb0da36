package handler

import "net/http"

// HealthHandler handles liveness endpoints.
type HealthHandler struct {
	connected func() []string
}

func NewHealthHandler(connected func() []string) *HealthHandler {
	return &HealthHandler{connected: connected}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
}

// Status reports process health plus the live event-stream connections.
func (h *HealthHandler) Status(w http.ResponseWriter, _ *http.Request) {
	users := h.connected()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "ok",
		"conexionesActivas":  len(users),
		"usuariosConectados": users,
	})
}
