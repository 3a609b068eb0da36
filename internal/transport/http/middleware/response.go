package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError is the error writer shared by the auth and rate-limit
// middleware. The body shape matches the handler layer's error envelope.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
