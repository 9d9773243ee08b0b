package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError renders the service error envelope. Handlers have their own
// richer version; middleware only ever needs the short form.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
