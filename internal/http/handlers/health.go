package handlers

import "net/http"

// Health reports liveness. It never touches the SMS provider.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
