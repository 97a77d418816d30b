package controllers

import "net/http"

// Health reports that the process is serving requests
func Health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
