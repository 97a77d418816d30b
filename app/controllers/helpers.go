package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"inkpress/app/views"

	log "github.com/sirupsen/logrus"
)

// response is the JSON envelope of API answers.
type response struct {
	Message string `json:"message"`
	Error   any    `json:"error,omitempty"`
}

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Errorf("[controllers] failed to encode response: %v", err)
	}
}

// errorDetail returns the serialisable form of err. Errors that know how to
// marshal themselves keep their structure; others become their message.
func errorDetail(err error) any {
	var m json.Marshaler
	if errors.As(err, &m) {
		return m
	}
	return err.Error()
}

func sendHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Debugf("[controllers] failed to write response: %v", err)
	}
}

// renderStatus renders one of the error pages, falling back to plain text
// when the template itself fails.
func renderStatus(w http.ResponseWriter, tmpl *views.Templates, status int) {
	name := views.Error
	if status == http.StatusNotFound {
		name = views.NotFound
	}

	body, err := tmpl.Render(name, views.ErrorPage{})
	if err != nil {
		log.Errorf("[controllers] failed to render %s page: %v", name, err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	sendHTML(w, status, body)
}

// APINotFound answers unrouted API paths
func APINotFound(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusNotFound, response{Message: "Not found"})
}
