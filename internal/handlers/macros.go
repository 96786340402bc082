package handlers

import (
	"chatcord-backend/internal/apperr"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// fail reports err with the status of its kind. Store errors are logged
// and their details never reach the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	switch kind {
	case apperr.Store:
		h.sugar.Errorw(err.Error(), "requestID", requestIDFrom(r.Context()), "path", r.URL.Path)
		http.Error(w, "", status)
		return
	case apperr.Unauthorized:
		h.metrics.Unauthorized.WithLabelValues(r.URL.Path).Inc()
	}

	h.sugar.Debugw(err.Error(), "requestID", requestIDFrom(r.Context()), "path", r.URL.Path)
	http.Error(w, err.Error(), status)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, v any) {
	err := writeJSON(w, v)
	if err != nil {
		h.sugar.Errorw(err.Error(), "requestID", requestIDFrom(r.Context()), "path", r.URL.Path)
	}
}

// parseID reads a required numeric ID from the query string.
func parseID(r *http.Request, param string) (int64, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return 0, apperr.Newf(apperr.Validation, "No %s was specified", param)
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Newf(apperr.Validation, "Invalid %s", param)
	}
	return id, nil
}

func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		return apperr.Wrap(err, apperr.Validation, fmt.Sprintf("Malformed request body: %v", err))
	}
	return nil
}
