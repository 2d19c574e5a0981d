package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/middleware/trace"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

// writeError maps the domain error taxonomy onto HTTP status codes:
// validation 422, not found 404, conflict 409, store unavailable 503.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, core.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= 500 {
		op := applog.OpRead
		switch r.Method {
		case http.MethodPost:
			op = applog.OpCreate
		case http.MethodPut:
			op = applog.OpUpdate
		case http.MethodDelete:
			op = applog.OpDelete
		}
		fields := applog.NewFields().
			WithRequestID(trace.GetRequestID(r.Context())).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "")
		applog.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, fields)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
