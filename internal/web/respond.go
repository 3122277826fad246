package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sunwoojg/carelink/internal/client/api"
)

// errorBody is the uniform error envelope the dashboard returns.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the client error taxonomy onto HTTP statuses:
// validation failures are 400 with per-field detail, revoked auth is 401,
// transport trouble is 502, backend errors keep their original status.
func writeError(w http.ResponseWriter, err error) {
	var ve *api.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: ve.Fields})
		return
	}
	if errors.Is(err, api.ErrAuthRevoked) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "session expired"})
		return
	}
	if errors.Is(err, api.ErrUnavailable) {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "backend unavailable"})
		return
	}
	var ae *api.APIError
	if errors.As(err, &ae) {
		writeJSON(w, ae.StatusCode, errorBody{Error: ae.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
}

// decodeStrict decodes a JSON request body rejecting unknown fields.
func decodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
