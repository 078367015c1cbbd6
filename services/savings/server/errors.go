package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"esusu/native/savings"
	"esusu/services/savings/chain"
)

var (
	errNotFound    = errors.New("not found")
	errUnavailable = errors.New("snapshot not yet available")

	errTooManyRequests = errors.New("too many requests")
)

func errMissing(what string) error {
	return fmt.Errorf("server: %s required", what)
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", savings.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, savings.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, errUnavailable), errors.Is(err, chain.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", w.Header().Get(requestIDHeader),
			"error", err)
	}
	writeJSONError(w, status, err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	payload, marshalErr := json.Marshal(map[string]string{"error": message})
	if marshalErr != nil {
		payload = []byte(fmt.Sprintf("{\"error\":%q}", http.StatusText(status)))
	}
	_, _ = w.Write(payload)
}
