package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aprendia/aprendia-lms/internal/assess"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainErr maps attempt-engine errors onto HTTP statuses. Policy
// violations are 409 so clients can distinguish them from bad requests;
// persistence failures are 502 so clients keep their snapshot and retry.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assess.ErrTestNotFound), errors.Is(err, assess.ErrAttemptNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, assess.ErrTestNotPublished):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, assess.ErrAttemptsExhausted),
		errors.Is(err, assess.ErrAttemptAlreadySubmitted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, assess.ErrPersistence):
		http.Error(w, "persistence failure", http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
