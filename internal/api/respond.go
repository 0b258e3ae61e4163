package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/logger"
)

// statusFor maps an error kind to an HTTP status
func statusFor(err error) int {
	if errors.Is(err, apperr.ErrInvalidCredentials) {
		return http.StatusUnauthorized
	}
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.InvalidState:
		return http.StatusConflict
	case apperr.Validation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and writes it as an error response.
// Internal failures are logged and their details hidden.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(action, "Request failed", logger.RequestIDFromContext(r.Context()), err, map[string]interface{}{
			"path": r.URL.Path,
		})
		message = "Internal server error"
	}
	s.writeErrorResponse(w, r, status, message, apperr.CodeOf(err))
}

// writeErrorResponse writes an error response in JSON format
func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message, code string) {
	response := map[string]interface{}{
		"error":      message,
		"code":       code,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": logger.RequestIDFromContext(r.Context()),
	}
	s.writeJSON(w, r, statusCode, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response_encode_failed", "Failed to encode response", logger.RequestIDFromContext(r.Context()), err, nil)
	}
}

// decodeJSON reads a JSON body into v, rejecting unknown fields
func decodeJSON(r *http.Request, v interface{}) error {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		return invalidRequest("Content-Type must be application/json")
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return invalidRequest(fmt.Sprintf("Invalid JSON format: %v", err))
	}
	return nil
}

func invalidRequest(message string) error {
	return &apperr.Error{Kind: apperr.Validation, Code: "InvalidRequest", Message: message}
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidRequest(fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}

// queryTime parses an optional RFC3339 timestamp or YYYY-MM-DD date. A date
// used as an upper bound covers the whole day.
func queryTime(r *http.Request, name string, endOfDay bool) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, invalidRequest(fmt.Sprintf("%s must be RFC3339 or YYYY-MM-DD", name))
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Nanosecond), nil
	}
	return day, nil
}
