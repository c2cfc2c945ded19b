package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-commerce-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// AuthEnvelope wraps login/refresh responses.
type AuthEnvelope struct {
	AccessToken  string          `json:"access_token,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Session      *domain.Session `json:"session,omitempty"`
	User         *domain.User    `json:"user,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// SessionEnvelope wraps current-session responses.
type SessionEnvelope struct {
	Session *domain.Session `json:"session,omitempty"`
	User    *domain.User    `json:"user,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// PaginatedNotificationsEnvelope wraps paginated inbox list responses.
type PaginatedNotificationsEnvelope struct {
	MaxPage    int                   `json:"max_page"`
	ActualPage int                   `json:"actual_page"`
	PerPage    int                   `json:"per_page"`
	Total      int                   `json:"total"`
	Data       []domain.Notification `json:"data"`
	Error      string                `json:"error,omitempty"`
}

// SendResultEnvelope reports the outcome of a batch or broadcast send:
// count is the number of recipients targeted, success the number whose
// push delivery actually succeeded.
type SendResultEnvelope struct {
	Count   int `json:"count"`
	Success int `json:"success"`
}

// CountEnvelope wraps bulk-mutation responses.
type CountEnvelope struct {
	Count int `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to HTTP status codes.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
