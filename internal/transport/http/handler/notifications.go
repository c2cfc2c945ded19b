package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/go-commerce-api/internal/application/notification"
	"github.com/go-commerce-api/internal/pkg/validate"
	"github.com/go-commerce-api/internal/transport/http/middleware"
)

// NotificationHandler exposes the per-user inbox endpoints.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List returns a page of the caller's inbox, newest first by default.
// Query params: page (1-based), limit, sort (asc|desc).
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	descending := !strings.EqualFold(r.URL.Query().Get("sort"), "asc")

	items, total, err := h.svc.ListForRecipient(r.Context(), claims.UserID, page, limit, descending)
	if err != nil {
		httpError(w, err)
		return
	}
	if limit < 1 {
		limit = len(items)
		if limit == 0 {
			limit = 1
		}
	}
	maxPage := (total + limit - 1) / limit
	if maxPage < 1 {
		maxPage = 1
	}
	writeJSON(w, http.StatusOK, PaginatedNotificationsEnvelope{
		MaxPage:    maxPage,
		ActualPage: page,
		PerPage:    limit,
		Total:      total,
		Data:       items,
	})
}

// MarkRead flags a single notification as read. The record must belong
// to the caller.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	notificationID := chi.URLParam(r, "notificationID")
	n, err := h.svc.MarkRead(r.Context(), claims.UserID, notificationID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// MarkAllRead flags every unread notification of the caller and
// returns how many were flipped.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	count, err := h.svc.MarkAllRead(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: count})
}

// DeleteAll removes every notification addressed to the caller.
func (h *NotificationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	count, err := h.svc.DeleteAll(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: count})
}

type deleteSelectedRequest struct {
	NotificationIDs []string `json:"ids" validate:"required,min=1"`
}

// DeleteSelected removes the listed notifications. IDs that do not
// exist or belong to another user are skipped, not errors.
func (h *NotificationHandler) DeleteSelected(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req deleteSelectedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	count, err := h.svc.DeleteSelected(r.Context(), claims.UserID, req.NotificationIDs)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: count})
}
