package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-commerce-api/internal/application/push"
	"github.com/go-commerce-api/internal/pkg/validate"
)

type pushOrchestrator interface {
	SendBatch(ctx context.Context, req push.SendRequest) (*push.BatchResult, error)
	Broadcast(ctx context.Context, filter map[string]interface{}, req push.SendRequest) (*push.BatchResult, error)
}

// PushHandler exposes the admin send/broadcast surface.
type PushHandler struct {
	orchestrator pushOrchestrator
}

func NewPushHandler(orchestrator pushOrchestrator) *PushHandler {
	return &PushHandler{orchestrator: orchestrator}
}

type sendRequest struct {
	RecipientIDs []string               `json:"recipient_ids" validate:"required,min=1"`
	Title        string                 `json:"title" validate:"required"`
	Body         string                 `json:"body" validate:"required"`
	Data         map[string]interface{} `json:"data"`
	Status       string                 `json:"status" validate:"omitempty,oneof=none active important"`
	Type         string                 `json:"type"`
	SendPush     *bool                  `json:"send_push"`
	Priority     string                 `json:"priority" validate:"omitempty,oneof=high normal"`
	TTLSeconds   int                    `json:"ttl_seconds" validate:"omitempty,min=0"`
}

type broadcastRequest struct {
	Filter     map[string]interface{} `json:"filter"`
	Title      string                 `json:"title" validate:"required"`
	Body       string                 `json:"body" validate:"required"`
	Data       map[string]interface{} `json:"data"`
	Status     string                 `json:"status" validate:"omitempty,oneof=none active important"`
	Type       string                 `json:"type"`
	SendPush   *bool                  `json:"send_push"`
	Priority   string                 `json:"priority" validate:"omitempty,oneof=high normal"`
	TTLSeconds int                    `json:"ttl_seconds" validate:"omitempty,min=0"`
}

// Send persists a notification per recipient and pushes to the devices
// that have a registered token.
func (h *PushHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sendPush := true
	if req.SendPush != nil {
		sendPush = *req.SendPush
	}
	result, err := h.orchestrator.SendBatch(r.Context(), push.SendRequest{
		RecipientIDs: req.RecipientIDs,
		Title:        req.Title,
		Body:         req.Body,
		Data:         req.Data,
		Status:       req.Status,
		Type:         req.Type,
		SendPush:     sendPush,
		Priority:     req.Priority,
		TTLSeconds:   req.TTLSeconds,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SendResultEnvelope{
		Count:   len(result.Notifications),
		Success: result.Delivered,
	})
}

// Broadcast resolves recipients by attribute filter and fans out to them.
// An empty filter targets every enabled, opted-in user.
func (h *PushHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sendPush := true
	if req.SendPush != nil {
		sendPush = *req.SendPush
	}
	result, err := h.orchestrator.Broadcast(r.Context(), req.Filter, push.SendRequest{
		Title:      req.Title,
		Body:       req.Body,
		Data:       req.Data,
		Status:     req.Status,
		Type:       req.Type,
		SendPush:   sendPush,
		Priority:   req.Priority,
		TTLSeconds: req.TTLSeconds,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SendResultEnvelope{
		Count:   len(result.Notifications),
		Success: result.Delivered,
	})
}
