package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-commerce-api/internal/application/device"
	"github.com/go-commerce-api/internal/pkg/validate"
	"github.com/go-commerce-api/internal/transport/http/middleware"
)

// DeviceHandler handles device-registration endpoints.
type DeviceHandler struct {
	svc device.Service
}

func NewDeviceHandler(svc device.Service) *DeviceHandler { return &DeviceHandler{svc: svc} }

type registerDeviceRequest struct {
	Token string `json:"token" validate:"required,min=10"`
}

// Register associates a push token with the authenticated caller,
// replacing any previously registered token.
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Register(r.Context(), claims.UserID, req.Token); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "device registered"})
}
