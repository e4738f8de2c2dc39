package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"docsign-service/internal/domain"
)

// StatusSynchronizer applies pushed and pulled status updates.
type StatusSynchronizer interface {
	HandleProviderWebhook(ctx context.Context, event *domain.ProviderWebhook) ([]*domain.Recipient, error)
	HandleRendererWebhook(ctx context.Context, event *domain.RendererWebhook) ([]*domain.Recipient, error)
	ReconcileAs(ctx context.Context, recipientID, email string) (*domain.Recipient, error)
}

type successResponse struct {
	Success bool `json:"success"`
}

// WebhookHandler receives provider and renderer callbacks.
type WebhookHandler struct {
	responder
	status StatusSynchronizer
}

func NewWebhookHandler(status StatusSynchronizer, logger domain.Logger, production bool) *WebhookHandler {
	return &WebhookHandler{
		responder: responder{logger: logger, production: production},
		status:    status,
	}
}

// Provider handles POST /api/v1/webhooks/provider.
func (h *WebhookHandler) Provider(w http.ResponseWriter, r *http.Request) {
	var event domain.ProviderWebhook
	if err := decodeJSON(w, r, &event); err != nil {
		h.writeServiceError(w, "Invalid provider webhook", err)
		return
	}

	if _, err := h.status.HandleProviderWebhook(r.Context(), &event); err != nil {
		h.writeServiceError(w, "Provider webhook failed", err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Renderer handles POST /api/v1/webhooks/renderer.
func (h *WebhookHandler) Renderer(w http.ResponseWriter, r *http.Request) {
	var event domain.RendererWebhook
	if err := decodeJSON(w, r, &event); err != nil {
		h.writeServiceError(w, "Invalid renderer webhook", err)
		return
	}

	if _, err := h.status.HandleRendererWebhook(r.Context(), &event); err != nil {
		h.writeServiceError(w, "Renderer webhook failed", err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// SignatureHandler serves the user-facing reconciliation action.
type SignatureHandler struct {
	responder
	status StatusSynchronizer
}

func NewSignatureHandler(status StatusSynchronizer, logger domain.Logger, production bool) *SignatureHandler {
	return &SignatureHandler{
		responder: responder{logger: logger, production: production},
		status:    status,
	}
}

// ConfirmSignature handles POST /api/v1/recipients/{id}/confirm-signature.
func (h *SignatureHandler) ConfirmSignature(w http.ResponseWriter, r *http.Request) {
	recipientID := mux.Vars(r)["id"]
	if recipientID == "" {
		writeError(w, http.StatusBadRequest, "Recipient ID is required")
		return
	}

	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	h.logger.Info("Signature confirmation requested", "recipient_id", recipientID, "user_id", user.ID)

	// Users only confirm recipients addressed to their own email.
	recipient, err := h.status.ReconcileAs(r.Context(), recipientID, user.Email)
	if err != nil {
		h.writeServiceError(w, "Signature confirmation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, recipient)
}
