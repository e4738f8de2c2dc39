// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"docsign-service/internal/domain"
)

// DocumentReader loads persisted documents.
type DocumentReader interface {
	GetDocumentView(ctx context.Context, documentID string) (*domain.DocumentView, error)
}

// DocumentSender distributes created documents to their recipients.
type DocumentSender interface {
	SendForSigning(ctx context.Context, documentID string) (*domain.DistributionResult, error)
}

// DocumentHandler handles document-related HTTP requests
type DocumentHandler struct {
	responder
	documents DocumentReader
	sender    DocumentSender
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents DocumentReader, sender DocumentSender, logger domain.Logger, production bool) *DocumentHandler {
	return &DocumentHandler{
		responder: responder{logger: logger, production: production},
		documents: documents,
		sender:    sender,
	}
}

// GetDocument handles GET /api/v1/documents/{id}.
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]
	if documentID == "" {
		writeError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	view, err := h.documents.GetDocumentView(r.Context(), documentID)
	if err != nil {
		h.writeServiceError(w, "Failed to load document", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SendDocument handles POST /api/v1/documents/{id}/send.
func (h *DocumentHandler) SendDocument(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["id"]
	if documentID == "" {
		writeError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	result, err := h.sender.SendForSigning(r.Context(), documentID)
	if err != nil {
		h.writeServiceError(w, "Failed to send document", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
