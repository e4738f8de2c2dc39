package handler

import (
	"context"
	"net/http"
	"strconv"

	"docsign-service/internal/domain"
	"docsign-service/internal/service"
)

// PageCountHeader carries the page count of the generated artifact.
const PageCountHeader = "X-Page-Count"

// DocumentGenerator renders content and opens it for signing.
type DocumentGenerator interface {
	Generate(ctx context.Context, in service.GenerateInput) (*service.GenerationResult, error)
}

// GenerationHandler serves the generation endpoint.
type GenerationHandler struct {
	responder
	generator DocumentGenerator
}

func NewGenerationHandler(generator DocumentGenerator, logger domain.Logger, production bool) *GenerationHandler {
	return &GenerationHandler{
		responder: responder{logger: logger, production: production},
		generator: generator,
	}
}

type recipientRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
	Role  string `json:"role" validate:"omitempty,oneof=SIGNER APPROVER REVIEWER VIEWER CC signer approver reviewer viewer cc"`
}

type generateRequest struct {
	Content    string             `json:"content" validate:"required"`
	Title      string             `json:"title" validate:"required"`
	Recipients []recipientRequest `json:"recipients" validate:"required,min=1,dive"`
	Reference  string             `json:"reference" validate:"required"`
}

type generateResponse struct {
	DocumentID string              `json:"documentId"`
	ExternalID string              `json:"externalId"`
	PageCount  int                 `json:"pageCount"`
	Existing   bool                `json:"existing"`
	Recipients []*domain.Recipient `json:"recipients"`
	Fields     []*domain.Field     `json:"fields"`
}

// Generate handles POST /api/v1/documents/generate.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeServiceError(w, "Invalid generation request", err)
		return
	}

	in := service.GenerateInput{
		Content:   req.Content,
		Title:     req.Title,
		Reference: req.Reference,
	}
	for _, rc := range req.Recipients {
		in.Recipients = append(in.Recipients, domain.RecipientInput{
			Email: rc.Email,
			Name:  rc.Name,
			Role:  domain.RecipientRole(rc.Role),
		})
	}

	res, err := h.generator.Generate(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, "Document generation failed", err)
		return
	}

	w.Header().Set(PageCountHeader, strconv.Itoa(res.PageCount))
	writeJSON(w, http.StatusOK, generateResponse{
		DocumentID: res.View.Document.ID,
		ExternalID: res.View.Document.ExternalID,
		PageCount:  res.PageCount,
		Existing:   res.Existing,
		Recipients: res.View.Recipients,
		Fields:     res.View.Fields,
	})
}
