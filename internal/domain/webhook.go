package domain

import "strings"

// Provider webhook event names.
const (
	EventDocumentCreated   = "DOCUMENT_CREATED"
	EventDocumentSent      = "DOCUMENT_SENT"
	EventDocumentSigned    = "DOCUMENT_SIGNED"
	EventDocumentCompleted = "DOCUMENT_COMPLETED"
	EventDocumentRejected  = "DOCUMENT_REJECTED"
)

// ProviderWebhook is the body pushed by the signature provider.
type ProviderWebhook struct {
	Event   string                 `json:"event" validate:"required"`
	Payload ProviderWebhookPayload `json:"payload"`
}

// ProviderWebhookPayload identifies a recipient or document by provider id.
type ProviderWebhookPayload struct {
	ID         string            `json:"id" validate:"required"`
	Status     string            `json:"status"`
	Recipients []RemoteRecipient `json:"recipients,omitempty"`
}

// RendererWebhook is the body pushed by the rendering/delivery service.
// Error is set on failure; Status and DocumentID on success.
type RendererWebhook struct {
	ExternalID string `json:"externalId" validate:"required"`
	Status     string `json:"status"`
	DocumentID string `json:"documentId"`
	Error      string `json:"error"`
}

// MapRemoteDocumentStatus maps a document-level provider status onto a
// recipient status. Unrecognized values map to StatusSentForSignature.
func MapRemoteDocumentStatus(status string) RecipientStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case RemoteStatusDraft:
		return StatusCreated
	case RemoteStatusPending:
		return StatusSentForSignature
	case RemoteStatusCompleted:
		return StatusSigned
	case RemoteStatusRejected:
		return StatusRejected
	default:
		return StatusSentForSignature
	}
}

// MapProviderEvent maps a provider event to a recipient status. When the
// event is unknown the payload status decides.
func MapProviderEvent(event, status string) RecipientStatus {
	switch strings.ToUpper(strings.TrimSpace(event)) {
	case EventDocumentCreated:
		return StatusCreated
	case EventDocumentSent:
		return StatusSentForSignature
	case EventDocumentSigned:
		return StatusWaitingForCounterparty
	case EventDocumentCompleted:
		return StatusSigned
	case EventDocumentRejected:
		return StatusRejected
	default:
		return MapRemoteDocumentStatus(status)
	}
}

// MapSignerStatus returns the status implied by a recipient-level signing
// status, and false when the signer has not reached a decision.
func MapSignerStatus(signingStatus string) (RecipientStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(signingStatus)) {
	case RemoteSigningSigned:
		return StatusSigned, true
	case RemoteSigningRejected:
		return StatusRejected, true
	default:
		return "", false
	}
}

// MapRendererStatus maps the renderer webhook vocabulary onto a recipient status.
func MapRendererStatus(status string) RecipientStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "draft":
		return StatusCreated
	case "pending":
		return StatusSentForSignature
	case "completed":
		return StatusSigned
	case "rejected":
		return StatusRejected
	default:
		return StatusSentForSignature
	}
}
