package domain

import "context"

// Remote document statuses reported by the signature provider.
const (
	RemoteStatusDraft     = "DRAFT"
	RemoteStatusPending   = "PENDING"
	RemoteStatusCompleted = "COMPLETED"
	RemoteStatusRejected  = "REJECTED"
)

// Remote per-recipient signing statuses.
const (
	RemoteSigningNotSigned = "NOT_SIGNED"
	RemoteSigningSigned    = "SIGNED"
	RemoteSigningRejected  = "REJECTED"
)

// RecipientInput is a recipient as supplied to the provider on creation.
type RecipientInput struct {
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	Role         RecipientRole `json:"role"`
	SigningOrder int           `json:"signingOrder"`
}

// CreateRemoteDocumentInput carries everything the provider needs to open a document.
type CreateRemoteDocumentInput struct {
	Title        string
	Reference    string
	Recipients   []RecipientInput
	SigningOrder SigningOrder
}

// RemoteRecipient is a recipient as confirmed by the provider.
type RemoteRecipient struct {
	ID            string        `json:"recipientId"`
	Email         string        `json:"email"`
	Name          string        `json:"name"`
	Role          RecipientRole `json:"role"`
	SigningOrder  int           `json:"signingOrder"`
	SigningStatus string        `json:"signingStatus,omitempty"`
}

// CreatedRemoteDocument is the provider's answer to a create call.
type CreatedRemoteDocument struct {
	DocumentID string            `json:"documentId"`
	UploadURL  string            `json:"uploadUrl"`
	Recipients []RemoteRecipient `json:"recipients"`
}

// RemoteField is a field as submitted to (and echoed back by) the provider.
// RecipientID holds the provider's recipient id.
type RemoteField struct {
	ID          string    `json:"id,omitempty"`
	RecipientID string    `json:"recipientId"`
	Type        FieldType `json:"type"`
	PageNumber  int       `json:"pageNumber"`
	PageX       float64   `json:"pageX"`
	PageY       float64   `json:"pageY"`
	PageWidth   float64   `json:"pageWidth"`
	PageHeight  float64   `json:"pageHeight"`
}

// DistributionResult is returned when a document is sent to its recipients.
type DistributionResult struct {
	Status     string `json:"status"`
	ExternalID string `json:"externalId"`
}

// RemoteDocument is the provider's current view of a document.
type RemoteDocument struct {
	ID         string            `json:"id"`
	Status     string            `json:"status"`
	Recipients []RemoteRecipient `json:"recipients"`
}

// SignatureProvider is the capability surface of the remote e-signature service.
type SignatureProvider interface {
	Create(ctx context.Context, input CreateRemoteDocumentInput) (*CreatedRemoteDocument, error)
	Upload(ctx context.Context, uploadURL string, binary []byte, contentType string) error
	CreateFields(ctx context.Context, documentID string, fields []RemoteField) ([]RemoteField, error)
	Distribute(ctx context.Context, documentID string) (*DistributionResult, error)
	Get(ctx context.Context, documentID string) (*RemoteDocument, error)
}
