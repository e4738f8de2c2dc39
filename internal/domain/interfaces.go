package domain

import (
	"context"
	"time"
)

// RenderResult is the artifact produced from markup.
type RenderResult struct {
	Binary    []byte
	PageCount int
}

// Renderer turns markup into a paginated binary document.
type Renderer interface {
	Render(ctx context.Context, content string) (*RenderResult, error)
}

// ArtifactArchive keeps a copy of every rendered artifact.
type ArtifactArchive interface {
	Put(ctx context.Context, key string, binary []byte, contentType string) error
}

// SigningRepository persists Documents, Recipients and Fields.
type SigningRepository interface {
	// SaveDocument writes a document with all of its recipients and fields.
	SaveDocument(ctx context.Context, doc *Document, recipients []*Recipient, fields []*Field) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	FindDocumentByReference(ctx context.Context, reference string) (*Document, error)
	FindDocumentByExternalID(ctx context.Context, externalID string) (*Document, error)
	ListRecipients(ctx context.Context, documentID string) ([]*Recipient, error)
	ListFields(ctx context.Context, documentID string) ([]*Field, error)
	GetRecipient(ctx context.Context, id string) (*Recipient, error)
	FindRecipientByExternalID(ctx context.Context, externalID string) (*Recipient, error)
	// UpdateRecipientStatus sets the status to next only if it still equals
	// expected, and returns ErrStatusConflict otherwise.
	UpdateRecipientStatus(ctx context.Context, id string, expected, next RecipientStatus) (*Recipient, error)
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetEnvironment() string
	IsProduction() bool
	GetLogLevel() string

	GetSupabaseURL() string
	GetSupabaseKey() string

	GetGenerationSecret() string
	GetProviderWebhookSecret() string
	GetRendererWebhookSecret() string

	GetESignAPIURL() string
	GetESignAPIKey() string
	GetSigningOrder() SigningOrder
	GetReviewer() *RecipientInput
	GetLastPageOnly() bool

	GetBrowserBin() string
	GetContentTimeout() time.Duration
	GetSessionTimeout() time.Duration
	GetReadyTimeout() time.Duration
	GetMaxRenderSessions() int64

	GetArchiveBucket() string
	GetAWSRegion() string
}

// AuthService validates bearer tokens for user-facing endpoints.
type AuthService interface {
	ValidateToken(token string) (*SupabaseUser, error)
}
