package domain

import (
	"strings"
	"time"
)

// RecipientRole identifies how a recipient takes part in a signing flow.
type RecipientRole string

const (
	RoleSigner   RecipientRole = "SIGNER"
	RoleApprover RecipientRole = "APPROVER"
	RoleViewer   RecipientRole = "VIEWER"
	RoleCC       RecipientRole = "CC"
)

// ParseRecipientRole converts a provider or request role string into a RecipientRole.
// Unknown values are treated as signers.
func ParseRecipientRole(s string) RecipientRole {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleApprover), "REVIEWER":
		return RoleApprover
	case string(RoleViewer):
		return RoleViewer
	case string(RoleCC):
		return RoleCC
	default:
		return RoleSigner
	}
}

// IsPlaced reports whether recipients with this role receive fields.
func (r RecipientRole) IsPlaced() bool {
	return r == RoleSigner || r == RoleApprover
}

// FieldType is the kind of marker placed on a page.
type FieldType string

const (
	FieldTypeSignature FieldType = "SIGNATURE"
	FieldTypeEmail     FieldType = "EMAIL"
)

// SigningOrder controls whether recipients sign one after another or all at once.
type SigningOrder string

const (
	SigningOrderSequential SigningOrder = "SEQUENTIAL"
	SigningOrderParallel   SigningOrder = "PARALLEL"
)

// ParseSigningOrder returns SigningOrderSequential for "sequential" (any case)
// and SigningOrderParallel otherwise.
func ParseSigningOrder(s string) SigningOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(SigningOrderSequential)) {
		return SigningOrderSequential
	}
	return SigningOrderParallel
}

// Document is one generated artifact handed to the signature provider.
type Document struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	PageCount  int    `json:"page_count"`
	Reference  string `json:"reference"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recipient is one signing party on a Document.
type Recipient struct {
	ID           string          `json:"id"`
	DocumentID   string          `json:"document_id"`
	ExternalID   string          `json:"external_id"`
	Email        string          `json:"email"`
	Name         string          `json:"name"`
	Role         RecipientRole   `json:"role"`
	SigningOrder int             `json:"signing_order"`
	Status       RecipientStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Field is a placed signature or email marker. Spatial values are percentages
// of the page dimensions.
type Field struct {
	ID          string    `json:"id,omitempty"`
	DocumentID  string    `json:"document_id,omitempty"`
	RecipientID string    `json:"recipient_id"`
	Type        FieldType `json:"type"`
	PageNumber  int       `json:"page_number"`
	PageX       float64   `json:"page_x"`
	PageY       float64   `json:"page_y"`
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
}

// DocumentView is a Document together with its recipients and fields.
type DocumentView struct {
	Document   *Document    `json:"document"`
	Recipients []*Recipient `json:"recipients"`
	Fields     []*Field     `json:"fields"`
}

// Validate checks the Document's required fields.
func (d *Document) Validate() error {
	if d.ID == "" {
		return &ValidationError{Field: "id", Message: "document ID is required"}
	}
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if d.PageCount < 1 {
		return &ValidationError{Field: "page_count", Message: "page count must be positive"}
	}
	return nil
}

// Validate checks the Recipient's required fields.
func (r *Recipient) Validate() error {
	if r.DocumentID == "" {
		return &ValidationError{Field: "document_id", Message: "document ID is required"}
	}
	if strings.TrimSpace(r.Email) == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if !r.Status.IsValid() {
		return &ValidationError{Field: "status", Message: "unknown status " + string(r.Status)}
	}
	return nil
}

// Validate checks that the field sits inside the page.
func (f *Field) Validate() error {
	if f.PageNumber < 1 {
		return &ValidationError{Field: "page_number", Message: "page number must be positive"}
	}
	for _, v := range []float64{f.PageX, f.PageY, f.Width, f.Height} {
		if v < 0 || v > 100 {
			return &ValidationError{Field: "geometry", Message: "spatial values must be between 0 and 100"}
		}
	}
	return nil
}
