package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"docsign-service/internal/domain"
)

const uniqueViolation = "23505"

// recipientRow and fieldRow carry the position column that keeps list order.
type recipientRow struct {
	domain.Recipient
	Position int `json:"position"`
}

type fieldRow struct {
	domain.Field
	Position int `json:"position"`
}

// SupabaseSigningRepository implements domain.SigningRepository on the
// sign_documents, sign_recipients and sign_fields tables.
type SupabaseSigningRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
	now            func() time.Time
}

// NewSupabaseSigningRepository creates a repository on the service-role client.
func NewSupabaseSigningRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) *SupabaseSigningRepository {
	return &SupabaseSigningRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
		now:            time.Now,
	}
}

func (r *SupabaseSigningRepository) client() (*supabase.Client, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}
	return client, nil
}

// SaveDocument inserts the document, then its recipients and fields. PostgREST
// has no multi-table transaction, so a failed child insert deletes the
// document again; the child tables cascade on document deletion.
func (r *SupabaseSigningRepository) SaveDocument(ctx context.Context, doc *domain.Document, recipients []*domain.Recipient, fields []*domain.Field) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	client, err := r.client()
	if err != nil {
		return err
	}

	if _, _, err := client.From(tblDocuments).Insert(doc, false, "", "minimal", "").Execute(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateReference, doc.Reference)
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}

	if err := r.saveChildren(client, recipients, fields); err != nil {
		if _, _, delErr := client.From(tblDocuments).Delete("minimal", "").Eq("id", doc.ID).Execute(); delErr != nil {
			r.logger.Error("Failed to roll back partially saved document", delErr, "document_id", doc.ID)
		}
		return err
	}

	r.logger.Debug("Saved document", "document_id", doc.ID, "recipients", len(recipients), "fields", len(fields))
	return nil
}

// isUniqueViolation reports a PostgREST error carrying SQLSTATE 23505. The
// only unique column besides the primary key is sign_documents.reference.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "("+uniqueViolation+")")
}

func (r *SupabaseSigningRepository) saveChildren(client *supabase.Client, recipients []*domain.Recipient, fields []*domain.Field) error {
	if len(recipients) > 0 {
		rows := make([]recipientRow, len(recipients))
		for i, rc := range recipients {
			if err := rc.Validate(); err != nil {
				return err
			}
			rows[i] = recipientRow{Recipient: *rc, Position: i}
		}
		if _, _, err := client.From(tblRecipients).Insert(rows, false, "", "minimal", "").Execute(); err != nil {
			return fmt.Errorf("failed to insert recipients: %w", err)
		}
	}

	if len(fields) > 0 {
		rows := make([]fieldRow, len(fields))
		for i, f := range fields {
			if err := f.Validate(); err != nil {
				return err
			}
			rows[i] = fieldRow{Field: *f, Position: i}
		}
		if _, _, err := client.From(tblFields).Insert(rows, false, "", "minimal", "").Execute(); err != nil {
			return fmt.Errorf("failed to insert fields: %w", err)
		}
	}
	return nil
}

func (r *SupabaseSigningRepository) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return r.findDocument("id", id)
}

func (r *SupabaseSigningRepository) FindDocumentByReference(ctx context.Context, reference string) (*domain.Document, error) {
	return r.findDocument("reference", reference)
}

func (r *SupabaseSigningRepository) FindDocumentByExternalID(ctx context.Context, externalID string) (*domain.Document, error) {
	return r.findDocument("external_id", externalID)
}

func (r *SupabaseSigningRepository) findDocument(column, value string) (*domain.Document, error) {
	if value == "" {
		return nil, domain.ErrDocumentNotFound
	}
	client, err := r.client()
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(tblDocuments).
		Select("*", "", false).
		Eq(column, value).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var docs []*domain.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s: %w", value, domain.ErrDocumentNotFound)
	}
	return docs[0], nil
}

// ListRecipients returns the recipients of a document in the order they were saved.
func (r *SupabaseSigningRepository) ListRecipients(ctx context.Context, documentID string) ([]*domain.Recipient, error) {
	client, err := r.client()
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(tblRecipients).
		Select("*", "", false).
		Eq("document_id", documentID).
		Order("position", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	return decodeRecipients(data)
}

// ListFields returns the fields of a document in the order they were saved.
func (r *SupabaseSigningRepository) ListFields(ctx context.Context, documentID string) ([]*domain.Field, error) {
	client, err := r.client()
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(tblFields).
		Select("*", "", false).
		Eq("document_id", documentID).
		Order("position", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}

	var rows []fieldRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	out := make([]*domain.Field, len(rows))
	for i := range rows {
		f := rows[i].Field
		out[i] = &f
	}
	return out, nil
}

func (r *SupabaseSigningRepository) GetRecipient(ctx context.Context, id string) (*domain.Recipient, error) {
	return r.findRecipient("id", id)
}

func (r *SupabaseSigningRepository) FindRecipientByExternalID(ctx context.Context, externalID string) (*domain.Recipient, error) {
	return r.findRecipient("external_id", externalID)
}

func (r *SupabaseSigningRepository) findRecipient(column, value string) (*domain.Recipient, error) {
	if value == "" {
		return nil, domain.ErrRecipientNotFound
	}
	client, err := r.client()
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(tblRecipients).
		Select("*", "", false).
		Eq(column, value).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}

	recipients, err := decodeRecipients(data)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%s: %w", value, domain.ErrRecipientNotFound)
	}
	return recipients[0], nil
}

// UpdateRecipientStatus filters the update on the expected status, so the
// database applies the compare-and-set atomically. An empty result means the
// row changed underneath or does not exist.
func (r *SupabaseSigningRepository) UpdateRecipientStatus(ctx context.Context, id string, expected, next domain.RecipientStatus) (*domain.Recipient, error) {
	client, err := r.client()
	if err != nil {
		return nil, err
	}

	update := map[string]interface{}{
		"status":     next,
		"updated_at": r.now().UTC().Format(time.RFC3339Nano),
	}
	data, _, err := client.From(tblRecipients).
		Update(update, "representation", "").
		Eq("id", id).
		Eq("status", string(expected)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update recipient status: %w", err)
	}

	updated, err := decodeRecipients(data)
	if err != nil {
		return nil, err
	}
	if len(updated) > 0 {
		return updated[0], nil
	}

	if _, err := r.GetRecipient(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRecipientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to check recipient %s: %w", id, err)
	}
	return nil, fmt.Errorf("%s no longer %s: %w", id, expected, domain.ErrStatusConflict)
}

func decodeRecipients(data []byte) ([]*domain.Recipient, error) {
	var rows []recipientRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	out := make([]*domain.Recipient, len(rows))
	for i := range rows {
		rc := rows[i].Recipient
		out[i] = &rc
	}
	return out, nil
}

var _ domain.SigningRepository = (*SupabaseSigningRepository)(nil)
