package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"

	"docsign-service/internal/domain"
)

const (
	tblDocuments  = "sign_documents"
	tblRecipients = "sign_recipients"
	tblFields     = "sign_fields"
)

var memorySchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblDocuments: {
			Name: tblDocuments,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"reference": {
					Name:         "reference",
					Unique:       true,
					AllowMissing: true,
					Indexer:      &memdb.StringFieldIndex{Field: "Reference"},
				},
				"external_id": {
					Name:         "external_id",
					AllowMissing: true,
					Indexer:      &memdb.StringFieldIndex{Field: "ExternalID"},
				},
			},
		},
		tblRecipients: {
			Name: tblRecipients,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"document_id": {
					Name:    "document_id",
					Indexer: &memdb.StringFieldIndex{Field: "DocumentID"},
				},
				"external_id": {
					Name:         "external_id",
					AllowMissing: true,
					Indexer:      &memdb.StringFieldIndex{Field: "ExternalID"},
				},
			},
		},
		tblFields: {
			Name: tblFields,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"document_id": {
					Name:    "document_id",
					Indexer: &memdb.StringFieldIndex{Field: "DocumentID"},
				},
			},
		},
	},
}

type recipientRecord struct {
	ID         string
	DocumentID string
	ExternalID string
	Position   int
	Recipient  domain.Recipient
}

type fieldRecord struct {
	ID         string
	DocumentID string
	Position   int
	Field      domain.Field
}

// MemorySigningRepository implements domain.SigningRepository on go-memdb.
// It backs local development and tests when no Supabase project is configured.
type MemorySigningRepository struct {
	db     *memdb.MemDB
	logger domain.Logger
	now    func() time.Time
}

// NewMemorySigningRepository creates an empty in-memory store.
func NewMemorySigningRepository(logger domain.Logger) (*MemorySigningRepository, error) {
	db, err := memdb.NewMemDB(memorySchema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}
	return &MemorySigningRepository{db: db, logger: logger, now: time.Now}, nil
}

// SaveDocument inserts a document, its recipients and fields in one transaction.
func (r *MemorySigningRepository) SaveDocument(ctx context.Context, doc *domain.Document, recipients []*domain.Recipient, fields []*domain.Field) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tblDocuments, "id", doc.ID)
	if err != nil {
		return fmt.Errorf("find document by id: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("document %s already exists", doc.ID)
	}
	// memdb only enforces uniqueness on the id index.
	if doc.Reference != "" {
		taken, err := txn.First(tblDocuments, "reference", doc.Reference)
		if err != nil {
			return fmt.Errorf("find document by reference: %w", err)
		}
		if taken != nil {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateReference, doc.Reference)
		}
	}

	stored := *doc
	if err := txn.Insert(tblDocuments, &stored); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	for i, rc := range recipients {
		if err := rc.Validate(); err != nil {
			return err
		}
		rec := &recipientRecord{ID: rc.ID, DocumentID: rc.DocumentID, ExternalID: rc.ExternalID, Position: i, Recipient: *rc}
		if err := txn.Insert(tblRecipients, rec); err != nil {
			return fmt.Errorf("insert recipient: %w", err)
		}
	}

	for i, f := range fields {
		if err := f.Validate(); err != nil {
			return err
		}
		rec := &fieldRecord{ID: f.ID, DocumentID: f.DocumentID, Position: i, Field: *f}
		if err := txn.Insert(tblFields, rec); err != nil {
			return fmt.Errorf("insert field: %w", err)
		}
	}

	txn.Commit()
	r.logger.Debug("Saved document", "document_id", doc.ID, "recipients", len(recipients), "fields", len(fields))
	return nil
}

func (r *MemorySigningRepository) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return r.findDocument("id", id)
}

func (r *MemorySigningRepository) FindDocumentByReference(ctx context.Context, reference string) (*domain.Document, error) {
	return r.findDocument("reference", reference)
}

func (r *MemorySigningRepository) FindDocumentByExternalID(ctx context.Context, externalID string) (*domain.Document, error) {
	return r.findDocument("external_id", externalID)
}

func (r *MemorySigningRepository) findDocument(index, value string) (*domain.Document, error) {
	if value == "" {
		return nil, domain.ErrDocumentNotFound
	}

	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, index, value)
	if err != nil {
		return nil, fmt.Errorf("find document by %s: %w", index, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", value, domain.ErrDocumentNotFound)
	}

	doc := *raw.(*domain.Document)
	return &doc, nil
}

// ListRecipients returns the recipients of a document in the order they were saved.
func (r *MemorySigningRepository) ListRecipients(ctx context.Context, documentID string) ([]*domain.Recipient, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblRecipients, "document_id", documentID)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}

	var records []*recipientRecord
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		records = append(records, raw.(*recipientRecord))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Position < records[j].Position })

	out := make([]*domain.Recipient, len(records))
	for i, rec := range records {
		rc := rec.Recipient
		out[i] = &rc
	}
	return out, nil
}

// ListFields returns the fields of a document in the order they were saved.
func (r *MemorySigningRepository) ListFields(ctx context.Context, documentID string) ([]*domain.Field, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblFields, "document_id", documentID)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}

	var records []*fieldRecord
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		records = append(records, raw.(*fieldRecord))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Position < records[j].Position })

	out := make([]*domain.Field, len(records))
	for i, rec := range records {
		f := rec.Field
		out[i] = &f
	}
	return out, nil
}

func (r *MemorySigningRepository) GetRecipient(ctx context.Context, id string) (*domain.Recipient, error) {
	return r.findRecipient("id", id)
}

func (r *MemorySigningRepository) FindRecipientByExternalID(ctx context.Context, externalID string) (*domain.Recipient, error) {
	return r.findRecipient("external_id", externalID)
}

func (r *MemorySigningRepository) findRecipient(index, value string) (*domain.Recipient, error) {
	if value == "" {
		return nil, domain.ErrRecipientNotFound
	}

	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblRecipients, index, value)
	if err != nil {
		return nil, fmt.Errorf("find recipient by %s: %w", index, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", value, domain.ErrRecipientNotFound)
	}

	rc := raw.(*recipientRecord).Recipient
	return &rc, nil
}

// UpdateRecipientStatus sets next if the stored status still equals expected.
func (r *MemorySigningRepository) UpdateRecipientStatus(ctx context.Context, id string, expected, next domain.RecipientStatus) (*domain.Recipient, error) {
	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblRecipients, "id", id)
	if err != nil {
		return nil, fmt.Errorf("find recipient by id: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", id, domain.ErrRecipientNotFound)
	}

	rec := *raw.(*recipientRecord)
	if rec.Recipient.Status != expected {
		return nil, fmt.Errorf("%s is %s, expected %s: %w", id, rec.Recipient.Status, expected, domain.ErrStatusConflict)
	}

	rec.Recipient.Status = next
	rec.Recipient.UpdatedAt = r.now().UTC()
	if err := txn.Insert(tblRecipients, &rec); err != nil {
		return nil, fmt.Errorf("update recipient: %w", err)
	}
	txn.Commit()

	out := rec.Recipient
	return &out, nil
}

var _ domain.SigningRepository = (*MemorySigningRepository)(nil)
