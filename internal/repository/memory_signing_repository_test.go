package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsign-service/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})         {}
func (nopLogger) Error(string, error, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{})        {}
func (nopLogger) Warn(string, ...interface{})         {}

func fixture() (*domain.Document, []*domain.Recipient, []*domain.Field) {
	doc := &domain.Document{ID: "doc1", ExternalID: "remote-doc", Title: "Lease", PageCount: 1, Reference: "ref-1"}
	var recipients []*domain.Recipient
	var fields []*domain.Field
	for i := 0; i < 3; i++ {
		r := &domain.Recipient{
			ID:         fmt.Sprintf("r%d", i),
			DocumentID: doc.ID,
			ExternalID: fmt.Sprintf("remote-r%d", i),
			Email:      fmt.Sprintf("s%d@example.com", i),
			Role:       domain.RoleSigner,
			Status:     domain.StatusCreated,
		}
		recipients = append(recipients, r)
		fields = append(fields,
			&domain.Field{ID: fmt.Sprintf("f%d-sig", i), DocumentID: doc.ID, RecipientID: r.ID, Type: domain.FieldTypeSignature, PageNumber: 1, PageX: 70, PageY: 88, Width: 18, Height: 3.5},
			&domain.Field{ID: fmt.Sprintf("f%d-email", i), DocumentID: doc.ID, RecipientID: r.ID, Type: domain.FieldTypeEmail, PageNumber: 1, PageX: 70, PageY: 93.5, Width: 18, Height: 3.5},
		)
	}
	return doc, recipients, fields
}

func newMemoryRepo(t *testing.T) *MemorySigningRepository {
	t.Helper()
	repo, err := NewMemorySigningRepository(nopLogger{})
	require.NoError(t, err)
	doc, recipients, fields := fixture()
	require.NoError(t, repo.SaveDocument(context.Background(), doc, recipients, fields))
	return repo
}

func TestMemorySigningRepository_Lookups(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	doc, err := repo.GetDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "Lease", doc.Title)

	byRef, err := repo.FindDocumentByReference(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, "doc1", byRef.ID)

	byExt, err := repo.FindDocumentByExternalID(ctx, "remote-doc")
	require.NoError(t, err)
	assert.Equal(t, "doc1", byExt.ID)

	r, err := repo.FindRecipientByExternalID(ctx, "remote-r2")
	require.NoError(t, err)
	assert.Equal(t, "r2", r.ID)

	recipients, err := repo.ListRecipients(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, recipients, 3)
	for i, r := range recipients {
		assert.Equal(t, fmt.Sprintf("r%d", i), r.ID)
	}

	fields, err := repo.ListFields(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, fields, 6)
	assert.Equal(t, "f0-sig", fields[0].ID)
	assert.Equal(t, "f0-email", fields[1].ID)
	assert.Equal(t, "f2-email", fields[5].ID)
}

func TestMemorySigningRepository_NotFound(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	_, err := repo.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	_, err = repo.FindDocumentByReference(ctx, "")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	_, err = repo.GetRecipient(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrRecipientNotFound)
	_, err = repo.FindRecipientByExternalID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrRecipientNotFound)
	_, err = repo.UpdateRecipientStatus(ctx, "missing", domain.StatusCreated, domain.StatusSigned)
	assert.ErrorIs(t, err, domain.ErrRecipientNotFound)

	recipients, err := repo.ListRecipients(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, recipients)
}

func TestMemorySigningRepository_SaveIsAtomic(t *testing.T) {
	repo, err := NewMemorySigningRepository(nopLogger{})
	require.NoError(t, err)
	doc, recipients, fields := fixture()
	recipients[2].Email = ""

	err = repo.SaveDocument(context.Background(), doc, recipients, fields)
	require.Error(t, err)

	_, err = repo.GetDocument(context.Background(), "doc1")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	_, err = repo.GetRecipient(context.Background(), "r0")
	assert.ErrorIs(t, err, domain.ErrRecipientNotFound)
}

func TestMemorySigningRepository_DuplicateDocument(t *testing.T) {
	repo := newMemoryRepo(t)
	doc, _, _ := fixture()
	assert.Error(t, repo.SaveDocument(context.Background(), doc, nil, nil))
}

func TestMemorySigningRepository_DuplicateReference(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	dup := &domain.Document{ID: "doc2", Title: "Lease", PageCount: 1, Reference: "ref-1"}
	err := repo.SaveDocument(ctx, dup, nil, nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
	_, err = repo.GetDocument(ctx, "doc2")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	// Documents without a reference never collide.
	require.NoError(t, repo.SaveDocument(ctx, &domain.Document{ID: "doc3", Title: "A", PageCount: 1}, nil, nil))
	require.NoError(t, repo.SaveDocument(ctx, &domain.Document{ID: "doc4", Title: "B", PageCount: 1}, nil, nil))

	found, err := repo.FindDocumentByReference(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, "doc1", found.ID)
}

func TestMemorySigningRepository_UpdateRecipientStatus(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	updated, err := repo.UpdateRecipientStatus(ctx, "r0", domain.StatusCreated, domain.StatusSentForSignature)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSentForSignature, updated.Status)
	assert.False(t, updated.UpdatedAt.IsZero())

	_, err = repo.UpdateRecipientStatus(ctx, "r0", domain.StatusCreated, domain.StatusSigned)
	assert.ErrorIs(t, err, domain.ErrStatusConflict)

	stored, err := repo.GetRecipient(ctx, "r0")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSentForSignature, stored.Status)

	byExt, err := repo.FindRecipientByExternalID(ctx, "remote-r0")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSentForSignature, byExt.Status)
}

func TestMemorySigningRepository_ConcurrentCompareAndSet(t *testing.T) {
	repo := newMemoryRepo(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateRecipientStatus(context.Background(), "r1", domain.StatusCreated, domain.StatusSigned)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestMemorySigningRepository_ReturnsCopies(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()

	r, err := repo.GetRecipient(ctx, "r0")
	require.NoError(t, err)
	r.Status = domain.StatusSigned

	stored, err := repo.GetRecipient(ctx, "r0")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, stored.Status)
}
