package service

import (
	"context"
	"fmt"

	"docsign-service/internal/domain"
)

// DocumentService reads persisted documents.
type DocumentService struct {
	repo   domain.SigningRepository
	logger domain.Logger
}

func NewDocumentService(
	repo domain.SigningRepository,
	logger domain.Logger,
) *DocumentService {
	return &DocumentService{
		repo:   repo,
		logger: logger,
	}
}

// GetDocumentView returns a document with its recipients and fields.
func (s *DocumentService) GetDocumentView(ctx context.Context, documentID string) (*domain.DocumentView, error) {
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, doc)
}

// FindByReference returns the document created for reference, or
// domain.ErrDocumentNotFound.
func (s *DocumentService) FindByReference(ctx context.Context, reference string) (*domain.DocumentView, error) {
	doc, err := s.repo.FindDocumentByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, doc)
}

func (s *DocumentService) view(ctx context.Context, doc *domain.Document) (*domain.DocumentView, error) {
	recipients, err := s.repo.ListRecipients(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list recipients of %s: %w", doc.ID, err)
	}
	fields, err := s.repo.ListFields(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list fields of %s: %w", doc.ID, err)
	}
	if recipients == nil {
		recipients = []*domain.Recipient{}
	}
	if fields == nil {
		fields = []*domain.Field{}
	}
	return &domain.DocumentView{
		Document:   doc,
		Recipients: recipients,
		Fields:     fields,
	}, nil
}
