package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsign-service/internal/domain"
)

const artifactContentType = "application/pdf"

// SigningOptions are the provider-side policies applied to every document.
type SigningOptions struct {
	SigningOrder domain.SigningOrder
	// Reviewer, when set, is added to every document as its approver.
	Reviewer     *domain.RecipientInput
	LastPageOnly bool
}

// SigningOptionsFromConfig reads the signing policies from cfg.
func SigningOptionsFromConfig(cfg domain.Config) SigningOptions {
	return SigningOptions{
		SigningOrder: cfg.GetSigningOrder(),
		Reviewer:     cfg.GetReviewer(),
		LastPageOnly: cfg.GetLastPageOnly(),
	}
}

// SigningService drives a rendered artifact through the signature provider.
type SigningService struct {
	provider domain.SignatureProvider
	repo     domain.SigningRepository
	options  SigningOptions
	logger   domain.Logger
	now      func() time.Time
}

func NewSigningService(
	provider domain.SignatureProvider,
	repo domain.SigningRepository,
	options SigningOptions,
	logger domain.Logger,
) *SigningService {
	return &SigningService{
		provider: provider,
		repo:     repo,
		options:  options,
		logger:   logger,
		now:      time.Now,
	}
}

// PrepareRecipients normalizes the caller's recipients and appends the
// configured reviewer. Signing order is 1-based and increasing for sequential
// signing, and 1 for everybody otherwise.
func (s *SigningService) PrepareRecipients(recipients []domain.RecipientInput) ([]domain.RecipientInput, error) {
	out := make([]domain.RecipientInput, 0, len(recipients)+1)
	for _, r := range recipients {
		r.Email = strings.TrimSpace(r.Email)
		if r.Email == "" {
			return nil, &domain.ValidationError{Field: "email", Message: "email is required"}
		}
		if r.Role == "" {
			r.Role = domain.RoleSigner
		} else {
			r.Role = domain.ParseRecipientRole(string(r.Role))
		}
		out = append(out, r)
	}

	if reviewer := s.options.Reviewer; reviewer != nil && reviewer.Email != "" {
		present := false
		for _, r := range out {
			if strings.EqualFold(r.Email, reviewer.Email) {
				present = true
				break
			}
		}
		if !present {
			out = append(out, domain.RecipientInput{Email: reviewer.Email, Name: reviewer.Name, Role: domain.RoleApprover})
		}
	}

	roles := make([]domain.RecipientRole, len(out))
	for i := range out {
		roles[i] = out[i].Role
		if s.options.SigningOrder == domain.SigningOrderSequential {
			out[i].SigningOrder = i + 1
		} else {
			out[i].SigningOrder = 1
		}
	}
	if err := CheckRecipientLimits(roles); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAndSend creates the remote document, uploads binary, places the
// fields and persists the result. Nothing is persisted unless every remote
// step succeeds. Distribution is left to SendForSigning.
func (s *SigningService) CreateAndSend(
	ctx context.Context,
	title string,
	recipients []domain.RecipientInput,
	binary []byte,
	pageCount int,
	reference string,
) (*domain.DocumentView, error) {
	if pageCount < 1 {
		return nil, domain.ErrInvalidPageCount
	}
	inputs, err := s.PrepareRecipients(recipients)
	if err != nil {
		return nil, err
	}

	created, err := s.provider.Create(ctx, domain.CreateRemoteDocumentInput{
		Title:        title,
		Reference:    reference,
		Recipients:   inputs,
		SigningOrder: s.options.SigningOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("create remote document: %w", err)
	}
	if created.UploadURL == "" {
		s.logger.Warn("Provider returned no upload target", "external_id", created.DocumentID)
		return nil, domain.ErrNoUploadTarget
	}

	if err := s.provider.Upload(ctx, created.UploadURL, binary, artifactContentType); err != nil {
		return nil, fmt.Errorf("upload artifact: %w", err)
	}

	now := s.now().UTC()
	doc := &domain.Document{
		ID:         uuid.NewString(),
		ExternalID: created.DocumentID,
		Title:      title,
		PageCount:  pageCount,
		Reference:  reference,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	local := s.confirmedRecipients(doc, created.Recipients, inputs, now)

	fields, err := ComputeFields(local, pageCount, s.options.LastPageOnly)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no placeable recipients", domain.ErrFieldCreationFailed)
	}

	externalIDs := make(map[string]string, len(local))
	for _, r := range local {
		externalIDs[r.ID] = r.ExternalID
	}
	remote := make([]domain.RemoteField, len(fields))
	for i, f := range fields {
		remote[i] = domain.RemoteField{
			RecipientID: externalIDs[f.RecipientID],
			Type:        f.Type,
			PageNumber:  f.PageNumber,
			PageX:       f.PageX,
			PageY:       f.PageY,
			PageWidth:   f.Width,
			PageHeight:  f.Height,
		}
	}

	placed, err := s.provider.CreateFields(ctx, created.DocumentID, remote)
	if err != nil {
		return nil, fmt.Errorf("create fields: %w", err)
	}
	if len(placed) == 0 {
		return nil, domain.ErrFieldCreationFailed
	}
	for i, f := range fields {
		f.DocumentID = doc.ID
		f.ID = uuid.NewString()
		if len(placed) == len(fields) && placed[i].ID != "" {
			f.ID = placed[i].ID
		}
	}

	if err := s.repo.SaveDocument(ctx, doc, local, fields); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	s.logger.Info("Document created with provider",
		"document_id", doc.ID,
		"external_id", doc.ExternalID,
		"recipients", len(local),
		"fields", len(fields),
		"pages", pageCount)

	return &domain.DocumentView{Document: doc, Recipients: local, Fields: fields}, nil
}

// confirmedRecipients builds local recipients from the provider's list. Role
// and name fall back to what was submitted for the same email.
func (s *SigningService) confirmedRecipients(doc *domain.Document, remote []domain.RemoteRecipient, submitted []domain.RecipientInput, now time.Time) []*domain.Recipient {
	byEmail := make(map[string]domain.RecipientInput, len(submitted))
	for _, in := range submitted {
		byEmail[strings.ToLower(in.Email)] = in
	}

	out := make([]*domain.Recipient, 0, len(remote))
	for _, rr := range remote {
		in := byEmail[strings.ToLower(rr.Email)]
		role := rr.Role
		if role == "" {
			role = in.Role
		}
		name := rr.Name
		if name == "" {
			name = in.Name
		}
		order := rr.SigningOrder
		if order == 0 {
			order = in.SigningOrder
		}
		out = append(out, &domain.Recipient{
			ID:           uuid.NewString(),
			DocumentID:   doc.ID,
			ExternalID:   rr.ID,
			Email:        rr.Email,
			Name:         name,
			Role:         domain.ParseRecipientRole(string(role)),
			SigningOrder: order,
			Status:       domain.StatusCreated,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return out
}

// SendForSigning distributes a created document to its recipients and
// advances recipients still in CREATED.
func (s *SigningService) SendForSigning(ctx context.Context, documentID string) (*domain.DistributionResult, error) {
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.ExternalID == "" {
		return nil, domain.ErrDocumentNotSendable
	}

	result, err := s.provider.Distribute(ctx, doc.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("distribute document: %w", err)
	}

	recipients, err := s.repo.ListRecipients(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list recipients of %s: %w", doc.ID, err)
	}
	for _, r := range recipients {
		if r.Status != domain.StatusCreated {
			continue
		}
		_, err := s.repo.UpdateRecipientStatus(ctx, r.ID, domain.StatusCreated, domain.StatusSentForSignature)
		if errors.Is(err, domain.ErrStatusConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("advance recipient %s: %w", r.ID, err)
		}
	}

	s.logger.Info("Document sent for signing", "document_id", doc.ID, "external_id", result.ExternalID, "status", result.Status)
	return result, nil
}
