package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/moby/locker"

	"docsign-service/internal/domain"
	"docsign-service/internal/metrics"
	apperrors "docsign-service/pkg/errors"
)

// Update sources, as reported in logs and metrics.
const (
	SourceProvider  = "provider"
	SourceRenderer  = "renderer"
	SourceReconcile = "reconcile"
)

// maxStatusAttempts bounds the compare-and-set retries of one update.
const maxStatusAttempts = 3

// StatusService keeps recipient statuses in line with the provider. Every
// write goes through the transition table under a per-recipient lock and a
// compare-and-set in the repository, so duplicate or out-of-order updates
// never move a recipient backwards or out of a terminal status.
type StatusService struct {
	repo     domain.SigningRepository
	provider domain.SignatureProvider
	locks    *locker.Locker
	logger   domain.Logger
	metrics  *metrics.Metrics
}

func NewStatusService(
	repo domain.SigningRepository,
	provider domain.SignatureProvider,
	logger domain.Logger,
	m *metrics.Metrics,
) *StatusService {
	return &StatusService{
		repo:     repo,
		provider: provider,
		locks:    locker.New(),
		logger:   logger,
		metrics:  m,
	}
}

// HandleProviderWebhook applies a provider event. The payload id names a
// recipient or, failing that, a document whose recipients all receive the
// update. Signer-level statuses in the payload override the event mapping.
func (s *StatusService) HandleProviderWebhook(ctx context.Context, event *domain.ProviderWebhook) ([]*domain.Recipient, error) {
	targets, err := s.targets(ctx, event.Payload.ID)
	if err != nil {
		s.metrics.AddStatusUpdate(SourceProvider, metrics.OutcomeFailure)
		return nil, err
	}

	mapped := domain.MapProviderEvent(event.Event, event.Payload.Status)
	out := make([]*domain.Recipient, 0, len(targets))
	for _, r := range targets {
		next := mapped
		if override, ok := signerStatus(r, event.Payload.Recipients); ok {
			next = override
		}
		updated, err := s.apply(ctx, r.ID, next, SourceProvider)
		if err != nil {
			return nil, err
		}
		out = append(out, updated)
	}

	s.logger.Info("Applied provider webhook", "event", event.Event, "external_id", event.Payload.ID, "recipients", len(out))
	return out, nil
}

// HandleRendererWebhook applies a callback from the rendering/delivery
// service. A reported error moves the recipient to ERROR.
func (s *StatusService) HandleRendererWebhook(ctx context.Context, event *domain.RendererWebhook) ([]*domain.Recipient, error) {
	targets, err := s.targets(ctx, event.ExternalID)
	if err != nil {
		s.metrics.AddStatusUpdate(SourceRenderer, metrics.OutcomeFailure)
		return nil, err
	}

	next := domain.MapRendererStatus(event.Status)
	if event.Error != "" {
		s.logger.Warn("Renderer reported a failure", "external_id", event.ExternalID, "error", event.Error)
		next = domain.StatusError
	}

	out := make([]*domain.Recipient, 0, len(targets))
	for _, r := range targets {
		updated, err := s.apply(ctx, r.ID, next, SourceRenderer)
		if err != nil {
			return nil, err
		}
		out = append(out, updated)
	}
	return out, nil
}

// Reconcile pulls the provider's view for a recipient whose local status is
// not terminal and persists the resolved status if it changed.
func (s *StatusService) Reconcile(ctx context.Context, recipientID string) (*domain.Recipient, error) {
	r, err := s.repo.GetRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, r)
}

// ReconcileAs reconciles a recipient on behalf of the user signed in with
// email. Recipients addressed to someone else are reported as not found.
func (s *StatusService) ReconcileAs(ctx context.Context, recipientID, email string) (*domain.Recipient, error) {
	r, err := s.repo.GetRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if email == "" || !strings.EqualFold(strings.TrimSpace(r.Email), strings.TrimSpace(email)) {
		s.logger.Warn("Reconciliation refused for foreign recipient", "recipient_id", recipientID)
		return nil, fmt.Errorf("%w: %s", domain.ErrRecipientNotFound, recipientID)
	}
	return s.reconcile(ctx, r)
}

func (s *StatusService) reconcile(ctx context.Context, r *domain.Recipient) (*domain.Recipient, error) {
	if r.Status.IsTerminal() {
		return r, nil
	}

	doc, err := s.repo.GetDocument(ctx, r.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("load document of recipient %s: %w", r.ID, err)
	}
	if doc.ExternalID == "" {
		return r, nil
	}

	remote, err := s.provider.Get(ctx, doc.ExternalID)
	if err != nil {
		s.metrics.AddStatusUpdate(SourceReconcile, metrics.OutcomeFailure)
		return nil, fmt.Errorf("fetch remote document: %w", err)
	}

	next := domain.MapRemoteDocumentStatus(remote.Status)
	if override, ok := signerStatus(r, remote.Recipients); ok {
		next = override
	}
	if next == r.Status {
		s.metrics.AddStatusUpdate(SourceReconcile, metrics.OutcomeNoop)
		return r, nil
	}

	return s.apply(ctx, r.ID, next, SourceReconcile)
}

// targets resolves a provider id to the recipients it concerns.
func (s *StatusService) targets(ctx context.Context, externalID string) ([]*domain.Recipient, error) {
	r, err := s.repo.FindRecipientByExternalID(ctx, externalID)
	if err == nil {
		return []*domain.Recipient{r}, nil
	}
	if !errors.Is(err, domain.ErrRecipientNotFound) {
		return nil, err
	}

	doc, err := s.repo.FindDocumentByExternalID(ctx, externalID)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		s.logger.Warn("Status update for unknown recipient", "external_id", externalID)
		return nil, fmt.Errorf("%w: %s", domain.ErrRecipientNotFound, externalID)
	}
	if err != nil {
		return nil, err
	}

	recipients, err := s.repo.ListRecipients(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list recipients of %s: %w", doc.ID, err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: document %s has no recipients", domain.ErrRecipientNotFound, externalID)
	}
	return recipients, nil
}

// apply moves a recipient towards next. Disallowed transitions are no-ops.
// A compare-and-set conflict rereads the recipient and tries again.
func (s *StatusService) apply(ctx context.Context, recipientID string, next domain.RecipientStatus, source string) (*domain.Recipient, error) {
	s.locks.Lock(recipientID)
	defer func() {
		_ = s.locks.Unlock(recipientID)
	}()

	for attempt := 1; attempt <= maxStatusAttempts; attempt++ {
		current, err := s.repo.GetRecipient(ctx, recipientID)
		if err != nil {
			s.metrics.AddStatusUpdate(source, metrics.OutcomeFailure)
			return nil, err
		}

		resolved, changed := current.Status.Resolve(next)
		if !changed {
			s.logger.Debug("Status update is a no-op",
				"recipient_id", recipientID, "current", current.Status, "proposed", next, "source", source)
			s.metrics.AddStatusUpdate(source, metrics.OutcomeNoop)
			return current, nil
		}

		updated, err := s.repo.UpdateRecipientStatus(ctx, recipientID, current.Status, resolved)
		if errors.Is(err, domain.ErrStatusConflict) {
			s.logger.Debug("Recipient changed concurrently, retrying", "recipient_id", recipientID, "attempt", attempt)
			continue
		}
		if err != nil {
			s.metrics.AddStatusUpdate(source, metrics.OutcomeFailure)
			return nil, fmt.Errorf("update recipient %s: %w", recipientID, err)
		}

		s.metrics.AddStatusUpdate(source, metrics.OutcomeSuccess)
		s.metrics.AddStatusTransition(string(current.Status), string(resolved))
		s.logger.Info("Recipient status updated",
			"recipient_id", recipientID, "from", current.Status, "to", resolved, "source", source)
		return updated, nil
	}

	s.metrics.AddStatusUpdate(source, metrics.OutcomeFailure)
	return nil, apperrors.NewConflictError("recipient "+recipientID+" kept changing concurrently", domain.ErrStatusConflict)
}

// signerStatus finds r in a provider recipient list and returns the status
// its signing decision implies.
func signerStatus(r *domain.Recipient, remote []domain.RemoteRecipient) (domain.RecipientStatus, bool) {
	for _, rr := range remote {
		matches := rr.ID != "" && rr.ID == r.ExternalID
		if !matches && rr.ID == "" {
			matches = strings.EqualFold(rr.Email, r.Email)
		}
		if matches {
			return domain.MapSignerStatus(rr.SigningStatus)
		}
	}
	return "", false
}
