package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/moby/locker"

	"docsign-service/internal/domain"
	apperrors "docsign-service/pkg/errors"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// GenerateInput is a request to render content and open it for signing.
type GenerateInput struct {
	Content    string
	Title      string
	Recipients []domain.RecipientInput
	Reference  string
}

// GenerationResult is the outcome of Generate. Existing is true when the
// reference was already known and nothing was rendered.
type GenerationResult struct {
	View      *domain.DocumentView
	PageCount int
	Existing  bool
}

// GenerationService runs the whole pipeline: render, archive, orchestrate.
type GenerationService struct {
	renderer  domain.Renderer
	archive   domain.ArtifactArchive
	signing   *SigningService
	documents *DocumentService
	locks     *locker.Locker
	logger    domain.Logger
}

// NewGenerationService wires the pipeline. archive may be nil.
func NewGenerationService(
	renderer domain.Renderer,
	archive domain.ArtifactArchive,
	signing *SigningService,
	documents *DocumentService,
	logger domain.Logger,
) *GenerationService {
	return &GenerationService{
		renderer:  renderer,
		archive:   archive,
		signing:   signing,
		documents: documents,
		locks:     locker.New(),
		logger:    logger,
	}
}

// Generate renders in.Content and hands the artifact to the provider.
// Requests sharing a reference run one at a time, so only the first renders.
func (s *GenerationService) Generate(ctx context.Context, in GenerateInput) (*GenerationResult, error) {
	if in.Reference != "" {
		s.locks.Lock(in.Reference)
		defer func() {
			_ = s.locks.Unlock(in.Reference)
		}()

		existing, err := s.existing(ctx, in.Reference)
		if err != nil || existing != nil {
			return existing, err
		}
	}

	// Fail on recipient limits before paying for a render.
	if _, err := s.signing.PrepareRecipients(in.Recipients); err != nil {
		return nil, err
	}

	rendered, err := s.renderer.Render(ctx, in.Content)
	if err != nil {
		return nil, apperrors.NewInternalError("render artifact failed", err)
	}

	s.archiveArtifact(ctx, in.Reference, rendered.Binary)

	view, err := s.signing.CreateAndSend(ctx, in.Title, in.Recipients, rendered.Binary, rendered.PageCount, in.Reference)
	if errors.Is(err, domain.ErrDuplicateReference) {
		// Another instance stored the reference first; its document wins.
		s.logger.Warn("Reference stored concurrently, discarding this provider document", "reference", in.Reference)
		existing, lookupErr := s.existing(ctx, in.Reference)
		if lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	return &GenerationResult{View: view, PageCount: rendered.PageCount}, nil
}

// existing returns the result already generated for reference, or nil.
func (s *GenerationService) existing(ctx context.Context, reference string) (*GenerationResult, error) {
	view, err := s.documents.FindByReference(ctx, reference)
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("look up reference: %w", err)
	}
	s.logger.Info("Reference already generated", "reference", reference, "document_id", view.Document.ID)
	return &GenerationResult{View: view, PageCount: view.Document.PageCount, Existing: true}, nil
}

// archiveArtifact stores a copy of the artifact. Failures are logged only.
func (s *GenerationService) archiveArtifact(ctx context.Context, reference string, binary []byte) {
	if s.archive == nil {
		return
	}
	key := ArchiveKey(reference)
	if err := s.archive.Put(ctx, key, binary, artifactContentType); err != nil {
		s.logger.Warn("Archiving artifact failed", "key", key, "error", err)
	}
}

// ArchiveKey is the object key of the artifact generated for reference.
func ArchiveKey(reference string) string {
	name := strings.Trim(unsafeKeyChars.ReplaceAllString(reference, "_"), "._")
	if name == "" {
		name = uuid.NewString()
	}
	return "documents/" + name + ".pdf"
}
