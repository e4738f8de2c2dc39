package config

import (
	"context"
	"fmt"

	"docsign-service/internal/domain"
	"docsign-service/internal/handler"
	"docsign-service/internal/infra/esign"
	"docsign-service/internal/infra/s3"
	"docsign-service/internal/infra/supabase"
	"docsign-service/internal/metrics"
	"docsign-service/internal/repository"
	"docsign-service/internal/service"
	"docsign-service/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	Metrics        *metrics.Metrics
	SupabaseClient domain.SupabaseClient

	SigningRepository domain.SigningRepository
	Provider          domain.SignatureProvider
	Renderer          domain.Renderer
	Archive           domain.ArtifactArchive

	AuthService       domain.AuthService
	DocumentService   *service.DocumentService
	SigningService    *service.SigningService
	StatusService     *service.StatusService
	GenerationService *service.GenerationService
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context) (*Container, error) {
	config := NewConfig()
	appLogger := logger.NewLogger(config.GetLogLevel())

	named := func(name string) domain.Logger {
		if l, ok := appLogger.(*logger.AppLogger); ok {
			return l.Named(name)
		}
		return appLogger
	}

	m, err := metrics.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	// Supabase is optional for local runs; documents then live in memory.
	supabaseClient := supabase.NewClient(config, appLogger)
	var repo domain.SigningRepository
	if config.GetSupabaseURL() != "" && config.GetSupabaseKey() != "" {
		if err := supabaseClient.Initialize(); err != nil {
			return nil, err
		}
		repo = repository.NewSupabaseSigningRepository(supabaseClient, appLogger)
	} else {
		appLogger.Warn("Supabase is not configured, using in-memory storage")
		memRepo, err := repository.NewMemorySigningRepository(appLogger)
		if err != nil {
			return nil, fmt.Errorf("create memory repository: %w", err)
		}
		repo = memRepo
	}

	provider := esign.NewClient(config.GetESignAPIURL(), config.GetESignAPIKey(), named("esign"), esign.WithMetrics(m))

	var archive domain.ArtifactArchive
	if bucket := config.GetArchiveBucket(); bucket != "" {
		a, err := s3.NewArchive(ctx, bucket, config.GetAWSRegion(), named("archive"))
		if err != nil {
			return nil, fmt.Errorf("create artifact archive: %w", err)
		}
		archive = a
	}

	renderer := service.NewRodRenderer(service.RenderOptionsFromConfig(config), named("render"), m)

	documentService := service.NewDocumentService(repo, appLogger)
	signingService := service.NewSigningService(provider, repo, service.SigningOptionsFromConfig(config), appLogger)
	statusService := service.NewStatusService(repo, provider, named("status"), m)
	generationService := service.NewGenerationService(renderer, archive, signingService, documentService, appLogger)

	return &Container{
		Config:            config,
		Logger:            appLogger,
		Metrics:           m,
		SupabaseClient:    supabaseClient,
		SigningRepository: repo,
		Provider:          provider,
		Renderer:          renderer,
		Archive:           archive,
		AuthService:       service.NewAuthService(supabaseClient, appLogger),
		DocumentService:   documentService,
		SigningService:    signingService,
		StatusService:     statusService,
		GenerationService: generationService,
	}, nil
}

// Routes builds the handlers and middleware served by the router.
func (c *Container) Routes() handler.Routes {
	production := c.Config.IsProduction()
	return handler.Routes{
		Generation: handler.NewGenerationHandler(c.GenerationService, c.Logger, production),
		Documents:  handler.NewDocumentHandler(c.DocumentService, c.SigningService, c.Logger, production),
		Webhooks:   handler.NewWebhookHandler(c.StatusService, c.Logger, production),
		Signatures: handler.NewSignatureHandler(c.StatusService, c.Logger, production),

		GenerationSecret: handler.SharedSecret(handler.GenerationSecretHeader, c.Config.GetGenerationSecret(), c.Logger),
		ProviderSecret:   handler.SharedSecret(handler.WebhookSecretHeader, c.Config.GetProviderWebhookSecret(), c.Logger),
		RendererSecret:   handler.SharedSecret(handler.RendererSecretHeader, c.Config.GetRendererWebhookSecret(), c.Logger),
		UserAuth:         handler.NewAuthMiddleware(c.AuthService, c.Logger).Middleware,

		Metrics: c.Metrics.Handler(),
	}
}
