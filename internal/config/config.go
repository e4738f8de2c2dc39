package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"docsign-service/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort  string
	Environment string
	LogLevel    string

	SupabaseURL string
	SupabaseKey string

	GenerationSecret      string
	ProviderWebhookSecret string
	RendererWebhookSecret string

	ESignAPIURL   string
	ESignAPIKey   string
	SigningOrder  domain.SigningOrder
	ReviewerEmail string
	ReviewerName  string
	LastPageOnly  bool

	BrowserBin        string
	ContentTimeout    time.Duration
	SessionTimeout    time.Duration
	ReadyTimeout      time.Duration
	MaxRenderSessions int64

	ArchiveBucket string
	AWSRegion     string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:  getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		Environment: getEnvOrDefault("APP_ENV", "development"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),

		SupabaseURL: getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey: getEnvOrDefault("SUPABASE_SERVICE_KEY", ""),

		GenerationSecret:      getEnvOrDefault("GENERATION_SECRET", ""),
		ProviderWebhookSecret: getEnvOrDefault("PROVIDER_WEBHOOK_SECRET", ""),
		RendererWebhookSecret: getEnvOrDefault("RENDERER_WEBHOOK_SECRET", ""),

		ESignAPIURL:   strings.TrimRight(getEnvOrDefault("ESIGN_API_URL", "https://app.documenso.com"), "/"),
		ESignAPIKey:   getEnvOrDefault("ESIGN_API_KEY", ""),
		SigningOrder:  domain.ParseSigningOrder(getEnvOrDefault("ESIGN_SIGNING_ORDER", string(domain.SigningOrderParallel))),
		ReviewerEmail: getEnvOrDefault("ESIGN_REVIEWER_EMAIL", ""),
		ReviewerName:  getEnvOrDefault("ESIGN_REVIEWER_NAME", "Reviewer"),
		LastPageOnly:  getEnvBoolOrDefault("ESIGN_LAST_PAGE_ONLY", false),

		BrowserBin:        getEnvOrDefault("RENDER_BROWSER_BIN", ""),
		ContentTimeout:    getEnvDurationOrDefault("RENDER_CONTENT_TIMEOUT", 30*time.Second),
		SessionTimeout:    getEnvDurationOrDefault("RENDER_SESSION_TIMEOUT", 60*time.Second),
		ReadyTimeout:      getEnvDurationOrDefault("RENDER_READY_TIMEOUT", 5*time.Second),
		MaxRenderSessions: getEnvInt64OrDefault("RENDER_MAX_SESSIONS", 4),

		ArchiveBucket: getEnvOrDefault("ARCHIVE_S3_BUCKET", ""),
		AWSRegion:     getEnvOrDefault("AWS_REGION", "us-east-1"),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetEnvironment returns the deployment environment name
func (c *AppConfig) GetEnvironment() string {
	return c.Environment
}

// IsProduction reports whether error details must be hidden from callers
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase service key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

func (c *AppConfig) GetGenerationSecret() string {
	return c.GenerationSecret
}

func (c *AppConfig) GetProviderWebhookSecret() string {
	return c.ProviderWebhookSecret
}

func (c *AppConfig) GetRendererWebhookSecret() string {
	return c.RendererWebhookSecret
}

func (c *AppConfig) GetESignAPIURL() string {
	return c.ESignAPIURL
}

func (c *AppConfig) GetESignAPIKey() string {
	return c.ESignAPIKey
}

func (c *AppConfig) GetSigningOrder() domain.SigningOrder {
	return c.SigningOrder
}

// GetReviewer returns the fixed approver injected into every document, or nil
// when none is configured.
func (c *AppConfig) GetReviewer() *domain.RecipientInput {
	if c.ReviewerEmail == "" {
		return nil
	}
	return &domain.RecipientInput{
		Email: c.ReviewerEmail,
		Name:  c.ReviewerName,
		Role:  domain.RoleApprover,
	}
}

func (c *AppConfig) GetLastPageOnly() bool {
	return c.LastPageOnly
}

func (c *AppConfig) GetBrowserBin() string {
	return c.BrowserBin
}

func (c *AppConfig) GetContentTimeout() time.Duration {
	return c.ContentTimeout
}

func (c *AppConfig) GetSessionTimeout() time.Duration {
	return c.SessionTimeout
}

func (c *AppConfig) GetReadyTimeout() time.Duration {
	return c.ReadyTimeout
}

func (c *AppConfig) GetMaxRenderSessions() int64 {
	return c.MaxRenderSessions
}

// GetArchiveBucket returns the S3 bucket for rendered artifacts; empty disables archiving
func (c *AppConfig) GetArchiveBucket() string {
	return c.ArchiveBucket
}

func (c *AppConfig) GetAWSRegion() string {
	return c.AWSRegion
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
