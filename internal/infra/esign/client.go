// Package esign is the HTTP client of the remote e-signature provider.
package esign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docsign-service/internal/domain"
	"docsign-service/internal/metrics"
	apperrors "docsign-service/pkg/errors"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Client implements domain.SignatureProvider over the provider's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     domain.Logger
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics records every provider call.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a provider client for baseURL authenticated with apiKey.
func NewClient(baseURL, apiKey string, logger domain.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createDocumentRequest struct {
	Title      string                  `json:"title"`
	ExternalID string                  `json:"externalId,omitempty"`
	Recipients []domain.RecipientInput `json:"recipients"`
	Meta       createDocumentMeta      `json:"meta"`
}

type createDocumentMeta struct {
	SigningOrder domain.SigningOrder `json:"signingOrder"`
}

type fieldsRequest struct {
	Fields []domain.RemoteField `json:"fields"`
}

type fieldsResponse struct {
	Fields []domain.RemoteField `json:"fields"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Create opens a remote document with its recipient list.
func (c *Client) Create(ctx context.Context, input domain.CreateRemoteDocumentInput) (*domain.CreatedRemoteDocument, error) {
	body := createDocumentRequest{
		Title:      input.Title,
		ExternalID: input.Reference,
		Recipients: input.Recipients,
		Meta:       createDocumentMeta{SigningOrder: input.SigningOrder},
	}

	var out domain.CreatedRemoteDocument
	err := c.do(ctx, "create", http.MethodPost, "/api/v1/documents", body, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload transfers the binary to a pre-signed target. The target carries its
// own credentials, so the API key is not sent.
func (c *Client) Upload(ctx context.Context, uploadURL string, binary []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(binary))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(binary))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = apperrors.NewNetworkError("artifact upload failed", err)
		c.metrics.AddProviderCall("upload", err)
		return err
	}
	defer resp.Body.Close()

	err = checkStatus(resp)
	c.metrics.AddProviderCall("upload", err)
	if err != nil {
		return err
	}
	c.logger.Debug("Uploaded artifact", "bytes", len(binary), "status", resp.StatusCode)
	return nil
}

// CreateFields submits the fields of a document in one batch and returns
// what the provider created.
func (c *Client) CreateFields(ctx context.Context, documentID string, fields []domain.RemoteField) ([]domain.RemoteField, error) {
	var out fieldsResponse
	path := "/api/v1/documents/" + url.PathEscape(documentID) + "/fields"
	if err := c.do(ctx, "fields", http.MethodPost, path, fieldsRequest{Fields: fields}, &out); err != nil {
		return nil, err
	}
	return out.Fields, nil
}

// Distribute sends the document to its recipients.
func (c *Client) Distribute(ctx context.Context, documentID string) (*domain.DistributionResult, error) {
	var out domain.DistributionResult
	path := "/api/v1/documents/" + url.PathEscape(documentID) + "/send"
	if err := c.do(ctx, "distribute", http.MethodPost, path, struct{}{}, &out); err != nil {
		return nil, err
	}
	if out.ExternalID == "" {
		out.ExternalID = documentID
	}
	return &out, nil
}

// Get fetches the provider's current view of a document.
func (c *Client) Get(ctx context.Context, documentID string) (*domain.RemoteDocument, error) {
	var out domain.RemoteDocument
	path := "/api/v1/documents/" + url.PathEscape(documentID)
	if err := c.do(ctx, "get", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, step, method, path string, in, out interface{}) (err error) {
	defer func() {
		c.metrics.AddProviderCall(step, err)
	}()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", step, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", step, err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewNetworkError("provider "+step+" call failed", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Provider call", "step", step, "status", resp.StatusCode, "elapsed", time.Since(start))

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewNetworkError("provider "+step+" returned an unreadable body", err)
	}
	return nil
}

// checkStatus turns a non-2xx response into a network error carrying the
// provider's message.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))
	var parsed errorResponse
	if json.Unmarshal(raw, &parsed) == nil {
		if parsed.Message != "" {
			msg = parsed.Message
		} else if parsed.Error != "" {
			msg = parsed.Error
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return apperrors.NewNetworkError(fmt.Sprintf("provider responded %d: %s", resp.StatusCode, msg), nil)
}
