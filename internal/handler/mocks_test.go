package handler

import (
	"context"

	"docsign-service/internal/domain"
	"docsign-service/internal/service"
)

// Mock logger used by handler package tests.
type MockHandlerLogger struct{}

func NewMockHandlerLogger() domain.Logger {
	return &MockHandlerLogger{}
}

func (l *MockHandlerLogger) Info(msg string, fields ...interface{})             {}
func (l *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *MockHandlerLogger) Debug(msg string, fields ...interface{})            {}
func (l *MockHandlerLogger) Warn(msg string, fields ...interface{})             {}

type mockGenerator struct {
	result *service.GenerationResult
	err    error
	input  service.GenerateInput
	calls  int
}

func (m *mockGenerator) Generate(ctx context.Context, in service.GenerateInput) (*service.GenerationResult, error) {
	m.calls++
	m.input = in
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockDocuments struct {
	view    *domain.DocumentView
	result  *domain.DistributionResult
	err     error
	lastID  string
	sendErr error
}

func (m *mockDocuments) GetDocumentView(ctx context.Context, documentID string) (*domain.DocumentView, error) {
	m.lastID = documentID
	if m.err != nil {
		return nil, m.err
	}
	return m.view, nil
}

func (m *mockDocuments) SendForSigning(ctx context.Context, documentID string) (*domain.DistributionResult, error) {
	m.lastID = documentID
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	return m.result, nil
}

type mockStatus struct {
	err           error
	provider      *domain.ProviderWebhook
	renderer      *domain.RendererWebhook
	reconciled    string
	reconciledAs  string
	reconcileWith *domain.Recipient
}

func (m *mockStatus) HandleProviderWebhook(ctx context.Context, event *domain.ProviderWebhook) ([]*domain.Recipient, error) {
	m.provider = event
	if m.err != nil {
		return nil, m.err
	}
	return []*domain.Recipient{{ID: "r1"}}, nil
}

func (m *mockStatus) HandleRendererWebhook(ctx context.Context, event *domain.RendererWebhook) ([]*domain.Recipient, error) {
	m.renderer = event
	if m.err != nil {
		return nil, m.err
	}
	return []*domain.Recipient{{ID: "r1"}}, nil
}

func (m *mockStatus) ReconcileAs(ctx context.Context, recipientID, email string) (*domain.Recipient, error) {
	m.reconciled = recipientID
	m.reconciledAs = email
	if m.err != nil {
		return nil, m.err
	}
	return m.reconcileWith, nil
}
