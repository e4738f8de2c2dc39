package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/supabase-community/supabase-go"

	"docsign-service/internal/domain"
)

type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{
		messages: []string{},
	}
}

func (m *MockLogger) record(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, line)
}

func (m *MockLogger) Info(msg string, args ...interface{}) {
	m.record("INFO: " + msg)
}

func (m *MockLogger) Error(msg string, err error, args ...interface{}) {
	m.record("ERROR: " + msg + " - " + fmt.Sprint(err))
}

func (m *MockLogger) Debug(msg string, args ...interface{}) {
	m.record("DEBUG: " + msg)
}

func (m *MockLogger) Warn(msg string, args ...interface{}) {
	m.record("WARN: " + msg)
}

func (m *MockLogger) Contains(prefix string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range m.messages {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// MockSigningRepository keeps everything in maps. beforeUpdate, when set,
// runs ahead of every status update and may mutate the stored recipient to
// simulate a concurrent writer.
type MockSigningRepository struct {
	mu           sync.Mutex
	documents    map[string]*domain.Document
	recipients   map[string]*domain.Recipient
	fields       map[string][]*domain.Field
	saveErr      error
	saves        int
	updates      int
	beforeUpdate func(r *domain.Recipient)
}

func NewMockSigningRepository() *MockSigningRepository {
	return &MockSigningRepository{
		documents:  make(map[string]*domain.Document),
		recipients: make(map[string]*domain.Recipient),
		fields:     make(map[string][]*domain.Field),
	}
}

func (m *MockSigningRepository) SaveDocument(ctx context.Context, doc *domain.Document, recipients []*domain.Recipient, fields []*domain.Field) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if doc.Reference != "" {
		for _, other := range m.documents {
			if other.Reference == doc.Reference {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateReference, doc.Reference)
			}
		}
	}
	m.saves++
	m.documents[doc.ID] = doc
	for _, r := range recipients {
		m.recipients[r.ID] = r
	}
	m.fields[doc.ID] = fields
	return nil
}

func (m *MockSigningRepository) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, ok := m.documents[id]; ok {
		return doc, nil
	}
	return nil, domain.ErrDocumentNotFound
}

func (m *MockSigningRepository) FindDocumentByReference(ctx context.Context, reference string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.documents {
		if doc.Reference == reference {
			return doc, nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (m *MockSigningRepository) FindDocumentByExternalID(ctx context.Context, externalID string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.documents {
		if doc.ExternalID == externalID {
			return doc, nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (m *MockSigningRepository) ListRecipients(ctx context.Context, documentID string) ([]*domain.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Recipient
	for _, r := range m.recipients {
		if r.DocumentID == documentID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSigningRepository) ListFields(ctx context.Context, documentID string) ([]*domain.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fields[documentID], nil
}

func (m *MockSigningRepository) GetRecipient(ctx context.Context, id string) (*domain.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.recipients[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrRecipientNotFound
}

func (m *MockSigningRepository) FindRecipientByExternalID(ctx context.Context, externalID string) (*domain.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recipients {
		if r.ExternalID == externalID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrRecipientNotFound
}

func (m *MockSigningRepository) UpdateRecipientStatus(ctx context.Context, id string, expected, next domain.RecipientStatus) (*domain.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipients[id]
	if !ok {
		return nil, domain.ErrRecipientNotFound
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate(r)
	}
	if r.Status != expected {
		return nil, domain.ErrStatusConflict
	}
	m.updates++
	r.Status = next
	cp := *r
	return &cp, nil
}

func (m *MockSigningRepository) addRecipient(r *domain.Recipient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipients[r.ID] = r
}

func (m *MockSigningRepository) status(id string) domain.RecipientStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recipients[id].Status
}

// MockSignatureProvider records calls and echoes fields back unless told otherwise.
type MockSignatureProvider struct {
	mu sync.Mutex

	created      *domain.CreatedRemoteDocument
	createErr    error
	uploadErr    error
	fieldsErr    error
	dropFields   bool
	distribution *domain.DistributionResult
	distErr      error
	remote       *domain.RemoteDocument
	getErr       error

	calls       []string
	createInput domain.CreateRemoteDocumentInput
	uploaded    []byte
	contentType string
	fields      []domain.RemoteField
}

func (m *MockSignatureProvider) call(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *MockSignatureProvider) Create(ctx context.Context, input domain.CreateRemoteDocumentInput) (*domain.CreatedRemoteDocument, error) {
	m.call("create")
	m.mu.Lock()
	m.createInput = input
	m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.created != nil {
		return m.created, nil
	}
	out := &domain.CreatedRemoteDocument{DocumentID: "remote-doc", UploadURL: "https://upload.example/doc"}
	for i, r := range input.Recipients {
		out.Recipients = append(out.Recipients, domain.RemoteRecipient{
			ID:           fmt.Sprintf("remote-r%d", i+1),
			Email:        r.Email,
			Name:         r.Name,
			Role:         r.Role,
			SigningOrder: r.SigningOrder,
		})
	}
	return out, nil
}

func (m *MockSignatureProvider) Upload(ctx context.Context, uploadURL string, binary []byte, contentType string) error {
	m.call("upload")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploaded = binary
	m.contentType = contentType
	return m.uploadErr
}

func (m *MockSignatureProvider) CreateFields(ctx context.Context, documentID string, fields []domain.RemoteField) ([]domain.RemoteField, error) {
	m.call("fields")
	m.mu.Lock()
	m.fields = fields
	m.mu.Unlock()
	if m.fieldsErr != nil {
		return nil, m.fieldsErr
	}
	if m.dropFields {
		return []domain.RemoteField{}, nil
	}
	out := make([]domain.RemoteField, len(fields))
	for i, f := range fields {
		f.ID = fmt.Sprintf("remote-f%d", i+1)
		out[i] = f
	}
	return out, nil
}

func (m *MockSignatureProvider) Distribute(ctx context.Context, documentID string) (*domain.DistributionResult, error) {
	m.call("distribute")
	if m.distErr != nil {
		return nil, m.distErr
	}
	if m.distribution != nil {
		return m.distribution, nil
	}
	return &domain.DistributionResult{Status: domain.RemoteStatusPending, ExternalID: documentID}, nil
}

func (m *MockSignatureProvider) Get(ctx context.Context, documentID string) (*domain.RemoteDocument, error) {
	m.call("get")
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.remote == nil {
		return nil, errors.New("remote document not configured")
	}
	return m.remote, nil
}

func (m *MockSignatureProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockRenderer returns result after delay, if set.
type MockRenderer struct {
	mu     sync.Mutex
	result *domain.RenderResult
	err    error
	delay  time.Duration
	calls  int
}

func (m *MockRenderer) Render(ctx context.Context, content string) (*domain.RenderResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type MockArchive struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (m *MockArchive) Put(ctx context.Context, key string, binary []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.keys = append(m.keys, key)
	return nil
}

type MockSupabaseClient struct {
	calls int
}

func (m *MockSupabaseClient) Initialize() error {
	return nil
}

func (m *MockSupabaseClient) ValidateToken(token string) (*domain.SupabaseUser, error) {
	m.calls++
	if token == "valid-token" {
		return &domain.SupabaseUser{
			ID:    "user-123",
			Email: "test@example.com",
		}, nil
	}
	return nil, domain.ErrInvalidToken
}

func (m *MockSupabaseClient) DB() *supabase.Client {
	return nil
}
