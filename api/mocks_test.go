package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/International-Combat-Archery-Alliance/captcha"
	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/documents"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/metrics"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/retailer"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

var noopLogger = slog.New(slog.DiscardHandler)

var _ DB = &mockDB{}

type mockDB struct {
	CreateRetailerFunc func(ctx context.Context, r retailer.Retailer) error
	GetRetailerFunc    func(ctx context.Context, id uuid.UUID) (retailer.Retailer, error)
	GetRetailersFunc   func(ctx context.Context, limit int32, cursor *string) (retailer.GetRetailersResponse, error)
	UpdateRetailerFunc func(ctx context.Context, r retailer.Retailer) error
}

func (m *mockDB) CreateRetailer(ctx context.Context, r retailer.Retailer) error {
	if m.CreateRetailerFunc != nil {
		return m.CreateRetailerFunc(ctx, r)
	}
	return nil
}

func (m *mockDB) GetRetailer(ctx context.Context, id uuid.UUID) (retailer.Retailer, error) {
	return m.GetRetailerFunc(ctx, id)
}

func (m *mockDB) GetRetailers(ctx context.Context, limit int32, cursor *string) (retailer.GetRetailersResponse, error) {
	return m.GetRetailersFunc(ctx, limit, cursor)
}

func (m *mockDB) UpdateRetailer(ctx context.Context, r retailer.Retailer) error {
	return m.UpdateRetailerFunc(ctx, r)
}

type mockHasher struct{}

func (m *mockHasher) Hash(plain string) (string, error) {
	return "hashed:" + plain, nil
}

func (m *mockHasher) Verify(plain, phc string) bool {
	return phc == "hashed:"+plain
}

type mockEmailSender struct {
	mu   sync.Mutex
	sent []email.Email

	SendEmailFunc func(ctx context.Context, e email.Email) error
}

func (m *mockEmailSender) SendEmail(ctx context.Context, e email.Email) error {
	m.mu.Lock()
	m.sent = append(m.sent, e)
	m.mu.Unlock()

	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, e)
	}
	return nil
}

func (m *mockEmailSender) Sent() []email.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Email(nil), m.sent...)
}

type mockCaptchaValidator struct {
	ValidateFunc func(ctx context.Context, token string, remoteIP string) (captcha.ValidatedData, error)
}

type mockCaptchaValidatedData struct{}

func (m *mockCaptchaValidatedData) Hostname() string       { return "retailers.example.com" }
func (m *mockCaptchaValidatedData) Action() string         { return "" }
func (m *mockCaptchaValidatedData) ChallengeTS() time.Time { return time.Now() }

func (m *mockCaptchaValidator) Validate(ctx context.Context, token string, remoteIP string) (captcha.ValidatedData, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, token, remoteIP)
	}
	return &mockCaptchaValidatedData{}, nil
}

type mockGoogleIdVerifier struct {
	ValidateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

func (m *mockGoogleIdVerifier) Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
	return m.ValidateFunc(ctx, idToken, audience)
}

const (
	testAudience    = "test-client-id.apps.googleusercontent.com"
	testAdminDomain = "retailers.example.com"
)

type testServer struct {
	api         *API
	handler     http.Handler
	db          *mockDB
	documents   *documents.MemoryStore
	emailSender *mockEmailSender
	captcha     *mockCaptchaValidator
	metrics     *metrics.Metrics
	sessions    *session.Registry
}

// newTestServer builds the full handler chain, validation included, over
// in-memory collaborators.
func newTestServer(t *testing.T, db *mockDB, verifier googleIdVerifier) *testServer {
	t.Helper()

	if db == nil {
		db = &mockDB{}
	}
	if verifier == nil {
		verifier = &mockGoogleIdVerifier{
			ValidateFunc: func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error) {
				return &idtoken.Payload{
					Expires: time.Now().Add(time.Hour).Unix(),
					Claims:  map[string]any{"email": "admin@" + testAdminDomain, "hd": testAdminDomain},
				}, nil
			},
		}
	}

	store := documents.NewMemoryStore(time.Hour)
	sessions := session.NewRegistry(time.Hour, nil)
	m := metrics.New(sessions.Count)
	sender := &mockEmailSender{}
	captchaValidator := &mockCaptchaValidator{}

	a := NewAPI(db, noopLogger, LOCAL, Config{
		FromAddress:    "Retailers <no-reply@retailers.example.com>",
		CookieDomain:   ".retailers.example.com",
		AdminDomain:    testAdminDomain,
		GoogleAudience: testAudience,
		MaxUploadBytes: 1 << 20,
	}, sessions, store, &mockHasher{}, sender, captchaValidator, verifier, m)

	h, err := a.Handler()
	require.NoError(t, err)

	return &testServer{
		api:         a,
		handler:     h,
		db:          db,
		documents:   store,
		emailSender: sender,
		captcha:     captchaValidator,
		metrics:     m,
		sessions:    sessions,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}
