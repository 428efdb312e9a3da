package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/metrics"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/retailer"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/session"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/wizard"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registrationCount(t *testing.T, m *metrics.Metrics, result metrics.RegistrationResult) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != "retailer_registration_registrations_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "result" && label.GetValue() == string(result) {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func jsonRequest(method, path string, body any) *http.Request {
	var r *http.Request
	if body == nil {
		r = httptest.NewRequest(method, path, nil)
	} else {
		b, _ := json.Marshal(body)
		r = httptest.NewRequest(method, path, bytes.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
	}
	r.Header.Set(captchaHeader, "test-token")
	return r
}

func uploadRequest(t *testing.T, path string, files map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile(uploadFormField, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, path, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) startSession(t *testing.T, flow string) string {
	t.Helper()

	var body any
	if flow != "" {
		body = map[string]string{"flow": flow}
	}

	rec := s.do(jsonRequest(http.MethodPost, "/wizard/sessions", body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[WizardSession](t, rec).ID
}

func (s *testServer) setField(t *testing.T, id, field, value string) WizardSession {
	t.Helper()

	rec := s.do(jsonRequest(http.MethodPut, "/wizard/sessions/"+id+"/fields/"+field, map[string]string{"value": value}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[WizardSession](t, rec)
}

func (s *testServer) post(t *testing.T, path string, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()

	rec := s.do(httptest.NewRequest(http.MethodPost, path, nil))
	require.Equal(t, wantStatus, rec.Code, rec.Body.String())
	return rec
}

// fillToLastStep walks a standard wizard to its last step with every field
// valid, leaving documents to the caller.
func (s *testServer) fillToLastStep(t *testing.T, id string) {
	t.Helper()
	base := "/wizard/sessions/" + id

	s.setField(t, id, "businessName", "Acme Goods")
	s.setField(t, id, "businessEmail", "owner@acme.com")
	s.setField(t, id, "businessDescription", "We sell things")
	s.post(t, base+"/advance", http.StatusOK)

	rec := s.do(jsonRequest(http.MethodPut, base+"/business-type", map[string]string{"businessType": "both"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s.post(t, base+"/categories/electronics/toggle", http.StatusOK)
	s.post(t, base+"/categories/repairs/toggle", http.StatusOK)
	s.post(t, base+"/advance", http.StatusOK)

	s.setField(t, id, "phoneNumber", "+1 (555) 123-4567")
	s.setField(t, id, "streetAddress", "1 Main St")
	s.setField(t, id, "city", "Springfield")
	s.setField(t, id, "state", "IL")
	s.setField(t, id, "zipCode", "62701")
	s.post(t, base+"/advance", http.StatusOK)

	s.setField(t, id, "password", "abc12345")
	s.setField(t, id, "confirmPassword", "abc12345")
}

func TestPostWizardSession(t *testing.T) {
	t.Run("defaults to the standard flow", func(t *testing.T) {
		s := newTestServer(t, nil, nil)

		rec := s.do(jsonRequest(http.MethodPost, "/wizard/sessions", nil))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		view := decode[WizardSession](t, rec)
		assert.Equal(t, "standard", view.Flow)
		assert.Equal(t, 1, view.CurrentStep)
		assert.Equal(t, 4, view.TotalSteps)
		assert.Len(t, view.Steps, 4)
		assert.Equal(t, wizard.DefaultCountry, view.Draft.Country)
		assert.Empty(t, view.Validation)
		assert.False(t, view.Submitted)
		assert.Nil(t, view.Receipt)
		assert.Equal(t, 1, s.sessions.Count())
	})

	t.Run("compact flow", func(t *testing.T) {
		s := newTestServer(t, nil, nil)

		rec := s.do(jsonRequest(http.MethodPost, "/wizard/sessions", map[string]string{"flow": "compact"}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, 3, decode[WizardSession](t, rec).TotalSteps)
	})

	t.Run("unknown flow is rejected by validation", func(t *testing.T) {
		s := newTestServer(t, nil, nil)

		rec := s.do(jsonRequest(http.MethodPost, "/wizard/sessions", map[string]string{"flow": "sideways"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, InputValidationError, decode[Error](t, rec).Code)
		assert.Equal(t, 0, s.sessions.Count())
	})
}

func TestWizardSessionLookup(t *testing.T) {
	s := newTestServer(t, nil, nil)

	t.Run("unknown session", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/wizard/sessions/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, NotFound, decode[Error](t, rec).Code)
	})

	t.Run("abandon", func(t *testing.T) {
		id := s.startSession(t, "")

		rec := s.do(httptest.NewRequest(http.MethodDelete, "/wizard/sessions/"+id, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(httptest.NewRequest(http.MethodGet, "/wizard/sessions/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = s.do(httptest.NewRequest(http.MethodDelete, "/wizard/sessions/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPutWizardField(t *testing.T) {
	s := newTestServer(t, nil, nil)
	id := s.startSession(t, "")

	t.Run("validation is reported per field", func(t *testing.T) {
		view := s.setField(t, id, "businessEmail", "not-an-email")
		assert.Equal(t, ValidationResult{IsValid: false, Message: "Please enter a valid email address"}, view.Validation["businessEmail"])

		view = s.setField(t, id, "businessEmail", "owner@acme.com")
		assert.Equal(t, ValidationResult{IsValid: true, Message: "Valid email address"}, view.Validation["businessEmail"])
		assert.Equal(t, "owner@acme.com", view.Draft.BusinessEmail)
	})

	t.Run("credentials are never echoed", func(t *testing.T) {
		rec := s.do(jsonRequest(http.MethodPut, "/wizard/sessions/"+id+"/fields/password", map[string]string{"value": "abc12345"}))
		require.Equal(t, http.StatusOK, rec.Code)

		assert.NotContains(t, rec.Body.String(), "abc12345")
		view := decode[WizardSession](t, rec)
		assert.True(t, view.Draft.HasPassword)
		assert.False(t, view.Draft.HasConfirmPassword)
		assert.True(t, view.Validation["password"].IsValid)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := s.do(jsonRequest(http.MethodPut, "/wizard/sessions/"+id+"/fields/favouriteColour", map[string]string{"value": "blue"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing value", func(t *testing.T) {
		rec := s.do(jsonRequest(http.MethodPut, "/wizard/sessions/"+id+"/fields/city", map[string]string{}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWizardCategories(t *testing.T) {
	s := newTestServer(t, nil, nil)
	id := s.startSession(t, "")
	base := "/wizard/sessions/" + id

	rec := s.do(jsonRequest(http.MethodPut, base+"/business-type", map[string]string{"businessType": "products"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "products", decode[WizardSession](t, rec).Draft.BusinessType)

	view := decode[WizardSession](t, s.post(t, base+"/categories/electronics/toggle", http.StatusOK))
	assert.Equal(t, []string{"electronics"}, view.Draft.SelectedCategories)
	require.Len(t, view.Draft.CategoryDetails, 1)
	assert.Equal(t, "product", view.Draft.CategoryDetails[0].Type)

	// Services are not available to a products business.
	view = decode[WizardSession](t, s.post(t, base+"/categories/repairs/toggle", http.StatusOK))
	assert.Equal(t, []string{"electronics"}, view.Draft.SelectedCategories)

	view = decode[WizardSession](t, s.post(t, base+"/categories/electronics/toggle", http.StatusOK))
	assert.Empty(t, view.Draft.SelectedCategories)

	s.post(t, base+"/categories/electronics/toggle", http.StatusOK)
	rec = s.do(jsonRequest(http.MethodPut, base+"/business-type", map[string]string{"businessType": "products"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[WizardSession](t, rec).Draft.SelectedCategories)

	rec = s.do(jsonRequest(http.MethodPut, base+"/business-type", map[string]string{"businessType": "everything"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWizardNavigation(t *testing.T) {
	s := newTestServer(t, nil, nil)
	id := s.startSession(t, "")
	base := "/wizard/sessions/" + id

	rec := s.post(t, base+"/advance", http.StatusConflict)
	assert.Equal(t, StepIncomplete, decode[Error](t, rec).Code)

	rec = s.post(t, base+"/retreat", http.StatusConflict)
	assert.Equal(t, NavigationBlocked, decode[Error](t, rec).Code)

	s.setField(t, id, "businessName", "Acme Goods")
	s.setField(t, id, "businessEmail", "owner@acme.com")

	view := decode[WizardSession](t, s.post(t, base+"/advance", http.StatusOK))
	assert.Equal(t, 2, view.CurrentStep)
	assert.True(t, view.Steps[0].Complete)
	assert.False(t, view.Steps[1].Complete)

	view = decode[WizardSession](t, s.post(t, base+"/retreat", http.StatusOK))
	assert.Equal(t, 1, view.CurrentStep)
}

func TestWizardDocuments(t *testing.T) {
	t.Run("upload and remove", func(t *testing.T) {
		s := newTestServer(t, nil, nil)
		id := s.startSession(t, "")
		base := "/wizard/sessions/" + id

		rec := s.do(uploadRequest(t, base+"/documents", map[string]string{"license.pdf": "%PDF-1.4"}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		view := decode[WizardSession](t, rec)
		require.Len(t, view.Draft.Documents, 1)
		assert.Equal(t, "license.pdf", view.Draft.Documents[0].Name)
		assert.Equal(t, int64(8), view.Draft.Documents[0].Size)
		assert.Empty(t, view.Draft.Documents[0].Key)

		assert.NoError(t, testutil.GatherAndCompare(s.metrics.Registry(), strings.NewReader(`
# HELP retailer_registration_uploaded_document_bytes_total Bytes of documents uploaded through the wizard.
# TYPE retailer_registration_uploaded_document_bytes_total counter
retailer_registration_uploaded_document_bytes_total 8
`), "retailer_registration_uploaded_document_bytes_total"))

		var key string
		require.NoError(t, s.sessions.Do(uuid.MustParse(id), func(wz *wizard.Wizard) error {
			key = wz.Draft().Documents[0].Key
			return nil
		}))
		_, ok := s.documents.Get(key)
		require.True(t, ok)

		// Out of range indexes are ignored.
		rec = s.do(httptest.NewRequest(http.MethodDelete, base+"/documents/5", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Len(t, decode[WizardSession](t, rec).Draft.Documents, 1)

		rec = s.do(httptest.NewRequest(http.MethodDelete, base+"/documents/0", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Empty(t, decode[WizardSession](t, rec).Draft.Documents)

		_, ok = s.documents.Get(key)
		assert.False(t, ok)
	})

	t.Run("concurrent uploads to one session all land", func(t *testing.T) {
		s := newTestServer(t, nil, nil)
		id := s.startSession(t, "")

		reqs := make([]*http.Request, 5)
		for i := range reqs {
			reqs[i] = uploadRequest(t, "/wizard/sessions/"+id+"/documents", map[string]string{fmt.Sprintf("doc%d.pdf", i): "x"})
		}

		var wg sync.WaitGroup
		for _, req := range reqs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := s.do(req)
				assert.Equal(t, http.StatusOK, rec.Code)
			}()
		}
		wg.Wait()

		rec := s.do(httptest.NewRequest(http.MethodGet, "/wizard/sessions/"+id, nil))
		assert.Len(t, decode[WizardSession](t, rec).Draft.Documents, 5)
	})

	t.Run("no files", func(t *testing.T) {
		s := newTestServer(t, nil, nil)
		id := s.startSession(t, "")

		rec := s.do(uploadRequest(t, "/wizard/sessions/"+id+"/documents", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, EmptyBody, decode[Error](t, rec).Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		s := newTestServer(t, nil, nil)
		id := s.startSession(t, "")

		rec := s.do(jsonRequest(http.MethodPost, "/wizard/sessions/"+id+"/documents", map[string]string{"file": "x"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		s := newTestServer(t, nil, nil)

		rec := s.do(uploadRequest(t, "/wizard/sessions/"+uuid.NewString()+"/documents", map[string]string{"a.pdf": "x"}))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPostWizardSubmit(t *testing.T) {
	t.Run("successful submission registers the retailer", func(t *testing.T) {
		var created retailer.Retailer
		s := newTestServer(t, &mockDB{
			CreateRetailerFunc: func(ctx context.Context, r retailer.Retailer) error {
				created = r
				return nil
			},
		}, nil)
		id := s.startSession(t, "")
		base := "/wizard/sessions/" + id

		s.fillToLastStep(t, id)
		rec := s.do(uploadRequest(t, base+"/documents", map[string]string{"license.pdf": "%PDF-1.4"}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = s.post(t, base+"/submit", http.StatusOK)
		receipt := decode[Receipt](t, rec)
		assert.Equal(t, created.ID.String(), receipt.RegistrationID)
		assert.Equal(t, "pending_verification", receipt.Status)

		assert.Equal(t, "Acme Goods", created.BusinessName)
		assert.Equal(t, "hashed:abc12345", created.PasswordHash)
		assert.Equal(t, []string{"electronics", "repairs"}, created.Categories.IDs)
		assert.True(t, created.Analytics.HasProducts)
		assert.True(t, created.Analytics.HasServices)
		require.Len(t, created.Documents, 1)
		assert.Equal(t, "license.pdf", created.Documents[0].Name)

		// The documents now belong to the registration.
		_, ok := s.documents.Get(created.Documents[0].Key)
		assert.True(t, ok)

		sent := s.emailSender.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, []string{"owner@acme.com"}, sent[0].ToAddresses)

		rec = s.do(httptest.NewRequest(http.MethodGet, base, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		assert.Equal(t, 1.0, registrationCount(t, s.metrics, metrics.REGISTRATION_ACCEPTED))
	})

	t.Run("email failure does not fail the submission", func(t *testing.T) {
		s := newTestServer(t, nil, nil)
		s.emailSender.SendEmailFunc = func(ctx context.Context, e email.Email) error {
			return errors.New("ses is down")
		}
		id := s.startSession(t, "")

		s.fillToLastStep(t, id)
		rec := s.do(uploadRequest(t, "/wizard/sessions/"+id+"/documents", map[string]string{"license.pdf": "x"}))
		require.Equal(t, http.StatusOK, rec.Code)

		s.post(t, "/wizard/sessions/"+id+"/submit", http.StatusOK)
	})

	t.Run("incomplete wizard", func(t *testing.T) {
		s := newTestServer(t, nil, nil)
		id := s.startSession(t, "")

		rec := s.post(t, "/wizard/sessions/"+id+"/submit", http.StatusConflict)
		assert.Equal(t, StepIncomplete, decode[Error](t, rec).Code)
	})

	t.Run("duplicate business email", func(t *testing.T) {
		s := newTestServer(t, &mockDB{
			CreateRetailerFunc: func(ctx context.Context, r retailer.Retailer) error {
				return retailer.NewRetailerAlreadyExistsError("email taken", nil)
			},
		}, nil)
		id := s.startSession(t, "")

		s.fillToLastStep(t, id)
		rec := s.do(uploadRequest(t, "/wizard/sessions/"+id+"/documents", map[string]string{"license.pdf": "x"}))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = s.post(t, "/wizard/sessions/"+id+"/submit", http.StatusConflict)
		assert.Equal(t, AlreadyExists, decode[Error](t, rec).Code)

		// The session survives so the user can fix the email and retry.
		rec = s.do(httptest.NewRequest(http.MethodGet, "/wizard/sessions/"+id, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1.0, registrationCount(t, s.metrics, metrics.REGISTRATION_FAILED))
	})
}

func TestWriteWizardError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
		wantBody   *Error
	}{
		{"session not found", session.ErrNotFound, http.StatusNotFound, NotFound, nil},
		{"not on last step", wizard.NewNotOnLastStepError(1, 4), http.StatusConflict, StepIncomplete, nil},
		{"step incomplete", wizard.NewStepIncompleteError(2), http.StatusConflict, StepIncomplete, nil},
		{"already submitted", wizard.NewAlreadySubmittedError(), http.StatusConflict, AlreadySubmitted, nil},
		{"upload failed", wizard.NewUploadFailedError("a.pdf", errors.New("boom")), http.StatusBadGateway, UploadFailed, nil},
		{
			"submission invalid",
			wizard.NewSubmissionInvalidError(&wizard.SubmissionError{Messages: []string{"At least one category must be selected"}}),
			http.StatusBadRequest,
			ValidationFailed,
			&Error{Code: ValidationFailed, Message: "Validation failed", Details: []string{"At least one category must be selected"}},
		},
		{
			"submission failed on duplicate",
			wizard.NewSubmissionFailedError(retailer.NewRetailerAlreadyExistsError("dup", nil)),
			http.StatusConflict,
			AlreadyExists,
			nil,
		},
		{"submission failed", wizard.NewSubmissionFailedError(errors.New("db down")), http.StatusInternalServerError, InternalError, nil},
		{"unexpected", errors.New("???"), http.StatusInternalServerError, InternalError, nil},
	}

	a := &API{logger: noopLogger}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.writeWizardError(rec, noopLogger, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode[Error](t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			if tt.wantBody != nil {
				assert.Equal(t, *tt.wantBody, body)
			}
		})
	}
}

func TestRegistrationSubmitter(t *testing.T) {
	s := newTestServer(t, nil, nil)
	submitter := &registrationSubmitter{api: s.api}

	_, err := submitter.Submit(context.Background(), wizard.Payload{
		BusinessName:  "Acme Goods",
		BusinessEmail: "owner@acme.com",
	})

	var subErr *wizard.SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, []string{"Invalid business type", "At least one category must be selected"}, subErr.Messages)
	assert.Equal(t, 1.0, registrationCount(t, s.metrics, metrics.REGISTRATION_REJECTED))
	assert.Empty(t, s.emailSender.Sent())
}
