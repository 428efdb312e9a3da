package api

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/catalog"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/retailer"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/session"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/slices"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/wizard"
	"github.com/google/uuid"
)

const (
	uploadFormField     = "files"
	multipartMemory     = 8 << 20
	defaultContentType  = "application/octet-stream"
	sessionNotFoundText = "Wizard session not found"
)

var (
	errAdvanceBlocked = errors.New("current step is incomplete or is the last step")
	errRetreatBlocked = errors.New("already on the first step")
)

type WizardSession struct {
	ID          string                      `json:"id"`
	Flow        string                      `json:"flow"`
	CurrentStep int                         `json:"currentStep"`
	TotalSteps  int                         `json:"totalSteps"`
	Steps       []StepState                 `json:"steps"`
	Draft       Draft                       `json:"draft"`
	Validation  map[string]ValidationResult `json:"validation"`
	Submitted   bool                        `json:"submitted"`
	Receipt     *Receipt                    `json:"receipt,omitempty"`
}

type StepState struct {
	Step     int  `json:"step"`
	Complete bool `json:"complete"`
}

// Draft mirrors wizard.Draft with the credentials replaced by presence flags.
type Draft struct {
	BusinessName        string           `json:"businessName"`
	BusinessEmail       string           `json:"businessEmail"`
	BusinessDescription string           `json:"businessDescription"`
	BusinessType        string           `json:"businessType"`
	SelectedCategories  []string         `json:"selectedCategories"`
	CategoryDetails     []CategoryDetail `json:"categoryDetails"`
	PhoneNumber         string           `json:"phoneNumber"`
	StreetAddress       string           `json:"streetAddress"`
	City                string           `json:"city"`
	State               string           `json:"state"`
	ZipCode             string           `json:"zipCode"`
	Country             string           `json:"country"`
	Documents           []Document       `json:"documents"`
	HasPassword         bool             `json:"hasPassword"`
	HasConfirmPassword  bool             `json:"hasConfirmPassword"`
}

type Document struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	Key         string `json:"key,omitempty"`
}

type ValidationResult struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message"`
}

type Receipt struct {
	RegistrationID string `json:"registrationId"`
	Status         string `json:"status"`
}

type postWizardSessionBody struct {
	Flow string `json:"flow"`
}

type putWizardFieldBody struct {
	Value string `json:"value"`
}

type putWizardBusinessTypeBody struct {
	BusinessType string `json:"businessType"`
}

func (a *API) PostWizardSession(w http.ResponseWriter, r *http.Request) {
	logger := a.getLoggerOrBaseLogger(r.Context())

	if !a.checkCaptcha(w, r, logger) {
		return
	}

	flow := wizard.STANDARD
	if r.ContentLength > 0 {
		var body postWizardSessionBody
		if !readJSON(w, r, logger, &body) {
			return
		}
		if body.Flow != "" {
			f, err := wizard.ParseFlow(body.Flow)
			if err != nil {
				writeError(w, logger, http.StatusBadRequest, InvalidBody, "Unknown flow")
				return
			}
			flow = f
		}
	}

	id := a.sessions.Create(flow)
	logger.Info("Started wizard session", slog.String("session-id", id.String()), slog.String("flow", flow.String()))

	a.respondWithSession(w, logger, id, http.StatusCreated, "start", func(wz *wizard.Wizard) error {
		return nil
	})
}

func (a *API) GetWizardSession(w http.ResponseWriter, r *http.Request) {
	logger := a.getLoggerOrBaseLogger(r.Context())

	id, ok := sessionIdFromPath(w, r, logger)
	if !ok {
		return
	}

	a.respondWithSession(w, logger, id, http.StatusOK, "", func(wz *wizard.Wizard) error {
		return nil
	})
}

func (a *API) DeleteWizardSession(w http.ResponseWriter, r *http.Request) {
	logger := a.getLoggerOrBaseLogger(r.Context())

	id, ok := sessionIdFromPath(w, r, logger)
	if !ok {
		return
	}

	err := a.sessions.Do(id, func(wz *wizard.Wizard) error { return nil })
	if err != nil {
		a.writeWizardError(w, logger, err)
		return
	}

	a.sessions.Delete(id)
	a.metrics.RecordWizardEvent("abandon")
	logger.Info("Abandoned wizard session", slog.String("session-id", id.String()))

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) PutWizardField(w http.ResponseWriter, r *http.Request) {
	logger := a.getLoggerOrBaseLogger(r.Context())

	id, ok := sessionIdFromPath(w, r, logger)
	if !ok {
		return
	}

	field, err := wizard.ParseField(r.PathValue("field"))
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, InvalidBody, "Unknown field")
		return
	}

	var body putWizardFieldBody
	if !readJSON(w, r, logger, &body) {
		return
	}

	a.respondWithSession(w, logger, id, http.StatusOK, "set_field", func(wz *wizard.Wizard) error {
		wz.SetField(field, body.Value)
		return nil
	})
}

func (a *API) PutWizardBusinessType(w http.ResponseWriter, r *http.Request) {
	logger := a.getLoggerOrBaseLogger(r.Context())

	id, ok := sessionIdFromPath(w, r, logger)
	if !ok {
		return
	}

	var body putWizardBusinessTypeBody
	if !readJSON(w, r, logger, &body) {
		return
	}

	businessType, err := catalog.ParseBusinessType(body.BusinessType)
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, InvalidBody, "Unknown business type")
		return
	}

	a.respondWithSession(w, logger, id, http.StatusOK, "set_business_type", func(wz *wizard.Wizard) error {
		wz.SetBusinessType(businessType)
		return nil
	})
}

func (a *API) PostWizardToggleCategory(w http.ResponseWriter, r *http.Request) {
	logger := a.getLoggerOrBaseLogger(r.Context())

	id, ok := sessionIdFromPath(w, r, logger)
	if !ok {
		return
	}

	categoryId := r.PathValue("categoryId")

	a.respondWithSession(w, logger, id, http.StatusOK, "toggle_category", func(wz *wizard.Wizard) error {
		wz.ToggleCategory(categoryId)
		return nil
	})
}

func (a *API) PostWizardAdvance(w http.ResponseWriter, r *http.Request) {
	logger := a.getLoggerOrBaseLogger(r.Context())

	id, ok := sessionIdFromPath(w, r, logger)
	if !ok {
		return
	}

	a.respondWithSession(w, logger, id, http.StatusOK, "advance", func(wz *wizard.Wizard) error {
		if !wz.Advance() {
			return errAdvanceBlocked
		}
		return nil
	})
}

func (a *API) PostWizardRetreat(w http.ResponseWriter, r *http.Request) {
	logger := a.getLoggerOrBaseLogger(r.Context())

	id, ok := sessionIdFromPath(w, r, logger)
	if !ok {
		return
	}

	a.respondWithSession(w, logger, id, http.StatusOK, "retreat", func(wz *wizard.Wizard) error {
		if !wz.Retreat() {
			return errRetreatBlocked
		}
		return nil
	})
}

// PostWizardDocuments takes a multipart form with one or more "files" parts.
// The session stays locked while the files upload, so concurrent uploads to
// the same session are appended one batch after another.
func (a *API) PostWizardDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	id, ok := sessionIdFromPath(w, r, logger)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		logger.Warn("Failed to parse document upload", slog.String("error", err.Error()))

		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, logger, http.StatusRequestEntityTooLarge, InvalidBody, "Upload is too large")
			return
		}
		writeError(w, logger, http.StatusBadRequest, InvalidBody, "Body must be a multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadFormField]
	if len(headers) == 0 {
		writeError(w, logger, http.StatusBadRequest, EmptyBody, "Must attach at least one file")
		return
	}

	files := make([]wizard.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			logger.Error("Failed to open uploaded file", slog.String("error", err.Error()), slog.String("file", fh.Filename))
			writeInternalError(w, logger)
			return
		}
		defer f.Close()

		files = append(files, multipartToFile(fh, f))
	}

	a.respondWithSession(w, logger, id, http.StatusOK, "add_documents", func(wz *wizard.Wizard) error {
		uploaded, err := wz.AddDocuments(ctx, a.documents, files)
		if err != nil {
			a.deleteDocuments(ctx, logger, uploaded)
			return err
		}

		for _, doc := range uploaded {
			a.metrics.RecordUpload(doc.Size)
		}
		return nil
	})
}

func (a *API) DeleteWizardDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	id, ok := sessionIdFromPath(w, r, logger)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, InvalidBody, "Document index must be an integer")
		return
	}

	a.respondWithSession(w, logger, id, http.StatusOK, "remove_document", func(wz *wizard.Wizard) error {
		if removed, ok := wz.RemoveDocument(index); ok {
			a.deleteDocuments(ctx, logger, []wizard.Document{removed})
		}
		return nil
	})
}

func (a *API) PostWizardSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	id, ok := sessionIdFromPath(w, r, logger)
	if !ok {
		return
	}

	var receipt wizard.Receipt
	err := a.sessions.Do(id, func(wz *wizard.Wizard) error {
		var err error
		receipt, err = wz.Submit(ctx, &registrationSubmitter{api: a})
		return err
	})
	if err != nil {
		logger.Warn("Wizard submission failed", slog.String("session-id", id.String()), slog.String("error", err.Error()))
		a.writeWizardError(w, logger, err)
		return
	}

	// The wizard is frozen now; dropping the session keeps its documents
	// since they belong to the registration.
	a.sessions.Delete(id)
	a.metrics.RecordWizardEvent("submit")

	writeJSON(w, logger, http.StatusOK, Receipt{
		RegistrationID: receipt.RegistrationID,
		Status:         receipt.Status,
	})
}

// respondWithSession runs fn with the session locked and answers with the
// resulting session state.
func (a *API) respondWithSession(w http.ResponseWriter, logger *slog.Logger, id uuid.UUID, status int, event string, fn func(wz *wizard.Wizard) error) {
	var view WizardSession
	err := a.sessions.Do(id, func(wz *wizard.Wizard) error {
		if err := fn(wz); err != nil {
			return err
		}
		view = wizardToApiSession(id, wz)
		return nil
	})
	if err != nil {
		a.writeWizardError(w, logger, err)
		return
	}

	if event != "" {
		a.metrics.RecordWizardEvent(event)
	}

	writeJSON(w, logger, status, view)
}

func (a *API) writeWizardError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, logger, http.StatusNotFound, NotFound, sessionNotFoundText)
		return
	case errors.Is(err, errAdvanceBlocked):
		writeError(w, logger, http.StatusConflict, StepIncomplete, "Current step must be complete before moving on")
		return
	case errors.Is(err, errRetreatBlocked):
		writeError(w, logger, http.StatusConflict, NavigationBlocked, "Already on the first step")
		return
	}

	var wizardErr *wizard.Error
	if !errors.As(err, &wizardErr) {
		logger.Error("Unexpected wizard error", slog.String("error", err.Error()))
		writeInternalError(w, logger)
		return
	}

	switch wizardErr.Reason {
	case wizard.REASON_NOT_ON_LAST_STEP, wizard.REASON_STEP_INCOMPLETE:
		writeError(w, logger, http.StatusConflict, StepIncomplete, wizardErr.Message)
	case wizard.REASON_ALREADY_SUBMITTED:
		writeError(w, logger, http.StatusConflict, AlreadySubmitted, wizardErr.Message)
	case wizard.REASON_UPLOAD_FAILED:
		logger.Error("Document upload failed", slog.String("error", err.Error()))
		writeError(w, logger, http.StatusBadGateway, UploadFailed, wizardErr.Message)
	case wizard.REASON_SUBMISSION_INVALID:
		var subErr *wizard.SubmissionError
		errors.As(err, &subErr)
		writeJSON(w, logger, http.StatusBadRequest, Error{
			Code:    ValidationFailed,
			Message: "Validation failed",
			Details: subErr.Messages,
		})
	case wizard.REASON_SUBMISSION_FAILED:
		var retailerErr *retailer.Error
		if errors.As(err, &retailerErr) && retailerErr.Reason == retailer.REASON_RETAILER_ALREADY_EXISTS {
			writeError(w, logger, http.StatusConflict, AlreadyExists, "A business with this email is already registered")
			return
		}
		logger.Error("Failed to submit registration", slog.String("error", err.Error()))
		writeInternalError(w, logger)
	default:
		logger.Error("Unexpected wizard error", slog.String("error", err.Error()))
		writeInternalError(w, logger)
	}
}

// deleteDocuments removes blobs that are no longer referenced by a draft.
// Failures only leave an orphan behind so they are logged and ignored.
func (a *API) deleteDocuments(ctx context.Context, logger *slog.Logger, docs []wizard.Document) {
	for _, doc := range docs {
		if err := a.documents.Delete(ctx, doc.Key); err != nil {
			logger.Warn("Failed to delete document", slog.String("key", doc.Key), slog.String("error", err.Error()))
		}
	}
}

func sessionIdFromPath(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		// Unparseable ids can't name a live session.
		writeError(w, logger, http.StatusNotFound, NotFound, sessionNotFoundText)
		return uuid.UUID{}, false
	}
	return id, true
}

func multipartToFile(fh *multipart.FileHeader, f multipart.File) wizard.File {
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	return wizard.File{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: contentType,
		Content:     f,
	}
}

func wizardToApiSession(id uuid.UUID, wz *wizard.Wizard) WizardSession {
	flow := wz.Flow()
	draft := wz.Draft()

	steps := make([]StepState, 0, flow.NumSteps())
	for s := flow.FirstStep(); s <= flow.LastStep(); s++ {
		steps = append(steps, StepState{Step: int(s), Complete: wz.IsStepComplete(s)})
	}

	validation := make(map[string]ValidationResult, len(draft.Validation))
	for f, v := range draft.Validation {
		validation[f.String()] = ValidationResult{IsValid: v.IsValid, Message: v.Message}
	}

	view := WizardSession{
		ID:          id.String(),
		Flow:        flow.String(),
		CurrentStep: int(wz.CurrentStep()),
		TotalSteps:  flow.NumSteps(),
		Steps:       steps,
		Draft: Draft{
			BusinessName:        draft.BusinessName,
			BusinessEmail:       draft.BusinessEmail,
			BusinessDescription: draft.BusinessDescription,
			BusinessType:        draft.BusinessType.String(),
			SelectedCategories:  draft.SelectedCategories,
			CategoryDetails:     slices.Map(draft.CategoryDetails, detailToApiCategoryDetail),
			PhoneNumber:         draft.PhoneNumber,
			StreetAddress:       draft.StreetAddress,
			City:                draft.City,
			State:               draft.State,
			ZipCode:             draft.ZipCode,
			Country:             draft.Country,
			Documents:           slices.Map(draft.Documents, wizardDocumentToApiDocument),
			HasPassword:         draft.Password != "",
			HasConfirmPassword:  draft.ConfirmPassword != "",
		},
		Validation: validation,
		Submitted:  wz.Submitted(),
	}

	if wz.Submitted() {
		receipt := wz.Receipt()
		view.Receipt = &Receipt{RegistrationID: receipt.RegistrationID, Status: receipt.Status}
	}

	return view
}

func wizardDocumentToApiDocument(d wizard.Document) Document {
	return Document{
		Name:        d.Name,
		Size:        d.Size,
		ContentType: d.ContentType,
	}
}
