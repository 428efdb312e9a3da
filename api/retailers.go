package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/catalog"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/retailer"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/slices"
	"github.com/google/uuid"
)

const (
	defaultRetailersLimit = 10
	maxRetailersLimit     = 50
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type BusinessCategories struct {
	Type       string           `json:"type"`
	Categories []string         `json:"categories"`
	Details    []CategoryDetail `json:"details,omitempty"`
}

type RegistrationPayload struct {
	BusinessName        string             `json:"businessName"`
	BusinessEmail       string             `json:"businessEmail"`
	BusinessDescription string             `json:"businessDescription"`
	PhoneNumber         string             `json:"phoneNumber"`
	Address             Address            `json:"address"`
	BusinessCategories  BusinessCategories `json:"businessCategories"`
	Documents           []Document         `json:"documents,omitempty"`
	Password            string             `json:"password"`
}

type RegistrationAccepted struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	RetailerID string `json:"retailerId"`
	Status     string `json:"status"`
}

type Analytics struct {
	BusinessType      string    `json:"businessType"`
	PrimaryCategories []string  `json:"primaryCategories"`
	CategoryCount     int       `json:"categoryCount"`
	HasProducts       bool      `json:"hasProducts"`
	HasServices       bool      `json:"hasServices"`
	RegistrationDate  time.Time `json:"registrationDate"`
}

type Retailer struct {
	ID                  string             `json:"id"`
	Version             int                `json:"version"`
	BusinessName        string             `json:"businessName"`
	BusinessEmail       string             `json:"businessEmail"`
	BusinessDescription string             `json:"businessDescription"`
	PhoneNumber         string             `json:"phoneNumber"`
	Address             Address            `json:"address"`
	BusinessCategories  BusinessCategories `json:"businessCategories"`
	Documents           []Document         `json:"documents"`
	Analytics           Analytics          `json:"analytics"`
	Status              string             `json:"status"`
	CreatedAt           time.Time          `json:"createdAt"`
	VerifiedAt          *time.Time         `json:"verifiedAt,omitempty"`
}

type GetRetailersResponse struct {
	Data        []Retailer `json:"data"`
	Cursor      *string    `json:"cursor,omitempty"`
	HasNextPage bool       `json:"hasNextPage"`
}

// PostRetailers is the registration endpoint. Category details are resolved
// from the catalog by id; whatever details or document keys the client sent
// are ignored.
func (a *API) PostRetailers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	if !a.checkCaptcha(w, r, logger) {
		return
	}

	var body RegistrationPayload
	if !readJSON(w, r, logger, &body) {
		return
	}

	reg, err := a.register(ctx, apiPayloadToApplication(body, time.Now().UTC()))
	if err != nil {
		if details, ok := retailer.IsValidationError(err); ok {
			logger.Warn("Rejected registration", slog.Any("details", details))

			writeJSON(w, logger, http.StatusBadRequest, Error{
				Code:    ValidationFailed,
				Message: "Validation failed",
				Details: details,
			})
			return
		}

		logger.Error("Error trying to register", slog.String("error", err.Error()))

		var retailerErr *retailer.Error
		if errors.As(err, &retailerErr) && retailerErr.Reason == retailer.REASON_RETAILER_ALREADY_EXISTS {
			writeError(w, logger, http.StatusConflict, AlreadyExists, "A business with this email is already registered")
			return
		}

		writeInternalError(w, logger)
		return
	}

	writeJSON(w, logger, http.StatusOK, RegistrationAccepted{
		Success:    true,
		Message:    "Registration submitted successfully",
		RetailerID: reg.ID.String(),
		Status:     reg.Status.String(),
	})
}

func (a *API) GetRetailers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	limit := defaultRetailersLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		userLimit, err := strconv.Atoi(raw)
		if err != nil || userLimit < 1 || userLimit > maxRetailersLimit {
			writeError(w, logger, http.StatusBadRequest, LimitOutOfBounds, "Limit must be between 1 and 50")
			return
		}
		limit = userLimit
	}

	var cursor *string
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor = &raw
	}

	result, err := a.db.GetRetailers(ctx, int32(limit), cursor)
	if err != nil {
		logger.Error("Failed to get retailers from the DB", slog.String("error", err.Error()))

		var retailerErr *retailer.Error
		if errors.As(err, &retailerErr) && retailerErr.Reason == retailer.REASON_INVALID_CURSOR {
			writeError(w, logger, http.StatusBadRequest, InvalidCursor, "Passed in cursor is invalid")
			return
		}

		writeInternalError(w, logger)
		return
	}

	writeJSON(w, logger, http.StatusOK, GetRetailersResponse{
		Data:        slices.Map(result.Data, retailerToApiRetailer),
		Cursor:      result.Cursor,
		HasNextPage: result.HasNextPage,
	})
}

func (a *API) GetRetailer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	id, ok := retailerIdFromPath(w, r, logger)
	if !ok {
		return
	}

	reg, err := a.db.GetRetailer(ctx, id)
	if err != nil {
		a.writeRetailerError(w, logger, err)
		return
	}

	writeJSON(w, logger, http.StatusOK, retailerToApiRetailer(reg))
}

func (a *API) PostRetailerVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	id, ok := retailerIdFromPath(w, r, logger)
	if !ok {
		return
	}

	reg, err := retailer.Verify(ctx, id, a.db, time.Now().UTC())
	if err != nil {
		a.writeRetailerError(w, logger, err)
		return
	}

	logger.Info("Verified retailer", slog.String("retailer-id", id.String()))

	writeJSON(w, logger, http.StatusOK, retailerToApiRetailer(reg))
}

func (a *API) writeRetailerError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var retailerErr *retailer.Error
	if errors.As(err, &retailerErr) {
		switch retailerErr.Reason {
		case retailer.REASON_RETAILER_DOES_NOT_EXIST:
			writeError(w, logger, http.StatusNotFound, NotFound, "Retailer not found")
			return
		case retailer.REASON_ALREADY_VERIFIED:
			writeError(w, logger, http.StatusConflict, AlreadyVerified, "Retailer is already verified")
			return
		case retailer.REASON_TIMEOUT:
			logger.Error("Timed out talking to the DB", slog.String("error", err.Error()))
			writeError(w, logger, http.StatusServiceUnavailable, Timeout, "Timed out, try again")
			return
		}
	}

	logger.Error("Unexpected retailer error", slog.String("error", err.Error()))
	writeInternalError(w, logger)
}

func retailerIdFromPath(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, logger, http.StatusNotFound, NotFound, "Retailer not found")
		return uuid.UUID{}, false
	}
	return id, true
}

func apiPayloadToApplication(p RegistrationPayload, submittedAt time.Time) retailer.Application {
	// An unknown type stays UNSET and is reported by validation.
	businessType, _ := catalog.ParseBusinessType(p.BusinessCategories.Type)

	ids := p.BusinessCategories.Categories
	if ids == nil {
		ids = []string{}
	}

	return retailer.Application{
		BusinessName:        p.BusinessName,
		BusinessEmail:       p.BusinessEmail,
		BusinessDescription: p.BusinessDescription,
		PhoneNumber:         p.PhoneNumber,
		Address: retailer.Address{
			Street:  p.Address.Street,
			City:    p.Address.City,
			State:   p.Address.State,
			ZipCode: p.Address.ZipCode,
			Country: p.Address.Country,
		},
		Categories: retailer.Categories{
			Type:    businessType,
			IDs:     ids,
			Details: catalog.Resolve(ids),
		},
		// Keys are only trusted when they come from this service's own upload
		// route through a wizard session, so anything a caller sends is dropped.
		Documents: slices.Map(p.Documents, func(d Document) retailer.Document {
			return retailer.Document{
				Name:        d.Name,
				Size:        d.Size,
				ContentType: d.ContentType,
			}
		}),
		Password:    p.Password,
		SubmittedAt: submittedAt,
	}
}

func retailerToApiRetailer(r retailer.Retailer) Retailer {
	return Retailer{
		ID:                  r.ID.String(),
		Version:             r.Version,
		BusinessName:        r.BusinessName,
		BusinessEmail:       r.BusinessEmail,
		BusinessDescription: r.BusinessDescription,
		PhoneNumber:         r.PhoneNumber,
		Address: Address{
			Street:  r.Address.Street,
			City:    r.Address.City,
			State:   r.Address.State,
			ZipCode: r.Address.ZipCode,
			Country: r.Address.Country,
		},
		BusinessCategories: BusinessCategories{
			Type:       r.Categories.Type.String(),
			Categories: r.Categories.IDs,
			Details:    slices.Map(r.Categories.Details, detailToApiCategoryDetail),
		},
		Documents: slices.Map(r.Documents, func(d retailer.Document) Document {
			return Document{
				Name:        d.Name,
				Size:        d.Size,
				ContentType: d.ContentType,
				Key:         d.Key,
			}
		}),
		Analytics: Analytics{
			BusinessType:      r.Analytics.BusinessType.String(),
			PrimaryCategories: r.Analytics.PrimaryCategories,
			CategoryCount:     r.Analytics.CategoryCount,
			HasProducts:       r.Analytics.HasProducts,
			HasServices:       r.Analytics.HasServices,
			RegistrationDate:  r.Analytics.RegistrationDate,
		},
		Status:     r.Status.String(),
		CreatedAt:  r.CreatedAt,
		VerifiedAt: r.VerifiedAt,
	}
}
