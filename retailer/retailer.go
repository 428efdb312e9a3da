package retailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/catalog"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/International-Combat-Archery-Alliance/retailer-registration/retailer")

type Repository interface {
	CreateRetailer(ctx context.Context, retailer Retailer) error
	GetRetailer(ctx context.Context, id uuid.UUID) (Retailer, error)
	GetRetailers(ctx context.Context, limit int32, cursor *string) (GetRetailersResponse, error)
	UpdateRetailer(ctx context.Context, retailer Retailer) error
}

type GetRetailersResponse struct {
	Data        []Retailer
	Cursor      *string
	HasNextPage bool
}

type Status int

const (
	PENDING_VERIFICATION Status = iota
	VERIFIED
)

func (s Status) String() string {
	switch s {
	case PENDING_VERIFICATION:
		return "pending_verification"
	case VERIFIED:
		return "verified"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func ParseStatus(s string) (Status, error) {
	switch s {
	case "pending_verification":
		return PENDING_VERIFICATION, nil
	case "verified":
		return VERIFIED, nil
	default:
		return Status(-1), fmt.Errorf("unknown status: %q", s)
	}
}

type Address struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

type Categories struct {
	Type    catalog.BusinessType
	IDs     []string
	Details []catalog.Detail
}

type Document struct {
	Name        string
	Size        int64
	ContentType string
	Key         string
}

// Analytics is a denormalized summary of the category selection kept next to
// the retailer for reporting.
type Analytics struct {
	BusinessType      catalog.BusinessType
	PrimaryCategories []string
	CategoryCount     int
	HasProducts       bool
	HasServices       bool
	RegistrationDate  time.Time
}

type Retailer struct {
	ID      uuid.UUID
	Version int

	BusinessName        string
	BusinessEmail       string
	BusinessDescription string
	PhoneNumber         string
	Address             Address
	Categories          Categories
	Documents           []Document
	PasswordHash        string

	Analytics  Analytics
	Status     Status
	CreatedAt  time.Time
	VerifiedAt *time.Time
}

// Application is a registration as submitted by a business.
type Application struct {
	BusinessName        string
	BusinessEmail       string
	BusinessDescription string
	PhoneNumber         string
	Address             Address
	Categories          Categories
	Documents           []Document
	Password            string
	SubmittedAt         time.Time
}

func Register(ctx context.Context, app Application, repo Repository, hasher PasswordHasher) (Retailer, error) {
	ctx, span := tracer.Start(ctx, "retailer.Register")
	defer span.End()

	if errs := ValidateCategories(app.Categories); len(errs) > 0 {
		span.SetStatus(codes.Error, "validation failed")
		return Retailer{}, NewValidationFailedError(errs)
	}

	var passwordHash string
	if app.Password != "" {
		hash, err := hasher.Hash(app.Password)
		if err != nil {
			span.RecordError(err)
			return Retailer{}, NewFailedToHashPasswordError(err)
		}
		passwordHash = hash
	}

	r := Retailer{
		ID:                  uuid.New(),
		Version:             1,
		BusinessName:        app.BusinessName,
		BusinessEmail:       app.BusinessEmail,
		BusinessDescription: app.BusinessDescription,
		PhoneNumber:         app.PhoneNumber,
		Address:             app.Address,
		Categories:          app.Categories,
		Documents:           app.Documents,
		PasswordHash:        passwordHash,
		Analytics:           analyticsFor(app.Categories, app.SubmittedAt),
		Status:              PENDING_VERIFICATION,
		CreatedAt:           app.SubmittedAt,
	}
	span.SetAttributes(
		attribute.String("retailer.id", r.ID.String()),
		attribute.String("retailer.business_type", r.Categories.Type.String()),
		attribute.Int("retailer.category_count", len(r.Categories.IDs)),
	)

	if err := repo.CreateRetailer(ctx, r); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist retailer")
		return Retailer{}, err
	}

	return r, nil
}

// Verify marks a pending retailer as verified.
func Verify(ctx context.Context, id uuid.UUID, repo Repository, now time.Time) (Retailer, error) {
	ctx, span := tracer.Start(ctx, "retailer.Verify")
	defer span.End()
	span.SetAttributes(attribute.String("retailer.id", id.String()))

	r, err := repo.GetRetailer(ctx, id)
	if err != nil {
		span.RecordError(err)
		return Retailer{}, err
	}

	if r.Status == VERIFIED {
		return Retailer{}, NewAlreadyVerifiedError(id)
	}

	r.Status = VERIFIED
	r.VerifiedAt = &now
	r.Version++

	if err := repo.UpdateRetailer(ctx, r); err != nil {
		span.RecordError(err)
		return Retailer{}, err
	}

	return r, nil
}

func analyticsFor(c Categories, at time.Time) Analytics {
	hasProducts, hasServices := catalog.HasKinds(c.Details)

	return Analytics{
		BusinessType:      c.Type,
		PrimaryCategories: c.IDs,
		CategoryCount:     len(c.IDs),
		HasProducts:       hasProducts,
		HasServices:       hasServices,
		RegistrationDate:  at,
	}
}

// IsValidationError reports whether err is a rejected application and
// returns its details.
func IsValidationError(err error) ([]string, bool) {
	var retailerErr *Error
	if errors.As(err, &retailerErr) && retailerErr.Reason == REASON_VALIDATION_FAILED {
		return retailerErr.Details, true
	}
	return nil, false
}
