package wizard

import (
	"maps"
	"slices"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/catalog"
)

const (
	MaxDescriptionLength = 500
	DefaultCountry       = "United States"
)

// Document is the handle of an uploaded file. The content itself lives with
// the upload collaborator under Key.
type Document struct {
	Name        string
	Size        int64
	ContentType string
	Key         string
}

type Draft struct {
	BusinessName        string
	BusinessEmail       string
	BusinessDescription string

	BusinessType       catalog.BusinessType
	SelectedCategories []string
	CategoryDetails    []catalog.Detail

	PhoneNumber   string
	StreetAddress string
	City          string
	State         string
	ZipCode       string
	Country       string

	Password        string
	ConfirmPassword string

	Documents []Document

	// Validation only holds fields that have been set at least once.
	Validation map[Field]ValidationResult
}

func newDraft() Draft {
	return Draft{
		Country:            DefaultCountry,
		SelectedCategories: []string{},
		CategoryDetails:    []catalog.Detail{},
		Validation:         map[Field]ValidationResult{},
	}
}

func (d *Draft) value(f Field) string {
	switch f {
	case BUSINESS_NAME:
		return d.BusinessName
	case BUSINESS_EMAIL:
		return d.BusinessEmail
	case BUSINESS_DESCRIPTION:
		return d.BusinessDescription
	case PHONE_NUMBER:
		return d.PhoneNumber
	case STREET_ADDRESS:
		return d.StreetAddress
	case CITY:
		return d.City
	case STATE:
		return d.State
	case ZIP_CODE:
		return d.ZipCode
	case COUNTRY:
		return d.Country
	case PASSWORD:
		return d.Password
	case CONFIRM_PASSWORD:
		return d.ConfirmPassword
	default:
		return ""
	}
}

func (d *Draft) set(f Field, v string) {
	switch f {
	case BUSINESS_NAME:
		d.BusinessName = v
	case BUSINESS_EMAIL:
		d.BusinessEmail = v
	case BUSINESS_DESCRIPTION:
		d.BusinessDescription = truncate(v, MaxDescriptionLength)
	case PHONE_NUMBER:
		d.PhoneNumber = v
	case STREET_ADDRESS:
		d.StreetAddress = v
	case CITY:
		d.City = v
	case STATE:
		d.State = v
	case ZIP_CODE:
		d.ZipCode = v
	case COUNTRY:
		d.Country = v
	case PASSWORD:
		d.Password = v
	case CONFIRM_PASSWORD:
		d.ConfirmPassword = v
	}
}

// filledAndValid is the per-field completion check: the value is non-empty
// and its last validation passed.
func (d *Draft) filledAndValid(f Field) bool {
	if d.value(f) == "" {
		return false
	}
	v, ok := d.Validation[f]
	return ok && v.IsValid
}

func (d Draft) clone() Draft {
	d.SelectedCategories = slices.Clone(d.SelectedCategories)
	d.CategoryDetails = slices.Clone(d.CategoryDetails)
	d.Documents = slices.Clone(d.Documents)
	d.Validation = maps.Clone(d.Validation)
	return d
}

func truncate(s string, maxRunes int) string {
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}
