package wizard

import (
	"context"
	"slices"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/catalog"
)

// Payload is the normalized registration handed to a Submitter.
type Payload struct {
	BusinessName        string
	BusinessEmail       string
	BusinessDescription string
	PhoneNumber         string
	Address             Address
	BusinessCategories  BusinessCategories
	Documents           []Document
	Password            string
}

type Address struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

type BusinessCategories struct {
	Type       catalog.BusinessType
	Categories []string
	Details    []catalog.Detail
}

// Receipt is what the registration backend answers on a successful handoff.
type Receipt struct {
	RegistrationID string
	Status         string
}

// Submitter receives finished registrations. Implementations that reject the
// payload on validation grounds return a *SubmissionError.
type Submitter interface {
	Submit(ctx context.Context, payload Payload) (Receipt, error)
}

func newPayload(d *Draft) Payload {
	return Payload{
		BusinessName:        d.BusinessName,
		BusinessEmail:       d.BusinessEmail,
		BusinessDescription: d.BusinessDescription,
		PhoneNumber:         d.PhoneNumber,
		Address: Address{
			Street:  d.StreetAddress,
			City:    d.City,
			State:   d.State,
			ZipCode: d.ZipCode,
			Country: d.Country,
		},
		BusinessCategories: BusinessCategories{
			Type:       d.BusinessType,
			Categories: slices.Clone(d.SelectedCategories),
			Details:    slices.Clone(d.CategoryDetails),
		},
		Documents: slices.Clone(d.Documents),
		Password:  d.Password,
	}
}
