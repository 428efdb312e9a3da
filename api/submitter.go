package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/metrics"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/retailer"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/slices"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/wizard"
)

var _ wizard.Submitter = &registrationSubmitter{}

// registrationSubmitter hands finished wizards to the same registration path
// POST /retailers uses, in process.
type registrationSubmitter struct {
	api *API
}

func (s *registrationSubmitter) Submit(ctx context.Context, payload wizard.Payload) (wizard.Receipt, error) {
	r, err := s.api.register(ctx, payloadToApplication(payload, time.Now().UTC()))
	if err != nil {
		if details, ok := retailer.IsValidationError(err); ok {
			return wizard.Receipt{}, &wizard.SubmissionError{Messages: details}
		}
		return wizard.Receipt{}, err
	}

	return wizard.Receipt{
		RegistrationID: r.ID.String(),
		Status:         r.Status.String(),
	}, nil
}

// register persists an application and sends the confirmation email. A
// failed email is logged and does not fail the registration.
func (a *API) register(ctx context.Context, app retailer.Application) (retailer.Retailer, error) {
	logger := a.getLoggerOrBaseLogger(ctx)

	r, err := retailer.Register(ctx, app, a.db, a.hasher)
	if err != nil {
		if _, ok := retailer.IsValidationError(err); ok {
			a.metrics.RecordRegistration(metrics.REGISTRATION_REJECTED)
		} else {
			a.metrics.RecordRegistration(metrics.REGISTRATION_FAILED)
		}
		return retailer.Retailer{}, err
	}

	a.metrics.RecordRegistration(metrics.REGISTRATION_ACCEPTED)
	logger.Info("Registered retailer",
		slog.String("retailer-id", r.ID.String()),
		slog.String("business-type", r.Categories.Type.String()),
		slog.Int("category-count", len(r.Categories.IDs)),
	)

	err = retailer.SendRegistrationReceivedEmail(ctx, a.emailSender, a.config.FromAddress, r)
	if err != nil {
		logger.Error("Failed to send registration received email",
			slog.String("error", err.Error()),
			slog.String("retailer-id", r.ID.String()),
		)
	}

	return r, nil
}

func payloadToApplication(p wizard.Payload, submittedAt time.Time) retailer.Application {
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
			Type:    p.BusinessCategories.Type,
			IDs:     p.BusinessCategories.Categories,
			Details: p.BusinessCategories.Details,
		},
		Documents: slices.Map(p.Documents, func(d wizard.Document) retailer.Document {
			return retailer.Document{
				Name:        d.Name,
				Size:        d.Size,
				ContentType: d.ContentType,
				Key:         d.Key,
			}
		}),
		Password:    p.Password,
		SubmittedAt: submittedAt,
	}
}
