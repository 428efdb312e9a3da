package retailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	textTemplate "text/template"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/catalog"
)

//go:embed templates
var templates embed.FS

func SendRegistrationReceivedEmail(ctx context.Context, emailSender email.Sender, fromAddress string, r Retailer) error {
	htmlBody, err := makeHtmlBody(r)
	if err != nil {
		return err
	}

	textOnlyBody, err := makeTextOnlyBody(r)
	if err != nil {
		return err
	}

	return emailSender.SendEmail(ctx, email.Email{
		FromAddress: fromAddress,
		ToAddresses: []string{r.BusinessEmail},
		Subject:     fmt.Sprintf("Registration received - %q", r.BusinessName),
		HTMLBody:    htmlBody,
		TextBody:    textOnlyBody,
	})
}

var templateFuncs = map[string]any{
	"kind": func(k catalog.Kind) string { return k.String() },
}

func makeHtmlBody(r Retailer) (string, error) {
	tmpl, err := template.New("registration-received.tmpl").Funcs(templateFuncs).ParseFS(templates, "templates/registration-received.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]any{
		"Retailer": r,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}

func makeTextOnlyBody(r Retailer) (string, error) {
	tmpl, err := textTemplate.New("registration-received-textonly.tmpl").Funcs(templateFuncs).ParseFS(templates, "templates/registration-received-textonly.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]any{
		"Retailer": r,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}
