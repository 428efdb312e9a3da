package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/International-Combat-Archery-Alliance/captcha"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const turnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

type captchaValidator interface {
	Validate(ctx context.Context, token string, remoteIP string) (captcha.ValidatedData, error)
}

var (
	_ captchaValidator = &CaptchaLogger{}
	_ captchaValidator = &TurnstileValidator{}
)

// CaptchaLogger accepts every token for local dev and logs what it was given.
type CaptchaLogger struct {
	logger *slog.Logger
}

func (cl *CaptchaLogger) Validate(ctx context.Context, token string, remoteIP string) (captcha.ValidatedData, error) {
	cl.logger.Info("captcha that would be validated", slog.String("token", token), slog.String("remote-ip", remoteIP))

	return &turnstileResult{Host: "localhost", Challenge: time.Now()}, nil
}

// TurnstileValidator checks tokens against Cloudflare Turnstile's siteverify
// endpoint.
type TurnstileValidator struct {
	client    *http.Client
	secretKey string
	verifyURL string
}

func NewTurnstileValidator(secretKey string) *TurnstileValidator {
	return &TurnstileValidator{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		secretKey: secretKey,
		verifyURL: turnstileVerifyURL,
	}
}

type turnstileResult struct {
	Success    bool      `json:"success"`
	Challenge  time.Time `json:"challenge_ts"`
	Host       string    `json:"hostname"`
	ActionName string    `json:"action"`
	ErrorCodes []string  `json:"error-codes"`
}

func (r *turnstileResult) Hostname() string       { return r.Host }
func (r *turnstileResult) Action() string         { return r.ActionName }
func (r *turnstileResult) ChallengeTS() time.Time { return r.Challenge }

func (v *TurnstileValidator) Validate(ctx context.Context, token string, remoteIP string) (captcha.ValidatedData, error) {
	if token == "" {
		return nil, errors.New("missing captcha token")
	}

	form := url.Values{
		"secret":   {v.secretKey},
		"response": {token},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call siteverify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("siteverify answered %d", resp.StatusCode)
	}

	var result turnstileResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode siteverify response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("captcha rejected: %s", strings.Join(result.ErrorCodes, ", "))
	}

	return &result, nil
}
