package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/api"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/retailer"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

func getParameter(ctx context.Context, awsCfg aws.Config, name string) (string, error) {
	client := ssm.NewFromConfig(awsCfg)

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %q: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %q has no value", name)
	}

	return *out.Parameter.Value, nil
}

func createCaptchaValidator(ctx context.Context, awsCfg aws.Config, cfg Config, logger *slog.Logger, env api.Environment) (captchaValidator, error) {
	if env == api.LOCAL {
		return &CaptchaLogger{logger: logger}, nil
	}

	secret, err := getParameter(ctx, awsCfg, cfg.TurnstileSecretParameter)
	if err != nil {
		return nil, err
	}

	return NewTurnstileValidator(secret), nil
}

// createPasswordHasher peppers hashes in PROD. LOCAL runs hash without one.
func createPasswordHasher(ctx context.Context, awsCfg aws.Config, cfg Config, env api.Environment) (*retailer.Argon2Hasher, error) {
	if env == api.LOCAL {
		return retailer.NewArgon2Hasher(retailer.DefaultArgon2Params, nil), nil
	}

	pepper, err := getParameter(ctx, awsCfg, cfg.PepperParameter)
	if err != nil {
		return nil, err
	}

	return retailer.NewArgon2Hasher(retailer.DefaultArgon2Params, []byte(pepper)), nil
}
