package api

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

const (
	adminScope = "admin"
)

type scopeValidator func(jwt *idtoken.Payload) error

func (a *API) scopeValidators() map[string]scopeValidator {
	return map[string]scopeValidator{
		adminScope: func(jwt *idtoken.Payload) error {
			org, ok := jwt.Claims["hd"]
			if !ok {
				return fmt.Errorf("hd claim not in JWT")
			}
			if org != a.config.AdminDomain {
				return fmt.Errorf("user is not an admin")
			}

			return nil
		},
	}
}

func (a *API) validateGoogleOauthToken(ctx context.Context, token string, scopes []string) (*idtoken.Payload, error) {
	jwt, err := a.googleIdVerifier.Validate(ctx, token, a.config.GoogleAudience)
	if err != nil {
		return nil, err
	}

	validators := a.scopeValidators()
	for _, scope := range scopes {
		validator, ok := validators[scope]
		if !ok {
			return nil, fmt.Errorf("unknown scope: %q", scope)
		}

		err = validator(jwt)
		if err != nil {
			return nil, fmt.Errorf("user does not have scope %q", scope)
		}
	}

	return jwt, nil
}
