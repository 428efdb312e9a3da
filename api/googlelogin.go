package api

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	googleAuthJWTCookieKey = "GOOGLE_AUTH_JWT"
)

type postGoogleLoginBody struct {
	GoogleJWT string `json:"googleJWT"`
}

func (a *API) PostGoogleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	var body postGoogleLoginBody
	if !readJSON(w, r, logger, &body) {
		return
	}

	jwtPayload, err := a.googleIdVerifier.Validate(ctx, body.GoogleJWT, a.config.GoogleAudience)
	if err != nil {
		logger.Warn("rejected google login", slog.String("error", err.Error()))
		writeError(w, logger, http.StatusUnauthorized, AuthError, "Invalid JWT")
		return
	}

	logger.Info("successful login", slog.Any("email", jwtPayload.Claims["email"]))

	cookie := &http.Cookie{
		Name:     googleAuthJWTCookieKey,
		Value:    body.GoogleJWT,
		Expires:  time.Unix(jwtPayload.Expires, 0),
		Domain:   a.config.CookieDomain,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.env == PROD,
		SameSite: http.SameSiteStrictMode,
	}

	http.SetCookie(w, cookie)
	w.WriteHeader(http.StatusOK)
}
