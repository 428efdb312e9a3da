package api

import (
	"log/slog"
	"net"
	"net/http"
)

const (
	captchaHeader = "cf-turnstile-response"
	// Set by Cloudflare in front of the service.
	connectingIPHeader = "CF-Connecting-IP"
)

// checkCaptcha guards the unauthenticated write endpoints. It answers 400 and
// returns false when the token does not validate.
func (a *API) checkCaptcha(w http.ResponseWriter, r *http.Request, logger *slog.Logger) bool {
	_, err := a.captchaValidator.Validate(r.Context(), r.Header.Get(captchaHeader), remoteIP(r))
	if err != nil {
		logger.Warn("Captcha rejected", slog.String("error", err.Error()))
		writeError(w, logger, http.StatusBadRequest, CaptchaInvalid, "Captcha is invalid")
		return false
	}

	return true
}

func remoteIP(r *http.Request) string {
	if ip := r.Header.Get(connectingIPHeader); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
