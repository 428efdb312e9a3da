package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/International-Combat-Archery-Alliance/middleware"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/metrics"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/google/uuid"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func useMiddlewares(r *http.ServeMux, middlewares ...middleware.MiddlewareFunc) http.Handler {
	var s http.Handler
	s = r

	for _, mw := range middlewares {
		s = mw(s)
	}

	return s
}

func (a *API) tracingMiddleware() middleware.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "retailer-registration",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}
}

func (a *API) loggingMiddleware() middleware.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestId := uuid.New()
			logger := a.logger.With(slog.String("request-id", requestId.String()))

			ctx := ctxWithRequestId(r.Context(), requestId)
			ctx = ctxWithLogger(ctx, logger)
			r = r.WithContext(ctx)

			rec := metrics.NewResponseRecorder(w)

			// process the request
			next.ServeHTTP(rec, r)

			logger.InfoContext(ctx,
				"Access log",
				slog.String("latency", formatDuration(time.Since(start))),
				slog.Int64("request-content-length", r.ContentLength),
				slog.Int("resp-body-size", rec.Size()),
				slog.String("host", r.Host),
				slog.String("method", r.Method),
				slog.Int("status-code", rec.Status()),
				slog.String("path", r.URL.Path),
			)
		})
	}
}

func (a *API) openapiValidateMiddleware(swagger *openapi3.T) middleware.MiddlewareFunc {
	validator := nethttpmiddleware.OapiRequestValidatorWithOptions(swagger, &nethttpmiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: a.authenticate,
		},
		ErrorHandlerWithOpts: func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, opts nethttpmiddleware.ErrorHandlerOpts) {
			e := Error{
				Message: err.Error(),
				Code:    InternalError,
			}

			// The validator flattens request errors into plain ones, so the
			// status it picked is the reliable signal.
			var requestErr *openapi3filter.RequestError
			var secErr *openapi3filter.SecurityRequirementsError
			switch {
			case errors.As(err, &secErr) || opts.StatusCode == http.StatusUnauthorized:
				e.Code = AuthError
			case errors.As(err, &requestErr) || opts.StatusCode == http.StatusBadRequest:
				e.Code = InputValidationError
			case opts.StatusCode == http.StatusNotFound:
				e.Code = NotFound
			}
			jsonBody, err := json.Marshal(&e)
			if err != nil {
				a.logger.Error("failed to marshal input validation error resp", "error", err)
				jsonBody = []byte("{\"message\": \"input is invalid\", \"code\": \"InputValidationError\"}")
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(opts.StatusCode)
			w.Write(jsonBody)
		},
	})

	return func(next http.Handler) http.Handler {
		return validator(next)
	}
}

// authenticate checks the admin cookie for operations that declare the
// cookieAuth security scheme.
func (a *API) authenticate(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	if input.SecuritySchemeName != "cookieAuth" {
		return fmt.Errorf("unsupported security scheme: %q", input.SecuritySchemeName)
	}

	cookie, err := input.RequestValidationInput.Request.Cookie(googleAuthJWTCookieKey)
	if err != nil {
		return input.NewError(fmt.Errorf("missing %s cookie", googleAuthJWTCookieKey))
	}

	jwt, err := a.validateGoogleOauthToken(ctx, cookie.Value, input.Scopes)
	if err != nil {
		return input.NewError(err)
	}

	a.getLoggerOrBaseLogger(ctx).Info("Authenticated admin request", slog.Any("email", jwt.Claims["email"]))

	return nil
}

// rawEndpointsMiddleware serves routes that can't go through OpenAPI request
// validation: Prometheus scraping and multipart document uploads. Everything
// else falls through to next.
func (a *API) rawEndpointsMiddleware() middleware.MiddlewareFunc {
	server := http.NewServeMux()

	server.Handle("GET /metrics", a.metrics.Handler())
	server.HandleFunc("POST /wizard/sessions/{id}/documents", a.PostWizardDocuments)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Handler only reports the match; ServeHTTP fills in path values.
			if _, matchedPath := server.Handler(r); matchedPath == "" {
				next.ServeHTTP(w, r)
				return
			}

			server.ServeHTTP(w, r)
		})
	}
}

func (a *API) corsMiddleware() middleware.MiddlewareFunc {
	var serverCors *cors.Cors

	switch a.env {
	case PROD:
		serverCors = cors.New(cors.Options{
			AllowedOrigins:   a.config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowCredentials: true,
			MaxAge:           300,
		})
	default:
		serverCors = cors.AllowAll()
	}

	return serverCors.Handler
}

// formatDuration formats a duration to one decimal point.
func formatDuration(d time.Duration) string {
	div := time.Duration(10)
	switch {
	case d > time.Second:
		d = d.Round(time.Second / div)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond / div)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond / div)
	case d > time.Nanosecond:
		d = d.Round(time.Nanosecond / div)
	}
	return d.String()
}
