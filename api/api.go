package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/International-Combat-Archery-Alliance/captcha"
	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/documents"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/metrics"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/retailer"
	"github.com/International-Combat-Archery-Alliance/retailer-registration/session"
	"google.golang.org/api/idtoken"
)

type Environment int

const (
	LOCAL Environment = iota
	PROD
)

func (e Environment) String() string {
	switch e {
	case LOCAL:
		return "LOCAL"
	case PROD:
		return "PROD"
	default:
		return fmt.Sprintf("Environment(%d)", int(e))
	}
}

func ParseEnvironment(s string) (Environment, error) {
	switch s {
	case "LOCAL", "":
		return LOCAL, nil
	case "PROD":
		return PROD, nil
	default:
		return LOCAL, fmt.Errorf("unknown environment: %q", s)
	}
}

type DB interface {
	retailer.Repository
}

type googleIdVerifier interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

type captchaValidator interface {
	Validate(ctx context.Context, token string, remoteIP string) (captcha.ValidatedData, error)
}

type Config struct {
	// FromAddress is the sender of confirmation emails.
	FromAddress string
	// AllowedOrigins is only used in PROD; LOCAL allows every origin.
	AllowedOrigins []string
	// CookieDomain is the domain of the admin login cookie.
	CookieDomain string
	// AdminDomain is the Google Workspace domain admins must belong to.
	AdminDomain string
	// GoogleAudience is the OAuth client id Google ID tokens are issued for.
	GoogleAudience string
	// MaxUploadBytes bounds a single document upload request.
	MaxUploadBytes int64
}

type API struct {
	db               DB
	logger           *slog.Logger
	env              Environment
	config           Config
	sessions         *session.Registry
	documents        documents.Store
	hasher           retailer.PasswordHasher
	emailSender      email.Sender
	captchaValidator captchaValidator
	googleIdVerifier googleIdVerifier
	metrics          *metrics.Metrics
}

func NewAPI(
	db DB,
	logger *slog.Logger,
	env Environment,
	config Config,
	sessions *session.Registry,
	documentStore documents.Store,
	hasher retailer.PasswordHasher,
	emailSender email.Sender,
	captchaValidator captchaValidator,
	googleIdVerifier googleIdVerifier,
	metrics *metrics.Metrics,
) *API {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 25 << 20
	}

	return &API{
		db:               db,
		logger:           logger,
		env:              env,
		config:           config,
		sessions:         sessions,
		documents:        documentStore,
		hasher:           hasher,
		emailSender:      emailSender,
		captchaValidator: captchaValidator,
		googleIdVerifier: googleIdVerifier,
		metrics:          metrics,
	}
}

// Handler builds the full HTTP handler: routes, request validation against
// the embedded OpenAPI document and the middleware chain.
func (a *API) Handler() (http.Handler, error) {
	swagger, err := GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}

	// Servers in the document would make the validator match on host.
	swagger.Servers = nil

	r := http.NewServeMux()
	a.registerRoutes(r)

	// Applied inside out: the last one runs first.
	return useMiddlewares(r,
		a.openapiValidateMiddleware(swagger),
		a.rawEndpointsMiddleware(),
		a.corsMiddleware(),
		a.metrics.Middleware,
		a.loggingMiddleware(),
		a.tracingMiddleware(),
	), nil
}

func (a *API) ListenAndServe(host string, port string) error {
	h, err := a.Handler()
	if err != nil {
		return err
	}

	s := &http.Server{
		Handler: h,
		Addr:    net.JoinHostPort(host, port),
	}

	a.logger.Info("Starting server", slog.String("addr", s.Addr), slog.String("env", a.env.String()))

	return s.ListenAndServe()
}

func (a *API) registerRoutes(r *http.ServeMux) {
	r.HandleFunc("GET /categories", a.GetCategories)

	r.HandleFunc("POST /wizard/sessions", a.PostWizardSession)
	r.HandleFunc("GET /wizard/sessions/{id}", a.GetWizardSession)
	r.HandleFunc("DELETE /wizard/sessions/{id}", a.DeleteWizardSession)
	r.HandleFunc("PUT /wizard/sessions/{id}/fields/{field}", a.PutWizardField)
	r.HandleFunc("PUT /wizard/sessions/{id}/business-type", a.PutWizardBusinessType)
	r.HandleFunc("POST /wizard/sessions/{id}/categories/{categoryId}/toggle", a.PostWizardToggleCategory)
	r.HandleFunc("POST /wizard/sessions/{id}/advance", a.PostWizardAdvance)
	r.HandleFunc("POST /wizard/sessions/{id}/retreat", a.PostWizardRetreat)
	r.HandleFunc("DELETE /wizard/sessions/{id}/documents/{index}", a.DeleteWizardDocument)
	r.HandleFunc("POST /wizard/sessions/{id}/submit", a.PostWizardSubmit)

	r.HandleFunc("POST /retailers", a.PostRetailers)
	r.HandleFunc("GET /retailers", a.GetRetailers)
	r.HandleFunc("GET /retailers/{id}", a.GetRetailer)
	r.HandleFunc("POST /retailers/{id}/verify", a.PostRetailerVerify)

	r.HandleFunc("POST /google-login", a.PostGoogleLogin)
}
