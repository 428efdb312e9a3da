package main

import (
	"fmt"
	"time"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/session"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"LOCAL"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8080"`

	TableName string `env:"TABLE_NAME" envDefault:"RetailerRegistration"`
	// DynamoEndpoint points LOCAL runs at DynamoDB Local.
	DynamoEndpoint string `env:"DYNAMO_ENDPOINT" envDefault:"http://localhost:8000"`

	DocumentsBucket string `env:"DOCUMENTS_BUCKET"`
	DocumentsPrefix string `env:"DOCUMENTS_PREFIX" envDefault:"documents"`
	MaxUploadBytes  int64  `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"30m"`

	FromAddress    string   `env:"FROM_ADDRESS" envDefault:"no-reply@icaa.world"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	CookieDomain   string   `env:"COOKIE_DOMAIN" envDefault:"localhost"`
	AdminDomain    string   `env:"ADMIN_DOMAIN" envDefault:"icaa.world"`
	GoogleAudience string   `env:"GOOGLE_AUDIENCE"`

	// PepperParameter is the SSM parameter holding the password pepper. Only
	// read in PROD.
	PepperParameter string `env:"PEPPER_PARAMETER" envDefault:"/retailer-registration/password-pepper"`

	// TurnstileSecretParameter is the SSM parameter holding the Turnstile
	// secret key. LOCAL accepts every captcha instead.
	TurnstileSecretParameter string `env:"TURNSTILE_SECRET_PARAMETER" envDefault:"/retailer-registration/turnstile-secret"`

	OtelEndpoint string `env:"OTEL_ENDPOINT"`
}

// loadConfig reads the environment, first merging in a .env file when one
// exists. Variables already set win over the file.
func loadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse env: %w", err)
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = session.DefaultTTL
	}

	return cfg, nil
}
