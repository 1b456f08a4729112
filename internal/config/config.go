// Package config loads the server configuration from environment variables.
//
// Every knob lives in one struct so the composition root (cmd/server) can
// parse it once and hand slices of it to each component. Parsing uses
// caarlos0/env struct tags instead of scattered os.Getenv calls — defaults
// and required-ness are visible right next to the field.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all server configuration.
type Config struct {
	Port        int    `env:"PORT" envDefault:"3000"`
	Environment string `env:"APP_ENV" envDefault:"development"`

	// ClientURL is the base URL of the React client. Email links and
	// OAuth redirects point here.
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:5173"`

	// CORSOrigins are allowed browser origins in development. In
	// production the client is served from this process, so CORS is off.
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:5173,http://localhost:5174"`

	// ClientDistDir is the built SPA bundle served in production.
	ClientDistDir string `env:"CLIENT_DIST_DIR" envDefault:"client/dist"`

	// TokenSecret signs verification and reset tokens.
	// Generate with: openssl rand -hex 32
	TokenSecret string `env:"JWT_SECRET,required"`

	DBPath        string `env:"DB_PATH" envDefault:"data/aihub.db"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL"`

	MicrosoftClientID     string `env:"MICROSOFT_CLIENT_ID"`
	MicrosoftClientSecret string `env:"MICROSOFT_CLIENT_SECRET"`
	MicrosoftTenantID     string `env:"MICROSOFT_TENANT_ID" envDefault:"common"`
	MicrosoftCallbackURL  string `env:"MICROSOFT_CALLBACK_URL"`

	// MicrosoftSenderEmail is the mailbox Graph sendMail posts as. Leaving
	// it (or the tenant) unconfigured disables the Graph transport and all
	// mail goes out via SMTP.
	MicrosoftSenderEmail string `env:"MICROSOFT_SENDER_EMAIL"`

	SMTPHost     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"EMAIL_USER"`
	SMTPPassword string `env:"EMAIL_PASS"`
	MailFromName string `env:"MAIL_FROM_NAME" envDefault:"AIHUB-VVIT Team"`
	MailReplyTo  string `env:"MAIL_REPLY_TO" envDefault:"aihub-vvit@vvit.net"`

	// MailSendDelay is the courtesy throttle applied before every send
	// attempt. Rate-shaping, not correctness; zero disables it.
	MailSendDelay time.Duration `env:"MAIL_SEND_DELAY" envDefault:"2s"`

	// MailRetryAttempts / MailRetryDelay define the SMTP retry budget:
	// MailRetryAttempts tries total, delay doubling after each failure.
	MailRetryAttempts int           `env:"MAIL_RETRY_ATTEMPTS" envDefault:"3"`
	MailRetryDelay    time.Duration `env:"MAIL_RETRY_DELAY" envDefault:"2s"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the server runs with production cookie and
// static-serving policy.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
