// Package config defines the configuration surface for the ipowatch
// notifier. Configuration is loaded once at process startup and is
// immutable thereafter; core components receive the specific subsets they
// require rather than reading ambient process state.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Struct Defaults (Lowest)
//
// A missing required value aborts the run with a ConfigError before any
// network or ledger activity (exit code 2 at the CLI).
package config

import (
	"time"

	"ipowatch/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret
// type used throughout configuration to prevent accidental logging of
// sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the notifier.
type Config struct {
	Contacts ContactsConfig
	SMTP     SMTPConfig
	Sender   SenderConfig
	Ledger   LedgerConfig
	Modes    ModeConfig

	// DedupeSalt is the shared HMAC key for dedupe-key derivation.
	// Mandatory: without it previously notified recipients cannot be
	// matched against the ledger.
	DedupeSalt SecretString `envconfig:"DEDUPE_SALT" validate:"required"`
}

// ContactsConfig holds the Brevo mailing-list credentials.
type ContactsConfig struct {
	APIKey  SecretString  `envconfig:"BREVO_API_KEY" validate:"required"`
	ListID  string        `envconfig:"BREVO_LIST_ID" validate:"required"`
	BaseURL string        `envconfig:"BREVO_BASE_URL" default:"https://api.brevo.com"`
	Timeout time.Duration `envconfig:"BREVO_TIMEOUT" default:"30s"`
	// PageSize is the contacts-per-request limit; a short page ends the scan.
	PageSize int `envconfig:"BREVO_PAGE_SIZE" default:"500"`
}

// SMTPConfig holds the mail relay endpoint and credentials.
type SMTPConfig struct {
	Host     string       `envconfig:"BREVO_SMTP_HOST" default:"smtp-relay.brevo.com"`
	Port     int          `envconfig:"BREVO_SMTP_PORT" default:"587"`
	User     string       `envconfig:"BREVO_SMTP_USER" validate:"required"`
	Password SecretString `envconfig:"BREVO_SMTP_PASS" validate:"required"`
}

// SenderConfig holds the From identity used on outgoing mail and as the
// calendar organizer.
type SenderConfig struct {
	Email string `envconfig:"BREVO_SENDER_EMAIL" default:"noreply@example.com" validate:"email"`
	Name  string `envconfig:"BREVO_SENDER_NAME" default:"IPO Alerts"`
}

// LedgerConfig holds the persisted send-ledger location and retention.
type LedgerConfig struct {
	Path          string `envconfig:"LEDGER_PATH" default:"data/sent_ledger.json"`
	RetentionDays int    `envconfig:"LEDGER_RETENTION_DAYS" default:"90" validate:"min=1"`
}

// ModeConfig holds the run-mode flags. The CLI flags override these after
// loading, so both `--dev` and `DEV_MODE=true` behave identically.
type ModeConfig struct {
	// Verbose lowers the log level to debug.
	Verbose bool `envconfig:"VERBOSE" default:"false"`
	// ForceSend bypasses dedupe suppression; sends are still recorded.
	ForceSend bool `envconfig:"FORCE_SEND" default:"false"`
	// DevMode redirects all sends to DevRecipient and disables every
	// ledger interaction (load, prune, save).
	DevMode      bool   `envconfig:"DEV_MODE" default:"false"`
	DevRecipient string `envconfig:"DEV_RECIPIENT" default:"suyoginusa@gmail.com" validate:"email"`
	// DumpICS writes the most recent calendar artifact to DumpICSPath.
	DumpICS     bool   `envconfig:"DUMP_ICS" default:"false"`
	DumpICSPath string `envconfig:"DUMP_ICS_PATH" default:"data/last_invite.ics"`
}
