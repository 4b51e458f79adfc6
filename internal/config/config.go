// Package config defines the process-wide configuration for the storefront
// gateway. Configuration is loaded once at startup and is immutable thereafter;
// components receive the subset they need explicitly rather than reading the
// environment themselves.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or invalid format is the only fatal condition in
// the service and surfaces as a *ConfigError from LoadConfig.
package config

import (
	"time"

	"storefront/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type used
// throughout configuration to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"storefront"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Polar         PolarConfig
	AWS           AWSConfig
	Security      SecurityConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080" validate:"numeric"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// PolarConfig holds the payment provider credentials and storefront rules.
type PolarConfig struct {
	AccessToken   SecretString `envconfig:"POLAR_ACCESS_TOKEN" validate:"required"`
	WebhookSecret SecretString `envconfig:"POLAR_WEBHOOK_SECRET" validate:"required"`

	// Mode is deliberately not restricted to an enum: only "sandbox" selects
	// the sandbox host and every other value means production.
	Mode string `envconfig:"POLAR_MODE" default:"production"`

	// SuccessURL overrides the post-checkout redirect. When empty the success
	// URL is derived from the inbound request's Host header.
	SuccessURL string `envconfig:"POLAR_SUCCESS_URL" validate:"omitempty,url"`

	RequestTimeout time.Duration `envconfig:"POLAR_REQUEST_TIMEOUT" default:"5s" validate:"gt=0"`

	// APIBaseURL replaces the mode-derived host. Empty in production; used for
	// local mocks.
	APIBaseURL string `envconfig:"POLAR_API_BASE_URL" validate:"omitempty,url"`
}

// Credentials returns the immutable provider credentials.
func (p PolarConfig) Credentials() types.ProviderCredentials {
	return types.ProviderCredentials{
		AccessToken: p.AccessToken,
		Mode:        types.Mode(p.Mode),
	}
}

// AWSConfig holds AWS regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// SecurityConfig holds CORS settings for the JSON endpoints.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"Storefront"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
