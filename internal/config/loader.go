// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone.
//  2. Load .env file via godotenv (non-fatal if absent).
//  3. Resolve _SSM_PARAM pointer variables through the SecretProvider unless
//     APP_ENV is "local".
//  4. Populate the Config struct with envconfig.
//  5. Attach linker-injected build metadata.
//  6. Validate with go-playground/validator.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is the diagnostic error type returned by LoadConfig.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ssmParamSuffix marks environment variables that point at an SSM path.
// POLAR_ACCESS_TOKEN_SSM_PARAM=/prod/storefront/polar/token resolves into
// POLAR_ACCESS_TOKEN.
const ssmParamSuffix = "_SSM_PARAM"

// localEnv is the APP_ENV value that bypasses SSM resolution.
const localEnv = "local"

// ssmResolveTimeout bounds the batch SSM lookup during startup.
const ssmResolveTimeout = 30 * time.Second

// loaderDeps holds the injectable environment accessors so tests do not
// have to mutate global state.
type loaderDeps struct {
	lookupEnv func(key string) (string, bool)
	setEnv    func(key, value string) error
	environ   func() []string
}

func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv: os.LookupEnv,
		setEnv:    os.Setenv,
		environ:   os.Environ,
	}
}

// LoadConfig loads and validates the gateway configuration.
//
// provider resolves _SSM_PARAM pointers. It may be nil when APP_ENV is
// "local" or when no pointer variables are present.
func LoadConfig(provider SecretProvider) (*Config, error) {
	return loadConfigWithDeps(provider, defaultDeps())
}

func loadConfigWithDeps(provider SecretProvider, deps loaderDeps) (*Config, error) {
	time.Local = time.UTC

	// godotenv never overrides variables already present in the environment.
	_ = godotenv.Load()

	appEnv, _ := deps.lookupEnv("APP_ENV")
	if appEnv != localEnv {
		if err := resolveSSMParams(provider, deps); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, classifyValidationError(err)
	}

	return &cfg, nil
}

// classifyValidationError reports a missing required field as ErrMissingEnv
// so operators can tell "unset" apart from "set to something invalid".
func classifyValidationError(err error) *ConfigError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		var missing []string
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				missing = append(missing, fe.Namespace())
			}
		}
		if len(missing) == len(verrs) {
			return &ConfigError{
				Type:    ErrMissingEnv,
				Message: "required configuration missing: " + strings.Join(missing, ", "),
				Err:     err,
			}
		}
	}
	return &ConfigError{
		Type:    ErrValidation,
		Message: "configuration validation failed",
		Err:     err,
	}
}

// ResolveSecrets performs SSM resolution in isolation, for tools that read a
// handful of variables with os.Getenv instead of calling LoadConfig. It is a
// no-op when APP_ENV is "local".
func ResolveSecrets(provider SecretProvider) error {
	appEnv, _ := os.LookupEnv("APP_ENV")
	if appEnv == localEnv {
		return nil
	}
	return resolveSSMParams(provider, defaultDeps())
}

// resolveSSMParams scans the environment for *_SSM_PARAM pointers, fetches
// the referenced values in one batch, and writes them back under the target
// name. A target that is already set is left alone (Env > SSM). Several
// targets may share one path.
func resolveSSMParams(provider SecretProvider, deps loaderDeps) error {
	pathTargets := make(map[string][]string)
	var paths []string

	for _, entry := range deps.environ() {
		key, ssmPath, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasSuffix(key, ssmParamSuffix) || ssmPath == "" {
			continue
		}
		target := strings.TrimSuffix(key, ssmParamSuffix)
		if _, exists := deps.lookupEnv(target); exists {
			continue
		}
		if _, seen := pathTargets[ssmPath]; !seen {
			paths = append(paths, ssmPath)
		}
		pathTargets[ssmPath] = append(pathTargets[ssmPath], target)
	}

	if len(paths) == 0 {
		return nil
	}

	if provider == nil {
		var targets []string
		for _, p := range paths {
			targets = append(targets, pathTargets[p]...)
		}
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SecretProvider is required for non-local environments (need to resolve: %s)", strings.Join(targets, ", ")),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), ssmResolveTimeout)
	defer cancel()

	resolved, err := provider.GetParametersBatch(ctx, paths)
	if err != nil {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("failed to resolve %d SSM parameters", len(paths)),
			Err:     err,
		}
	}

	var missing []string
	for _, p := range paths {
		value, ok := resolved[p]
		if !ok {
			missing = append(missing, pathTargets[p]...)
			continue
		}
		for _, target := range pathTargets[p] {
			if err := deps.setEnv(target, value); err != nil {
				return &ConfigError{
					Type:    ErrSSMResolution,
					Message: fmt.Sprintf("failed to set resolved value for %s", target),
					Err:     err,
				}
			}
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SSM parameters not found for: %s", strings.Join(missing, ", ")),
		}
	}

	return nil
}
