package config

import (
	"context"
	"os"
)

// EnvVarProvider resolves pointer paths by reading them as environment
// variable names. It lets a local .env file stand in for Parameter Store:
// POLAR_ACCESS_TOKEN_SSM_PARAM=DEV_POLAR_TOKEN resolves from DEV_POLAR_TOKEN.
type EnvVarProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvVarProvider returns a provider backed by os.LookupEnv.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{lookup: os.LookupEnv}
}

// GetParametersBatch returns the keys present in the environment. Missing keys
// are omitted.
func (p *EnvVarProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	lookup := p.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := lookup(key); ok {
			result[key] = val
		}
	}
	return result, nil
}
