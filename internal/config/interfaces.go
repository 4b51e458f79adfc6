package config

import "context"

// SecretProvider resolves _SSM_PARAM pointer paths into plaintext values.
// Implementations return only the keys they could resolve; the loader reports
// the rest.
type SecretProvider interface {
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
