package external

import "context"

// ProviderProbe reports whether the provider answers an authenticated product
// listing. It satisfies core.HealthProbe.
type ProviderProbe struct {
	name   string
	client ProviderClient
}

// NewProviderProbe creates a probe named name over client.
func NewProviderProbe(name string, client ProviderClient) *ProviderProbe {
	return &ProviderProbe{name: name, client: client}
}

// Name returns the component name reported by /health.
func (p *ProviderProbe) Name() string { return p.name }

// Check lists products within ctx's deadline.
func (p *ProviderProbe) Check(ctx context.Context) error {
	_, err := p.client.ListProducts(ctx)
	return err
}
