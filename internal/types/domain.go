package types

// Mode selects which provider environment the gateway talks to.
type Mode string

const (
	ModeProduction Mode = "production"
	ModeSandbox    Mode = "sandbox"
)

// Provider API hosts.
const (
	ProductionBaseURL = "https://api.polar.sh"
	SandboxBaseURL    = "https://sandbox-api.polar.sh"
)

// BaseURL returns the provider host for the mode. Only an exact "sandbox"
// selects the sandbox host; every other value, including empty, selects
// production.
func (m Mode) BaseURL() string {
	if m == ModeSandbox {
		return SandboxBaseURL
	}
	return ProductionBaseURL
}

// Effective normalizes m to the mode actually in use.
func (m Mode) Effective() Mode {
	if m == ModeSandbox {
		return ModeSandbox
	}
	return ModeProduction
}

// ProviderCredentials authenticate every outbound provider call. The value
// is fixed at startup and only ever read afterwards.
type ProviderCredentials struct {
	AccessToken SecretString
	Mode        Mode
}

// Product is the subset of a provider product the storefront displays.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CheckoutRequest starts a hosted checkout for one or more products.
// RequestHost is the inbound Host header, used when no success URL override
// is configured.
type CheckoutRequest struct {
	ProductIDs  []string
	RequestHost string
}

// CheckoutResult carries the provider-hosted checkout page to redirect to.
type CheckoutResult struct {
	URL string `json:"url"`
}

// PortalRequest opens the self-service billing portal for a buyer.
type PortalRequest struct {
	Email string `validate:"required,email"`
}

// PortalResult carries the provider-hosted portal page to redirect to.
type PortalResult struct {
	PortalURL string `json:"portal_url"`
}

// WebhookEnvelope is one inbound webhook delivery. It is never persisted.
type WebhookEnvelope struct {
	ID              string
	Timestamp       string
	SignatureHeader string
	RawBody         []byte
}
