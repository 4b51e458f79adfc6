package external

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"storefront/internal/types"
)

const polarProvider = "polar"

// PolarClientConfig configures a PolarClient.
type PolarClientConfig struct {
	Credentials types.ProviderCredentials
	// BaseURL replaces the mode-derived host. Used by tests and local mocks.
	BaseURL   string
	UserAgent string
	Logger    *slog.Logger
}

// PolarClient calls the Polar REST API. The base URL and credentials are
// fixed at construction, so a single client is shared by all requests.
type PolarClient struct {
	base    *BaseClient
	token   types.SecretString
	baseURL string
	logger  *slog.Logger
}

var _ ProviderClient = (*PolarClient)(nil)

// NewPolarClient creates a PolarClient on top of the shared http.Client.
func NewPolarClient(httpClient *http.Client, cfg PolarClientConfig, opts ...BaseClientOption) *PolarClient {
	ua := cfg.UserAgent
	if ua == "" {
		ua = "Storefront/1.0"
	}
	return NewPolarClientWithBase(NewBaseClient(httpClient, polarProvider, ua, opts...), cfg)
}

// NewPolarClientWithBase creates a PolarClient with a pre-configured BaseClient.
func NewPolarClientWithBase(base *BaseClient, cfg PolarClientConfig) *PolarClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURLForMode(cfg.Credentials.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PolarClient{
		base:    base,
		token:   cfg.Credentials.AccessToken,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// BaseURLForMode returns the API host for mode.
func BaseURLForMode(mode types.Mode) string {
	return mode.BaseURL()
}

// BaseURL returns the host this client targets.
func (p *PolarClient) BaseURL() string {
	return p.baseURL
}

// ListProducts returns the non-archived products.
func (p *PolarClient) ListProducts(ctx context.Context) (*ProductList, error) {
	params := url.Values{}
	params.Set("is_archived", "false")

	var out ProductList
	if err := p.doGet(ctx, "list_products", "/v1/products/", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCheckout opens a hosted checkout for productIDs that returns the
// buyer to successURL.
func (p *PolarClient) CreateCheckout(ctx context.Context, productIDs []string, successURL string) (*Checkout, error) {
	body := checkoutCreate{Products: productIDs, SuccessURL: successURL}
	if body.Products == nil {
		body.Products = []string{}
	}

	var out Checkout
	if err := p.doPost(ctx, "create_checkout", "/v1/checkouts/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindCustomerByEmail lists customers matching email, in provider order.
func (p *PolarClient) FindCustomerByEmail(ctx context.Context, email string) (*CustomerList, error) {
	params := url.Values{}
	params.Set("email", email)

	var out CustomerList
	if err := p.doGet(ctx, "find_customer", "/v1/customers/", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCustomerSession creates a customer portal session.
func (p *PolarClient) CreateCustomerSession(ctx context.Context, customerID string) (*CustomerSession, error) {
	var out CustomerSession
	if err := p.doPost(ctx, "create_customer_session", "/v1/customer-sessions/", customerSessionCreate{CustomerID: customerID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PolarClient) doGet(ctx context.Context, op, path string, params url.Values, out any) error {
	reqURL := p.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return p.do(ctx, Request{Operation: op, Method: http.MethodGet, URL: reqURL}, out)
}

func (p *PolarClient) doPost(ctx context.Context, op, path string, body, out any) error {
	return p.do(ctx, Request{Operation: op, Method: http.MethodPost, URL: p.baseURL + path, Body: body}, out)
}

func (p *PolarClient) do(ctx context.Context, req Request, out any) error {
	req.Header = p.authHeaders()
	err := p.base.DoJSON(ctx, req, out)
	if err != nil {
		p.logger.WarnContext(ctx, "polar request failed",
			"operation", req.Operation,
			"error", err,
		)
	}
	return err
}

func (p *PolarClient) authHeaders() http.Header {
	h := make(http.Header, 2)
	h.Set("Authorization", "Bearer "+p.token.Unmask())
	h.Set("Content-Type", "application/json")
	return h
}
