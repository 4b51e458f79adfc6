package external

import "context"

// ProviderClient is the set of payment provider calls the storefront makes.
// Every method makes exactly one attempt and fails with ErrCodeUpstreamUnavailable.
type ProviderClient interface {
	ListProducts(ctx context.Context) (*ProductList, error)
	CreateCheckout(ctx context.Context, productIDs []string, successURL string) (*Checkout, error)
	FindCustomerByEmail(ctx context.Context, email string) (*CustomerList, error)
	CreateCustomerSession(ctx context.Context, customerID string) (*CustomerSession, error)
}

// FailureRecorder observes failed provider calls.
type FailureRecorder interface {
	RecordProviderFailure(ctx context.Context, provider, operation string)
}
