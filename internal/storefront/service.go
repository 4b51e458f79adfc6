// Package storefront orchestrates the buyer-facing billing flows: product
// listing, hosted checkout, the self-service portal, and webhook intake.
// Every operation is stateless, so a single Service is shared by all requests.
package storefront

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"storefront/internal/external"
	"storefront/internal/types"
	"storefront/internal/webhook"
)

// WebhookRejectionRecorder observes deliveries that failed verification.
type WebhookRejectionRecorder interface {
	RecordWebhookRejected(ctx context.Context)
}

// Config holds the storefront rules fixed at startup.
type Config struct {
	// SuccessURL overrides the post-checkout redirect. Empty means
	// "http://<request host>/".
	SuccessURL    string
	WebhookSecret types.SecretString
}

// Service implements the storefront operations on top of a ProviderClient.
type Service struct {
	provider   external.ProviderClient
	events     webhook.EventHandler
	successURL string
	secret     types.SecretString
	logger     *slog.Logger
	validate   *validator.Validate
	rejections WebhookRejectionRecorder
}

// Option customizes a Service.
type Option func(*Service)

// WithRejectionRecorder reports every rejected webhook delivery to r.
func WithRejectionRecorder(r WebhookRejectionRecorder) Option {
	return func(s *Service) { s.rejections = r }
}

// NewService wires the provider client and the verified-event handler.
// A nil events handler logs deliveries.
func NewService(provider external.ProviderClient, events webhook.EventHandler, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = webhook.NewLogEventHandler(logger)
	}
	s := &Service{
		provider:   provider,
		events:     events,
		successURL: cfg.SuccessURL,
		secret:     cfg.WebhookSecret,
		logger:     logger,
		validate:   validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListProducts returns the products to display. A provider failure yields an
// empty list so the storefront page still renders.
func (s *Service) ListProducts(ctx context.Context) []types.Product {
	list, err := s.provider.ListProducts(ctx)
	if err != nil {
		s.log(ctx).WarnContext(ctx, "product listing unavailable, rendering empty catalogue", "error", err)
		return []types.Product{}
	}

	products := make([]types.Product, 0, len(list.Items))
	for _, p := range list.Items {
		if !p.Usable() || (p.IsArchived != nil && *p.IsArchived) {
			continue
		}
		products = append(products, types.Product{ID: p.ID, Name: p.Name})
	}
	return products
}

// StartCheckout creates a hosted checkout and returns the URL to redirect
// the buyer to.
func (s *Service) StartCheckout(ctx context.Context, req types.CheckoutRequest) (types.CheckoutResult, error) {
	ids := compact(req.ProductIDs)
	if len(ids) == 0 {
		return types.CheckoutResult{}, types.NewAppError(types.ErrCodeValidationMissingField, "at least one product is required", nil)
	}

	checkout, err := s.provider.CreateCheckout(ctx, ids, s.effectiveSuccessURL(req.RequestHost))
	if err != nil {
		return types.CheckoutResult{}, types.NewAppError(types.ErrCodeCheckoutUnavailable, "checkout could not be created", err)
	}

	url, ok := checkout.RedirectURL()
	if !ok {
		return types.CheckoutResult{}, types.NewAppErrorWithDetails(
			types.ErrCodeCheckoutUnavailable,
			"checkout response did not include a url",
			nil,
			map[string]any{"checkout_id": checkout.ID},
		)
	}
	return types.CheckoutResult{URL: url}, nil
}

func (s *Service) effectiveSuccessURL(host string) string {
	if s.successURL != "" {
		return s.successURL
	}
	return "http://" + host + "/"
}

// OpenPortal resolves the buyer by email and opens a portal session. When
// several customers share the email the first one returned is used.
func (s *Service) OpenPortal(ctx context.Context, req types.PortalRequest) (types.PortalResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validatePortal(req); err != nil {
		return types.PortalResult{}, err
	}

	customers, err := s.provider.FindCustomerByEmail(ctx, req.Email)
	if err != nil {
		return types.PortalResult{}, types.NewAppError(types.ErrCodeNotFoundCustomer, "customer not found", err)
	}
	customer, ok := customers.First()
	if !ok {
		return types.PortalResult{}, types.NewAppError(types.ErrCodeNotFoundCustomer, "customer not found", nil)
	}

	session, err := s.provider.CreateCustomerSession(ctx, customer.ID)
	if err != nil {
		return types.PortalResult{}, types.NewAppError(types.ErrCodeSessionCreationFailed, "portal session could not be created", err)
	}
	portalURL, ok := session.PortalURL()
	if !ok {
		return types.PortalResult{}, types.NewAppError(types.ErrCodeSessionCreationFailed, "portal session did not include a url", nil)
	}
	return types.PortalResult{PortalURL: portalURL}, nil
}

func (s *Service) validatePortal(req types.PortalRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "required" {
		return types.NewAppError(types.ErrCodeValidationMissingField, "email is required", err)
	}
	return types.NewAppError(types.ErrCodeValidationInvalidEmail, "email is not a valid address", err)
}

// AcceptWebhook verifies a delivery and passes it to the event handler.
// Handler errors are logged; an authentic delivery is always acknowledged.
func (s *Service) AcceptWebhook(ctx context.Context, env types.WebhookEnvelope) error {
	if !webhook.Verify(env.RawBody, env.ID, env.Timestamp, env.SignatureHeader, s.secret.Unmask()) {
		if s.rejections != nil {
			s.rejections.RecordWebhookRejected(ctx)
		}
		s.log(ctx).WarnContext(ctx, "webhook signature rejected", "webhook_id", env.ID)
		return types.NewAppError(types.ErrCodeSignatureInvalid, "Invalid signature", nil)
	}

	if err := s.events.HandleEvent(ctx, env); err != nil {
		s.log(ctx).ErrorContext(ctx, "webhook event handler failed", "webhook_id", env.ID, "error", err)
	}
	return nil
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return types.LoggerFromContext(ctx, s.logger)
}

// compact drops blank IDs while keeping order and duplicates.
func compact(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
