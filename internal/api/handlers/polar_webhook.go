package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/core"
	"storefront/internal/types"
)

// Standard Webhooks delivery headers.
const (
	headerWebhookID        = "webhook-id"
	headerWebhookTimestamp = "webhook-timestamp"
	headerWebhookSignature = "webhook-signature"
)

// invalidSignatureBody is the exact body of a rejected delivery.
const invalidSignatureBody = "Invalid signature"

// WebhookAcceptor verifies and dispatches one delivery.
type WebhookAcceptor interface {
	AcceptWebhook(ctx context.Context, env types.WebhookEnvelope) error
}

// PolarWebhookHandler receives provider webhooks. It is unauthenticated;
// the signature is the only trust boundary.
type PolarWebhookHandler struct {
	acceptor WebhookAcceptor
	logger   *slog.Logger
}

// NewPolarWebhookHandler creates a PolarWebhookHandler.
func NewPolarWebhookHandler(acceptor WebhookAcceptor, logger *slog.Logger) *PolarWebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PolarWebhookHandler{acceptor: acceptor, logger: logger}
}

// RegisterRoutes mounts POST /polar/webhooks.
func (h *PolarWebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/polar/webhooks", h.Handle)
}

// Handle answers 200 with the raw body echoed back when the signature is
// valid and 403 "Invalid signature" otherwise.
func (h *PolarWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := core.ReadBody(w, r, core.MaxWebhookBodySize)
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to read webhook body", "error", err)
		core.Error(w, r, err)
		return
	}

	env := types.WebhookEnvelope{
		ID:              r.Header.Get(headerWebhookID),
		Timestamp:       r.Header.Get(headerWebhookTimestamp),
		SignatureHeader: r.Header.Get(headerWebhookSignature),
		RawBody:         body,
	}

	if err := h.acceptor.AcceptWebhook(r.Context(), env); err != nil {
		if types.CodeOf(err) == types.ErrCodeSignatureInvalid {
			core.Text(w, http.StatusForbidden, invalidSignatureBody)
			return
		}
		core.Error(w, r, err)
		return
	}

	core.RawJSON(w, http.StatusOK, body)
}
