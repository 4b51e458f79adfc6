package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"storefront/internal/types"
)

// EventHandler receives deliveries that passed signature verification.
// Implementations must not assume a delivery is seen only once.
type EventHandler interface {
	HandleEvent(ctx context.Context, env types.WebhookEnvelope) error
}

// Event is the minimal shape shared by every provider event payload.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ParseEvent decodes the event type from a verified payload.
func ParseEvent(rawBody []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return Event{}, fmt.Errorf("decoding webhook event: %w", err)
	}
	return ev, nil
}

// LogEventHandler records each verified delivery. It is the default handler
// until the storefront needs to react to specific event types.
type LogEventHandler struct {
	Logger *slog.Logger
}

// NewLogEventHandler returns a LogEventHandler writing to logger.
func NewLogEventHandler(logger *slog.Logger) *LogEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventHandler{Logger: logger}
}

// HandleEvent logs the delivery ID and event type. A payload that is not a
// JSON object is logged with an empty type and reported as an error.
func (h *LogEventHandler) HandleEvent(ctx context.Context, env types.WebhookEnvelope) error {
	ev, err := ParseEvent(env.RawBody)
	h.Logger.InfoContext(ctx, "webhook event received",
		"webhook_id", env.ID,
		"event_type", ev.Type,
		"size_bytes", len(env.RawBody),
	)
	return err
}
