package core

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"storefront/internal/types"
)

// MaxWebhookBodySize caps inbound webhook payloads.
const MaxWebhookBodySize = 1 << 20 // 1 MiB

// APIErrorResponse is the envelope for every JSON error response.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the client-visible part of an error. Wrapped causes are
// never included.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// JSON marshals data and writes it with the given status. A marshalling
// failure becomes a 500 envelope.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(APIErrorResponse{Error: ErrorDetail{
			Code:      string(types.ErrCodeInternalUnexpected),
			Message:   "failed to marshal response",
			RequestID: types.GetRequestID(r.Context()),
		}})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// RawJSON writes an already-encoded JSON body unchanged.
func RawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Text writes a plain-text body.
func Text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// Error writes err as an APIErrorResponse. An *types.AppError anywhere in the
// chain supplies the status, code and message; anything else is a generic
// 500. Server-side failures are logged with their cause.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	detail := ErrorDetail{
		Code:      string(types.ErrCodeInternalUnexpected),
		Message:   "an unexpected error occurred",
		RequestID: types.GetRequestID(ctx),
	}
	status := http.StatusInternalServerError

	var cause error = err
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		detail.Code = string(appErr.Code)
		detail.Message = appErr.Message
		status = appErr.HTTPStatus()
		cause = appErr.Err
	}

	if status >= http.StatusInternalServerError {
		msg := "request failed"
		if types.ErrorCode(detail.Code).IsUpstreamIncomplete() {
			msg = "upstream response incomplete"
		}
		types.LoggerFromContext(ctx, slog.Default()).ErrorContext(ctx, msg,
			"code", detail.Code,
			"status", status,
			"cause", cause,
		)
	}

	JSON(w, r, status, APIErrorResponse{Error: detail})
}

// ReadBody reads at most limit bytes of the request body. A larger body is
// reported as a validation error.
func ReadBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, types.NewAppError(types.ErrCodeValidationInvalidJSON, "request body too large", err)
		}
		return nil, types.NewAppError(types.ErrCodeValidationInvalidJSON, "request body could not be read", err)
	}
	return body, nil
}
