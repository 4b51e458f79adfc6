package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"storefront/internal/core"
	"storefront/internal/types"
)

type fakeAcceptor struct {
	got   types.WebhookEnvelope
	calls int
	err   error
}

func (f *fakeAcceptor) AcceptWebhook(ctx context.Context, env types.WebhookEnvelope) error {
	f.calls++
	f.got = env
	return f.err
}

func newWebhookRouter(acc WebhookAcceptor) http.Handler {
	r := chi.NewRouter()
	NewPolarWebhookHandler(acc, discardLogger()).RegisterRoutes(r)
	return r
}

func newWebhookRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/polar/webhooks", strings.NewReader(body))
	req.Header.Set("webhook-id", "msg_1")
	req.Header.Set("webhook-timestamp", "1700000000")
	req.Header.Set("webhook-signature", "v1,abc=")
	return req
}

func TestPolarWebhookHandler_Accepted(t *testing.T) {
	acc := &fakeAcceptor{}
	body := `{"type":"order.created","data":{"id":"ord_1"}}`

	rec := httptest.NewRecorder()
	newWebhookRouter(acc).ServeHTTP(rec, newWebhookRequest(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, body, rec.Body.String())

	assert.Equal(t, 1, acc.calls)
	assert.Equal(t, "msg_1", acc.got.ID)
	assert.Equal(t, "1700000000", acc.got.Timestamp)
	assert.Equal(t, "v1,abc=", acc.got.SignatureHeader)
	assert.Equal(t, []byte(body), acc.got.RawBody)
}

func TestPolarWebhookHandler_InvalidSignature(t *testing.T) {
	acc := &fakeAcceptor{err: types.NewAppError(types.ErrCodeSignatureInvalid, "Invalid signature", nil)}

	rec := httptest.NewRecorder()
	newWebhookRouter(acc).ServeHTTP(rec, newWebhookRequest(`{"type":"ping"}`))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid signature", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestPolarWebhookHandler_OtherError(t *testing.T) {
	acc := &fakeAcceptor{err: types.NewAppError(types.ErrCodeInternalUnexpected, "boom", nil)}

	rec := httptest.NewRecorder()
	newWebhookRouter(acc).ServeHTTP(rec, newWebhookRequest(`{}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(types.ErrCodeInternalUnexpected), decodeError(t, rec).Code)
}

func TestPolarWebhookHandler_BodyTooLarge(t *testing.T) {
	acc := &fakeAcceptor{}
	body := strings.Repeat("a", int(core.MaxWebhookBodySize)+1)

	rec := httptest.NewRecorder()
	newWebhookRouter(acc).ServeHTTP(rec, newWebhookRequest(body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, acc.calls)
}

func TestPolarWebhookHandler_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newWebhookRouter(&fakeAcceptor{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/polar/webhooks", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
