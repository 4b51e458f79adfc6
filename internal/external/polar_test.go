package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/types"
)

const testToken = "polar_oat_test"

func newTestPolarClient(t *testing.T, handler http.HandlerFunc) *PolarClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewPolarClient(srv.Client(), PolarClientConfig{
		Credentials: types.ProviderCredentials{AccessToken: types.SecretString(testToken)},
		BaseURL:     srv.URL + "/",
	})
}

func assertAuthorized(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", r.Header.Get("Accept"))
}

func TestBaseURLForMode(t *testing.T) {
	assert.Equal(t, "https://sandbox-api.polar.sh", BaseURLForMode(types.ModeSandbox))
	assert.Equal(t, "https://api.polar.sh", BaseURLForMode(types.ModeProduction))
	assert.Equal(t, "https://api.polar.sh", BaseURLForMode(""))
	assert.Equal(t, "https://api.polar.sh", BaseURLForMode("Sandbox"))
}

func TestNewPolarClient_DerivesBaseURL(t *testing.T) {
	c := NewPolarClient(nil, PolarClientConfig{Credentials: types.ProviderCredentials{Mode: types.ModeSandbox}})
	assert.Equal(t, types.SandboxBaseURL, c.BaseURL())

	c = NewPolarClient(nil, PolarClientConfig{})
	assert.Equal(t, types.ProductionBaseURL, c.BaseURL())
}

func TestPolarClient_ListProducts(t *testing.T) {
	c := newTestPolarClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertAuthorized(t, r)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/products/", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("is_archived"))
		_, _ = w.Write([]byte(`{"items":[{"id":"p1","name":"Pro","is_recurring":true},{"id":"p2","name":"Lite","description":null}],"pagination":{"total_count":2}}`))
	})

	list, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "Pro", list.Items[0].Name)
	require.NotNil(t, list.Items[0].IsRecurring)
	assert.True(t, *list.Items[0].IsRecurring)
	assert.Nil(t, list.Items[1].Description)
}

func TestPolarClient_CreateCheckout(t *testing.T) {
	c := newTestPolarClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertAuthorized(t, r)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkouts/", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"p1", "p2"}, body["products"])
		assert.Equal(t, "http://shop.test/", body["success_url"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"co_1","url":"https://polar.sh/checkout/co_1"}`))
	})

	co, err := c.CreateCheckout(context.Background(), []string{"p1", "p2"}, "http://shop.test/")
	require.NoError(t, err)
	u, ok := co.RedirectURL()
	assert.True(t, ok)
	assert.Equal(t, "https://polar.sh/checkout/co_1", u)
}

func TestPolarClient_CreateCheckout_MissingURL(t *testing.T) {
	c := newTestPolarClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"co_1"}`))
	})

	co, err := c.CreateCheckout(context.Background(), []string{"p1"}, "http://shop.test/")
	require.NoError(t, err)
	_, ok := co.RedirectURL()
	assert.False(t, ok)
}

func TestPolarClient_FindCustomerByEmail(t *testing.T) {
	c := newTestPolarClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertAuthorized(t, r)
		assert.Equal(t, "/v1/customers/", r.URL.Path)
		assert.Equal(t, "a+b@example.com", r.URL.Query().Get("email"))
		_, _ = w.Write([]byte(`{"items":[{"id":"cus_1"},{"id":"cus_2"}]}`))
	})

	list, err := c.FindCustomerByEmail(context.Background(), "a+b@example.com")
	require.NoError(t, err)
	first, ok := list.First()
	require.True(t, ok)
	assert.Equal(t, "cus_1", first.ID)
}

func TestPolarClient_CreateCustomerSession(t *testing.T) {
	c := newTestPolarClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertAuthorized(t, r)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/customer-sessions/", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"customer_id": "cus_1"}, body)

		_, _ = w.Write([]byte(`{"token":"tok","customer_portal_url":"https://polar.sh/portal/tok"}`))
	})

	sess, err := c.CreateCustomerSession(context.Background(), "cus_1")
	require.NoError(t, err)
	u, ok := sess.PortalURL()
	assert.True(t, ok)
	assert.Equal(t, "https://polar.sh/portal/tok", u)
}

func TestPolarClient_UpstreamError(t *testing.T) {
	c := newTestPolarClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.ListProducts(context.Background())
	requireUpstreamUnavailable(t, err)
	assert.NotContains(t, err.Error(), testToken)
}
