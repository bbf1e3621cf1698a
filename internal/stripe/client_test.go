package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession_Success(t *testing.T) {
	var gotForm map[string][]string
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cs_test_123","url":"https://checkout.stripe.com/pay/cs_test_123"}`))
	}))
	defer server.Close()

	client := NewClient("sk_test_key", server.URL)
	session, err := client.CreateSession(context.Background(), SessionParams{
		LineItems: []SessionLineItem{
			{Name: "Widget", UnitAmount: 999, Quantity: 2, Currency: "usd"},
		},
		Metadata: map[string]string{
			"item_0_sku":      "A",
			"item_0_quantity": "2",
			"comments":        "gift wrap",
		},
		SuccessURL: "https://shop.example/checkout?result=success",
		CancelURL:  "https://shop.example/checkout",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_123", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_123", session.URL)

	assert.Equal(t, "Bearer sk_test_key", gotAuth)
	assert.Equal(t, "payment", gotForm["mode"][0])
	assert.Equal(t, "2", gotForm["line_items[0][quantity]"][0])
	assert.Equal(t, "usd", gotForm["line_items[0][price_data][currency]"][0])
	assert.Equal(t, "999", gotForm["line_items[0][price_data][unit_amount]"][0])
	assert.Equal(t, "Widget", gotForm["line_items[0][price_data][product_data][name]"][0])
	assert.Equal(t, "A", gotForm["metadata[item_0_sku]"][0])
	assert.Equal(t, "2", gotForm["metadata[item_0_quantity]"][0])
	assert.Equal(t, "gift wrap", gotForm["metadata[comments]"][0])
	assert.Equal(t, "https://shop.example/checkout?result=success", gotForm["success_url"][0])
}

func TestCreateSession_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid currency"}}`))
	}))
	defer server.Close()

	client := NewClient("sk_test_key", server.URL)
	_, err := client.CreateSession(context.Background(), SessionParams{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_request_error", apiErr.Type)
	assert.Equal(t, "Invalid currency", apiErr.Message)
}

func TestCreateSession_MissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("sk_test_key", server.URL)
	_, err := client.CreateSession(context.Background(), SessionParams{})
	assert.Error(t, err)
}

func TestCreateSession_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // closed before the call

	client := NewClient("sk_test_key", server.URL)
	_, err := client.CreateSession(context.Background(), SessionParams{})
	assert.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures are not API errors")
}

func TestHostedCheckoutURL(t *testing.T) {
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_123", HostedCheckoutURL("cs_test_123"))
}
