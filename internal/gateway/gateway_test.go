package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerifySignature(t *testing.T) {
	sig := Sign("secret", "order_1", "pay_1")
	require.NotEmpty(t, sig)

	require.True(t, VerifySignature("secret", "order_1", "pay_1", sig))
	require.False(t, VerifySignature("secret", "order_1", "pay_2", sig))
	require.False(t, VerifySignature("other", "order_1", "pay_1", sig))
	require.False(t, VerifySignature("secret", "order_1", "pay_1", "forged"))
}

func TestClientCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key-id", user)
		require.Equal(t, "key-secret", pass)

		var req createOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, int64(50000), req.Amount)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createOrderResponse{
			ID:       "order_123",
			Amount:   req.Amount,
			Currency: req.Currency,
			Receipt:  req.Receipt,
		})
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{Endpoint: server.URL, KeyID: "key-id", KeySecret: "key-secret"})
	require.NoError(t, err)

	order, err := client.CreateOrder(context.Background(), 50000, "INR", "rcpt_1")
	require.NoError(t, err)
	require.Equal(t, "order_123", order.ID)
	require.Equal(t, int64(50000), order.Amount)
}

func TestClientCreateOrderProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{Endpoint: server.URL, KeyID: "k", KeySecret: "s"})
	require.NoError(t, err)

	_, err = client.CreateOrder(context.Background(), 100, "INR", "rcpt")
	require.Error(t, err)
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(ClientConfig{KeyID: "k", KeySecret: "s"})
	require.Error(t, err)

	_, err = NewClient(ClientConfig{Endpoint: "https://checkout.example.com", KeyID: "k"})
	require.Error(t, err)
}
