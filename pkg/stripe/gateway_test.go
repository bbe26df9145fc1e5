package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ds124wfegd/ticket-marketplace/config"
	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gateway, err := NewGatewayWithURL(config.PaymentConfig{
		StripeKey:  "sk_test_123",
		SiteDomain: "https://tickets.example.com/",
	}, server.URL)
	require.NoError(t, err)
	return gateway
}

func TestNewGateway_RequiresKey(t *testing.T) {
	_, err := NewGateway(config.PaymentConfig{})
	assert.Error(t, err)
}

func TestGateway_CreateCheckoutSession(t *testing.T) {
	var form map[string][]string
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/cs_test_1"}`))
	})

	session, err := gateway.CreateCheckoutSession(context.Background(), &entity.CheckoutRequest{
		BookingID:     "b-1",
		TicketID:      "t-1",
		TicketTitle:   "Dhaka to Sylhet",
		UnitAmount:    1500,
		Quantity:      3,
		Currency:      "usd",
		CustomerEmail: "customer@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", session.URL)

	assert.Equal(t, []string{"payment"}, form["mode"])
	assert.Equal(t, []string{"1500"}, form["line_items[0][price_data][unit_amount]"])
	assert.Equal(t, []string{"3"}, form["line_items[0][quantity]"])
	assert.Equal(t, []string{"b-1"}, form["metadata[booking_id]"])
	assert.Equal(t, []string{"customer@example.com"}, form["customer_email"])
	assert.Equal(t, []string{"https://tickets.example.com/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}"}, form["success_url"])
}

func TestGateway_RetrieveSession(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cs_test_1",
			"object": "checkout.session",
			"payment_status": "paid",
			"amount_total": 4500,
			"currency": "usd",
			"customer_details": {"email": "customer@example.com"},
			"payment_intent": "pi_123",
			"metadata": {"booking_id": "b-1", "ticket_id": "t-1"}
		}`))
	})

	session, err := gateway.RetrieveSession(context.Background(), "cs_test_1")
	require.NoError(t, err)

	assert.Equal(t, entity.PaymentStatusPaid, session.PaymentStatus)
	assert.Equal(t, int64(4500), session.AmountTotal)
	assert.Equal(t, "pi_123", session.TransactionID)
	assert.Equal(t, "customer@example.com", session.CustomerEmail)
	assert.Equal(t, "b-1", session.Metadata[entity.MetadataBookingID])
}

func TestGateway_RetrieveSessionError(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such checkout.session"}}`))
	})

	_, err := gateway.RetrieveSession(context.Background(), "cs_missing")
	assert.Error(t, err)
}
