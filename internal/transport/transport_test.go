package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ds124wfegd/ticket-marketplace/config"
	"github.com/ds124wfegd/ticket-marketplace/internal/database/memory"
	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/ds124wfegd/ticket-marketplace/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	customerToken = "token-customer"
	vendorToken   = "token-vendor"
	adminToken    = "token-admin"
)

type staticVerifier map[string]string

func (v staticVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	email, ok := v[token]
	if !ok {
		return "", errors.New("invalid token")
	}
	return email, nil
}

type stubGateway struct {
	sessions map[string]*entity.GatewaySession
}

func (g *stubGateway) CreateCheckoutSession(ctx context.Context, req *entity.CheckoutRequest) (*entity.CheckoutSession, error) {
	return &entity.CheckoutSession{ID: "cs_" + req.BookingID, URL: "https://checkout.test/cs_" + req.BookingID}, nil
}

func (g *stubGateway) RetrieveSession(ctx context.Context, sessionID string) (*entity.GatewaySession, error) {
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such session")
	}
	return session, nil
}

type testAPI struct {
	router  *gin.Engine
	store   *memory.Store
	gateway *stubGateway
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	gateway := &stubGateway{sessions: make(map[string]*entity.GatewaySession)}

	ctx := context.Background()
	for email, role := range map[string]entity.Role{
		"customer@example.com": entity.RoleUser,
		"vendor@example.com":   entity.RoleVendor,
		"admin@example.com":    entity.RoleAdmin,
	} {
		require.NoError(t, store.Repositories().Users.Upsert(ctx, &entity.User{
			ID:    uuid.NewString(),
			Email: email,
			Role:  role,
		}))
	}

	bookings := service.NewBookingService(store, gateway, nil, config.BookingConfig{MaxQuantity: 50, StaleAfter: time.Hour})
	tickets := service.NewTicketService(store, config.InventoryConfig{MaxAdvertised: 6})
	payments := service.NewPaymentService(store, gateway, config.PaymentConfig{Currency: "usd"})
	users := service.NewUserService(store)
	vendors := service.NewVendorService(store)

	router := InitRoutes(&Handlers{
		Tickets:  NewTicketHandler(tickets),
		Bookings: NewBookingHandler(bookings),
		Payments: NewPaymentHandler(payments, bookings),
		Users:    NewUserHandler(users, vendors),
		Admin:    NewAdminHandler(users, vendors, tickets, bookings, nil),
	}, RouterConfig{
		Verifier: staticVerifier{
			customerToken: "customer@example.com",
			vendorToken:   "vendor@example.com",
			adminToken:    "admin@example.com",
		},
		Roles:          users,
		Health:         store,
		RequestTimeout: 5 * time.Second,
	})

	return &testAPI{router: router, store: store, gateway: gateway}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func (a *testAPI) seedTicket(t *testing.T, quantity int) string {
	t.Helper()
	now := time.Now().UTC()
	ticket := &entity.Ticket{
		ID:            uuid.NewString(),
		VendorEmail:   "vendor@example.com",
		Title:         "Dhaka to Sylhet",
		From:          "Dhaka",
		To:            "Sylhet",
		TransportType: entity.TransportBus,
		Price:         decimal.RequireFromString("15"),
		Quantity:      quantity,
		DepartureAt:   now.Add(24 * time.Hour),
		Status:        entity.TicketStatusApproved,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, a.store.Repositories().Tickets.Create(context.Background(), ticket))
	return ticket.ID
}

func (a *testAPI) quantity(t *testing.T, ticketID string) int {
	t.Helper()
	ticket, err := a.store.Repositories().Tickets.GetByID(context.Background(), ticketID)
	require.NoError(t, err)
	return ticket.Quantity
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", body)
	return d
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	w, body := api.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)

	w, _ := api.do(t, http.MethodOptions, "/api/v1/bookings", "", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestBookingLifecycle(t *testing.T) {
	api := newTestAPI(t)
	ticketID := api.seedTicket(t, 10)

	w, body := api.do(t, http.MethodPost, "/api/v1/bookings", "", map[string]interface{}{
		"ticket_id":      ticketID,
		"quantity":       3,
		"customer_email": "customer@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bookingID := data(t, body)["id"].(string)

	w, body = api.do(t, http.MethodPost, "/api/v1/create-checkout-session", "", map[string]interface{}{
		"booking_id":     bookingID,
		"cost":           "45",
		"customer_email": "customer@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sessionID := data(t, body)["id"].(string)

	api.gateway.sessions[sessionID] = &entity.GatewaySession{
		ID:            sessionID,
		PaymentStatus: entity.PaymentStatusPaid,
		AmountTotal:   4500,
		Currency:      "usd",
		TransactionID: "pi_1",
		Metadata:      map[string]string{entity.MetadataBookingID: bookingID},
	}

	w, body = api.do(t, http.MethodPatch, "/api/v1/payment-success?session_id="+sessionID, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	confirmation := data(t, body)
	assert.Equal(t, float64(7), confirmation["updated_quantity"])
	assert.Equal(t, false, confirmation["already_processed"])
	trackingID := confirmation["tracking_id"]

	w, body = api.do(t, http.MethodPatch, "/api/v1/payment-success?session_id="+sessionID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Payment already processed", body["message"])
	assert.Equal(t, trackingID, data(t, body)["tracking_id"])
	assert.Equal(t, 7, api.quantity(t, ticketID))

	w, body = api.do(t, http.MethodGet, "/api/v1/my-bookings?email=customer@example.com", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["data"], 1)

	w, _ = api.do(t, http.MethodDelete, "/api/v1/bookings/"+bookingID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, api.quantity(t, ticketID))

	w, body = api.do(t, http.MethodGet, "/api/v1/bookings/"+bookingID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestBookingErrorsMapToStatus(t *testing.T) {
	api := newTestAPI(t)
	ticketID := api.seedTicket(t, 2)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{
			name:   "over quantity",
			method: http.MethodPost,
			path:   "/api/v1/bookings",
			body:   map[string]interface{}{"ticket_id": ticketID, "quantity": 5, "customer_email": "a@b.c"},
			want:   http.StatusConflict,
		},
		{
			name:   "malformed ticket id",
			method: http.MethodPost,
			path:   "/api/v1/bookings",
			body:   map[string]interface{}{"ticket_id": "42", "quantity": 1, "customer_email": "a@b.c"},
			want:   http.StatusBadRequest,
		},
		{
			name:   "missing body fields",
			method: http.MethodPost,
			path:   "/api/v1/bookings",
			body:   map[string]interface{}{"quantity": 1},
			want:   http.StatusBadRequest,
		},
		{
			name:   "cancel missing booking",
			method: http.MethodDelete,
			path:   "/api/v1/bookings/" + uuid.NewString(),
			want:   http.StatusNotFound,
		},
		{
			name:   "confirm without session",
			method: http.MethodPatch,
			path:   "/api/v1/payment-success",
			want:   http.StatusBadRequest,
		},
		{
			name:   "confirm unknown session",
			method: http.MethodPatch,
			path:   "/api/v1/payment-success?session_id=cs_missing",
			want:   http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := api.do(t, tt.method, tt.path, "", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Equal(t, false, body["success"])
		})
	}

	assert.Equal(t, 2, api.quantity(t, ticketID))
}

func TestConfirmUnpaidSession(t *testing.T) {
	api := newTestAPI(t)
	ticketID := api.seedTicket(t, 5)

	w, body := api.do(t, http.MethodPost, "/api/v1/bookings", "", map[string]interface{}{
		"ticket_id": ticketID, "quantity": 1, "customer_email": "customer@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	bookingID := data(t, body)["id"].(string)

	api.gateway.sessions["cs_unpaid"] = &entity.GatewaySession{
		ID:            "cs_unpaid",
		PaymentStatus: "unpaid",
		TransactionID: "pi_unpaid",
		Metadata:      map[string]string{entity.MetadataBookingID: bookingID},
	}

	w, _ = api.do(t, http.MethodPatch, "/api/v1/payment-success?session_id=cs_unpaid", "", nil)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, 5, api.quantity(t, ticketID))
}

func TestTicketRoutesRequireVendor(t *testing.T) {
	api := newTestAPI(t)
	ticket := map[string]interface{}{
		"title":          "Dhaka to Khulna",
		"from":           "Dhaka",
		"to":             "Khulna",
		"transport_type": "launch",
		"price":          "8.50",
		"quantity":       30,
		"departure_at":   time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}

	w, _ := api.do(t, http.MethodPost, "/api/v1/tickets", "", ticket)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = api.do(t, http.MethodPost, "/api/v1/tickets", "bogus", ticket)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = api.do(t, http.MethodPost, "/api/v1/tickets", customerToken, ticket)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := api.do(t, http.MethodPost, "/api/v1/tickets", vendorToken, ticket)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ticketID := data(t, body)["id"].(string)
	assert.Equal(t, "pending", data(t, body)["status"])

	// pending tickets stay out of the public catalogue
	w, body = api.do(t, http.MethodGet, "/api/v1/tickets", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["data"])

	w, _ = api.do(t, http.MethodPatch, "/api/v1/admin/tickets/"+ticketID+"/status", vendorToken, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = api.do(t, http.MethodPatch, "/api/v1/admin/tickets/"+ticketID+"/status", adminToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = api.do(t, http.MethodPatch, "/api/v1/admin/tickets/"+ticketID+"/advertise", adminToken, map[string]bool{"advertised": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = api.do(t, http.MethodGet, "/api/v1/tickets/advertised", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["data"], 1)

	w, body = api.do(t, http.MethodGet, "/api/v1/my-tickets", vendorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["data"], 1)
}

func TestPaymentsOnlyForOwnEmail(t *testing.T) {
	api := newTestAPI(t)

	w, _ := api.do(t, http.MethodGet, "/api/v1/payments?email=vendor@example.com", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := api.do(t, http.MethodGet, "/api/v1/payments?email=customer@example.com", customerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["data"])
}

func TestVendorApplicationFlow(t *testing.T) {
	api := newTestAPI(t)

	w, body := api.do(t, http.MethodPost, "/api/v1/vendors", customerToken, map[string]string{"name": "Customer Travels"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	vendorID := data(t, body)["id"].(string)

	w, _ = api.do(t, http.MethodPost, "/api/v1/vendors", customerToken, map[string]string{"name": "Customer Travels"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = api.do(t, http.MethodPatch, "/api/v1/admin/vendors/"+vendorID+"/status", adminToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = api.do(t, http.MethodGet, "/api/v1/users/customer@example.com/role", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vendor", data(t, body)["role"])
}

func TestAdminQueueDisabled(t *testing.T) {
	api := newTestAPI(t)

	w, _ := api.do(t, http.MethodGet, "/api/v1/admin/queue/stats", adminToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, body := api.do(t, http.MethodGet, "/api/v1/admin/inventory/audit", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, data(t, body)["negative_tickets"])
}

func TestPaginate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	items := []int{1, 2, 3, 4, 5}

	tests := []struct {
		query   string
		want    []int
		hasMore bool
	}{
		{"", []int{1, 2, 3, 4, 5}, false},
		{"?limit=2", []int{1, 2}, true},
		{"?limit=2&offset=4", []int{5}, false},
		{"?offset=10", []int{}, false},
		{"?limit=-1&offset=-3", []int{1, 2, 3, 4, 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)

			page, meta := paginate(c, items)
			assert.Equal(t, tt.want, page)
			assert.Equal(t, tt.hasMore, meta["has_more"])
			assert.Equal(t, 5, meta["total"])
		})
	}
}
