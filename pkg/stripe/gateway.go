package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ds124wfegd/ticket-marketplace/config"
	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/sirupsen/logrus"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const (
	successPath = "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}"
	cancelPath  = "/dashboard/payment-cancelled"
)

// Gateway creates and resolves hosted Stripe Checkout sessions.
type Gateway struct {
	api        *client.API
	siteDomain string
}

func NewGateway(cfg config.PaymentConfig) (*Gateway, error) {
	return newGateway(cfg, nil)
}

// NewGatewayWithURL points the client at a different API host, used with
// stripe-mock or an httptest server.
func NewGatewayWithURL(cfg config.PaymentConfig, apiURL string) (*Gateway, error) {
	retries := int64(0)
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		URL:               stripego.String(apiURL),
		MaxNetworkRetries: &retries,
		LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelNull},
	})
	return newGateway(cfg, &stripego.Backends{API: backend, Connect: backend, Uploads: backend})
}

func newGateway(cfg config.PaymentConfig, backends *stripego.Backends) (*Gateway, error) {
	if cfg.StripeKey == "" {
		return nil, errors.New("stripe secret key is not configured")
	}

	api := &client.API{}
	api.Init(cfg.StripeKey, backends)

	return &Gateway{
		api:        api,
		siteDomain: strings.TrimRight(cfg.SiteDomain, "/"),
	}, nil
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req *entity.CheckoutRequest) (*entity.CheckoutSession, error) {
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	params := &stripego.CheckoutSessionParams{
		Mode: stripego.String(string(stripego.CheckoutSessionModePayment)),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{
				PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripego.String(req.Currency),
					UnitAmount: stripego.Int64(req.UnitAmount),
					ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripego.String(req.TicketTitle),
					},
				},
				Quantity: stripego.Int64(quantity),
			},
		},
		SuccessURL: stripego.String(g.siteDomain + successPath),
		CancelURL:  stripego.String(g.siteDomain + cancelPath),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripego.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata(entity.MetadataBookingID, req.BookingID)
	params.AddMetadata(entity.MetadataTicketID, req.TicketID)
	params.AddMetadata(entity.MetadataTicketTitle, req.TicketTitle)

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"session_id": session.ID,
		"booking_id": req.BookingID,
	}).Debug("Stripe checkout session created")

	return &entity.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// RetrieveSession resolves a session by id. The payment intent id becomes
// the transaction id used to deduplicate confirmations.
func (g *Gateway) RetrieveSession(ctx context.Context, sessionID string) (*entity.GatewaySession, error) {
	params := &stripego.CheckoutSessionParams{}
	params.Context = ctx

	session, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session %s: %w", sessionID, err)
	}

	result := &entity.GatewaySession{
		ID:            session.ID,
		PaymentStatus: string(session.PaymentStatus),
		AmountTotal:   session.AmountTotal,
		Currency:      string(session.Currency),
		CustomerEmail: session.CustomerEmail,
		Metadata:      session.Metadata,
	}
	if result.CustomerEmail == "" && session.CustomerDetails != nil {
		result.CustomerEmail = session.CustomerDetails.Email
	}
	if session.PaymentIntent != nil {
		result.TransactionID = session.PaymentIntent.ID
	}
	return result, nil
}
