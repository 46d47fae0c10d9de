// Package checkout turns a validated cart submission into a pending order and
// a gateway payment preference.
package checkout

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pixelcraft-mc/store-fulfillment/internal/mercadopago"
	"github.com/pixelcraft-mc/store-fulfillment/internal/money"
	"github.com/pixelcraft-mc/store-fulfillment/internal/orders"
	"github.com/pixelcraft-mc/store-fulfillment/internal/validation"
)

// Gateway is the payment-intent side of the Mercado Pago client.
type Gateway interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
}

// Repository is the order persistence surface the orchestrator needs.
type Repository interface {
	CreateWithItems(ctx context.Context, order orders.Order, items []orders.OrderItem) error
	SetPaymentID(ctx context.Context, orderID, paymentID string) error
}

// Result is returned to the storefront caller on success.
type Result struct {
	OrderID          string `json:"order_id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Orchestrator drives the checkout flow: persist pending order, request a
// payment preference, link the preference id back to the order.
type Orchestrator struct {
	repo       Repository
	gateway    Gateway
	appBaseURL string
	currencyID string
	newID      func() string
}

// NewOrchestrator wires the checkout flow. appBaseURL is the public base URL
// used to build the gateway callback and webhook URLs.
func NewOrchestrator(repo Repository, gateway Gateway, appBaseURL, currencyID string) *Orchestrator {
	return &Orchestrator{
		repo:       repo,
		gateway:    gateway,
		appBaseURL: appBaseURL,
		currencyID: currencyID,
		newID:      uuid.NewString,
	}
}

// Checkout validates nothing itself — the caller binds and validates the
// request — and runs the persistence + gateway flow. If the item write fails
// the repository rolls the order back; if the gateway call fails the pending
// order deliberately stays behind as an audit trail, since the customer can
// retry payment but an order without items is nonsensical.
func (o *Orchestrator) Checkout(ctx context.Context, req validation.CheckoutRequest) (*Result, error) {
	orderID := o.newID()

	total := decimal.Zero
	items := make([]orders.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		total = total.Add(money.LineTotal(it.Price, it.Quantity))
		items = append(items, orders.OrderItem{
			OrderID:     orderID,
			ItemID:      o.newID(),
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   money.Format(money.FromFloat(it.Price)),
			Commands:    it.Commands,
		})
	}

	order := orders.Order{
		OrderID:        orderID,
		PlayerNickname: req.PlayerNickname,
		Email:          req.Email,
		Total:          money.Format(total),
		Status:         orders.StatusPending,
		PaymentID:      "",
	}

	if err := o.repo.CreateWithItems(ctx, order, items); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	log.Printf("[checkout] order created order=%s items=%d total=%s", orderID, len(items), order.Total)

	pref, err := o.gateway.CreatePreference(ctx, o.buildPreference(orderID, req))
	if err != nil {
		// order stays pending: the gateway never saw it, the customer can retry
		return nil, fmt.Errorf("create preference: %w", err)
	}
	log.Printf("[checkout] preference created order=%s preference=%s", orderID, pref.ID)

	// Best-effort link. The webhook path can still find the order through the
	// payment's external_reference if this update is lost.
	if err := o.repo.SetPaymentID(ctx, orderID, pref.ID); err != nil {
		log.Printf("[checkout] failed to link payment id order=%s: %v", orderID, err)
	}

	return &Result{
		OrderID:          orderID,
		InitPoint:        pref.InitPoint,
		SandboxInitPoint: pref.SandboxInitPoint,
	}, nil
}

func (o *Orchestrator) buildPreference(orderID string, req validation.CheckoutRequest) mercadopago.PreferenceRequest {
	prefItems := make([]mercadopago.PreferenceItem, 0, len(req.Items))
	for _, it := range req.Items {
		prefItems = append(prefItems, mercadopago.PreferenceItem{
			Title:      it.ProductName,
			Quantity:   it.Quantity,
			UnitPrice:  it.Price,
			CurrencyID: o.currencyID,
		})
	}
	return mercadopago.PreferenceRequest{
		Items: prefItems,
		Payer: mercadopago.Payer{Email: req.Email},
		BackURLs: mercadopago.BackURLs{
			Success: fmt.Sprintf("%s/checkout/success?order_id=%s", o.appBaseURL, orderID),
			Failure: fmt.Sprintf("%s/checkout/failure?order_id=%s", o.appBaseURL, orderID),
			Pending: fmt.Sprintf("%s/checkout/pending?order_id=%s", o.appBaseURL, orderID),
		},
		AutoReturn:        "approved",
		NotificationURL:   o.appBaseURL + "/api/webhook/mercadopago",
		ExternalReference: orderID,
		PaymentMethods: mercadopago.PaymentMethods{
			ExcludedPaymentTypes: []string{},
			Installments:         1,
		},
	}
}
