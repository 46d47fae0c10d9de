package validation

import "encoding/json"

// CheckoutItem is a single cart line in the checkout payload. Name, price and
// commands arrive from the storefront and are snapshotted onto the order; the
// total is never trusted from the client.
type CheckoutItem struct {
	ProductID   string   `json:"product_id" validate:"required"`
	ProductName string   `json:"product_name" validate:"required"`
	Quantity    int      `json:"quantity" validate:"required,min=1"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Commands    []string `json:"commands" validate:"required,min=1"`
}

// CheckoutRequest is the payload for POST /checkout.
type CheckoutRequest struct {
	Items          []CheckoutItem `json:"items" validate:"required,min=1,dive"`
	PlayerNickname string         `json:"player_nickname" validate:"required"`
	Email          string         `json:"email" validate:"required"`
}

// WebhookRequest is the gateway notification shape. Only type and data.id are
// read; everything else in the body is untrusted.
type WebhookRequest struct {
	Type string      `json:"type"`
	Data WebhookData `json:"data"`
}

// WebhookData holds the payment pointer. The gateway sends the id as a JSON
// number or string depending on notification mode, hence json.Number.
type WebhookData struct {
	ID json.Number `json:"id"`
}
