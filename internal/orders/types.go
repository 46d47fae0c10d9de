package orders

import "time"

// Order statuses. InDelivery is a short-lived claim window: the webhook
// handler CASes APPROVED -> IN_DELIVERY before running commands so that two
// concurrent webhook deliveries cannot both run the batch.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusInDelivery = "in_delivery"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Order represents one purchase transaction stored in the orders table.
// Total is server-computed at checkout and never recomputed afterwards.
type Order struct {
	OrderID        string    `dynamodbav:"order_id"` // PK
	PlayerNickname string    `dynamodbav:"player_nickname"`
	Email          string    `dynamodbav:"email"`
	Total          string    `dynamodbav:"total"` // decimal string, e.g. "89.70"
	Status         string    `dynamodbav:"status"`
	PaymentID      string    `dynamodbav:"payment_id"` // GSI key; empty until the gateway responds
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
}

// OrderItem is one product line within an order. Every field is a snapshot
// taken at checkout time; later catalog edits never touch historical orders.
type OrderItem struct {
	OrderID     string   `dynamodbav:"order_id"` // PK
	ItemID      string   `dynamodbav:"item_id"`  // SK
	ItemIndex   int      `dynamodbav:"item_index"`
	ProductID   string   `dynamodbav:"product_id"`
	ProductName string   `dynamodbav:"product_name"`
	Quantity    int      `dynamodbav:"quantity"`
	UnitPrice   string   `dynamodbav:"unit_price"` // decimal string snapshot
	Commands    []string `dynamodbav:"commands"`   // ordered command templates
}
