package main

// RedeliveryMessage is the payload an operator enqueues to re-run delivery
// for a stuck approved order.
type RedeliveryMessage struct {
	OrderID       string `json:"order_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
