package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/pixelcraft-mc/store-fulfillment/internal/fulfillment"
)

// Redeliverer re-runs delivery for one order.
type Redeliverer interface {
	Redeliver(ctx context.Context, orderID string) (*fulfillment.Outcome, error)
}

// Worker consumes operator redelivery messages from SQS. Nothing in the core
// enqueues to this queue: redelivery is always a manual operator action.
type Worker struct {
	fulfillment Redeliverer
}

// NewWorker returns a Worker over the fulfillment processor.
func NewWorker(f Redeliverer) *Worker {
	return &Worker{fulfillment: f}
}

// Handle receives an SQS batch event and processes each message.
func (w *Worker) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := w.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			log.Printf("worker error: %v", err)
			return err
		}
	}
	return nil
}

func (w *Worker) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg RedeliveryMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.OrderID == "" {
		return errors.New("redelivery message missing order_id")
	}

	log.Printf("[worker] redelivery requested order=%s corr=%s", msg.OrderID, msg.CorrelationID)

	outcome, err := w.fulfillment.Redeliver(ctx, msg.OrderID)
	if err != nil {
		if errors.Is(err, fulfillment.ErrOrderNotFound) {
			// Should never happen — DLQ if it does
			return fmt.Errorf("order not found: %s", msg.OrderID)
		}
		return fmt.Errorf("redeliver order=%s: %w", msg.OrderID, err)
	}

	if !outcome.Attempted {
		log.Printf("[worker] order=%s not redeliverable, nothing done", msg.OrderID)
		return nil
	}
	if !outcome.Delivered {
		// Swallow: the order is back at approved, visible to the operator.
		// Retrying automatically here would turn manual redelivery into a loop.
		log.Printf("[worker] order=%s still incomplete: %v", msg.OrderID, outcome.Errors)
		return nil
	}

	log.Printf("[worker] order=%s delivered", msg.OrderID)
	return nil
}
