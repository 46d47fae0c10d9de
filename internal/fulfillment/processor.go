// Package fulfillment contains the webhook-driven state machine that turns an
// approved payment into delivered in-game commands.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/pixelcraft-mc/store-fulfillment/internal/aws"
	"github.com/pixelcraft-mc/store-fulfillment/internal/delivery"
	"github.com/pixelcraft-mc/store-fulfillment/internal/mercadopago"
	"github.com/pixelcraft-mc/store-fulfillment/internal/orders"
)

var (
	// ErrMissingPaymentID indicates the webhook payload carried no payment id.
	ErrMissingPaymentID = errors.New("missing payment id in webhook")
	// ErrOrderNotFound indicates no order matches the verified payment. This
	// is a data-integrity mismatch between the gateway and the store.
	ErrOrderNotFound = errors.New("no order for payment")
	// ErrVerificationFailed wraps a failed authoritative payment lookup.
	ErrVerificationFailed = errors.New("payment verification failed")
)

// PaymentVerifier is the fetch-by-id side of the Mercado Pago client.
type PaymentVerifier interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

// Repository is the order persistence surface the processor needs.
type Repository interface {
	Get(ctx context.Context, orderID string) (*orders.Order, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*orders.Order, error)
	TransitionStatus(ctx context.Context, orderID, expected, next string) error
	SetPaymentID(ctx context.Context, orderID, paymentID string) error
	ListItems(ctx context.Context, orderID string) ([]orders.OrderItem, error)
}

// MetricsSink records delivery outcomes. Best-effort; failures are logged.
type MetricsSink interface {
	RecordDelivery(ctx context.Context, delivered, failed int)
}

// Outcome reports what a webhook invocation did. Attempted is false on every
// no-op path (wrong type, not approved yet, already delivered, lost race).
type Outcome struct {
	Attempted bool
	Delivered bool
	Errors    []string
}

// Processor is the fulfillment state machine. One instance per process,
// injected into both the webhook handler and the redelivery worker.
type Processor struct {
	repo      Repository
	gateway   PaymentVerifier
	runner    *delivery.Runner
	publisher *aws.Publisher
	metrics   MetricsSink
}

// NewProcessor wires the state machine.
func NewProcessor(repo Repository, gateway PaymentVerifier, runner *delivery.Runner, publisher *aws.Publisher, metrics MetricsSink) *Processor {
	return &Processor{
		repo:      repo,
		gateway:   gateway,
		runner:    runner,
		publisher: publisher,
		metrics:   metrics,
	}
}

// HandlePaymentNotification processes one gateway webhook. The webhook body
// is only a pointer: status always comes from the authoritative fetch-by-id.
func (p *Processor) HandlePaymentNotification(ctx context.Context, notificationType, paymentID string) (*Outcome, error) {
	if notificationType != "payment" {
		// other notification kinds are out of scope and must not error
		return &Outcome{}, nil
	}
	if paymentID == "" {
		return nil, ErrMissingPaymentID
	}

	payment, err := p.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	if payment.Status != "approved" {
		// pending/rejected/in_process: not yet actionable, not an error
		log.Printf("[webhook] payment=%s status=%s, nothing to do", paymentID, payment.Status)
		return &Outcome{}, nil
	}

	order, err := p.findOrder(ctx, payment, paymentID)
	if err != nil {
		return nil, err
	}

	// Primary duplicate-webhook guard.
	if order.Status == orders.StatusDelivered {
		log.Printf("[webhook] order=%s already delivered", order.OrderID)
		return &Outcome{}, nil
	}

	// Keep the order's payment reference pointing at the actual payment so
	// later notifications hit the GSI directly. Best-effort.
	if order.PaymentID != paymentID {
		if err := p.repo.SetPaymentID(ctx, order.OrderID, paymentID); err != nil {
			log.Printf("[webhook] failed to store payment id order=%s: %v", order.OrderID, err)
		}
	}

	// Persist approved before attempting delivery so a crash mid-batch leaves
	// an auditable approved order rather than a stuck pending one.
	if err := p.repo.TransitionStatus(ctx, order.OrderID, orders.StatusPending, orders.StatusApproved); err != nil {
		if !errors.Is(err, orders.ErrStatusMismatch) {
			return nil, fmt.Errorf("approve order: %w", err)
		}
		// Already approved (earlier partial failure) is fine; anything else
		// means a racer holds the order.
		if order.Status != orders.StatusApproved {
			log.Printf("[webhook] order=%s in state %s, skipping", order.OrderID, order.Status)
			return &Outcome{}, nil
		}
	}

	return p.deliver(ctx, order, paymentID)
}

// Redeliver re-runs delivery for a stuck approved order. Used by the operator
// redelivery worker; the webhook never calls this.
func (p *Processor) Redeliver(ctx context.Context, orderID string) (*Outcome, error) {
	order, err := p.repo.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("fetch order: %w", err)
	}
	if order.Status == orders.StatusDelivered {
		log.Printf("[worker] order=%s already delivered", orderID)
		return &Outcome{}, nil
	}
	if order.Status != orders.StatusApproved {
		log.Printf("[worker] order=%s is %s, not redeliverable", orderID, order.Status)
		return &Outcome{}, nil
	}
	return p.deliver(ctx, order, order.PaymentID)
}

// deliver claims the order via CAS, runs the batch, and records the outcome.
// Exactly one caller wins the approved -> in_delivery transition; losers
// acknowledge and walk away.
func (p *Processor) deliver(ctx context.Context, order *orders.Order, paymentID string) (*Outcome, error) {
	if err := p.repo.TransitionStatus(ctx, order.OrderID, orders.StatusApproved, orders.StatusInDelivery); err != nil {
		if errors.Is(err, orders.ErrStatusMismatch) {
			log.Printf("[fulfillment] order=%s claimed elsewhere, skipping", order.OrderID)
			return &Outcome{}, nil
		}
		return nil, fmt.Errorf("claim order for delivery: %w", err)
	}

	items, err := p.repo.ListItems(ctx, order.OrderID)
	if err != nil {
		// release the claim so the order is visible as stuck approved
		p.release(ctx, order.OrderID)
		return nil, fmt.Errorf("fetch order items: %w", err)
	}

	commands := delivery.Expand(items)
	result := p.runner.Run(ctx, commands, order.PlayerNickname)

	if result.Delivered {
		if err := p.repo.TransitionStatus(ctx, order.OrderID, orders.StatusInDelivery, orders.StatusDelivered); err != nil {
			return nil, fmt.Errorf("mark delivered: %w", err)
		}
		log.Printf("[fulfillment] order=%s delivered, %d commands", order.OrderID, len(commands))
	} else {
		// Partial failure: back to approved, awaiting manual redelivery.
		p.release(ctx, order.OrderID)
		log.Printf("[fulfillment] order=%s delivery incomplete: %d of %d commands failed: %v",
			order.OrderID, len(result.Errors), len(commands), result.Errors)
	}

	p.report(ctx, order.OrderID, paymentID, result, len(commands))

	return &Outcome{
		Attempted: true,
		Delivered: result.Delivered,
		Errors:    result.Errors,
	}, nil
}

func (p *Processor) release(ctx context.Context, orderID string) {
	if err := p.repo.TransitionStatus(ctx, orderID, orders.StatusInDelivery, orders.StatusApproved); err != nil {
		log.Printf("[fulfillment] failed to release order=%s: %v", orderID, err)
	}
}

// report pushes the outcome to the events queue and metrics. Both are
// best-effort and never fail the webhook.
func (p *Processor) report(ctx context.Context, orderID, paymentID string, result delivery.Result, total int) {
	if err := p.publisher.PublishFulfillment(ctx, aws.FulfillmentEvent{
		OrderID:   orderID,
		PaymentID: paymentID,
		Delivered: result.Delivered,
		Errors:    result.Errors,
	}); err != nil {
		log.Printf("[fulfillment] failed to publish event order=%s: %v", orderID, err)
	}
	if p.metrics != nil {
		p.metrics.RecordDelivery(ctx, total-len(result.Errors), len(result.Errors))
	}
}

// findOrder resolves the order for a verified payment. The payment's
// external_reference carries the order id set at checkout; the payment_id GSI
// is the fallback for orders linked out-of-band.
func (p *Processor) findOrder(ctx context.Context, payment *mercadopago.Payment, paymentID string) (*orders.Order, error) {
	if payment.ExternalReference != "" {
		order, err := p.repo.Get(ctx, payment.ExternalReference)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, orders.ErrNotFound) {
			return nil, fmt.Errorf("fetch order: %w", err)
		}
	}
	order, err := p.repo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			log.Printf("[webhook] ORDER MISSING for payment=%s external_reference=%q", paymentID, payment.ExternalReference)
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("fetch order by payment id: %w", err)
	}
	return order, nil
}
