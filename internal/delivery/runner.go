// Package delivery expands an order's line items into console commands and
// runs them sequentially against the command executor.
package delivery

import (
	"context"
	"log"
	"time"

	"github.com/pixelcraft-mc/store-fulfillment/internal/orders"
)

// Executor sends one command template for one recipient. Satisfied by
// pterodactyl.Client; tests substitute fakes.
type Executor interface {
	Send(ctx context.Context, template, playerNickname string) error
}

// Result is the aggregate outcome of one delivery batch.
type Result struct {
	Delivered bool     // true iff zero command failures
	Errors    []string // per-command error descriptions
}

// Expand flattens line items into the ordered command list: each item's full
// template list is repeated once per unit of quantity, items concatenated in
// their original order. A quantity-3 item with templates [a b] contributes
// [a b a b a b].
func Expand(items []orders.OrderItem) []string {
	var commands []string
	for _, item := range items {
		for i := 0; i < item.Quantity; i++ {
			commands = append(commands, item.Commands...)
		}
	}
	return commands
}

// Runner drives a command batch through the executor one command at a time,
// pausing between commands to respect the console's rate limits. Ordering is
// deliberate: later commands may depend on earlier ones having applied.
type Runner struct {
	executor Executor
	delay    time.Duration
	sleep    func(time.Duration) // replaceable in tests
}

// NewRunner returns a Runner with the given inter-command delay.
func NewRunner(executor Executor, delay time.Duration) *Runner {
	return &Runner{
		executor: executor,
		delay:    delay,
		sleep:    time.Sleep,
	}
}

// Run attempts every command exactly once. A failed command never aborts the
// rest of the batch; its error is collected and the batch continues.
func (r *Runner) Run(ctx context.Context, commands []string, playerNickname string) Result {
	var errs []string
	for i, cmd := range commands {
		if err := r.executor.Send(ctx, cmd, playerNickname); err != nil {
			log.Printf("[delivery] command %d/%d failed: %v", i+1, len(commands), err)
			errs = append(errs, err.Error())
		}
		if i < len(commands)-1 && r.delay > 0 {
			r.sleep(r.delay)
		}
	}
	return Result{
		Delivered: len(errs) == 0,
		Errors:    errs,
	}
}
