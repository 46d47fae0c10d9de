package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// FulfillmentEvent is published after each delivery attempt so the admin
// dashboard can surface stuck orders. The core never consumes these itself.
type FulfillmentEvent struct {
	OrderID   string   `json:"order_id"`
	PaymentID string   `json:"payment_id"`
	Delivered bool     `json:"delivered"`
	Errors    []string `json:"errors,omitempty"`
}

// Publisher wraps an SQS client and a queue URL.
// A Publisher with an empty queue URL is disabled and drops events.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// PublishFulfillment sends a fulfillment outcome event to the events queue.
func (p *Publisher) PublishFulfillment(ctx context.Context, ev FulfillmentEvent) error {
	if p == nil || p.QueueURL == "" {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal fulfillment event: %w", err)
	}
	bodyStr := string(body)

	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &bodyStr,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"order_id": {
				DataType:    awsString("String"),
				StringValue: &ev.OrderID,
			},
		},
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
