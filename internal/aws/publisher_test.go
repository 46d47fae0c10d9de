package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type mockSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{}, nil
}

func TestPublishFulfillment(t *testing.T) {
	mock := &mockSQS{}
	p := NewPublisher(mock, "https://sqs/queue")

	err := p.PublishFulfillment(context.Background(), FulfillmentEvent{
		OrderID:   "o1",
		PaymentID: "777",
		Delivered: false,
		Errors:    []string{"cmd failed"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.inputs) != 1 {
		t.Fatalf("expected 1 send, got %d", len(mock.inputs))
	}
	in := mock.inputs[0]
	if *in.QueueUrl != "https://sqs/queue" {
		t.Fatalf("wrong queue url: %s", *in.QueueUrl)
	}
	var ev FulfillmentEvent
	if err := json.Unmarshal([]byte(*in.MessageBody), &ev); err != nil {
		t.Fatalf("body not json: %v", err)
	}
	if ev.OrderID != "o1" || ev.Delivered || len(ev.Errors) != 1 {
		t.Fatalf("bad event: %+v", ev)
	}
	if attr, ok := in.MessageAttributes["order_id"]; !ok || *attr.StringValue != "o1" {
		t.Fatalf("order_id attribute missing")
	}
}

func TestPublishFulfillment_DisabledWithoutQueue(t *testing.T) {
	mock := &mockSQS{}
	p := NewPublisher(mock, "")

	if err := p.PublishFulfillment(context.Background(), FulfillmentEvent{OrderID: "o1"}); err != nil {
		t.Fatalf("disabled publisher must be silent: %v", err)
	}
	if len(mock.inputs) != 0 {
		t.Fatalf("disabled publisher must not send")
	}
}

func TestPublishFulfillment_SendFailure(t *testing.T) {
	mock := &mockSQS{err: errors.New("queue unavailable")}
	p := NewPublisher(mock, "https://sqs/queue")

	if err := p.PublishFulfillment(context.Background(), FulfillmentEvent{OrderID: "o1"}); err == nil {
		t.Fatalf("expected error")
	}
}
