package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/pixelcraft-mc/store-fulfillment/internal/aws"
	"github.com/pixelcraft-mc/store-fulfillment/internal/delivery"
	"github.com/pixelcraft-mc/store-fulfillment/internal/fulfillment"
	"github.com/pixelcraft-mc/store-fulfillment/internal/mercadopago"
	"github.com/pixelcraft-mc/store-fulfillment/internal/metrics"
	"github.com/pixelcraft-mc/store-fulfillment/internal/orders"
	"github.com/pixelcraft-mc/store-fulfillment/internal/pterodactyl"
)

func commandDelay() time.Duration {
	if raw := os.Getenv("COMMAND_DELAY_MS"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
		log.Printf("invalid COMMAND_DELAY_MS=%q, using default", raw)
	}
	return 100 * time.Millisecond
}

func main() {
	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	store := orders.NewStore(clients.DynamoDB, os.Getenv("ORDERS_TABLE"), os.Getenv("ORDER_ITEMS_TABLE"))
	gateway := mercadopago.NewClient(os.Getenv("MERCADO_PAGO_ACCESS_TOKEN"))
	console := pterodactyl.NewClient(
		os.Getenv("PTERODACTYL_API_URL"),
		os.Getenv("PTERODACTYL_API_KEY"),
		os.Getenv("PTERODACTYL_SERVER_ID"),
	)
	runner := delivery.NewRunner(console, commandDelay())
	publisher := aws.NewPublisher(clients.SQS, os.Getenv("FULFILLMENT_EVENTS_QUEUE_URL"))

	processor := fulfillment.NewProcessor(store, gateway, runner, publisher,
		metrics.NewPublisher(clients.CloudWatch))
	worker := NewWorker(processor)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"order_id":"local-order-1"}`
		}
		ev := events.SQSEvent{
			Records: []events.SQSMessage{{Body: body}},
		}
		if err := worker.Handle(context.Background(), ev); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(worker.Handle)
}
