package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/pixelcraft-mc/store-fulfillment/internal/aws"
	"github.com/pixelcraft-mc/store-fulfillment/internal/checkout"
	"github.com/pixelcraft-mc/store-fulfillment/internal/delivery"
	"github.com/pixelcraft-mc/store-fulfillment/internal/fulfillment"
	"github.com/pixelcraft-mc/store-fulfillment/internal/handlers"
	"github.com/pixelcraft-mc/store-fulfillment/internal/mercadopago"
	"github.com/pixelcraft-mc/store-fulfillment/internal/metrics"
	"github.com/pixelcraft-mc/store-fulfillment/internal/orders"
	"github.com/pixelcraft-mc/store-fulfillment/internal/pterodactyl"
)

func setupRouter(cfg handlers.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.Register(r, cfg)

	return r
}

func commandDelay() time.Duration {
	if raw := os.Getenv("COMMAND_DELAY_MS"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
		log.Printf("invalid COMMAND_DELAY_MS=%q, using default", raw)
	}
	return 100 * time.Millisecond
}

func currencyID() string {
	if c := os.Getenv("CURRENCY_ID"); c != "" {
		return c
	}
	return "BRL"
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

	cfg := handlers.Config{
		Checkout: checkout.NewOrchestrator(store, gateway, os.Getenv("APP_BASE_URL"), currencyID()),
		Webhook: fulfillment.NewProcessor(store, gateway, runner, publisher,
			metrics.NewPublisher(clients.CloudWatch)),
	}

	r := setupRouter(cfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
