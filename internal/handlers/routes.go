// Package handlers wires the checkout and webhook flows to gin routes and
// maps failure kinds to HTTP statuses.
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pixelcraft-mc/store-fulfillment/internal/checkout"
	"github.com/pixelcraft-mc/store-fulfillment/internal/fulfillment"
	"github.com/pixelcraft-mc/store-fulfillment/internal/mercadopago"
	"github.com/pixelcraft-mc/store-fulfillment/internal/validation"
)

// Orchestrator is the checkout entry point.
type Orchestrator interface {
	Checkout(ctx context.Context, req validation.CheckoutRequest) (*checkout.Result, error)
}

// WebhookProcessor is the fulfillment entry point.
type WebhookProcessor interface {
	HandlePaymentNotification(ctx context.Context, notificationType, paymentID string) (*fulfillment.Outcome, error)
}

// Config groups the constructed components for route registration.
type Config struct {
	Checkout Orchestrator
	Webhook  WebhookProcessor
}

// Register mounts the storefront routes on the router.
func Register(r *gin.Engine, cfg Config) {
	v := validation.New()

	r.POST("/checkout", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CheckoutRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		res, err := cfg.Checkout.Checkout(ctx, req)
		if err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	r.POST("/api/webhook/mercadopago", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.WebhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
			return
		}

		outcome, err := cfg.Webhook.HandlePaymentNotification(ctx, req.Type, req.Data.ID.String())
		if err != nil {
			writeWebhookError(c, err)
			return
		}

		// Always acknowledge no-op paths so the gateway does not re-deliver.
		resp := gin.H{"received": true}
		if outcome.Attempted {
			resp["delivered"] = outcome.Delivered
		}
		c.JSON(http.StatusOK, resp)
	})
}

func writeCheckoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mercadopago.ErrMissingAccessToken):
		log.Printf("[checkout] configuration error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment_configuration_error"})
	default:
		var gw *mercadopago.GatewayError
		if errors.As(err, &gw) {
			log.Printf("[checkout] gateway error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment_gateway_error"})
			return
		}
		log.Printf("[checkout] error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout_failed", "details": err.Error()})
	}
}

func writeWebhookError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fulfillment.ErrMissingPaymentID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_payment_id"})
	case errors.Is(err, fulfillment.ErrOrderNotFound):
		log.Printf("[webhook] integrity error: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
	case errors.Is(err, fulfillment.ErrVerificationFailed):
		log.Printf("[webhook] verification error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment_verification_failed"})
	default:
		log.Printf("[webhook] error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
