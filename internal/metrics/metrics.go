// Package metrics publishes delivery counters to CloudWatch.
package metrics

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/pixelcraft-mc/store-fulfillment/internal/aws"
)

const namespace = "PixelcraftStore"

// Publisher emits per-batch command delivery counts. A nil Publisher or nil
// client disables metrics entirely.
type Publisher struct {
	client aws.CloudWatchAPI
}

// NewPublisher returns a metrics publisher over the given CloudWatch client.
func NewPublisher(client aws.CloudWatchAPI) *Publisher {
	return &Publisher{client: client}
}

// RecordDelivery publishes delivered/failed command counts for one batch.
// Best-effort: a failed put is logged, never surfaced.
func (p *Publisher) RecordDelivery(ctx context.Context, delivered, failed int) {
	if p == nil || p.client == nil {
		return
	}
	ns := namespace
	deliveredName := "CommandsDelivered"
	failedName := "CommandsFailed"
	deliveredVal := float64(delivered)
	failedVal := float64(failed)

	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &ns,
		MetricData: []cwtypes.MetricDatum{
			{MetricName: &deliveredName, Value: &deliveredVal, Unit: cwtypes.StandardUnitCount},
			{MetricName: &failedName, Value: &failedVal, Unit: cwtypes.StandardUnitCount},
		},
	})
	if err != nil {
		log.Printf("[metrics] put metric data failed: %v", err)
	}
}
