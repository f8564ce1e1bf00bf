package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/orders"
)

// SalesRecorder is satisfied by orders.Store.
type SalesRecorder interface {
	RecordSales(ctx context.Context, orderID int64, items []orders.LineItem) error
}

// ProductLookup is satisfied by catalog.ProductStore.
type ProductLookup interface {
	BatchGet(ctx context.Context, ids []int64) ([]catalog.Product, error)
}

// MetricsSink is satisfied by aws.MetricsPublisher.
type MetricsSink interface {
	Put(ctx context.Context, metrics ...aws.Metric) error
}

// Processor consumes order events from the queue. It bumps sold counters
// once an order is delivered and reports business metrics.
type Processor struct {
	sales    SalesRecorder
	products ProductLookup
	metrics  MetricsSink
	log      *zap.Logger
}

func NewProcessor(sales SalesRecorder, products ProductLookup, metrics MetricsSink, log *zap.Logger) *Processor {
	return &Processor{sales: sales, products: products, metrics: metrics, log: log}
}

// Handle processes a batch and reports failed messages individually, so
// only those are redelivered (and eventually land in the DLQ).
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error("worker: message failed",
				zap.String("message_id", rec.MessageId),
				zap.Error(err),
			)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var e orders.Event
	if err := json.Unmarshal([]byte(rec.Body), &e); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	log := p.log.With(
		zap.String("type", e.Type),
		zap.Int64("order_id", e.OrderID),
		zap.String("correlation_id", e.RequestID),
	)
	log.Info("worker: received event")

	switch e.Type {
	case orders.EventCreated:
		p.putMetrics(ctx, log,
			aws.Metric{Name: "OrdersCreated", Value: 1, Dimensions: map[string]string{"Payment": e.Payment}},
			aws.Metric{Name: "OrderValue", Value: e.Total, Unit: cwtypes.StandardUnitNone, Dimensions: map[string]string{"Payment": e.Payment}},
		)
		return nil
	case orders.EventStatusChanged:
		p.putMetrics(ctx, log, aws.Metric{
			Name:       "OrderStatusChanged",
			Value:      1,
			Dimensions: map[string]string{"Status": string(e.Status)},
		})
		if e.Status != orders.StatusDelivered {
			return nil
		}
		return p.recordSales(ctx, log, e)
	default:
		log.Warn("worker: ignoring unknown event type")
		return nil
	}
}

func (p *Processor) recordSales(ctx context.Context, log *zap.Logger, e orders.Event) error {
	ids := make([]int64, 0, len(e.Items))
	for _, it := range e.Items {
		ids = append(ids, it.ProductID)
	}
	existing, err := p.products.BatchGet(ctx, ids)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	alive := make(map[int64]bool, len(existing))
	for _, prod := range existing {
		alive[prod.ProductID] = true
	}
	items := make([]orders.LineItem, 0, len(e.Items))
	for _, it := range e.Items {
		if alive[it.ProductID] {
			items = append(items, it)
		}
	}

	err = p.sales.RecordSales(ctx, e.OrderID, items)
	switch {
	case errors.Is(err, orders.ErrSalesRecorded):
		log.Info("worker: sales already recorded")
		return nil
	case errors.Is(err, orders.ErrNotDelivered):
		// moved on before we got here; a later delivered event records the sales
		log.Warn("worker: order no longer delivered, sales not recorded", zap.Error(err))
		return nil
	case err != nil:
		return fmt.Errorf("record sales: %w", err)
	}
	log.Info("worker: sales recorded", zap.Int("items", len(items)))
	return nil
}

func (p *Processor) putMetrics(ctx context.Context, log *zap.Logger, metrics ...aws.Metric) {
	if p.metrics == nil {
		return
	}
	if err := p.metrics.Put(ctx, metrics...); err != nil {
		log.Warn("worker: put metrics failed", zap.Error(err))
	}
}
