package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/shestoi/GoBigTech/stock/internal/service"

// workflowMetrics - счётчики OTel для workflow
type workflowMetrics struct {
	outcomes             metric.Int64Counter
	compensationFailures metric.Int64Counter
}

// newWorkflowMetrics создаёт счётчики на глобальном MeterProvider
// Если инструмент создать не удалось, используется noop
func newWorkflowMetrics() workflowMetrics {
	meter := otel.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	outcomes, err := meter.Int64Counter("stock.workflow.outcomes",
		metric.WithDescription("Order stock workflow results by operation, final state and mode"))
	if err != nil {
		outcomes, _ = fallback.Int64Counter("stock.workflow.outcomes")
	}
	failures, err := meter.Int64Counter("stock.compensation.failures",
		metric.WithDescription("Compensations that left stock unrestored"))
	if err != nil {
		failures, _ = fallback.Int64Counter("stock.compensation.failures")
	}

	return workflowMetrics{outcomes: outcomes, compensationFailures: failures}
}

// outcome считает завершение операции с итоговым состоянием и режимом
func (m workflowMetrics) outcome(ctx context.Context, operation, state, mode string) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("state", state),
	}
	if mode != "" {
		attrs = append(attrs, attribute.String("mode", mode))
	}
	m.outcomes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// compensationFailure считает компенсации, оставившие остатки списанными
func (m workflowMetrics) compensationFailure(ctx context.Context, reason string) {
	m.compensationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
