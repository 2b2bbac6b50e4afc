package parking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentedLedger struct {
	*Ledger
	telemetry *TelemetryProvider

	// Metrics
	operations        metric.Int64Counter
	operationDuration metric.Float64Histogram
	feesCollected     metric.Float64Counter
	parkedVehicles    metric.Int64Gauge
}

func NewInstrumentedLedger(ledger *Ledger, telemetry *TelemetryProvider) (*InstrumentedLedger, error) {
	meter := telemetry.Meter()

	operations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of parking ledger operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking ledger operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	feesCollected, err := meter.Float64Counter("parking_fees_total",
		metric.WithDescription("Sum of fees charged to leaving vehicles"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	parkedVehicles, err := meter.Int64Gauge("parked_vehicles",
		metric.WithDescription("Number of vehicles currently in the registry"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	return &InstrumentedLedger{
		Ledger:            ledger,
		telemetry:         telemetry,
		operations:        operations,
		operationDuration: operationDuration,
		feesCollected:     feesCollected,
		parkedVehicles:    parkedVehicles,
	}, nil
}

func (il *InstrumentedLedger) AddVehicle(ctx context.Context, raw string) (Plate, error) {
	ctx, span := il.telemetry.Tracer().Start(ctx, "parking_ledger.add_vehicle",
		trace.WithAttributes(
			attribute.String("vehicle.plate_input", raw),
		))
	defer span.End()

	start := time.Now()

	plate, err := il.Ledger.AddVehicle(ctx, raw)

	status := operationStatus(err)
	if err == nil {
		span.SetAttributes(attribute.String("vehicle.plate", plate.String()))
		span.AddEvent("vehicle_parked")
	}
	il.finish(ctx, span, "add_vehicle", status, err, start)

	return plate, err
}

func (il *InstrumentedLedger) RemoveVehicle(ctx context.Context, raw string, hours int) (*Receipt, error) {
	ctx, span := il.telemetry.Tracer().Start(ctx, "parking_ledger.remove_vehicle",
		trace.WithAttributes(
			attribute.String("vehicle.plate_input", raw),
			attribute.Int("vehicle.hours_parked", hours),
		))
	defer span.End()

	start := time.Now()

	receipt, err := il.Ledger.RemoveVehicle(ctx, raw, hours)

	status := operationStatus(err)
	if err == nil {
		fee := receipt.Fee.InexactFloat64()
		span.SetAttributes(
			attribute.String("vehicle.plate", receipt.Plate.String()),
			attribute.String("parking.fee", receipt.Fee.StringFixed(2)),
		)
		span.AddEvent("vehicle_removed")
		il.feesCollected.Add(ctx, fee)
	}
	il.finish(ctx, span, "remove_vehicle", status, err, start)

	return receipt, err
}

func (il *InstrumentedLedger) ListVehicles(ctx context.Context) ([]Plate, error) {
	ctx, span := il.telemetry.Tracer().Start(ctx, "parking_ledger.list_vehicles")
	defer span.End()

	start := time.Now()

	plates, err := il.Ledger.ListVehicles(ctx)

	status := operationStatus(err)
	if err == nil {
		span.SetAttributes(attribute.Int("parked_vehicles_count", len(plates)))
		il.parkedVehicles.Record(ctx, int64(len(plates)))
	}
	il.finish(ctx, span, "list_vehicles", status, err, start)

	return plates, err
}

// finish records the shared counter and histogram. Business rejections such as
// duplicates are span events; only storage failures mark the span as errored.
func (il *InstrumentedLedger) finish(ctx context.Context, span trace.Span, operation, status string, err error, start time.Time) {
	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("status", status),
	}

	switch {
	case err == nil:
	case status == "failed":
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	default:
		span.AddEvent("operation_rejected", trace.WithAttributes(
			attribute.String("reason", status),
		))
	}

	il.operations.Add(ctx, 1, metric.WithAttributes(labels...))
	il.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))
}

func operationStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrAlreadyParked):
		return "duplicate"
	case errors.Is(err, ErrInvalidPlate):
		return "invalid_plate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidHours):
		return "invalid_hours"
	case errors.Is(err, ErrLotEmpty):
		return "lot_empty"
	default:
		return "failed"
	}
}
