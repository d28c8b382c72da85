package chat

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"nutriroutine"
)

// InstrumentedService records turn metrics around a Service.
type InstrumentedService struct {
	*Service

	turns        metric.Int64Counter
	turnFailures metric.Int64Counter
	routes       metric.Int64Counter
	generations  metric.Int64Counter
	turnDuration metric.Float64Histogram
}

// NewInstrumentedService registers the chat metrics on meter. A nil meter uses the
// global provider.
func NewInstrumentedService(svc *Service, meter metric.Meter) (*InstrumentedService, error) {
	if meter == nil {
		meter = otel.Meter(nutriroutine.MeterNameChat)
	}
	is := &InstrumentedService{Service: svc}

	var err error
	if is.turns, err = meter.Int64Counter("chat_turns_total",
		metric.WithDescription("Total number of chat turns handled")); err != nil {
		return nil, err
	}
	if is.turnFailures, err = meter.Int64Counter("chat_turn_failures_total",
		metric.WithDescription("Total number of chat turns that failed or could not save changes")); err != nil {
		return nil, err
	}
	if is.routes, err = meter.Int64Counter("chat_routes_total",
		metric.WithDescription("Total number of chat turns per route")); err != nil {
		return nil, err
	}
	if is.generations, err = meter.Int64Counter("routine_generations_total",
		metric.WithDescription("Total number of routines generated per source")); err != nil {
		return nil, err
	}
	if is.turnDuration, err = meter.Float64Histogram("chat_turn_duration_seconds",
		metric.WithDescription("Time taken to handle a chat turn in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if _, err = meter.Int64ObservableGauge("active_sessions",
		metric.WithDescription("Number of live chat sessions"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(svc.ActiveSessions()))
			return nil
		})); err != nil {
		return nil, err
	}
	return is, nil
}

func (is *InstrumentedService) Handle(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := is.Service.Handle(ctx, req)
	is.turnDuration.Record(ctx, time.Since(start).Seconds())
	is.turns.Add(ctx, 1)

	if err != nil {
		is.turnFailures.Add(ctx, 1)
		return resp, err
	}
	if resp.failed {
		is.turnFailures.Add(ctx, 1)
	}
	is.routes.Add(ctx, 1, metric.WithAttributes(attribute.String("route", resp.Route)))
	if resp.source != "" {
		is.generations.Add(ctx, 1, metric.WithAttributes(attribute.String("source", resp.source)))
	}
	return resp, nil
}
