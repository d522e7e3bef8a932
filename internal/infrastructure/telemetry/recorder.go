// Package telemetry holds the OpenTelemetry instruments of the engine.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/guarantee-messaging/internal/domain/port"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// MeterName scopes every instrument created here.
const MeterName = "github.com/bibbank/guarantee-messaging"

// Compile-time interface check.
var _ port.MetricsRecorder = (*Recorder)(nil)

// Recorder implements port.MetricsRecorder with OpenTelemetry instruments.
type Recorder struct {
	validations      metric.Int64Counter
	validationIssues metric.Int64Counter
	stored           metric.Int64Counter
	responses        metric.Int64Counter
	responseLatency  metric.Float64Histogram
	scenarios        metric.Int64Counter
	scenarioMessages metric.Int64Counter
}

func NewRecorder(meter metric.Meter) (*Recorder, error) {
	var (
		r   Recorder
		err error
	)
	if r.validations, err = meter.Int64Counter("swift.validations",
		metric.WithDescription("Messages validated, by type and outcome")); err != nil {
		return nil, fmt.Errorf("create validations counter: %w", err)
	}
	if r.validationIssues, err = meter.Int64Counter("swift.validation.issues",
		metric.WithDescription("Validation errors and warnings, by type and severity")); err != nil {
		return nil, fmt.Errorf("create validation issues counter: %w", err)
	}
	if r.stored, err = meter.Int64Counter("swift.messages.stored",
		metric.WithDescription("Messages stored, by type and direction")); err != nil {
		return nil, fmt.Errorf("create stored counter: %w", err)
	}
	if r.responses, err = meter.Int64Counter("swift.responses.generated",
		metric.WithDescription("Automatic responses generated, by response type")); err != nil {
		return nil, fmt.Errorf("create responses counter: %w", err)
	}
	if r.responseLatency, err = meter.Float64Histogram("swift.response.latency",
		metric.WithDescription("Simulated latency between a message and its response"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2, 3, 5, 10, 30)); err != nil {
		return nil, fmt.Errorf("create latency histogram: %w", err)
	}
	if r.scenarios, err = meter.Int64Counter("swift.scenarios",
		metric.WithDescription("Scenarios run, by name")); err != nil {
		return nil, fmt.Errorf("create scenarios counter: %w", err)
	}
	if r.scenarioMessages, err = meter.Int64Counter("swift.scenario.messages",
		metric.WithDescription("Messages planned by scenarios, by name")); err != nil {
		return nil, fmt.Errorf("create scenario messages counter: %w", err)
	}
	return &r, nil
}

func (r *Recorder) RecordValidation(ctx context.Context, msgType swift.MessageType, valid bool, errors, warnings int) {
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	r.validations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("message_type", string(msgType)),
		attribute.String("outcome", outcome),
	))
	if errors > 0 {
		r.validationIssues.Add(ctx, int64(errors), metric.WithAttributes(
			attribute.String("message_type", string(msgType)),
			attribute.String("severity", "error"),
		))
	}
	if warnings > 0 {
		r.validationIssues.Add(ctx, int64(warnings), metric.WithAttributes(
			attribute.String("message_type", string(msgType)),
			attribute.String("severity", "warning"),
		))
	}
}

func (r *Recorder) RecordStored(ctx context.Context, msgType swift.MessageType, direction valueobject.Direction) {
	r.stored.Add(ctx, 1, metric.WithAttributes(
		attribute.String("message_type", string(msgType)),
		attribute.String("direction", direction.String()),
	))
}

func (r *Recorder) RecordResponse(ctx context.Context, msgType swift.MessageType, latency time.Duration) {
	attrs := metric.WithAttributes(attribute.String("message_type", string(msgType)))
	r.responses.Add(ctx, 1, attrs)
	r.responseLatency.Record(ctx, latency.Seconds(), attrs)
}

func (r *Recorder) RecordScenario(ctx context.Context, scenario string, messages int) {
	attrs := metric.WithAttributes(attribute.String("scenario", scenario))
	r.scenarios.Add(ctx, 1, attrs)
	r.scenarioMessages.Add(ctx, int64(messages), attrs)
}

// BrokerStats is the view of the notification broker exported as gauges.
type BrokerStats interface {
	SubscriberCount() int
	Dropped() uint64
}

// ObserveBroker registers asynchronous instruments reporting broker state.
func ObserveBroker(meter metric.Meter, broker BrokerStats) error {
	subscribers, err := meter.Int64ObservableGauge("swift.notify.subscribers",
		metric.WithDescription("Active event subscribers"))
	if err != nil {
		return fmt.Errorf("create subscribers gauge: %w", err)
	}
	dropped, err := meter.Int64ObservableCounter("swift.notify.dropped",
		metric.WithDescription("Events dropped on full subscriber buffers"))
	if err != nil {
		return fmt.Errorf("create dropped counter: %w", err)
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(subscribers, int64(broker.SubscriberCount()))
		o.ObserveInt64(dropped, int64(broker.Dropped()))
		return nil
	}, subscribers, dropped)
	if err != nil {
		return fmt.Errorf("register broker callback: %w", err)
	}
	return nil
}
