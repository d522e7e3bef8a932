package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/internal/domain/port"
	"github.com/bibbank/guarantee-messaging/internal/domain/service"
)

// RunScenario plays a named multi-message scenario onto the store timeline.
type RunScenario struct {
	engine  *service.ScenarioEngine
	metrics port.MetricsRecorder
	logger  *slog.Logger
}

func NewRunScenario(engine *service.ScenarioEngine, metrics port.MetricsRecorder, logger *slog.Logger) *RunScenario {
	return &RunScenario{engine: engine, metrics: metrics, logger: logger}
}

func (uc *RunScenario) Execute(ctx context.Context, req dto.RunScenarioRequest) (dto.ScenarioResponse, error) {
	ctx, span := tracer.Start(ctx, "RunScenario", trace.WithAttributes(
		attribute.String("swift.scenario", req.Scenario),
	))
	defer span.End()

	result, err := uc.engine.Run(ctx, req.Scenario, toScenarioParams(req.Params))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return dto.ScenarioResponse{}, fmt.Errorf("failed to run scenario: %w", err)
	}
	uc.metrics.RecordScenario(ctx, req.Scenario, len(result.Messages))
	span.SetAttributes(attribute.Int("swift.scenario.messages", len(result.Messages)))

	uc.logger.Info("scenario scheduled",
		"scenario", req.Scenario,
		"reference", result.Summary.Reference,
		"messages", len(result.Messages),
		"completes_at", result.Summary.CompletesAt,
	)
	return toScenarioResponse(result), nil
}

// ListScenarios returns the names accepted by RunScenario.
func ListScenarios() []string {
	return append([]string(nil), service.ScenarioNames...)
}
