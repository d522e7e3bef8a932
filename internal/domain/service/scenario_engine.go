package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/port"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/money"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

const (
	ScenarioIssuance  = "guarantee-issuance"
	ScenarioAmendment = "guarantee-amendment"
	ScenarioClaim     = "guarantee-claim"
)

// ScenarioNames lists the available scenarios.
var ScenarioNames = []string{ScenarioIssuance, ScenarioAmendment, ScenarioClaim}

// Default scenario parameters.
const (
	DefaultScenarioAmount       = "100000"
	DefaultScenarioCurrency     = "USD"
	DefaultScenarioApplicant    = "APPLICANT CORPORATION"
	DefaultScenarioBeneficiary  = "BENEFICIARY TRADING LTD"
	DefaultScenarioSender       = "BANKUS33XXX"
	DefaultScenarioReceiver     = "BANKGB22XXX"
	DefaultScenarioValidityDays = 365
	DefaultScenarioClaimReason  = "BENEFICIARY DEMAND FOR PAYMENT UNDER GUARANTEE"
)

// ScenarioParams are the caller-tunable inputs of a scenario. Blank values
// take the defaults.
type ScenarioParams struct {
	Amount          string
	Currency        string
	Applicant       string
	Beneficiary     string
	SenderID        string
	ReceiverID      string
	ValidityDays    int
	AmendmentAmount string
	ClaimAmount     string
	ClaimReason     string
}

func (p ScenarioParams) withDefaults() ScenarioParams {
	if p.Amount == "" {
		p.Amount = DefaultScenarioAmount
	}
	if p.Currency == "" {
		p.Currency = DefaultScenarioCurrency
	}
	if p.Applicant == "" {
		p.Applicant = DefaultScenarioApplicant
	}
	if p.Beneficiary == "" {
		p.Beneficiary = DefaultScenarioBeneficiary
	}
	if p.SenderID == "" {
		p.SenderID = DefaultScenarioSender
	}
	if p.ReceiverID == "" {
		p.ReceiverID = DefaultScenarioReceiver
	}
	if p.ValidityDays <= 0 {
		p.ValidityDays = DefaultScenarioValidityDays
	}
	if p.ClaimReason == "" {
		p.ClaimReason = DefaultScenarioClaimReason
	}
	if base, err := money.ParseAmount(p.Amount); err == nil {
		if p.AmendmentAmount == "" {
			p.AmendmentAmount = base.Mul(decimal.NewFromFloat(1.25)).String()
		}
		if p.ClaimAmount == "" {
			p.ClaimAmount = base.String()
		}
	}
	return p
}

// TimelineEntry places one scenario message on the simulated timeline.
type TimelineEntry struct {
	Offset      time.Duration
	At          time.Time
	MessageID   uuid.UUID
	Type        swift.MessageType
	Description string
}

// ScenarioSummary describes the outcome of a scenario run.
type ScenarioSummary struct {
	Scenario     string
	MessageCount int
	Reference    string
	Status       string
	StartedAt    time.Time
	CompletesAt  time.Time
}

// ScenarioResult is returned as soon as every step is built. The messages
// reach the store on the scheduler at their offsets.
type ScenarioResult struct {
	Messages []model.Message
	Timeline []TimelineEntry
	Summary  ScenarioSummary
}

type scenarioStep struct {
	offset      time.Duration
	description string
	build       func(run *scenarioRun, at time.Time) (model.Message, error)
	// replyTo is the index of the step this one answers, or -1.
	replyTo int
}

type scenarioTemplate struct {
	name           string
	terminalStatus string
	steps          []scenarioStep
}

// scenarioFor is the static scenario table.
func scenarioFor(name string) (scenarioTemplate, bool) {
	switch name {
	case ScenarioIssuance:
		return scenarioTemplate{
			name:           ScenarioIssuance,
			terminalStatus: "COMPLETED",
			steps: []scenarioStep{
				issueStep(0),
				replyStep(2*time.Second, 0, "Guarantee issuance acknowledged"),
			},
		}, true
	case ScenarioAmendment:
		return scenarioTemplate{
			name:           ScenarioAmendment,
			terminalStatus: "AMENDMENT_CONFIRMED",
			steps: []scenarioStep{
				issueStep(0),
				replyStep(2*time.Second, 0, "Guarantee issuance acknowledged"),
				amendStep(10 * time.Second),
				replyStep(13*time.Second, 2, "Amendment confirmed"),
			},
		}, true
	case ScenarioClaim:
		return scenarioTemplate{
			name:           ScenarioClaim,
			terminalStatus: "CLAIM_ACKNOWLEDGED",
			steps: []scenarioStep{
				issueStep(0),
				replyStep(2*time.Second, 0, "Guarantee issuance acknowledged"),
				claimStep(20 * time.Second),
				replyStep(25*time.Second, 2, "Claim acknowledged"),
			},
		}, true
	default:
		return scenarioTemplate{}, false
	}
}

func issueStep(offset time.Duration) scenarioStep {
	return scenarioStep{
		offset:      offset,
		description: "Guarantee issued",
		replyTo:     -1,
		build: func(run *scenarioRun, at time.Time) (model.Message, error) {
			p := run.params
			run.reference = NewReference("GTEE")
			content := swift.NewContent(
				swift.Field{Name: swift.FieldTransactionReference, Value: run.reference},
				swift.Field{Name: swift.FieldIssueDate, Value: at.Format(swift.ContentDateLayout)},
				swift.Field{Name: swift.FieldExpiryDate, Value: at.AddDate(0, 0, p.ValidityDays).Format(swift.ContentDateLayout)},
				swift.Field{Name: swift.FieldAmount, Value: p.Amount},
				swift.Field{Name: swift.FieldCurrency, Value: p.Currency},
				swift.Field{Name: swift.FieldApplicant, Value: p.Applicant},
				swift.Field{Name: swift.FieldBeneficiary, Value: p.Beneficiary},
			)
			return run.outgoing(swift.IssueGuarantee, content, at, uuid.Nil)
		},
	}
}

func amendStep(offset time.Duration) scenarioStep {
	return scenarioStep{
		offset:      offset,
		description: "Guarantee amount increased",
		replyTo:     -1,
		build: func(run *scenarioRun, at time.Time) (model.Message, error) {
			p := run.params
			content := swift.NewContent(
				swift.Field{Name: swift.FieldAmendmentReference, Value: NewReference("AMD")},
				swift.Field{Name: swift.FieldOriginalReference, Value: run.reference},
				swift.Field{Name: swift.FieldAmendmentType, Value: AmendmentAmountIncrease},
				swift.Field{Name: swift.FieldNewAmount, Value: p.AmendmentAmount},
				swift.Field{Name: swift.FieldCurrency, Value: p.Currency},
			)
			return run.outgoing(swift.AmendGuarantee, content, at, run.messages[0].ID())
		},
	}
}

func claimStep(offset time.Duration) scenarioStep {
	return scenarioStep{
		offset:      offset,
		description: "Claim presented under guarantee",
		replyTo:     -1,
		build: func(run *scenarioRun, at time.Time) (model.Message, error) {
			p := run.params
			content := swift.NewContent(
				swift.Field{Name: swift.FieldTransactionReference, Value: NewReference("CLM")},
				swift.Field{Name: swift.FieldOriginalReference, Value: run.reference},
				swift.Field{Name: swift.FieldClaimAmount, Value: p.ClaimAmount},
				swift.Field{Name: swift.FieldCurrency, Value: p.Currency},
				swift.Field{Name: swift.FieldClaimReason, Value: p.ClaimReason},
			)
			return run.outgoing(swift.DiscrepancyAdvice, content, at, run.messages[0].ID())
		},
	}
}

func replyStep(offset time.Duration, to int, description string) scenarioStep {
	return scenarioStep{
		offset:      offset,
		description: description,
		replyTo:     to,
		build: func(run *scenarioRun, at time.Time) (model.Message, error) {
			msg, ok, err := run.engine.responses.Generate(run.messages[to], at)
			if err != nil {
				return model.Message{}, err
			}
			if !ok {
				return model.Message{}, fmt.Errorf("%s has no response rule", run.messages[to].Type())
			}
			return msg, nil
		},
	}
}

type scenarioRun struct {
	engine    *ScenarioEngine
	params    ScenarioParams
	reference string
	messages  []model.Message
}

func (r *scenarioRun) outgoing(t swift.MessageType, content swift.Content, at time.Time, related uuid.UUID) (model.Message, error) {
	msg, result, err := r.engine.builder.Build(MessageDraft{
		Type:             t,
		SenderID:         r.params.SenderID,
		ReceiverID:       r.params.ReceiverID,
		Content:          content,
		Direction:        valueobject.DirectionOutgoing,
		Status:           valueobject.MessageStatusSent,
		Timestamp:        at,
		RelatedMessageID: related,
	})
	if err != nil {
		return model.Message{}, err
	}
	if !result.IsValid {
		return model.Message{}, &ValidationError{Type: t, Result: result}
	}
	return msg, nil
}

// ScenarioEngine runs scripted message flows on the scheduler.
type ScenarioEngine struct {
	builder   *MessageBuilder
	responses *ResponseGenerator
	store     port.MessageStore
	scheduler port.TaskScheduler
	logger    *slog.Logger
}

// NewScenarioEngine wires the engine to the shared construction path and the
// store it schedules into.
func NewScenarioEngine(
	builder *MessageBuilder,
	responses *ResponseGenerator,
	store port.MessageStore,
	scheduler port.TaskScheduler,
	logger *slog.Logger,
) *ScenarioEngine {
	return &ScenarioEngine{
		builder:   builder,
		responses: responses,
		store:     store,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Run builds every step of the named scenario and schedules each message
// to be stored at its offset. Nothing is scheduled unless every step builds.
func (e *ScenarioEngine) Run(ctx context.Context, name string, params ScenarioParams) (ScenarioResult, error) {
	tmpl, ok := scenarioFor(name)
	if !ok {
		return ScenarioResult{}, model.NewConfigurationError("scenario", name)
	}

	start := e.scheduler.Now().UTC()
	run := &scenarioRun{engine: e, params: params.withDefaults()}

	timeline := make([]TimelineEntry, 0, len(tmpl.steps))
	for i, step := range tmpl.steps {
		at := start.Add(step.offset)
		msg, err := step.build(run, at)
		if err != nil {
			return ScenarioResult{}, fmt.Errorf("scenario %s step %d: %w", name, i+1, err)
		}
		run.messages = append(run.messages, msg)
		timeline = append(timeline, TimelineEntry{
			Offset:      step.offset,
			At:          at,
			MessageID:   msg.ID(),
			Type:        msg.Type(),
			Description: step.description,
		})
	}

	for i, step := range tmpl.steps {
		msg := run.messages[i]
		var original *model.Message
		if step.replyTo >= 0 {
			original = &run.messages[step.replyTo]
		}
		taskName := fmt.Sprintf("scenario:%s:%d", name, i+1)
		if err := e.scheduler.Schedule(taskName, step.offset, e.storeTask(msg, original)); err != nil {
			return ScenarioResult{}, fmt.Errorf("schedule %s: %w", taskName, err)
		}
	}

	last := tmpl.steps[len(tmpl.steps)-1].offset
	return ScenarioResult{
		Messages: run.messages,
		Timeline: timeline,
		Summary: ScenarioSummary{
			Scenario:     tmpl.name,
			MessageCount: len(run.messages),
			Reference:    run.reference,
			Status:       tmpl.terminalStatus,
			StartedAt:    start,
			CompletesAt:  start.Add(last),
		},
	}, nil
}

// storeTask stores msg and, for replies, promotes the original's status.
func (e *ScenarioEngine) storeTask(msg model.Message, original *model.Message) func(ctx context.Context) {
	return func(ctx context.Context) {
		if err := e.store.Store(ctx, msg); err != nil {
			e.logger.Error("failed to store scenario message", "message_id", msg.ID(), "type", msg.Type(), "error", err)
			return
		}
		if original == nil {
			return
		}
		rule, ok := e.responses.Rule(original.Type())
		if !ok {
			return
		}
		note := fmt.Sprintf("response %s received", msg.Type())
		if _, err := e.store.UpdateStatus(ctx, original.ID(), rule.OriginalStatus, note); err != nil {
			e.logger.Warn("failed to update original status", "message_id", original.ID(), "error", err)
		}
	}
}
