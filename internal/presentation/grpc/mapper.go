package grpc

import (
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/pkg/events"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s: %v", field, err)
	}
	return id, nil
}

func fromTimestamp(field string, ts *timestamppb.Timestamp) (time.Time, error) {
	if ts == nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s is required", field)
	}
	if err := ts.CheckValid(); err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "invalid %s: %v", field, err)
	}
	return ts.AsTime(), nil
}

// toTimestamp maps the zero time to nil.
func toTimestamp(t time.Time) *timestamppb.Timestamp {
	if t.IsZero() {
		return nil
	}
	return timestamppb.New(t)
}

func toContent(fields []*Field) swift.Content {
	c := swift.NewContent()
	for _, f := range fields {
		if f != nil {
			c.Set(f.Name, f.Value)
		}
	}
	return c
}

func toFieldMsgs(c swift.Content) []*Field {
	fields := c.Fields()
	out := make([]*Field, len(fields))
	for i, f := range fields {
		out[i] = &Field{Name: f.Name, Value: f.Value}
	}
	return out
}

func toSwiftMessage(m dto.MessageDTO) *SwiftMessage {
	msg := &SwiftMessage{
		ID:               m.ID.String(),
		Type:             m.Type,
		TypeName:         m.TypeName,
		Direction:        m.Direction,
		Status:           m.Status,
		SenderID:         m.SenderID,
		ReceiverID:       m.ReceiverID,
		Content:          toFieldMsgs(m.Content),
		RawForm:          m.RawForm,
		Timestamp:        toTimestamp(m.Timestamp),
		IsResponse:       m.IsResponse,
		ProcessingTimeMs: m.ProcessingTime.Milliseconds(),
		StatusHistory:    make([]*StatusChange, len(m.StatusHistory)),
	}
	if m.RelatedMessageID != nil {
		msg.RelatedMessageID = m.RelatedMessageID.String()
	}
	for i, h := range m.StatusHistory {
		msg.StatusHistory[i] = &StatusChange{From: h.From, To: h.To, Note: h.Note, At: toTimestamp(h.At)}
	}
	return msg
}

func toSwiftMessages(msgs []dto.MessageDTO) []*SwiftMessage {
	out := make([]*SwiftMessage, len(msgs))
	for i, m := range msgs {
		out[i] = toSwiftMessage(m)
	}
	return out
}

func toValidationMsg(v dto.ValidationResultDTO) *ValidationResult {
	return &ValidationResult{
		IsValid:       v.IsValid,
		Errors:        v.Errors,
		Warnings:      v.Warnings,
		FieldsChecked: int32(v.FieldsChecked),
	}
}

func toFilterDTO(f *MessageFilter) dto.MessageFilterDTO {
	if f == nil {
		return dto.MessageFilterDTO{}
	}
	return dto.MessageFilterDTO{
		Type:       f.Type,
		Status:     f.Status,
		Direction:  f.Direction,
		IsResponse: f.IsResponse,
		SenderID:   f.SenderID,
		ReceiverID: f.ReceiverID,
		Text:       f.Text,
	}
}

func toScenarioParamsDTO(p *ScenarioParams) dto.ScenarioParamsDTO {
	if p == nil {
		return dto.ScenarioParamsDTO{}
	}
	return dto.ScenarioParamsDTO{
		Amount:          p.Amount,
		Currency:        p.Currency,
		Applicant:       p.Applicant,
		Beneficiary:     p.Beneficiary,
		SenderID:        p.SenderID,
		ReceiverID:      p.ReceiverID,
		ValidityDays:    int(p.ValidityDays),
		AmendmentAmount: p.AmendmentAmount,
		ClaimAmount:     p.ClaimAmount,
		ClaimReason:     p.ClaimReason,
	}
}

func toScenarioMsg(r dto.ScenarioResponse) *RunScenarioResponse {
	timeline := make([]*TimelineEntry, len(r.Timeline))
	for i, e := range r.Timeline {
		timeline[i] = &TimelineEntry{
			OffsetMs:    e.Offset.Milliseconds(),
			At:          toTimestamp(e.At),
			MessageID:   e.MessageID.String(),
			Type:        e.Type,
			Description: e.Description,
		}
	}
	s := r.Summary
	return &RunScenarioResponse{
		Messages: toSwiftMessages(r.Messages),
		Timeline: timeline,
		Summary: &ScenarioSummary{
			Scenario:     s.Scenario,
			MessageCount: int32(s.MessageCount),
			Reference:    s.Reference,
			Status:       s.Status,
			StartedAt:    toTimestamp(s.StartedAt),
			CompletesAt:  toTimestamp(s.CompletesAt),
		},
	}
}

func toCounts(m map[string]int) map[string]int32 {
	out := make(map[string]int32, len(m))
	for k, v := range m {
		out[k] = int32(v)
	}
	return out
}

func toEventMsg(env events.Envelope) *Event {
	return &Event{
		EventID:       env.ID,
		EventType:     env.EventType,
		AggregateID:   env.AggregateID,
		AggregateType: env.AggregateType,
		OccurredAt:    toTimestamp(env.OccurredAt),
		Payload:       env.Payload,
	}
}
