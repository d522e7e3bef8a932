package usecase

import (
	"strings"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/service"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// messageTypeOf normalizes a caller-supplied type. Unsupported values pass
// through unchanged so the validator can report them.
func messageTypeOf(s string) swift.MessageType {
	if t, err := swift.ParseMessageType(s); err == nil {
		return t
	}
	return swift.MessageType(strings.ToUpper(strings.TrimSpace(s)))
}

func toMessageDTO(m model.Message) dto.MessageDTO {
	out := dto.MessageDTO{
		ID:             m.ID(),
		Type:           m.Type().String(),
		TypeName:       m.Type().Name(),
		Direction:      m.Direction().String(),
		Status:         m.Status().String(),
		SenderID:       m.SenderID(),
		ReceiverID:     m.ReceiverID(),
		Content:        m.Content(),
		RawForm:        m.RawForm(),
		Timestamp:      m.Timestamp(),
		IsResponse:     m.IsResponse(),
		ProcessingTime: m.ProcessingTime(),
	}
	if m.HasRelatedMessage() {
		related := m.RelatedMessageID()
		out.RelatedMessageID = &related
	}
	for _, c := range m.StatusHistory() {
		out.StatusHistory = append(out.StatusHistory, dto.StatusChangeDTO{
			From: c.From.String(),
			To:   c.To.String(),
			Note: c.Note,
			At:   c.At,
		})
	}
	return out
}

func toMessageDTOs(msgs []model.Message) []dto.MessageDTO {
	out := make([]dto.MessageDTO, len(msgs))
	for i, m := range msgs {
		out[i] = toMessageDTO(m)
	}
	return out
}

func toValidationDTO(r service.ValidationResult) dto.ValidationResultDTO {
	return dto.ValidationResultDTO{
		IsValid:       r.IsValid,
		Errors:        r.Errors,
		Warnings:      r.Warnings,
		FieldsChecked: r.FieldsChecked,
	}
}

// toFilter parses the filter DTO. Unknown types, statuses and directions are
// configuration errors.
func toFilter(f dto.MessageFilterDTO) (model.MessageFilter, error) {
	filter := model.MessageFilter{
		IsResponse: f.IsResponse,
		SenderID:   strings.TrimSpace(f.SenderID),
		ReceiverID: strings.TrimSpace(f.ReceiverID),
		Text:       f.Text,
	}
	if strings.TrimSpace(f.Type) != "" {
		t, err := swift.ParseMessageType(f.Type)
		if err != nil {
			return model.MessageFilter{}, model.NewConfigurationError("message type", f.Type)
		}
		filter.Type = t
	}
	if strings.TrimSpace(f.Status) != "" {
		s, err := valueobject.NewMessageStatus(f.Status)
		if err != nil {
			return model.MessageFilter{}, model.NewConfigurationError("status", f.Status)
		}
		filter.Status = s
	}
	if strings.TrimSpace(f.Direction) != "" {
		d, err := valueobject.NewDirection(f.Direction)
		if err != nil {
			return model.MessageFilter{}, model.NewConfigurationError("direction", f.Direction)
		}
		filter.Direction = d
	}
	return filter, nil
}

func toThreadResponse(t service.Thread) dto.ThreadResponse {
	return dto.ThreadResponse{
		Root:         toMessageDTO(t.Root),
		Responses:    toMessageDTOs(t.Responses),
		MessageCount: t.MessageCount,
		Status:       t.Status.String(),
		LastActivity: t.LastActivity,
	}
}

func toScenarioParams(p dto.ScenarioParamsDTO) service.ScenarioParams {
	return service.ScenarioParams{
		Amount:          p.Amount,
		Currency:        p.Currency,
		Applicant:       p.Applicant,
		Beneficiary:     p.Beneficiary,
		SenderID:        p.SenderID,
		ReceiverID:      p.ReceiverID,
		ValidityDays:    p.ValidityDays,
		AmendmentAmount: p.AmendmentAmount,
		ClaimAmount:     p.ClaimAmount,
		ClaimReason:     p.ClaimReason,
	}
}

func toScenarioResponse(r service.ScenarioResult) dto.ScenarioResponse {
	out := dto.ScenarioResponse{
		Messages: toMessageDTOs(r.Messages),
		Timeline: make([]dto.TimelineEntryDTO, len(r.Timeline)),
		Summary: dto.ScenarioSummaryDTO{
			Scenario:     r.Summary.Scenario,
			MessageCount: r.Summary.MessageCount,
			Reference:    r.Summary.Reference,
			Status:       r.Summary.Status,
			StartedAt:    r.Summary.StartedAt,
			CompletesAt:  r.Summary.CompletesAt,
		},
	}
	for i, e := range r.Timeline {
		out.Timeline[i] = dto.TimelineEntryDTO{
			Offset:      e.Offset,
			At:          e.At,
			MessageID:   e.MessageID,
			Type:        e.Type.String(),
			Description: e.Description,
		}
	}
	return out
}

func toStatisticsResponse(s model.Statistics) dto.StatisticsResponse {
	out := dto.StatisticsResponse{
		Total:               s.Total,
		ByType:              make(map[string]int, len(s.ByType)),
		ByStatus:            make(map[string]int, len(s.ByStatus)),
		ByDirection:         make(map[string]int, len(s.ByDirection)),
		Responses:           s.Responses,
		AverageResponseTime: s.AverageResponseTime,
		LatencySamples:      s.LatencySamples,
		LastMessageAt:       s.LastMessageAt,
	}
	for k, v := range s.ByType {
		out.ByType[k.String()] = v
	}
	for k, v := range s.ByStatus {
		out.ByStatus[k.String()] = v
	}
	for k, v := range s.ByDirection {
		out.ByDirection[k.String()] = v
	}
	return out
}
