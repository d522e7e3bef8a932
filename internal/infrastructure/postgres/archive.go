// Package postgres archives store events to PostgreSQL. The archive is a
// write-through copy; the in-memory store stays the system of record.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/guarantee-messaging/internal/domain/event"
	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/notify"
	"github.com/bibbank/guarantee-messaging/pkg/events"
	pgpkg "github.com/bibbank/guarantee-messaging/pkg/postgres"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// Archive applies store events to the swift_* tables. Every event is
// recorded once in swift_events; replays of an archived event are no-ops.
type Archive struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewArchive(pool *pgxpool.Pool, logger *slog.Logger) *Archive {
	return &Archive{pool: pool, logger: logger}
}

// Run archives notifications until ctx is cancelled or the channel closes.
func (a *Archive) Run(ctx context.Context, notifications <-chan notify.Notification) error {
	a.logger.Info("message archive started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-notifications:
			if !ok {
				return nil
			}
			if err := a.Apply(ctx, n.Event); err != nil {
				a.logger.Error("failed to archive event",
					"event_type", n.Event.EventType(),
					"event_id", n.Event.EventID(),
					"error", err,
				)
			}
		}
	}
}

// Apply archives a single event in one transaction.
func (a *Archive) Apply(ctx context.Context, evt events.DomainEvent) error {
	env, err := events.NewEnvelope(evt)
	if err != nil {
		return err
	}
	return pgpkg.WithTransaction(ctx, a.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO swift_events (event_id, event_type, aggregate_id, aggregate_type, payload, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (event_id) DO NOTHING
		`, env.ID, env.EventType, env.AggregateID, env.AggregateType, env.Payload, env.OccurredAt)
		if err != nil {
			return fmt.Errorf("insert archive event: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		return applyEvent(ctx, tx, evt)
	})
}

func applyEvent(ctx context.Context, q pgpkg.Querier, evt events.DomainEvent) error {
	switch e := evt.(type) {
	case event.MessageStored:
		return insertMessage(ctx, q, e.Message)
	case event.MessageStatusChanged:
		return insertStatusChange(ctx, q, e)
	default:
		// Store-level events such as MessagesCleared only need the event row.
		return nil
	}
}

func insertMessage(ctx context.Context, q pgpkg.Querier, s event.MessageSnapshot) error {
	args, err := messageArgs(s)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO swift_messages (
			id, message_type, direction, status, sender_id, receiver_id, content,
			raw_form, message_timestamp, related_message_id, is_response, processing_time_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`, args...)
	if err != nil {
		return fmt.Errorf("insert archived message: %w", err)
	}
	return nil
}

// messageArgs maps a snapshot to the swift_messages column order.
func messageArgs(s event.MessageSnapshot) ([]any, error) {
	content, err := json.Marshal(s.Content)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}
	var related *uuid.UUID
	if s.RelatedMessageID != nil && *s.RelatedMessageID != uuid.Nil {
		related = s.RelatedMessageID
	}
	return []any{
		s.ID, s.Type, s.Direction, s.Status, s.SenderID, s.ReceiverID, content,
		s.RawForm, s.Timestamp, related, s.IsResponse, s.ProcessingTimeMs,
	}, nil
}

func insertStatusChange(ctx context.Context, q pgpkg.Querier, e event.MessageStatusChanged) error {
	tag, err := q.Exec(ctx, `
		UPDATE swift_messages SET status = $2, updated_at = $3 WHERE id = $1
	`, e.MessageID, e.To, e.OccurredAt())
	if err != nil {
		return fmt.Errorf("update archived status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError("archived message", e.MessageID.String())
	}
	_, err = q.Exec(ctx, `
		INSERT INTO swift_status_changes (message_id, from_status, to_status, note, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.MessageID, e.From, e.To, e.Note, e.OccurredAt())
	if err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}
	return nil
}

// ArchivedMessage is a row of swift_messages with its transitions.
type ArchivedMessage struct {
	Snapshot event.MessageSnapshot
	History  []ArchivedStatusChange
}

type ArchivedStatusChange struct {
	From string
	To   string
	Note string
	At   time.Time
}

// FindMessage reads an archived message and its status transitions.
func (a *Archive) FindMessage(ctx context.Context, id uuid.UUID) (ArchivedMessage, error) {
	var (
		out     ArchivedMessage
		content []byte
		related *uuid.UUID
	)
	s := &out.Snapshot
	err := a.pool.QueryRow(ctx, `
		SELECT id, message_type, direction, status, sender_id, receiver_id, content,
			raw_form, message_timestamp, related_message_id, is_response, processing_time_ms
		FROM swift_messages WHERE id = $1
	`, id).Scan(&s.ID, &s.Type, &s.Direction, &s.Status, &s.SenderID, &s.ReceiverID, &content,
		&s.RawForm, &s.Timestamp, &related, &s.IsResponse, &s.ProcessingTimeMs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ArchivedMessage{}, model.NewNotFoundError("archived message", id.String())
		}
		return ArchivedMessage{}, fmt.Errorf("query archived message: %w", err)
	}
	s.RelatedMessageID = related
	var c swift.Content
	if err := json.Unmarshal(content, &c); err != nil {
		return ArchivedMessage{}, fmt.Errorf("unmarshal content: %w", err)
	}
	s.Content = c

	rows, err := a.pool.Query(ctx, `
		SELECT from_status, to_status, note, changed_at
		FROM swift_status_changes WHERE message_id = $1 ORDER BY changed_at, id
	`, id)
	if err != nil {
		return ArchivedMessage{}, fmt.Errorf("query status changes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c ArchivedStatusChange
		if err := rows.Scan(&c.From, &c.To, &c.Note, &c.At); err != nil {
			return ArchivedMessage{}, fmt.Errorf("scan status change: %w", err)
		}
		out.History = append(out.History, c)
	}
	if err := rows.Err(); err != nil {
		return ArchivedMessage{}, fmt.Errorf("iterate status changes: %w", err)
	}
	return out, nil
}

// HealthCheck pings the archive database.
func (a *Archive) HealthCheck(ctx context.Context) error {
	return pgpkg.HealthCheck(ctx, a.pool)
}
