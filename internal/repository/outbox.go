package repository

import (
	"context"

	"github.com/rookgm/fmmall/internal/models"
	"github.com/rookgm/fmmall/internal/repository/postgres"
)

const (
	insertEventQuery = `
						INSERT INTO outbox (event_id, type, key, payload)
						VALUES ($1, $2, $3, $4)
						RETURNING id, created_at
`
	selectPendingEventsQuery = `
						SELECT id, event_id, type, key, payload, created_at, sent_at FROM outbox
						WHERE sent_at IS NULL
						ORDER BY id
						LIMIT $1
`
	markEventSentQuery = `
						UPDATE outbox
						SET sent_at = now()
						WHERE id = $1
`
)

// OutboxRepository stores domain events in the same transaction as business data
type OutboxRepository struct {
	db *postgres.DB
}

// NewOutboxRepository creates new OutboxRepository instance
func NewOutboxRepository(db *postgres.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// InsertEvent inserts event to outbox
func (or *OutboxRepository) InsertEvent(ctx context.Context, event *models.Event) error {
	return or.db.QueryRow(ctx, insertEventQuery, event.EventID, event.Type, event.Key, event.Payload).Scan(&event.ID, &event.CreatedAt)
}

// FetchPending returns events that have not been sent yet
func (or *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := or.db.Query(ctx, selectPendingEventsQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event

	for rows.Next() {
		event := models.Event{}
		err := rows.Scan(&event.ID, &event.EventID, &event.Type, &event.Key, &event.Payload, &event.CreatedAt, &event.SentAt)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// MarkSent marks event as sent
func (or *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	_, err := or.db.Exec(ctx, markEventSentQuery, id)
	return err
}
