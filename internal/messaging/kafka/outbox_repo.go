package kafka

import (
	"context"
	"database/sql"
	"time"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

type OutboxEvent struct {
	ID            string
	RequestID     string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        string
	RetryCount    int
	NextRetryAt   time.Time
}

//go:generate mockgen -source=outbox_repo.go -destination=mock/outbox_repo_mock.go -package=mock

type OutboxRepository interface {
	WithTx(tx *sql.Tx) OutboxRepository
	Create(ctx context.Context, event OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type outboxRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) WithTx(tx *sql.Tx) OutboxRepository {
	return &outboxRepository{db: r.db, tx: tx}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *outboxRepository) execer() execer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *outboxRepository) Create(ctx context.Context, event OutboxEvent) error {
	query := `
        INSERT INTO outbox_events (
            id, request_id, aggregate_type, aggregate_id, event_type, topic, payload, status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `

	exec := r.execer()
	_, err := exec.ExecContext(
		ctx, query,
		event.ID, event.RequestID, event.AggregateType,
		event.AggregateID, event.EventType, event.Topic, event.Payload, event.Status,
	)
	return err
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	query := `
SELECT
	id::text,
	aggregate_type,
	aggregate_id::text,
	event_type,
	topic,
	payload,
	status,
	retry_count,
	COALESCE(next_retry_at, created_at)
FROM outbox_events
WHERE status = $1 AND COALESCE(next_retry_at, created_at) <= now()
ORDER BY created_at
LIMIT $2
`

	rows, err := r.execer().QueryContext(ctx, query, OutboxStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []OutboxEvent
	for rows.Next() {
		var event OutboxEvent
		if err := rows.Scan(
			&event.ID, &event.AggregateType, &event.AggregateID,
			&event.EventType, &event.Topic, &event.Payload,
			&event.Status, &event.RetryCount, &event.NextRetryAt,
		); err != nil {
			return nil, err
		}
		pending = append(pending, event)
	}

	return pending, rows.Err()
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	query := `
        UPDATE outbox_events
        SET status = $1, updated_at = now()
        WHERE id = $2
    `
	_, err := r.execer().ExecContext(ctx, query, OutboxStatusSent, id)
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	// Exponential-ish backoff: each failure pushes the next attempt out by
	// one more minute. After five attempts the event is parked as failed.
	query := `
        UPDATE outbox_events
        SET retry_count = retry_count + 1,
            last_error = $2,
            next_retry_at = now() + make_interval(mins => retry_count + 1),
            status = CASE WHEN retry_count + 1 >= 5 THEN $3 ELSE status END,
            updated_at = now()
        WHERE id = $1
    `
	_, err := r.execer().ExecContext(ctx, query, id, reason, OutboxStatusFailed)
	return err
}
