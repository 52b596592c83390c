package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/model"
)

// OutboxStore queues notifications for a separate dispatcher.
type OutboxStore struct {
	db *sql.DB
}

func NewOutboxStore(db *sql.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

// Enqueue inserts msg unless a message with the same dedup key exists. It
// reports whether a row was written.
func (s *OutboxStore) Enqueue(ctx context.Context, msg model.OutboxMessage) (bool, error) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (id, family_id, kind, dedup_key, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(dedup_key) DO NOTHING`,
		msg.ID, msg.FamilyID, msg.Kind, msg.DedupKey, msg.Payload, millis(msg.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("enqueue outbox message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// ListByFamily returns a family's queued messages, oldest first.
func (s *OutboxStore) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]model.OutboxMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, family_id, kind, dedup_key, payload, created_at FROM outbox
		 WHERE family_id = ? ORDER BY created_at, rowid`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}
	defer rows.Close()

	var msgs []model.OutboxMessage
	for rows.Next() {
		var m model.OutboxMessage
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.FamilyID, &m.Kind, &m.DedupKey, &m.Payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		m.CreatedAt = fromMillis(createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
