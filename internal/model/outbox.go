package model

import (
	"time"

	"github.com/google/uuid"
)

// Outbox message kinds.
const (
	OutboxTaskDue     = "task_due"
	OutboxDailyDigest = "daily_digest"
)

// OutboxMessage is a notification the engine wants delivered. A separate
// dispatcher reads and sends these; DedupKey makes enqueueing idempotent.
type OutboxMessage struct {
	ID        uuid.UUID `json:"id"`
	FamilyID  uuid.UUID `json:"family_id"`
	Kind      string    `json:"kind"`
	DedupKey  string    `json:"dedup_key"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}
