package store

import (
	"testing"
	"time"

	"github.com/dukerupert/housemood/internal/model"
)

func TestOutboxEnqueueDedup(t *testing.T) {
	r := setupTestDB(t)
	f := newFixture(t, r)

	msg := model.OutboxMessage{
		FamilyID:  f.family.ID,
		Kind:      model.OutboxTaskDue,
		DedupKey:  "task_due:abc",
		Payload:   []byte(`{"title":"Dishes"}`),
		CreatedAt: due,
	}

	inserted, err := r.Outbox.Enqueue(f.ctx, msg)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if !inserted {
		t.Error("first enqueue should insert")
	}

	msg.Payload = []byte(`{"title":"changed"}`)
	msg.CreatedAt = due.Add(time.Minute)
	inserted, err = r.Outbox.Enqueue(f.ctx, msg)
	if err != nil {
		t.Fatalf("enqueue again: %v", err)
	}
	if inserted {
		t.Error("duplicate dedup key should not insert")
	}

	msgs, err := r.Outbox.ListByFamily(f.ctx, f.family.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	if string(msgs[0].Payload) != `{"title":"Dishes"}` {
		t.Errorf("payload = %s, want the first message", msgs[0].Payload)
	}
	if !msgs[0].CreatedAt.Equal(due) {
		t.Errorf("CreatedAt = %v, want %v", msgs[0].CreatedAt, due)
	}
}
