package chore

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/model"
)

func TestTakeAndComplete(t *testing.T) {
	member := uuid.New()
	inst := model.TaskInstance{ID: uuid.New(), Status: model.TaskActive}

	taken, err := Take(inst, member)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if taken.Status != model.TaskInProgress {
		t.Errorf("status = %q, want %q", taken.Status, model.TaskInProgress)
	}
	if taken.StartedBy == nil || *taken.StartedBy != member {
		t.Errorf("started_by = %v, want %v", taken.StartedBy, member)
	}
	if inst.Status != model.TaskActive {
		t.Error("Take must not modify its input")
	}

	at := time.Date(2026, 2, 5, 20, 0, 0, 0, time.UTC)
	done, err := Complete(taken, member, at)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != model.TaskCompleted {
		t.Errorf("status = %q, want %q", done.Status, model.TaskCompleted)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(at) {
		t.Errorf("completed_at = %v, want %v", done.CompletedAt, at)
	}
	if done.CompletedBy == nil || *done.CompletedBy != member {
		t.Errorf("completed_by = %v, want %v", done.CompletedBy, member)
	}
}

func TestTakeTwice(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	inst, err := Take(model.TaskInstance{Status: model.TaskActive}, a)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if _, err := Take(inst, a); err != nil {
		t.Errorf("retake by same member: %v", err)
	}
	if _, err := Take(inst, b); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("take by other member err = %v, want ErrInvalidTransition", err)
	}
}

func TestRefuse(t *testing.T) {
	member := uuid.New()
	inst := model.TaskInstance{Status: model.TaskInProgress, StartedBy: &member, AssignedTo: &member}

	back, err := Refuse(inst)
	if err != nil {
		t.Fatalf("refuse: %v", err)
	}
	if back.Status != model.TaskActive {
		t.Errorf("status = %q, want %q", back.Status, model.TaskActive)
	}
	if back.StartedBy != nil || back.AssignedTo != nil {
		t.Error("refused instance must be unassigned")
	}
}

func TestCompletedIsImmutable(t *testing.T) {
	member := uuid.New()
	at := time.Now()
	inst := model.TaskInstance{Status: model.TaskCompleted, CompletedBy: &member, CompletedAt: &at}

	if _, err := Take(inst, member); !errors.Is(err, ErrCompleted) {
		t.Errorf("take err = %v, want ErrCompleted", err)
	}
	if _, err := Refuse(inst); !errors.Is(err, ErrCompleted) {
		t.Errorf("refuse err = %v, want ErrCompleted", err)
	}
	if _, err := Complete(inst, member, at); !errors.Is(err, ErrCompleted) {
		t.Errorf("complete err = %v, want ErrCompleted", err)
	}
}

func TestIsOverdue(t *testing.T) {
	due := time.Date(2026, 2, 5, 21, 0, 0, 0, time.UTC)
	open := model.TaskInstance{Status: model.TaskActive, DueAt: due}

	if IsOverdue(open, due) {
		t.Error("not overdue at the due instant")
	}
	if !IsOverdue(open, due.Add(time.Second)) {
		t.Error("expected overdue after due time")
	}
	done := open
	done.Status = model.TaskCompleted
	if IsOverdue(done, due.Add(time.Hour)) {
		t.Error("completed instances are never overdue")
	}
}
