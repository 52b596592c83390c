package chore

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/model"
)

// Take moves an active instance to in progress on behalf of memberID.
func Take(inst model.TaskInstance, memberID uuid.UUID) (model.TaskInstance, error) {
	switch inst.Status {
	case model.TaskCompleted:
		return inst, ErrCompleted
	case model.TaskInProgress:
		if inst.StartedBy != nil && *inst.StartedBy == memberID {
			return inst, nil
		}
		return inst, fmt.Errorf("%w: already taken", ErrInvalidTransition)
	case model.TaskActive:
		inst.Status = model.TaskInProgress
		inst.StartedBy = &memberID
		return inst, nil
	}
	return inst, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, inst.Status)
}

// Refuse puts the instance back into the active pool, unassigned.
func Refuse(inst model.TaskInstance) (model.TaskInstance, error) {
	switch inst.Status {
	case model.TaskCompleted:
		return inst, ErrCompleted
	case model.TaskActive, model.TaskInProgress:
		inst.Status = model.TaskActive
		inst.StartedBy = nil
		inst.AssignedTo = nil
		return inst, nil
	}
	return inst, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, inst.Status)
}

// Complete marks the instance done by memberID at the given time.
func Complete(inst model.TaskInstance, memberID uuid.UUID, at time.Time) (model.TaskInstance, error) {
	switch inst.Status {
	case model.TaskCompleted:
		return inst, ErrCompleted
	case model.TaskActive, model.TaskInProgress:
		completedAt := at.UTC()
		inst.Status = model.TaskCompleted
		inst.CompletedBy = &memberID
		inst.CompletedAt = &completedAt
		return inst, nil
	}
	return inst, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, inst.Status)
}

// IsOverdue reports whether an open instance is past its due time at now.
func IsOverdue(inst model.TaskInstance, now time.Time) bool {
	return inst.Status.Open() && now.After(inst.DueAt)
}
