package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskActive     TaskStatus = "active"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// Open reports whether the status still counts as outstanding work.
func (s TaskStatus) Open() bool {
	return s != TaskCompleted
}

type TaskTemplate struct {
	ID          uuid.UUID     `json:"id"`
	FamilyID    uuid.UUID     `json:"family_id"`
	SpotID      uuid.UUID     `json:"spot_id"`
	PetID       *uuid.UUID    `json:"pet_id"`
	Title       string        `json:"title"`
	Points      int           `json:"points"`
	Schedule    string        `json:"schedule"`
	DueDuration time.Duration `json:"due_duration"`
	Active      bool          `json:"active"`
	CreatedAt   time.Time     `json:"created_at"`
}

// TemplateWithFamily is the query shape the scheduler works on.
type TemplateWithFamily struct {
	Template    TaskTemplate
	Family      Family
	Responsible []FamilyMember
}

type TaskInstance struct {
	ID          uuid.UUID  `json:"id"`
	FamilyID    uuid.UUID  `json:"family_id"`
	SpotID      uuid.UUID  `json:"spot_id"`
	PetID       *uuid.UUID `json:"pet_id"`
	TemplateID  *uuid.UUID `json:"template_id"`
	Title       string     `json:"title"`
	Points      int        `json:"points"`
	Status      TaskStatus `json:"status"`
	DueAt       time.Time  `json:"due_at"`
	CreatedAt   time.Time  `json:"created_at"`
	AssignedTo  *uuid.UUID `json:"assigned_to"`
	StartedBy   *uuid.UUID `json:"started_by"`
	CompletedBy *uuid.UUID `json:"completed_by"`
	CompletedAt *time.Time `json:"completed_at"`
}
