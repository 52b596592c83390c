package chore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/model"
)

var (
	ErrConflict          = errors.New("active instance already exists")
	ErrCompleted         = errors.New("task instance already completed")
	ErrInvalidTransition = errors.New("invalid task transition")
	ErrInvalidTask       = errors.New("invalid task")
)

// Factory builds task instances. It reads no clock; NewID is its only source
// of variation.
type Factory struct {
	NewID func() uuid.UUID
}

func NewFactory() *Factory {
	return &Factory{NewID: uuid.New}
}

func (f *Factory) newID() uuid.UUID {
	if f == nil || f.NewID == nil {
		return uuid.New()
	}
	return f.NewID()
}

// CreateFromTemplate builds the next instance of tmpl. It fails with
// ErrConflict while any of the template's existing instances is still open.
func (f *Factory) CreateFromTemplate(tmpl model.TaskTemplate, dueAt time.Time, existing []model.TaskInstance, assignee *uuid.UUID, createdAt time.Time) (model.TaskInstance, error) {
	for _, inst := range existing {
		if inst.TemplateID == nil || *inst.TemplateID != tmpl.ID {
			continue
		}
		if inst.Status.Open() {
			return model.TaskInstance{}, fmt.Errorf("template %s: %w (instance %s)", tmpl.ID, ErrConflict, inst.ID)
		}
	}

	templateID := tmpl.ID
	return model.TaskInstance{
		ID:         f.newID(),
		FamilyID:   tmpl.FamilyID,
		SpotID:     tmpl.SpotID,
		PetID:      cloneID(tmpl.PetID),
		TemplateID: &templateID,
		Title:      tmpl.Title,
		Points:     tmpl.Points,
		Status:     model.TaskActive,
		DueAt:      dueAt.UTC(),
		CreatedAt:  createdAt.UTC(),
		AssignedTo: cloneID(assignee),
	}, nil
}

// OneOff describes a task that is not backed by a template.
type OneOff struct {
	FamilyID   uuid.UUID
	SpotID     uuid.UUID
	PetID      *uuid.UUID
	Title      string
	Points     int
	DueAt      time.Time
	AssignedTo *uuid.UUID
}

func (f *Factory) CreateOneOff(o OneOff, createdAt time.Time) (model.TaskInstance, error) {
	title := strings.TrimSpace(o.Title)
	if title == "" {
		return model.TaskInstance{}, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if o.Points < 0 {
		return model.TaskInstance{}, fmt.Errorf("%w: points must not be negative", ErrInvalidTask)
	}
	return model.TaskInstance{
		ID:         f.newID(),
		FamilyID:   o.FamilyID,
		SpotID:     o.SpotID,
		PetID:      cloneID(o.PetID),
		Title:      title,
		Points:     o.Points,
		Status:     model.TaskActive,
		DueAt:      o.DueAt.UTC(),
		CreatedAt:  createdAt.UTC(),
		AssignedTo: cloneID(o.AssignedTo),
	}, nil
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
