package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/model"
	"github.com/dukerupert/housemood/internal/timezone"
)

// Repository bundles the stores behind the queries the scheduling, mood and
// reminder jobs run.
type Repository struct {
	Families  *FamilyStore
	Members   *MemberStore
	Spots     *SpotStore
	Pets      *PetStore
	Templates *TemplateStore
	Instances *InstanceStore
	Outbox    *OutboxStore
	JobRuns   *JobRunStore
}

func NewRepository(db *sql.DB, zones *timezone.Service) *Repository {
	return &Repository{
		Families:  NewFamilyStore(db, zones),
		Members:   NewMemberStore(db),
		Spots:     NewSpotStore(db),
		Pets:      NewPetStore(db),
		Templates: NewTemplateStore(db),
		Instances: NewInstanceStore(db),
		Outbox:    NewOutboxStore(db),
		JobRuns:   NewJobRunStore(db),
	}
}

func (r *Repository) ListActiveTemplates(ctx context.Context) ([]model.TemplateWithFamily, error) {
	return r.Templates.ListActiveWithFamily(ctx)
}

func (r *Repository) GetSpot(ctx context.Context, id uuid.UUID) (*model.SpotWithFamily, error) {
	return r.Spots.GetWithFamily(ctx, id)
}

func (r *Repository) ListOpenInstances(ctx context.Context, templateID uuid.UUID) ([]model.TaskInstance, error) {
	return r.Instances.ListOpenByTemplate(ctx, templateID)
}

func (r *Repository) CreateInstance(ctx context.Context, inst model.TaskInstance) error {
	return r.Instances.Create(ctx, inst)
}

func (r *Repository) LastCompletionsForTemplate(ctx context.Context, templateID uuid.UUID, memberIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	return r.Instances.LastCompletionsForTemplate(ctx, templateID, memberIDs)
}

func (r *Repository) LastCompletionsForSpot(ctx context.Context, spotID uuid.UUID, memberIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	return r.Instances.LastCompletionsForSpot(ctx, spotID, memberIDs)
}

func (r *Repository) ListSpots(ctx context.Context) ([]model.Spot, error) {
	return r.Spots.List(ctx)
}

func (r *Repository) ListPets(ctx context.Context) ([]model.Pet, error) {
	return r.Pets.List(ctx)
}

func (r *Repository) ListDueInstances(ctx context.Context, now time.Time) ([]model.TaskInstance, error) {
	return r.Instances.ListDue(ctx, now)
}

func (r *Repository) UpdateSpotMood(ctx context.Context, id uuid.UUID, score int) error {
	return r.Spots.UpdateMood(ctx, id, score)
}

func (r *Repository) UpdatePetMood(ctx context.Context, id uuid.UUID, score int) error {
	return r.Pets.UpdateMood(ctx, id, score)
}

func (r *Repository) ListFamilies(ctx context.Context) ([]model.Family, error) {
	return r.Families.List(ctx)
}

func (r *Repository) ListOpenInstancesDueBetween(ctx context.Context, from, to time.Time) ([]model.TaskInstance, error) {
	return r.Instances.ListOpenDueBetween(ctx, from, to)
}

func (r *Repository) ListOpenInstancesByFamily(ctx context.Context, familyID uuid.UUID) ([]model.TaskInstance, error) {
	return r.Instances.ListOpenByFamily(ctx, familyID)
}
