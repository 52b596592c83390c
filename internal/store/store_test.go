package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/database"
	"github.com/dukerupert/housemood/internal/model"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db, nil)
}

// fixture is a family with one area spot and two active members.
type fixture struct {
	family *model.Family
	spot   *model.Spot
	alice  *model.FamilyMember
	bob    *model.FamilyMember
	ctx    context.Context
}

func newFixture(t *testing.T, r *Repository) fixture {
	t.Helper()
	ctx := context.Background()

	fam, err := r.Families.Create(ctx, "Smiths", "Europe/Berlin")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	spot, err := r.Spots.Create(ctx, fam.ID, model.SpotArea, "Kitchen")
	if err != nil {
		t.Fatalf("create spot: %v", err)
	}
	alice, err := r.Members.Create(ctx, fam.ID, "alice", model.RoleAdult)
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := r.Members.Create(ctx, fam.ID, "bob", model.RoleChild)
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	return fixture{family: fam, spot: spot, alice: alice, bob: bob, ctx: ctx}
}

func (f fixture) template(t *testing.T, r *Repository, rule string, responsible ...uuid.UUID) *model.TaskTemplate {
	t.Helper()
	tmpl, err := r.Templates.Create(f.ctx, TemplateParams{
		FamilyID:    f.family.ID,
		SpotID:      f.spot.ID,
		Title:       "Dishes",
		Points:      5,
		Schedule:    rule,
		DueDuration: time.Hour,
	}, responsible)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	return tmpl
}

func (f fixture) instance(tmpl *model.TaskTemplate, due time.Time) model.TaskInstance {
	var templateID *uuid.UUID
	points := 3
	if tmpl != nil {
		id := tmpl.ID
		templateID = &id
		points = tmpl.Points
	}
	return model.TaskInstance{
		ID:         uuid.New(),
		FamilyID:   f.family.ID,
		SpotID:     f.spot.ID,
		TemplateID: templateID,
		Title:      "Dishes",
		Points:     points,
		Status:     model.TaskActive,
		DueAt:      due,
		CreatedAt:  due.Add(-time.Hour),
	}
}
