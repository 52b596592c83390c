package mood

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/model"
)

type fakeRepo struct {
	spots     []model.Spot
	pets      []model.Pet
	tasks     []model.TaskInstance
	updateErr error

	spotMoods map[uuid.UUID]int
	petMoods  map[uuid.UUID]int
	dueAsOf   time.Time
}

func (f *fakeRepo) ListSpots(context.Context) ([]model.Spot, error) { return f.spots, nil }
func (f *fakeRepo) ListPets(context.Context) ([]model.Pet, error)   { return f.pets, nil }

func (f *fakeRepo) ListDueInstances(_ context.Context, now time.Time) ([]model.TaskInstance, error) {
	f.dueAsOf = now
	return f.tasks, nil
}

func (f *fakeRepo) UpdateSpotMood(_ context.Context, id uuid.UUID, score int) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.spotMoods == nil {
		f.spotMoods = map[uuid.UUID]int{}
	}
	f.spotMoods[id] = score
	return nil
}

func (f *fakeRepo) UpdatePetMood(_ context.Context, id uuid.UUID, score int) error {
	if f.petMoods == nil {
		f.petMoods = map[uuid.UUID]int{}
	}
	f.petMoods[id] = score
	return nil
}

func TestRecalculatorWritesChangedScores(t *testing.T) {
	kitchen := model.Spot{ID: uuid.New(), MoodScore: 100}
	garden := model.Spot{ID: uuid.New(), MoodScore: 100}
	rex := model.Pet{ID: uuid.New(), MoodScore: 40}

	late := completed(task(kitchen.ID, 10, now.Add(-2*time.Hour)), now.Add(-time.Hour))
	repo := &fakeRepo{
		spots: []model.Spot{kitchen, garden},
		pets:  []model.Pet{rex},
		tasks: []model.TaskInstance{late},
	}

	updates, err := NewRecalculator(repo, nil).Run(context.Background(), now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !repo.dueAsOf.Equal(now) {
		t.Errorf("due instances listed as of %v, want %v", repo.dueAsOf, now)
	}
	if len(updates) != 2 {
		t.Fatalf("updates = %+v, want 2", updates)
	}
	if u := updates[0]; u.Kind != KindSpot || u.ID != kitchen.ID || u.Previous != 100 || u.Score != 50 {
		t.Errorf("spot update = %+v", u)
	}
	if u := updates[1]; u.Kind != KindPet || u.ID != rex.ID || u.Score != 100 {
		t.Errorf("pet update = %+v", u)
	}
	if _, ok := repo.spotMoods[garden.ID]; ok {
		t.Error("unchanged spot should not be written")
	}
}

func TestRecalculatorStopsOnCancel(t *testing.T) {
	repo := &fakeRepo{spots: []model.Spot{{ID: uuid.New(), MoodScore: 10}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRecalculator(repo, nil).Run(ctx, now)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(repo.spotMoods) != 0 {
		t.Error("no scores should be written after cancellation")
	}
}

func TestRecalculatorUpdateError(t *testing.T) {
	boom := errors.New("disk full")
	repo := &fakeRepo{spots: []model.Spot{{ID: uuid.New(), MoodScore: 10}}, updateErr: boom}

	_, err := NewRecalculator(repo, nil).Run(context.Background(), now)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
