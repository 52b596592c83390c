package mood

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/model"
)

// Repository is the storage the mood job reads and writes.
type Repository interface {
	ListSpots(ctx context.Context) ([]model.Spot, error)
	ListPets(ctx context.Context) ([]model.Pet, error)
	ListDueInstances(ctx context.Context, now time.Time) ([]model.TaskInstance, error)
	UpdateSpotMood(ctx context.Context, id uuid.UUID, score int) error
	UpdatePetMood(ctx context.Context, id uuid.UUID, score int) error
}

// Entity kinds reported in Update.
const (
	KindSpot = "spot"
	KindPet  = "pet"
)

// Update is one mood score that changed during a run.
type Update struct {
	Kind     string
	ID       uuid.UUID
	Previous int
	Score    int
}

// Recalculator refreshes the denormalized mood score of every spot and pet.
type Recalculator struct {
	repo   Repository
	logger *slog.Logger
}

func NewRecalculator(repo Repository, logger *slog.Logger) *Recalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recalculator{repo: repo, logger: logger}
}

// Run scores every spot and pet as of now and writes back the scores that
// changed. Updates already written stay written if a later one fails.
func (r *Recalculator) Run(ctx context.Context, now time.Time) ([]Update, error) {
	tasks, err := r.repo.ListDueInstances(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list due instances: %w", err)
	}
	spots, err := r.repo.ListSpots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	pets, err := r.repo.ListPets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}

	var updates []Update
	for _, s := range spots {
		if err := ctx.Err(); err != nil {
			return updates, err
		}
		score := BySpot.CalculateMoodScore(s.ID, tasks, now)
		if score == s.MoodScore {
			continue
		}
		if err := r.repo.UpdateSpotMood(ctx, s.ID, score); err != nil {
			return updates, fmt.Errorf("update spot %s mood: %w", s.ID, err)
		}
		updates = append(updates, Update{Kind: KindSpot, ID: s.ID, Previous: s.MoodScore, Score: score})
	}

	for _, p := range pets {
		if err := ctx.Err(); err != nil {
			return updates, err
		}
		score := ByPet.CalculateMoodScore(p.ID, tasks, now)
		if score == p.MoodScore {
			continue
		}
		if err := r.repo.UpdatePetMood(ctx, p.ID, score); err != nil {
			return updates, fmt.Errorf("update pet %s mood: %w", p.ID, err)
		}
		updates = append(updates, Update{Kind: KindPet, ID: p.ID, Previous: p.MoodScore, Score: score})
	}

	r.logger.Info("mood recalculated", "spots", len(spots), "pets", len(pets), "changed", len(updates))
	return updates, nil
}
