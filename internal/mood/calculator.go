// Package mood turns a household's due chores into a 0-100 score per spot
// or pet. Late or missed work drags the score down.
package mood

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/model"
)

const (
	// LateCompletionFactor is the share of points credited for work
	// completed after its due time.
	LateCompletionFactor = 0.5

	// FullPenaltyAfter is how long an open task must be overdue before it
	// costs its full point value.
	FullPenaltyAfter = 7 * 24 * time.Hour
)

// Calculator scores one kind of entity. Key extracts the entity a task
// belongs to, or nil when the task belongs to none.
type Calculator struct {
	Key func(model.TaskInstance) *uuid.UUID
}

// BySpot groups tasks by spot.
var BySpot = Calculator{Key: func(t model.TaskInstance) *uuid.UUID { return &t.SpotID }}

// ByPet groups tasks by pet. Tasks without a pet are ignored.
var ByPet = Calculator{Key: func(t model.TaskInstance) *uuid.UUID { return t.PetID }}

// CalculateMoodScore returns the mood of entityID given tasks, considering
// only those due at or before now.
func (c Calculator) CalculateMoodScore(entityID uuid.UUID, tasks []model.TaskInstance, now time.Time) int {
	var maxPoints, effective float64
	for _, t := range tasks {
		if key := c.Key(t); key == nil || *key != entityID {
			continue
		}
		if t.DueAt.After(now) {
			continue
		}
		maxPoints += float64(t.Points)
		effective += contribution(t, now)
	}
	if maxPoints == 0 {
		return model.DefaultMood
	}

	score := int(math.Round(100 * effective / maxPoints))
	return clamp(score, 0, 100)
}

func contribution(t model.TaskInstance, now time.Time) float64 {
	points := float64(t.Points)
	switch {
	case t.Status == model.TaskCompleted:
		if t.CompletedAt == nil {
			return 0
		}
		if t.CompletedAt.After(t.DueAt) {
			return points * LateCompletionFactor
		}
		return points
	case now.After(t.DueAt):
		overdue := now.Sub(t.DueAt)
		f := math.Min(1, float64(overdue)/float64(FullPenaltyAfter))
		return -points * f
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
