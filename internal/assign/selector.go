// Package assign picks who should do the next occurrence of a chore.
package assign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/model"
)

// CompletionHistory reports, per member, the most recent completion of
// matching work. Members without a completion are absent from the map.
type CompletionHistory interface {
	LastCompletionsForTemplate(ctx context.Context, templateID uuid.UUID, memberIDs []uuid.UUID) (map[uuid.UUID]time.Time, error)
	LastCompletionsForSpot(ctx context.Context, spotID uuid.UUID, memberIDs []uuid.UUID) (map[uuid.UUID]time.Time, error)
}

// Selector rotates work to whoever completed it longest ago.
type Selector struct {
	history CompletionHistory
}

func NewSelector(history CompletionHistory) *Selector {
	return &Selector{history: history}
}

// SelectAssignee returns the member who should own the next instance of the
// template, or nil when neither the template nor the spot has an active
// responsible member. The template's pool is rated by template history; the
// spot's fallback pool by spot history.
func (s *Selector) SelectAssignee(ctx context.Context, tmpl model.TemplateWithFamily, spot model.SpotWithFamily) (*uuid.UUID, error) {
	if pool := model.ActiveMembers(tmpl.Responsible); len(pool) > 0 {
		ids := memberIDs(pool)
		last, err := s.history.LastCompletionsForTemplate(ctx, tmpl.Template.ID, ids)
		if err != nil {
			return nil, fmt.Errorf("template completion history: %w", err)
		}
		return leastRecent(ids, last), nil
	}

	if pool := model.ActiveMembers(spot.Responsible); len(pool) > 0 {
		ids := memberIDs(pool)
		last, err := s.history.LastCompletionsForSpot(ctx, spot.Spot.ID, ids)
		if err != nil {
			return nil, fmt.Errorf("spot completion history: %w", err)
		}
		return leastRecent(ids, last), nil
	}

	return nil, nil
}

// leastRecent returns the candidate with the oldest last completion. A
// candidate missing from last never completed the work and wins; ties keep
// candidate order.
func leastRecent(candidates []uuid.UUID, last map[uuid.UUID]time.Time) *uuid.UUID {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	bestAt := last[best]
	for _, id := range candidates[1:] {
		at := last[id]
		if at.Before(bestAt) {
			best, bestAt = id, at
		}
	}
	return &best
}

func memberIDs(ms []model.FamilyMember) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.ID)
	}
	return ids
}
