package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/chore"
	"github.com/dukerupert/housemood/internal/model"
	"github.com/dukerupert/housemood/internal/recurrence"
	"github.com/dukerupert/housemood/internal/timezone"
)

type Repository interface {
	ListFamilies(ctx context.Context) ([]model.Family, error)
	// ListOpenInstancesDueBetween returns open instances with from < due_at <= to.
	ListOpenInstancesDueBetween(ctx context.Context, from, to time.Time) ([]model.TaskInstance, error)
	ListOpenInstancesByFamily(ctx context.Context, familyID uuid.UUID) ([]model.TaskInstance, error)
}

// Outbox accepts messages for later delivery. Enqueue reports false when a
// message with the same dedup key was already queued.
type Outbox interface {
	Enqueue(ctx context.Context, msg model.OutboxMessage) (bool, error)
}

// Result counts the messages a run queued.
type Result struct {
	Due     int
	Digests int
}

// TaskDuePayload is the body of a task_due message.
type TaskDuePayload struct {
	InstanceID uuid.UUID  `json:"instance_id"`
	Title      string     `json:"title"`
	Points     int        `json:"points"`
	DueAt      time.Time  `json:"due_at"`
	AssignedTo *uuid.UUID `json:"assigned_to,omitempty"`
}

// DigestPayload is the body of a daily_digest message.
type DigestPayload struct {
	Date    string       `json:"date"`
	Open    int          `json:"open"`
	Overdue int          `json:"overdue"`
	Tasks   []DigestTask `json:"tasks"`
}

type DigestTask struct {
	InstanceID uuid.UUID  `json:"instance_id"`
	Title      string     `json:"title"`
	DueAt      time.Time  `json:"due_at"`
	AssignedTo *uuid.UUID `json:"assigned_to,omitempty"`
	Overdue    bool       `json:"overdue"`
}

// Service runs the reminder cadence.
type Service struct {
	repo     Repository
	outbox   Outbox
	zones    *timezone.Service
	detector *CrossingDetector
	digestAt recurrence.TimeOfDay
	logger   *slog.Logger

	// NewID generates outbox message ids.
	NewID func() uuid.UUID
}

func NewService(repo Repository, outbox Outbox, zones *timezone.Service, digestAt recurrence.TimeOfDay, logger *slog.Logger) *Service {
	if zones == nil {
		zones = timezone.NewService()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		outbox:   outbox,
		zones:    zones,
		detector: NewCrossingDetector(zones),
		digestAt: digestAt,
		logger:   logger,
		NewID:    uuid.New,
	}
}

// Run queues a task_due message for every open instance that came due in
// (from, to], and a digest for every family whose local digest time passed
// between prev and to.
func (s *Service) Run(ctx context.Context, prev *time.Time, from, to time.Time) (Result, error) {
	var res Result

	due, err := s.repo.ListOpenInstancesDueBetween(ctx, from, to)
	if err != nil {
		return res, fmt.Errorf("list newly due instances: %w", err)
	}
	for _, inst := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ok, err := s.enqueue(ctx, inst.FamilyID, model.OutboxTaskDue, "task_due:"+inst.ID.String(), TaskDuePayload{
			InstanceID: inst.ID,
			Title:      inst.Title,
			Points:     inst.Points,
			DueAt:      inst.DueAt,
			AssignedTo: inst.AssignedTo,
		}, to)
		if err != nil {
			return res, fmt.Errorf("enqueue task due %s: %w", inst.ID, err)
		}
		if ok {
			res.Due++
		}
	}

	families, err := s.repo.ListFamilies(ctx)
	if err != nil {
		return res, fmt.Errorf("list families: %w", err)
	}
	for _, f := range families {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !s.detector.CrossedLocalTimeBetween(prev, to, f.Timezone, s.digestAt.Hour, s.digestAt.Minute) {
			continue
		}
		ok, err := s.digest(ctx, f, to)
		if err != nil {
			return res, fmt.Errorf("digest for family %s: %w", f.ID, err)
		}
		if ok {
			res.Digests++
		}
	}

	s.logger.Info("reminders queued", "due", res.Due, "digests", res.Digests)
	return res, nil
}

func (s *Service) digest(ctx context.Context, f model.Family, now time.Time) (bool, error) {
	local, err := s.zones.ToLocal(now, f.Timezone)
	if err != nil {
		return false, err
	}
	open, err := s.repo.ListOpenInstancesByFamily(ctx, f.ID)
	if err != nil {
		return false, fmt.Errorf("list open instances: %w", err)
	}

	date := local.Format("2006-01-02")
	payload := DigestPayload{Date: date, Open: len(open), Tasks: make([]DigestTask, 0, len(open))}
	for _, inst := range open {
		overdue := chore.IsOverdue(inst, now)
		if overdue {
			payload.Overdue++
		}
		payload.Tasks = append(payload.Tasks, DigestTask{
			InstanceID: inst.ID,
			Title:      inst.Title,
			DueAt:      inst.DueAt,
			AssignedTo: inst.AssignedTo,
			Overdue:    overdue,
		})
	}

	key := fmt.Sprintf("daily_digest:%s:%s", f.ID, date)
	return s.enqueue(ctx, f.ID, model.OutboxDailyDigest, key, payload, now)
}

func (s *Service) enqueue(ctx context.Context, familyID uuid.UUID, kind, key string, payload any, now time.Time) (bool, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return s.outbox.Enqueue(ctx, model.OutboxMessage{
		ID:        s.NewID(),
		FamilyID:  familyID,
		Kind:      kind,
		DedupKey:  key,
		Payload:   body,
		CreatedAt: now.UTC(),
	})
}
