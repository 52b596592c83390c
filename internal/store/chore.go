package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/model"
	"github.com/dukerupert/housemood/internal/recurrence"
)

type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// TemplateParams holds the writable fields of a task template.
type TemplateParams struct {
	FamilyID    uuid.UUID
	SpotID      uuid.UUID
	PetID       *uuid.UUID
	Title       string
	Points      int
	Schedule    string
	DueDuration time.Duration
}

func scanTemplate(scanner interface{ Scan(...any) error }) (*model.TaskTemplate, error) {
	var t model.TaskTemplate
	var petID uuid.NullUUID
	var dueMs, createdAt int64
	err := scanner.Scan(
		&t.ID, &t.FamilyID, &t.SpotID, &petID, &t.Title, &t.Points,
		&t.Schedule, &dueMs, &t.Active, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	t.PetID = idPtr(petID)
	t.DueDuration = time.Duration(dueMs) * time.Millisecond
	t.CreatedAt = fromMillis(createdAt)
	return &t, nil
}

const templateCols = `id, family_id, spot_id, pet_id, title, points, schedule, due_duration_ms, active, created_at`

// normalizeSchedule rejects rules the scheduler could never evaluate and
// stores the canonical form.
func normalizeSchedule(rule string) (string, error) {
	sched, err := recurrence.Parse(rule)
	if err != nil {
		return "", err
	}
	return recurrence.String(sched), nil
}

func (s *TemplateStore) Create(ctx context.Context, p TemplateParams, responsible []uuid.UUID) (*model.TaskTemplate, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, fmt.Errorf("template title is required")
	}
	if p.Points < 0 {
		return nil, ErrNegativePoints
	}
	rule, err := normalizeSchedule(p.Schedule)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO task_templates (id, family_id, spot_id, pet_id, title, points, schedule, due_duration_ms, active, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
			id, p.FamilyID, p.SpotID, nullID(p.PetID), title, p.Points, rule, p.DueDuration.Milliseconds(), millis(time.Now()),
		)
		if err != nil {
			return fmt.Errorf("insert template: %w", err)
		}
		for i, memberID := range responsible {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO template_members (template_id, member_id, position) VALUES (?, ?, ?)`, id, memberID, i)
			if err != nil {
				return fmt.Errorf("insert template member: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *TemplateStore) GetByID(ctx context.Context, id uuid.UUID) (*model.TaskTemplate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+templateCols+` FROM task_templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// UpdateSchedule replaces the template's rule wholesale.
func (s *TemplateStore) UpdateSchedule(ctx context.Context, id uuid.UUID, rule string) error {
	normalized, err := normalizeSchedule(rule)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE task_templates SET schedule = ? WHERE id = ?`, normalized, id); err != nil {
		return fmt.Errorf("update template schedule: %w", err)
	}
	return nil
}

func (s *TemplateStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE task_templates SET active = ? WHERE id = ?`, active, id); err != nil {
		return fmt.Errorf("set template active: %w", err)
	}
	return nil
}

func (s *TemplateStore) SetResponsible(ctx context.Context, templateID uuid.UUID, memberIDs []uuid.UUID) error {
	return setResponsible(ctx, s.db, "template_members", "template_id", templateID, memberIDs)
}

// ListActiveWithFamily returns every active template with its family and
// responsible members, in creation order.
func (s *TemplateStore) ListActiveWithFamily(ctx context.Context) ([]model.TemplateWithFamily, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.family_id, t.spot_id, t.pet_id, t.title, t.points, t.schedule, t.due_duration_ms, t.active, t.created_at,
		        f.id, f.name, f.timezone, f.leaderboard_enabled, f.created_at
		 FROM task_templates t JOIN families f ON f.id = t.family_id
		 WHERE t.active = 1
		 ORDER BY t.created_at, t.rowid`)
	if err != nil {
		return nil, fmt.Errorf("list active templates: %w", err)
	}
	defer rows.Close()

	var out []model.TemplateWithFamily
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var t model.TaskTemplate
		var f model.Family
		var petID uuid.NullUUID
		var dueMs, tCreated, fCreated int64
		err := rows.Scan(
			&t.ID, &t.FamilyID, &t.SpotID, &petID, &t.Title, &t.Points, &t.Schedule, &dueMs, &t.Active, &tCreated,
			&f.ID, &f.Name, &f.Timezone, &f.LeaderboardEnabled, &fCreated,
		)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.PetID = idPtr(petID)
		t.DueDuration = time.Duration(dueMs) * time.Millisecond
		t.CreatedAt = fromMillis(tCreated)
		f.CreatedAt = fromMillis(fCreated)
		index[t.ID] = len(out)
		out = append(out, model.TemplateWithFamily{Template: t, Family: f})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	mrows, err := s.db.QueryContext(ctx,
		`SELECT j.template_id, m.id, m.family_id, m.user_ref, m.role, m.points, m.active, m.created_at
		 FROM template_members j
		 JOIN family_members m ON m.id = j.member_id
		 JOIN task_templates t ON t.id = j.template_id
		 WHERE t.active = 1
		 ORDER BY j.template_id, j.position`)
	if err != nil {
		return nil, fmt.Errorf("list template members: %w", err)
	}
	defer mrows.Close()

	for mrows.Next() {
		var templateID uuid.UUID
		var m model.FamilyMember
		var createdAt int64
		if err := mrows.Scan(&templateID, &m.ID, &m.FamilyID, &m.UserRef, &m.Role, &m.Points, &m.Active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan template member: %w", err)
		}
		m.CreatedAt = fromMillis(createdAt)
		if i, ok := index[templateID]; ok {
			out[i].Responsible = append(out[i].Responsible, m)
		}
	}
	return out, mrows.Err()
}
