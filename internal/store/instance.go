package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/chore"
	"github.com/dukerupert/housemood/internal/model"
)

type InstanceStore struct {
	db *sql.DB
}

func NewInstanceStore(db *sql.DB) *InstanceStore {
	return &InstanceStore{db: db}
}

func scanInstance(scanner interface{ Scan(...any) error }) (*model.TaskInstance, error) {
	var i model.TaskInstance
	var petID, templateID, assignedTo, startedBy, completedBy uuid.NullUUID
	var dueAt, createdAt int64
	var completedAt sql.NullInt64

	err := scanner.Scan(
		&i.ID, &i.FamilyID, &i.SpotID, &petID, &templateID, &i.Title, &i.Points, &i.Status,
		&dueAt, &createdAt, &assignedTo, &startedBy, &completedBy, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	i.PetID = idPtr(petID)
	i.TemplateID = idPtr(templateID)
	i.AssignedTo = idPtr(assignedTo)
	i.StartedBy = idPtr(startedBy)
	i.CompletedBy = idPtr(completedBy)
	i.DueAt = fromMillis(dueAt)
	i.CreatedAt = fromMillis(createdAt)
	i.CompletedAt = timePtr(completedAt)
	return &i, nil
}

const instanceCols = `id, family_id, spot_id, pet_id, template_id, title, points, status, due_at, created_at, assigned_to, started_by, completed_by, completed_at`

func queryInstances(ctx context.Context, q dbConn, where string, args ...any) ([]model.TaskInstance, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+instanceCols+` FROM task_instances WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query task instances: %w", err)
	}
	defer rows.Close()

	var out []model.TaskInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task instance: %w", err)
		}
		out = append(out, *inst)
	}
	return out, rows.Err()
}

func getInstance(ctx context.Context, q dbConn, id uuid.UUID) (*model.TaskInstance, error) {
	row := q.QueryRowContext(ctx, `SELECT `+instanceCols+` FROM task_instances WHERE id = ?`, id)
	inst, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task instance: %w", err)
	}
	return inst, nil
}

// Create persists a new instance. It returns chore.ErrConflict when the
// template already has an open instance.
func (s *InstanceStore) Create(ctx context.Context, inst model.TaskInstance) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_instances (`+instanceCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID, inst.FamilyID, inst.SpotID, nullID(inst.PetID), nullID(inst.TemplateID),
		inst.Title, inst.Points, string(inst.Status), millis(inst.DueAt), millis(inst.CreatedAt),
		nullID(inst.AssignedTo), nullID(inst.StartedBy), nullID(inst.CompletedBy), nullMillis(inst.CompletedAt),
	)
	// Both the open-slot and the occurrence index lead with template_id.
	if isUniqueViolation(err, "task_instances.template_id") {
		return fmt.Errorf("template %v due %v: %w", inst.TemplateID, inst.DueAt, chore.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert task instance: %w", err)
	}
	return nil
}

func (s *InstanceStore) GetByID(ctx context.Context, id uuid.UUID) (*model.TaskInstance, error) {
	return getInstance(ctx, s.db, id)
}

func (s *InstanceStore) ListOpenByTemplate(ctx context.Context, templateID uuid.UUID) ([]model.TaskInstance, error) {
	return queryInstances(ctx, s.db, `template_id = ? AND status != 'completed' ORDER BY due_at`, templateID)
}

func (s *InstanceStore) ListOpenByFamily(ctx context.Context, familyID uuid.UUID) ([]model.TaskInstance, error) {
	return queryInstances(ctx, s.db, `family_id = ? AND status != 'completed' ORDER BY due_at, id`, familyID)
}

// ListOpenDueBetween returns open instances with from < due_at <= to.
func (s *InstanceStore) ListOpenDueBetween(ctx context.Context, from, to time.Time) ([]model.TaskInstance, error) {
	return queryInstances(ctx, s.db,
		`status != 'completed' AND due_at > ? AND due_at <= ? ORDER BY due_at, id`, millis(from), millis(to))
}

// ListDue returns every instance, open or completed, due at or before now.
func (s *InstanceStore) ListDue(ctx context.Context, now time.Time) ([]model.TaskInstance, error) {
	return queryInstances(ctx, s.db, `due_at <= ? ORDER BY due_at, id`, millis(now))
}

// Take records that memberID started the instance.
func (s *InstanceStore) Take(ctx context.Context, id, memberID uuid.UUID) (*model.TaskInstance, error) {
	return s.transition(ctx, id, func(inst model.TaskInstance) (model.TaskInstance, error) {
		return chore.Take(inst, memberID)
	}, nil)
}

// Refuse returns the instance to the unassigned pool.
func (s *InstanceStore) Refuse(ctx context.Context, id uuid.UUID) (*model.TaskInstance, error) {
	return s.transition(ctx, id, chore.Refuse, nil)
}

// Complete marks the instance done and awards its points to memberID in the
// same transaction.
func (s *InstanceStore) Complete(ctx context.Context, id, memberID uuid.UUID, at time.Time) (*model.TaskInstance, error) {
	return s.transition(ctx, id, func(inst model.TaskInstance) (model.TaskInstance, error) {
		return chore.Complete(inst, memberID, at)
	}, func(tx *sql.Tx, inst model.TaskInstance) error {
		return addPoints(ctx, tx, memberID, inst.Points)
	})
}

// transition loads, changes and saves one instance inside a transaction.
// It returns nil when the instance does not exist.
func (s *InstanceStore) transition(
	ctx context.Context,
	id uuid.UUID,
	change func(model.TaskInstance) (model.TaskInstance, error),
	after func(*sql.Tx, model.TaskInstance) error,
) (*model.TaskInstance, error) {
	var result *model.TaskInstance
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		inst, err := getInstance(ctx, tx, id)
		if err != nil || inst == nil {
			return err
		}
		next, err := change(*inst)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE task_instances SET status = ?, assigned_to = ?, started_by = ?, completed_by = ?, completed_at = ? WHERE id = ?`,
			string(next.Status), nullID(next.AssignedTo), nullID(next.StartedBy), nullID(next.CompletedBy), nullMillis(next.CompletedAt), id,
		)
		if err != nil {
			return fmt.Errorf("update task instance: %w", err)
		}
		if after != nil {
			if err := after(tx, next); err != nil {
				return err
			}
		}
		result = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LastCompletionsForTemplate returns, for each of memberIDs that has one,
// the time of their latest completion of the template.
func (s *InstanceStore) LastCompletionsForTemplate(ctx context.Context, templateID uuid.UUID, memberIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	return s.lastCompletions(ctx, "template_id", templateID, memberIDs)
}

// LastCompletionsForSpot is LastCompletionsForTemplate over every instance of
// the spot.
func (s *InstanceStore) LastCompletionsForSpot(ctx context.Context, spotID uuid.UUID, memberIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	return s.lastCompletions(ctx, "spot_id", spotID, memberIDs)
}

func (s *InstanceStore) lastCompletions(ctx context.Context, col string, key uuid.UUID, memberIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	out := make(map[uuid.UUID]time.Time, len(memberIDs))
	if len(memberIDs) == 0 {
		return out, nil
	}

	in, args := inClause(memberIDs)
	rows, err := s.db.QueryContext(ctx,
		`SELECT completed_by, MAX(completed_at) FROM task_instances
		 WHERE `+col+` = ? AND status = 'completed' AND completed_at IS NOT NULL AND completed_by IN (`+in+`)
		 GROUP BY completed_by`,
		append([]any{key}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("last completions by %s: %w", col, err)
	}
	defer rows.Close()

	for rows.Next() {
		var member uuid.UUID
		var at int64
		if err := rows.Scan(&member, &at); err != nil {
			return nil, fmt.Errorf("scan last completion: %w", err)
		}
		out[member] = fromMillis(at)
	}
	return out, rows.Err()
}
