package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/model"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.FamilyMember, error) {
	var m model.FamilyMember
	var createdAt int64
	if err := scanner.Scan(&m.ID, &m.FamilyID, &m.UserRef, &m.Role, &m.Points, &m.Active, &createdAt); err != nil {
		return nil, err
	}
	m.CreatedAt = fromMillis(createdAt)
	return &m, nil
}

const memberCols = `id, family_id, user_ref, role, points, active, created_at`

func scanMembers(rows *sql.Rows) ([]model.FamilyMember, error) {
	defer rows.Close()
	var members []model.FamilyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) Create(ctx context.Context, familyID uuid.UUID, userRef string, role model.Role) (*model.FamilyMember, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO family_members (id, family_id, user_ref, role, points, active, created_at) VALUES (?, ?, ?, ?, 0, 1, ?)`,
		id, familyID, userRef, string(role), millis(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert family member: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *MemberStore) GetByID(ctx context.Context, id uuid.UUID) (*model.FamilyMember, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberCols+` FROM family_members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family member: %w", err)
	}
	return m, nil
}

// ListByFamily returns all members of a family, inactive ones included.
func (s *MemberStore) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]model.FamilyMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberCols+` FROM family_members WHERE family_id = ? ORDER BY created_at, rowid`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	return scanMembers(rows)
}

func (s *MemberStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE family_members SET active = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deactivate family member: %w", err)
	}
	return nil
}

func (s *MemberStore) AddPoints(ctx context.Context, id uuid.UUID, delta int) error {
	return addPoints(ctx, s.db, id, delta)
}

func addPoints(ctx context.Context, q dbConn, id uuid.UUID, delta int) error {
	if delta < 0 {
		return ErrNegativePoints
	}
	res, err := q.ExecContext(ctx, `UPDATE family_members SET points = points + ? WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("add points: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("add points: member %s not found", id)
	}
	return nil
}

// Leaderboard returns the family's active members by points, highest first.
// It is empty when the family has the leaderboard turned off.
func (s *MemberStore) Leaderboard(ctx context.Context, familyID uuid.UUID) ([]model.FamilyMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.family_id, m.user_ref, m.role, m.points, m.active, m.created_at
		 FROM family_members m JOIN families f ON f.id = m.family_id
		 WHERE m.family_id = ? AND m.active = 1 AND f.leaderboard_enabled = 1
		 ORDER BY m.points DESC, m.created_at, m.rowid`, familyID)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return scanMembers(rows)
}
