package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/model"
	"github.com/dukerupert/housemood/internal/timezone"
)

type FamilyStore struct {
	db    *sql.DB
	zones *timezone.Service
}

func NewFamilyStore(db *sql.DB, zones *timezone.Service) *FamilyStore {
	if zones == nil {
		zones = timezone.NewService()
	}
	return &FamilyStore{db: db, zones: zones}
}

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	var createdAt int64
	if err := scanner.Scan(&f.ID, &f.Name, &f.Timezone, &f.LeaderboardEnabled, &createdAt); err != nil {
		return nil, err
	}
	f.CreatedAt = fromMillis(createdAt)
	return &f, nil
}

const familyCols = `id, name, timezone, leaderboard_enabled, created_at`

func (s *FamilyStore) checkTimezone(tz string) error {
	if _, err := s.zones.Resolve(tz); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}
	return nil
}

func (s *FamilyStore) Create(ctx context.Context, name, tz string) (*model.Family, error) {
	if err := s.checkTimezone(tz); err != nil {
		return nil, err
	}
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO families (id, name, timezone, leaderboard_enabled, created_at) VALUES (?, ?, ?, 0, ?)`,
		id, name, tz, millis(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *FamilyStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Family, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

func (s *FamilyStore) List(ctx context.Context) ([]model.Family, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+familyCols+` FROM families ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	defer rows.Close()

	var families []model.Family
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		families = append(families, *f)
	}
	return families, rows.Err()
}

func (s *FamilyStore) UpdateTimezone(ctx context.Context, id uuid.UUID, tz string) (*model.Family, error) {
	if err := s.checkTimezone(tz); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE families SET timezone = ? WHERE id = ?`, tz, id); err != nil {
		return nil, fmt.Errorf("update family timezone: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *FamilyStore) SetLeaderboard(ctx context.Context, id uuid.UUID, enabled bool) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE families SET leaderboard_enabled = ? WHERE id = ?`, enabled, id); err != nil {
		return fmt.Errorf("set leaderboard: %w", err)
	}
	return nil
}
