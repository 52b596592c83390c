package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/model"
)

type SpotStore struct {
	db *sql.DB
}

func NewSpotStore(db *sql.DB) *SpotStore {
	return &SpotStore{db: db}
}

func scanSpot(scanner interface{ Scan(...any) error }) (*model.Spot, error) {
	var s model.Spot
	var createdAt int64
	if err := scanner.Scan(&s.ID, &s.FamilyID, &s.Type, &s.Name, &s.MoodScore, &createdAt); err != nil {
		return nil, err
	}
	s.CreatedAt = fromMillis(createdAt)
	return &s, nil
}

const spotCols = `id, family_id, type, name, mood_score, created_at`

func (s *SpotStore) Create(ctx context.Context, familyID uuid.UUID, typ model.SpotType, name string) (*model.Spot, error) {
	if typ != model.SpotPet && typ != model.SpotArea {
		return nil, fmt.Errorf("invalid spot type %q", typ)
	}
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO spots (id, family_id, type, name, mood_score, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, familyID, string(typ), name, model.DefaultMood, millis(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert spot: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *SpotStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Spot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+spotCols+` FROM spots WHERE id = ?`, id)
	sp, err := scanSpot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get spot: %w", err)
	}
	return sp, nil
}

// GetWithFamily loads a spot with its family and responsible members.
func (s *SpotStore) GetWithFamily(ctx context.Context, id uuid.UUID) (*model.SpotWithFamily, error) {
	sp, err := s.GetByID(ctx, id)
	if err != nil || sp == nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+familyCols+` FROM families WHERE id = ?`, sp.FamilyID)
	fam, err := scanFamily(row)
	if err != nil {
		return nil, fmt.Errorf("get spot family: %w", err)
	}

	members, err := listResponsible(ctx, s.db, "spot_members", "spot_id", id)
	if err != nil {
		return nil, err
	}
	return &model.SpotWithFamily{Spot: *sp, Family: *fam, Responsible: members}, nil
}

func (s *SpotStore) List(ctx context.Context) ([]model.Spot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+spotCols+` FROM spots ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	defer rows.Close()

	var spots []model.Spot
	for rows.Next() {
		sp, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spot: %w", err)
		}
		spots = append(spots, *sp)
	}
	return spots, rows.Err()
}

// SetResponsible replaces the spot's responsible members. Order is kept and
// breaks ties when assigning work.
func (s *SpotStore) SetResponsible(ctx context.Context, spotID uuid.UUID, memberIDs []uuid.UUID) error {
	return setResponsible(ctx, s.db, "spot_members", "spot_id", spotID, memberIDs)
}

func (s *SpotStore) UpdateMood(ctx context.Context, id uuid.UUID, score int) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE spots SET mood_score = ? WHERE id = ?`, score, id); err != nil {
		return fmt.Errorf("update spot mood: %w", err)
	}
	return nil
}

type PetStore struct {
	db *sql.DB
}

func NewPetStore(db *sql.DB) *PetStore {
	return &PetStore{db: db}
}

func scanPet(scanner interface{ Scan(...any) error }) (*model.Pet, error) {
	var p model.Pet
	var createdAt int64
	if err := scanner.Scan(&p.ID, &p.FamilyID, &p.Name, &p.MoodScore, &createdAt); err != nil {
		return nil, err
	}
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}

const petCols = `id, family_id, name, mood_score, created_at`

func (s *PetStore) Create(ctx context.Context, familyID uuid.UUID, name string) (*model.Pet, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pets (id, family_id, name, mood_score, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, familyID, name, model.DefaultMood, millis(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert pet: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *PetStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+petCols+` FROM pets WHERE id = ?`, id)
	p, err := scanPet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pet: %w", err)
	}
	return p, nil
}

func (s *PetStore) List(ctx context.Context) ([]model.Pet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+petCols+` FROM pets ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	var pets []model.Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		pets = append(pets, *p)
	}
	return pets, rows.Err()
}

func (s *PetStore) UpdateMood(ctx context.Context, id uuid.UUID, score int) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE pets SET mood_score = ? WHERE id = ?`, score, id); err != nil {
		return fmt.Errorf("update pet mood: %w", err)
	}
	return nil
}

// listResponsible loads the members linked to owner through a join table,
// in stored order.
func listResponsible(ctx context.Context, q dbConn, table, ownerCol string, owner uuid.UUID) ([]model.FamilyMember, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT m.id, m.family_id, m.user_ref, m.role, m.points, m.active, m.created_at
		 FROM `+table+` j JOIN family_members m ON m.id = j.member_id
		 WHERE j.`+ownerCol+` = ? ORDER BY j.position`, owner)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return scanMembers(rows)
}

func setResponsible(ctx context.Context, db *sql.DB, table, ownerCol string, owner uuid.UUID, memberIDs []uuid.UUID) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+ownerCol+` = ?`, owner); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		for i, id := range memberIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO `+table+` (`+ownerCol+`, member_id, position) VALUES (?, ?, ?)`, owner, id, i)
			if err != nil {
				return fmt.Errorf("insert %s: %w", table, err)
			}
		}
		return nil
	})
}
