package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// JobRunStore keeps the last successful fire of each background job.
type JobRunStore struct {
	db *sql.DB
}

func NewJobRunStore(db *sql.DB) *JobRunStore {
	return &JobRunStore{db: db}
}

// LastFire returns nil when the job has never completed a run.
func (s *JobRunStore) LastFire(ctx context.Context, key string) (*time.Time, error) {
	var ms int64
	err := s.db.QueryRowContext(ctx, `SELECT last_fire FROM job_runs WHERE key = ?`, key).Scan(&ms)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last fire %q: %w", key, err)
	}
	t := fromMillis(ms)
	return &t, nil
}

func (s *JobRunStore) SetLastFire(ctx context.Context, key string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_runs (key, last_fire) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET last_fire = excluded.last_fire`,
		key, millis(at),
	)
	if err != nil {
		return fmt.Errorf("set last fire %q: %w", key, err)
	}
	return nil
}
