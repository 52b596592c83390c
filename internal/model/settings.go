package model

import "time"

// JobRun records the last successful fire of a background job.
type JobRun struct {
	Key      string    `json:"key"`
	LastFire time.Time `json:"last_fire"`
}
