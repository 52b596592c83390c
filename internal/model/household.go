package model

import (
	"time"

	"github.com/google/uuid"
)

type Family struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Timezone           string    `json:"timezone"`
	LeaderboardEnabled bool      `json:"leaderboard_enabled"`
	CreatedAt          time.Time `json:"created_at"`
}
