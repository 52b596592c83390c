package model

import (
	"time"

	"github.com/google/uuid"
)

type SpotType string

const (
	SpotPet  SpotType = "pet"
	SpotArea SpotType = "area"
)

// DefaultMood is the score of an entity nothing has come due for yet.
const DefaultMood = 100

type Spot struct {
	ID        uuid.UUID `json:"id"`
	FamilyID  uuid.UUID `json:"family_id"`
	Type      SpotType  `json:"type"`
	Name      string    `json:"name"`
	MoodScore int       `json:"mood_score"`
	CreatedAt time.Time `json:"created_at"`
}

type Pet struct {
	ID        uuid.UUID `json:"id"`
	FamilyID  uuid.UUID `json:"family_id"`
	Name      string    `json:"name"`
	MoodScore int       `json:"mood_score"`
	CreatedAt time.Time `json:"created_at"`
}

// SpotWithFamily is the spot query shape used for assignment: the spot, its
// family, and the members responsible for it.
type SpotWithFamily struct {
	Spot        Spot
	Family      Family
	Responsible []FamilyMember
}
