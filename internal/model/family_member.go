package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleAdult Role = "adult"
	RoleChild Role = "child"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAdult, RoleChild:
		return true
	}
	return false
}

// FamilyMember is a user's membership in one family. Members are deactivated,
// never deleted, so completion history keeps pointing at them.
type FamilyMember struct {
	ID        uuid.UUID `json:"id"`
	FamilyID  uuid.UUID `json:"family_id"`
	UserRef   string    `json:"user_ref"`
	Role      Role      `json:"role"`
	Points    int       `json:"points"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ActiveMembers returns the active members of ms, preserving order.
func ActiveMembers(ms []FamilyMember) []FamilyMember {
	var out []FamilyMember
	for _, m := range ms {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}
