package models

import (
	"time"
)

// Point represents a physical cash-handling location. The name doubles as a
// human-facing key; the owner is the only user who can approve join requests.
type Point struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	OwnerID   int64     `db:"owner_id"`
	CreatedAt time.Time `db:"created_at"`
}
