package models

import (
	"time"
)

// Member is a user's participation record within a point, carrying its own
// cash balance. Balance is whole currency units, signed; withdrawals are not
// floored at zero. IsSet is false until an initial balance has been
// established.
type Member struct {
	ID        int64     `db:"id"`
	PointID   int64     `db:"point_id"`
	UserID    int64     `db:"user_id"`
	Name      string    `db:"name"`
	Balance   int64     `db:"balance"`
	IsSet     bool      `db:"is_set"`
	CreatedAt time.Time `db:"created_at"`
}

// MemberDetail is a member joined with the name of its point.
type MemberDetail struct {
	Member
	PointName string `db:"point_name"`
}
