package models

import (
	"time"
)

// User represents a Telegram user known to the bot. The name is a cache of
// the last display name seen and is overwritten on every interaction.
type User struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
