package domain

import "time"

// User is the minimal account record the gate needs: identity, a role
// for rate-limit resolution, and a lock flag.
type User struct {
	ID       string
	Username string
	Role     string
	Locked   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
