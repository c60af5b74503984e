package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Password holds a bcrypt hash, never plaintext.
type User struct {
	ID         string
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Phone      string
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
