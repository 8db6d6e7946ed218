package domain

import "time"

// User represents an authenticated account within the platform. Tokens is
// the per-user consumable credit balance, debited once per submitted job
// regardless of the job's outcome.
type User struct {
	ID        string
	Email     string
	Name      string
	Tokens    int
	CreatedAt time.Time
	UpdatedAt time.Time
}
