package models

import (
	"time"
)

// User is the authenticated session identity.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	City  string `json:"city,omitempty"`
}

// Account is a stored credential; it never enters the session state.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	City         string    `json:"city,omitempty"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a Account) User() User {
	return User{ID: a.ID, Name: a.Name, Email: a.Email, City: a.City}
}

// CancellationCounter tracks cancellations toward a temporary suspension.
type CancellationCounter struct {
	Count          int        `json:"count"`
	SuspendedUntil *time.Time `json:"suspended_until,omitempty"`
}

// BillingPeriod is the monthly plan state, reset when the calendar month changes.
type BillingPeriod struct {
	Month      string     `json:"month"` // YYYY-MM
	Paid       bool       `json:"paid"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	AmountPaid float64    `json:"amount_paid"`
}
