package models

import "time"

// Expense represents a single expense record owned by a user.
type Expense struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Category    string    `json:"category"` // e.g. "Food", "Transport"
	Value       float64   `json:"value"`
	Currency    string    `json:"currency"` // 3-letter code, e.g. "EUR"
	Date        time.Time `json:"date"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}
