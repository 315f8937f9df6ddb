package models

import "time"

// Medication is a single reminder entry owned by one user scope.
// IsTaken is the only mutable field.
type Medication struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Dose      string    `json:"dose"`
	Time      string    `json:"time"` // time-of-day label, e.g. "08:00" or "after dinner"
	IsTaken   bool      `json:"is_taken"`
	CreatedAt time.Time `json:"created_at"`
}
