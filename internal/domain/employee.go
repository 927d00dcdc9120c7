package domain

import "time"

// Employee models a municipal staff member who can receive assignments.
// Each employee belongs to exactly one department.
type Employee struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Department   Category
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
