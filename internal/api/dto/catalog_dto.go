package dto

import "time"

// SportRequest payload; omitted fields are left unchanged on update.
type SportRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// SportResponse describes a sport.
type SportResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	IsActive       bool      `json:"is_active"`
	TrainingsCount int       `json:"trainings_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PlanRequest payload for membership plans.
type PlanRequest struct {
	Name                *string  `json:"name"`
	Description         *string  `json:"description"`
	Price               *float64 `json:"price"`
	DurationDays        *int     `json:"duration_days"`
	MaxTrainingsPerWeek *int     `json:"max_trainings_per_week"`
	IsActive            *bool    `json:"is_active"`
}

// PlanResponse describes a membership plan.
type PlanResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	Price               float64   `json:"price"`
	DurationDays        int       `json:"duration_days"`
	MaxTrainingsPerWeek int       `json:"max_trainings_per_week"`
	IsActive            bool      `json:"is_active"`
	MembersCount        int       `json:"members_count"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
