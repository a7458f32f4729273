package domain

import "time"

// Sport is a training discipline offered by the club (boxing, MMA, BJJ...).
type Sport struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	// TrainingsCount is the number of active trainings, computed on read.
	TrainingsCount int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
