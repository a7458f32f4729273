package domain

import (
	"fmt"
	"time"
)

// Difficulty grades a training session.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Training limits.
const (
	MinDurationMinutes     = 15
	MaxDurationMinutes     = 300
	MinParticipants        = 1
	MaxParticipants        = 50
	DefaultMaxParticipants = 20
)

// ClockLayout is the wire and storage format of Training.StartTime.
const ClockLayout = "15:04"

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Training is a scheduled session of a sport led by a coach.
type Training struct {
	ID              string
	SportID         string
	SportName       string
	CoachID         string
	CoachName       string
	Title           string
	Description     string
	Difficulty      Difficulty
	Date            time.Time
	StartTime       string
	DurationMinutes int
	MaxParticipants int
	IsActive        bool
	// EnrolledCount is the number of confirmed enrollments at read time.
	EnrolledCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsFull reports whether every seat is taken.
func (t *Training) IsFull() bool {
	return IsFull(t.MaxParticipants, t.EnrolledCount)
}

// AvailableSpots is the number of free seats, never negative.
func (t *Training) AvailableSpots() int {
	return AvailableSpots(t.MaxParticipants, t.EnrolledCount)
}

// IsFull reports whether enrolled confirmed seats reach the capacity.
func IsFull(maxParticipants, enrolled int) bool {
	return enrolled >= maxParticipants
}

// AvailableSpots returns max - enrolled clamped at zero.
func AvailableSpots(maxParticipants, enrolled int) int {
	if spots := maxParticipants - enrolled; spots > 0 {
		return spots
	}
	return 0
}

// ParseClock validates an HH:MM start time and returns it normalized.
func ParseClock(value string) (string, error) {
	parsed, err := time.Parse(ClockLayout, value)
	if err != nil {
		return "", fmt.Errorf("start_time must be HH:MM: %w", err)
	}
	return parsed.Format(ClockLayout), nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// DateOf truncates t to its calendar date in t's location, expressed as UTC
// midnight so it compares cleanly with DATE columns.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
