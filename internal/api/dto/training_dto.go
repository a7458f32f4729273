package dto

import (
	"time"

	"github.com/spec-kit/club-service/internal/domain"
)

// TrainingRequest payload; omitted fields are left unchanged on update.
type TrainingRequest struct {
	SportID         *string            `json:"sport_id"`
	CoachID         *string            `json:"coach_id"`
	Title           *string            `json:"title"`
	Description     *string            `json:"description"`
	Difficulty      *domain.Difficulty `json:"difficulty"`
	Date            *string            `json:"date"`
	StartTime       *string            `json:"start_time"`
	Duration        *int               `json:"duration"`
	MaxParticipants *int               `json:"max_participants"`
	IsActive        *bool              `json:"is_active"`
}

// TrainingListQuery captures listing filters.
type TrainingListQuery struct {
	Sport      string `query:"sport"`
	Coach      string `query:"coach"`
	Difficulty string `query:"difficulty"`
	Date       string `query:"date"`
	Search     string `query:"search"`
	Ordering   string `query:"ordering"`
	Limit      int    `query:"limit"`
	Offset     int    `query:"offset"`
}

// TrainingResponse describes a training with its derived capacity fields.
type TrainingResponse struct {
	ID              string            `json:"id"`
	SportID         string            `json:"sport_id"`
	SportName       string            `json:"sport_name"`
	CoachID         string            `json:"coach_id"`
	CoachName       string            `json:"coach_name"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Difficulty      domain.Difficulty `json:"difficulty"`
	Date            string            `json:"date"`
	StartTime       string            `json:"start_time"`
	Duration        int               `json:"duration"`
	MaxParticipants int               `json:"max_participants"`
	EnrolledCount   int               `json:"enrolled_count"`
	IsFull          bool              `json:"is_full"`
	AvailableSpots  int               `json:"available_spots"`
	IsEnrolled      *bool             `json:"is_enrolled,omitempty"`
	IsActive        bool              `json:"is_active"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// EnrollmentResponse describes one enrollment.
type EnrollmentResponse struct {
	ID         string                  `json:"id"`
	UserID     string                  `json:"user_id"`
	UserName   string                  `json:"user_name,omitempty"`
	TrainingID string                  `json:"training_id"`
	Training   *TrainingResponse       `json:"training,omitempty"`
	Status     domain.EnrollmentStatus `json:"status"`
	Attended   bool                    `json:"attended"`
	Notes      string                  `json:"notes"`
	EnrolledAt time.Time               `json:"enrolled_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// AttendanceRequest payload for marking attendance.
type AttendanceRequest struct {
	Attended *bool `json:"attended"`
}
