package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered      EventType = "user_registered"
	EventEnrollmentConfirmed EventType = "enrollment_confirmed"
	EventEnrollmentCancelled EventType = "enrollment_cancelled"
	EventAttendanceMarked    EventType = "attendance_marked"
	EventTrainingDeactivated EventType = "training_deactivated"
	EventMembershipCreated   EventType = "membership_created"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// EnrollmentPayload is shared by confirmed and cancelled events.
type EnrollmentPayload struct {
	EnrollmentID  string    `json:"enrollment_id"`
	UserID        string    `json:"user_id"`
	TrainingID    string    `json:"training_id"`
	TrainingTitle string    `json:"training_title"`
	Date          time.Time `json:"date"`
	StartTime     string    `json:"start_time"`
}

// AttendanceMarkedPayload payload.
type AttendanceMarkedPayload struct {
	EnrollmentID string `json:"enrollment_id"`
	UserID       string `json:"user_id"`
	TrainingID   string `json:"training_id"`
	Attended     bool   `json:"attended"`
}

// TrainingDeactivatedPayload payload.
type TrainingDeactivatedPayload struct {
	TrainingID string `json:"training_id"`
	Title      string `json:"title"`
	Reason     string `json:"reason"`
}

// MembershipCreatedPayload payload.
type MembershipCreatedPayload struct {
	MembershipID string    `json:"membership_id"`
	UserID       string    `json:"user_id"`
	PlanName     string    `json:"plan_name"`
	EndDate      time.Time `json:"end_date"`
}
