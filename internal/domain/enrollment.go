package domain

import "time"

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentConfirmed EnrollmentStatus = "confirmed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
	EnrollmentCompleted EnrollmentStatus = "completed"
)

// ActiveEnrollmentStatuses hold a user's place on a training.
var ActiveEnrollmentStatuses = []EnrollmentStatus{EnrollmentPending, EnrollmentConfirmed}

// IsActive reports whether the status holds the (user, training) slot.
func (s EnrollmentStatus) IsActive() bool {
	return s == EnrollmentPending || s == EnrollmentConfirmed
}

// Valid reports whether s is a known status.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentPending, EnrollmentConfirmed, EnrollmentCancelled, EnrollmentCompleted:
		return true
	}
	return false
}

// Enrollment links a user to one seat of a training.
type Enrollment struct {
	ID         string
	UserID     string
	TrainingID string
	Status     EnrollmentStatus
	Attended   bool
	Notes      string
	EnrolledAt time.Time
	UpdatedAt  time.Time
}

// EnrollmentDetail is an enrollment joined with user and training data for
// listings.
type EnrollmentDetail struct {
	Enrollment
	UserName string
	Training Training
}
