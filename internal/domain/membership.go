package domain

import "time"

// MembershipPlan is a subscription tier (bronze, silver, gold...).
type MembershipPlan struct {
	ID                  string
	Name                string
	Description         string
	Price               float64
	DurationDays        int
	MaxTrainingsPerWeek int
	IsActive            bool
	// MembersCount is the number of active memberships on the plan.
	MembersCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Membership is one user's subscription to a plan over [StartDate, EndDate].
type Membership struct {
	ID        string
	UserID    string
	UserName  string
	PlanID    string
	Plan      *MembershipPlan
	StartDate time.Time
	EndDate   time.Time
	IsActive  bool
	AutoRenew bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpired reports whether today is past the end date. It ignores IsActive.
func (m *Membership) IsExpired(today time.Time) bool {
	return DateOf(today).After(DateOf(m.EndDate))
}

// DaysRemaining counts whole days until the end date, zero once expired.
func (m *Membership) DaysRemaining(today time.Time) int {
	if m.IsExpired(today) {
		return 0
	}
	return int(DateOf(m.EndDate).Sub(DateOf(today)).Hours() / 24)
}
