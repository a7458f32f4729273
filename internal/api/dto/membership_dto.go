package dto

import "time"

// MembershipRequest payload for creating a membership.
type MembershipRequest struct {
	UserID    string  `json:"user_id"`
	PlanID    string  `json:"plan_id"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	IsActive  *bool   `json:"is_active"`
	AutoRenew bool    `json:"auto_renew"`
}

// MembershipUpdateRequest is a partial membership update.
type MembershipUpdateRequest struct {
	PlanID    *string `json:"plan_id"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	IsActive  *bool   `json:"is_active"`
	AutoRenew *bool   `json:"auto_renew"`
}

// MembershipListQuery captures listing filters.
type MembershipListQuery struct {
	User     string `query:"user"`
	Plan     string `query:"plan"`
	IsActive string `query:"is_active"`
	Ordering string `query:"ordering"`
	Limit    int    `query:"limit"`
	Offset   int    `query:"offset"`
}

// MembershipResponse describes a membership with its derived expiry fields.
type MembershipResponse struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	UserName      string        `json:"user_name"`
	PlanID        string        `json:"plan_id"`
	Plan          *PlanResponse `json:"plan,omitempty"`
	StartDate     string        `json:"start_date"`
	EndDate       string        `json:"end_date"`
	IsActive      bool          `json:"is_active"`
	AutoRenew     bool          `json:"auto_renew"`
	IsExpired     bool          `json:"is_expired"`
	DaysRemaining int           `json:"days_remaining"`
	CreatedAt     time.Time     `json:"created_at"`
}
