package dto

import (
	"time"

	"github.com/spec-kit/club-service/internal/domain"
)

// UserResponse is the public view of an account.
type UserResponse struct {
	ID              string      `json:"id"`
	Username        string      `json:"username"`
	Email           string      `json:"email"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	FullName        string      `json:"full_name"`
	Phone           string      `json:"phone"`
	BirthDate       *string     `json:"birth_date"`
	Address         string      `json:"address"`
	Role            domain.Role `json:"role"`
	IsActiveMember  bool        `json:"is_active_member"`
	MembershipStart time.Time   `json:"membership_start"`
	LastLogin       *time.Time  `json:"last_login"`
	CreatedAt       time.Time   `json:"created_at"`
}

// UserUpdateRequest is a partial profile update. An empty birth_date clears
// the stored value.
type UserUpdateRequest struct {
	Email          *string      `json:"email"`
	FirstName      *string      `json:"first_name"`
	LastName       *string      `json:"last_name"`
	Phone          *string      `json:"phone"`
	BirthDate      *string      `json:"birth_date"`
	Address        *string      `json:"address"`
	Role           *domain.Role `json:"role"`
	IsActiveMember *bool        `json:"is_active_member"`
}

// UserListQuery captures filters for the user listing.
type UserListQuery struct {
	Role           string `query:"role"`
	IsActiveMember string `query:"is_active_member"`
	Search         string `query:"search"`
	Ordering       string `query:"ordering"`
	Limit          int    `query:"limit"`
	Offset         int    `query:"offset"`
}
