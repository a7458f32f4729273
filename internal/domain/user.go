package domain

import (
	"strings"
	"time"
)

// Role is the club-level role of a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleCoach  Role = "coach"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoach, RoleMember:
		return true
	}
	return false
}

// User is a club account: administrators, coaches and members alike.
type User struct {
	ID              string
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Phone           string
	BirthDate       *time.Time
	Address         string
	PasswordHash    string
	Role            Role
	IsActiveMember  bool
	MembershipStart time.Time
	LastLogin       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullName falls back to the username when no name is set.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// IsAdmin is false for a nil user.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// IsCoach is false for a nil user.
func (u *User) IsCoach() bool { return u != nil && u.Role == RoleCoach }

// IsMember is false for a nil user.
func (u *User) IsMember() bool { return u != nil && u.Role == RoleMember }

// CanCoach reports whether the user may own trainings.
func (u *User) CanCoach() bool { return u.IsAdmin() || u.IsCoach() }
