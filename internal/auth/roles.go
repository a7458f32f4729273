package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/club-service/internal/domain"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

// IsAuthenticated reports whether a caller is present.
func IsAuthenticated(u *domain.User) bool { return u != nil }

// IsAdmin reports whether the caller has the admin role.
func IsAdmin(u *domain.User) bool { return u.IsAdmin() }

// IsAdminOrCoach reports whether the caller may run trainings.
func IsAdminOrCoach(u *domain.User) bool { return u.IsAdmin() || u.IsCoach() }

// IsOwnerOrAdmin grants access to the owner of a record or to any admin.
func IsOwnerOrAdmin(u *domain.User, ownerID string) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin() || (ownerID != "" && u.ID == ownerID)
}

// Operation names a gated action.
type Operation string

const (
	OpViewCatalog             Operation = "catalog:view"
	OpManageSports            Operation = "sports:manage"
	OpManagePlans             Operation = "plans:manage"
	OpViewTrainings           Operation = "trainings:view"
	OpManageTrainings         Operation = "trainings:manage"
	OpViewOwnTrainings        Operation = "trainings:view-own"
	OpEnroll                  Operation = "enrollments:enroll"
	OpViewOwnEnrollments      Operation = "enrollments:view-own"
	OpViewTrainingEnrollments Operation = "enrollments:view-training"
	OpMarkAttendance          Operation = "enrollments:attendance"
	OpViewOwnMembership       Operation = "memberships:view-own"
	OpManageMemberships       Operation = "memberships:manage"
	OpListUsers               Operation = "users:list"
	OpChangeRole              Operation = "users:change-role"
	OpManageProfile           Operation = "users:profile"
	OpLogout                  Operation = "auth:logout"
)

var policy = map[Operation]func(*domain.User) bool{
	OpViewCatalog:             IsAuthenticated,
	OpManageSports:            IsAdmin,
	OpManagePlans:             IsAdmin,
	OpViewTrainings:           IsAuthenticated,
	OpManageTrainings:         IsAdminOrCoach,
	OpViewOwnTrainings:        IsAdminOrCoach,
	OpEnroll:                  IsAuthenticated,
	OpViewOwnEnrollments:      IsAuthenticated,
	OpViewTrainingEnrollments: IsAdminOrCoach,
	OpMarkAttendance:          IsAdminOrCoach,
	OpViewOwnMembership:       IsAuthenticated,
	OpManageMemberships:       IsAdmin,
	OpListUsers:               IsAdmin,
	OpChangeRole:              IsAdmin,
	OpManageProfile:           IsAuthenticated,
	OpLogout:                  IsAuthenticated,
}

// Allowed reports whether caller may perform op. Unknown operations are
// denied.
func Allowed(caller *domain.User, op Operation) bool {
	check, ok := policy[op]
	return ok && check(caller)
}

// Require rejects callers the policy denies op.
func Require(op Operation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !Allowed(user, op) {
			return apperrors.NewForbidden("you do not have permission to perform this action")
		}
		return c.Next()
	}
}

// RequireOwnerOrAdmin gates routes whose path parameter names the owning
// user.
func RequireOwnerOrAdmin(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !IsOwnerOrAdmin(user, c.Params(param)) {
			return apperrors.NewForbidden("you do not have permission to perform this action")
		}
		return c.Next()
	}
}
