package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/club-service/internal/auth"
	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/repository"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

// UserService manages club accounts.
type UserService struct {
	users  repository.UserRepository
	tx     repository.Transactor
	logger *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, tx repository.Transactor, logger *zap.Logger) *UserService {
	return &UserService{users: users, tx: tx, logger: loggerOrNop(logger)}
}

// UserUpdateInput is a partial profile update; nil fields are left alone.
type UserUpdateInput struct {
	Email          *string
	FirstName      *string
	LastName       *string
	Phone          *string
	BirthDate      *time.Time
	ClearBirthDate bool
	Address        *string
	Role           *domain.Role
	IsActiveMember *bool
}

// List returns users for administrators.
func (s *UserService) List(ctx context.Context, caller *domain.User, filter repository.UserFilter) ([]domain.User, error) {
	if !auth.Allowed(caller, auth.OpListUsers) {
		return nil, apperrors.NewForbidden("only administrators can list users")
	}
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, apperrors.NewFieldError("role", "unknown role")
	}
	return s.users.List(ctx, filter)
}

// Get returns a user visible to caller.
func (s *UserService) Get(ctx context.Context, caller *domain.User, id string) (*domain.User, error) {
	if !auth.IsOwnerOrAdmin(caller, id) {
		return nil, apperrors.NewForbidden("you do not have permission to view this user")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}
	return user, nil
}

// Update applies a profile patch. Role and membership flag changes need an
// administrator.
func (s *UserService) Update(ctx context.Context, caller *domain.User, id string, in UserUpdateInput) (*domain.User, error) {
	if !auth.IsOwnerOrAdmin(caller, id) {
		return nil, apperrors.NewForbidden("you do not have permission to edit this user")
	}
	if (in.Role != nil || in.IsActiveMember != nil) && !auth.Allowed(caller, auth.OpChangeRole) {
		return nil, apperrors.NewForbidden("only administrators can change roles or membership status")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}

	v := fieldErrors{}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		v.check(validEmail(email), "email", "enter a valid email address")
		user.Email = email
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
		v.check(len(user.Phone) <= 15, "phone", "ensure this field has no more than 15 characters")
	}
	if in.BirthDate != nil {
		user.BirthDate = in.BirthDate
	} else if in.ClearBirthDate {
		user.BirthDate = nil
	}
	if in.Address != nil {
		user.Address = strings.TrimSpace(*in.Address)
	}
	if in.Role != nil {
		v.check(in.Role.Valid(), "role", "unknown role")
		user.Role = *in.Role
	}
	if in.IsActiveMember != nil {
		user.IsActiveMember = *in.IsActiveMember
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, constraintConflict(notFoundAs(err, "user"))
	}
	return user, nil
}

// Delete removes a user together with everything that references it.
func (s *UserService) Delete(ctx context.Context, caller *domain.User, id string) error {
	if !auth.IsOwnerOrAdmin(caller, id) {
		return apperrors.NewForbidden("you do not have permission to delete this user")
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context, store *repository.Store) error {
		if _, err := store.Users.GetByID(ctx, id); err != nil {
			return notFoundAs(err, "user")
		}
		own, err := store.Enrollments.DeleteByUser(ctx, id)
		if err != nil {
			return err
		}
		onTrainings, err := store.Enrollments.DeleteByCoach(ctx, id)
		if err != nil {
			return err
		}
		trainings, err := store.Trainings.DeleteByCoach(ctx, id)
		if err != nil {
			return err
		}
		memberships, err := store.Memberships.DeleteByUser(ctx, id)
		if err != nil {
			return err
		}
		if err := store.PasswordResets.DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := store.Users.Delete(ctx, id); err != nil {
			return notFoundAs(err, "user")
		}
		s.logger.Info("user deleted",
			zap.String("user_id", id),
			zap.String("actor_id", caller.ID),
			zap.Int64("enrollments", own+onTrainings),
			zap.Int64("trainings", trainings),
			zap.Int64("memberships", memberships))
		return nil
	})
}
