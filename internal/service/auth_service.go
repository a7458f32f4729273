package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/club-service/internal/auth"
	"github.com/spec-kit/club-service/internal/config"
	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/events"
	"github.com/spec-kit/club-service/internal/repository"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

// AuthService coordinates registration, login and password flows.
type AuthService struct {
	users       repository.UserRepository
	resets      repository.PasswordResetRepository
	tx          repository.Transactor
	tokens      *auth.TokenManager
	revocations auth.RevocationStore
	mailer      Mailer
	events      publisher
	logger      *zap.Logger
	now         func() time.Time

	bcryptCost     int
	minPasswordLen int
	resetTTL       time.Duration
	publicBaseURL  string
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Transactor        repository.Transactor
	Tokens            *auth.TokenManager
	Revocations       auth.RevocationStore
	Mailer            Mailer
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
	Now               func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := loggerOrNop(deps.Logger)
	now := clockOrNow(deps.Now)
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	}
	minLen := cfg.Auth.MinPasswordLength
	if minLen <= 0 {
		minLen = 8
	}
	return &AuthService{
		users:          deps.UserRepo,
		resets:         deps.PasswordResetRepo,
		tx:             deps.Transactor,
		tokens:         tokens,
		revocations:    deps.Revocations,
		mailer:         deps.Mailer,
		events:         publisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
		logger:         logger,
		now:            now,
		bcryptCost:     cfg.Auth.BcryptCost,
		minPasswordLen: minLen,
		resetTTL:       cfg.Auth.PasswordResetTTL(),
		publicBaseURL:  cfg.App.PublicBaseURL,
	}
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
	Phone           string
	BirthDate       *time.Time
	Address         string
}

// Register creates a member account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, auth.IssuedToken, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	v := fieldErrors{}
	v.check(in.Username != "", "username", "this field is required")
	v.check(len(in.Username) <= 150, "username", "ensure this field has no more than 150 characters")
	v.check(in.Email != "", "email", "this field is required")
	v.check(in.Email == "" || validEmail(in.Email), "email", "enter a valid email address")
	v.check(strings.TrimSpace(in.FirstName) != "", "first_name", "this field is required")
	v.check(strings.TrimSpace(in.LastName) != "", "last_name", "this field is required")
	v.check(len(in.Phone) <= 15, "phone", "ensure this field has no more than 15 characters")
	s.checkPassword(v, "password", in.Password, "password_confirm", in.PasswordConfirm)
	if err := v.err(); err != nil {
		return nil, auth.IssuedToken{}, err
	}

	if err := s.ensureUnique(ctx, in.Username, in.Email); err != nil {
		return nil, auth.IssuedToken{}, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, auth.IssuedToken{}, err
	}

	user := &domain.User{
		Username:       in.Username,
		Email:          in.Email,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Phone:          strings.TrimSpace(in.Phone),
		BirthDate:      in.BirthDate,
		Address:        strings.TrimSpace(in.Address),
		PasswordHash:   hash,
		Role:           domain.RoleMember,
		IsActiveMember: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, auth.IssuedToken{}, constraintConflict(err)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, auth.IssuedToken{}, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	s.events.publish(ctx, user.ID, events.EventUserRegistered, events.UserRegisteredPayload{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
	return user, token, nil
}

func (s *AuthService) ensureUnique(ctx context.Context, username, email string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return apperrors.NewConflict("a user with this username already exists",
			map[string]any{"username": "a user with this username already exists"})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return apperrors.NewConflict("a user with this email already exists",
			map[string]any{"email": "a user with this email already exists"})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// Login authenticates by username and password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, auth.IssuedToken, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.IssuedToken{}, apperrors.NewUnauthorized("invalid username or password")
		}
		return nil, auth.IssuedToken{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, auth.IssuedToken{}, apperrors.NewUnauthorized("invalid username or password")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, auth.IssuedToken{}, err
	}
	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("update last login failed", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		now := s.now()
		user.LastLogin = &now
	}
	return user, token, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if s.revocations == nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RequestPasswordReset issues a reset token and mails the link. The mail is
// sent before returning; delivery failures surface as internal errors.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !validEmail(email) {
		return apperrors.NewFieldError("email", "enter a valid email address")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewFieldError("email", "no user is registered with this email")
		}
		return err
	}

	token := &domain.PasswordResetToken{
		UserID:    user.ID,
		Token:     auth.NewResetToken(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password/%s", s.publicBaseURL, token.Token)
	body := fmt.Sprintf("Hello %s!\n\nUse this link to reset your password:\n%s\n\nThe link is valid for %s.",
		user.FullName(), link, s.resetTTL)
	if err := s.mailer.Send(ctx, user.Email, "Password reset", body); err != nil {
		s.logger.Error("password reset mail failed", zap.String("user_id", user.ID), zap.Error(err))
		return apperrors.NewInternalError(err)
	}
	return nil
}

// ConfirmPasswordReset redeems a reset token and sets the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, password, confirm string) error {
	v := fieldErrors{}
	v.check(strings.TrimSpace(tokenStr) != "", "token", "this field is required")
	s.checkPassword(v, "password", password, "password_confirm", confirm)
	if err := v.err(); err != nil {
		return err
	}

	invalid := apperrors.NewFieldError("token", "invalid or expired token")
	token, err := s.resets.GetByToken(ctx, strings.TrimSpace(tokenStr))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid
		}
		return err
	}
	if !token.Valid(s.now()) {
		return invalid
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context, store *repository.Store) error {
		// the conditional update makes concurrent redemptions of one token lose
		if err := store.PasswordResets.MarkUsed(ctx, token.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid
			}
			return err
		}
		user, err := store.Users.GetByID(ctx, token.UserID)
		if err != nil {
			return notFoundAs(err, "user")
		}
		user.PasswordHash = hash
		return store.Users.Update(ctx, user)
	})
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, caller *domain.User, oldPassword, newPassword, confirm string) error {
	if caller == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	v := fieldErrors{}
	v.check(oldPassword != "", "old_password", "this field is required")
	s.checkPassword(v, "new_password", newPassword, "new_password_confirm", confirm)
	if err := v.err(); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return notFoundAs(err, "user")
	}
	if err := auth.ComparePassword(user.PasswordHash, oldPassword); err != nil {
		return apperrors.NewFieldError("old_password", "old password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

func (s *AuthService) checkPassword(v fieldErrors, field, password, confirmField, confirm string) {
	v.check(password != "", field, "this field is required")
	v.check(len(password) >= s.minPasswordLen, field,
		fmt.Sprintf("ensure this field has at least %d characters", s.minPasswordLen))
	v.check(password == confirm, confirmField, "passwords do not match")
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}
