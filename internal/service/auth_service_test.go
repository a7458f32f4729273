package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/club-service/internal/auth"
	"github.com/spec-kit/club-service/internal/config"
	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/repository/repotest"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

type authFixture struct {
	db      *repotest.DB
	svc     *AuthService
	mailer  *mockMailer
	revoked *auth.MemoryRevocationStore
	clock   time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := config.Config{
		App: config.AppConfig{PublicBaseURL: "https://club.test"},
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 60,
			BcryptCost:              4,
			MinPasswordLength:       8,
		},
	}
	f := &authFixture{
		db:      repotest.New(),
		mailer:  &mockMailer{},
		revoked: auth.NewMemoryRevocationStore(),
		clock:   testNow,
	}
	store := f.db.Store()
	f.svc = NewAuthService(cfg, AuthDependencies{
		UserRepo:          store.Users,
		PasswordResetRepo: store.PasswordResets,
		Transactor:        f.db,
		Revocations:       f.revoked,
		Mailer:            f.mailer,
		Now:               func() time.Time { return f.clock },
	})
	return f
}

func (f *authFixture) register(t *testing.T, username string) *domain.User {
	t.Helper()
	user, _, err := f.svc.Register(context.Background(), RegisterInput{
		Username:        username,
		Email:           username + "@club.test",
		Password:        "s3cret-pass",
		PasswordConfirm: "s3cret-pass",
		FirstName:       "Ana",
		LastName:        "Lee",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterCreatesMember(t *testing.T) {
	f := newAuthFixture(t)
	user, token, err := f.svc.Register(context.Background(), RegisterInput{
		Username:        "ana",
		Email:           "ana@club.test",
		Password:        "s3cret-pass",
		PasswordConfirm: "s3cret-pass",
		FirstName:       " Ana ",
		LastName:        "Lee",
	})
	require.NoError(t, err)
	require.Equal(t, domain.RoleMember, user.Role)
	require.True(t, user.IsActiveMember)
	require.Equal(t, "Ana", user.FirstName)
	require.NotEqual(t, "s3cret-pass", user.PasswordHash)

	claims, err := f.svc.TokenManager().ParseToken(token.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, domain.RoleMember, claims.Role)
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(t)
	_, _, err := f.svc.Register(context.Background(), RegisterInput{
		Username:        "ana",
		Email:           "not-an-email",
		Password:        "short",
		PasswordConfirm: "other",
	})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	details := apperrors.ToDomainError(err).Details
	for _, field := range []string{"email", "password", "password_confirm", "first_name", "last_name"} {
		require.Contains(t, details, field)
	}
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana")

	_, _, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "ana", Email: "other@club.test",
		Password: "s3cret-pass", PasswordConfirm: "s3cret-pass",
		FirstName: "A", LastName: "B",
	})
	require.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	require.Contains(t, apperrors.ToDomainError(err).Details, "username")

	_, _, err = f.svc.Register(context.Background(), RegisterInput{
		Username: "ana2", Email: "ANA@club.test",
		Password: "s3cret-pass", PasswordConfirm: "s3cret-pass",
		FirstName: "A", LastName: "B",
	})
	require.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	require.Contains(t, apperrors.ToDomainError(err).Details, "email")
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana")

	user, token, err := f.svc.Login(context.Background(), "ana", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)
	require.NotNil(t, user.LastLogin)

	_, _, err = f.svc.Login(context.Background(), "ana", "wrong-pass")
	require.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, _, err = f.svc.Login(context.Background(), "nobody", "s3cret-pass")
	require.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana")
	_, token, err := f.svc.Login(context.Background(), "ana", "s3cret-pass")
	require.NoError(t, err)

	claims, err := f.svc.TokenManager().ParseToken(token.Token)
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(context.Background(), claims))

	revoked, err := f.revoked.IsRevoked(context.Background(), claims.ID)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "ana")

	var body string
	f.mailer.On("Send", mock.Anything, "ana@club.test", "Password reset", mock.Anything).
		Run(func(args mock.Arguments) { body = args.String(3) }).
		Return(nil).Once()

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "ana@club.test"))
	f.mailer.AssertExpectations(t)

	require.Len(t, f.db.Resets, 1)
	var token string
	for _, r := range f.db.Resets {
		token = r.Token
		require.Equal(t, user.ID, r.UserID)
		require.Equal(t, testNow.Add(time.Hour), r.ExpiresAt)
	}
	require.True(t, strings.Contains(body, "https://club.test/reset-password/"+token))

	err := f.svc.ConfirmPasswordReset(context.Background(), token, "new-pass-123", "mismatch")
	require.Contains(t, apperrors.ToDomainError(err).Details, "password_confirm")

	require.NoError(t, f.svc.ConfirmPasswordReset(context.Background(), token, "new-pass-123", "new-pass-123"))
	_, _, err = f.svc.Login(context.Background(), "ana", "new-pass-123")
	require.NoError(t, err)

	err = f.svc.ConfirmPasswordReset(context.Background(), token, "another-pass", "another-pass")
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	require.Contains(t, apperrors.ToDomainError(err).Details, "token")
}

func TestPasswordResetExpires(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana")
	f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "ana@club.test"))

	var token string
	for _, r := range f.db.Resets {
		token = r.Token
	}
	f.clock = testNow.Add(61 * time.Minute)
	err := f.svc.ConfirmPasswordReset(context.Background(), token, "new-pass-123", "new-pass-123")
	require.Contains(t, apperrors.ToDomainError(err).Details, "token")
}

func TestPasswordResetUnknownEmailAndMailFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana")

	err := f.svc.RequestPasswordReset(context.Background(), "ghost@club.test")
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	err = f.svc.RequestPasswordReset(context.Background(), "ana@club.test")
	require.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "ana")

	err := f.svc.ChangePassword(context.Background(), user, "wrong-pass", "new-pass-123", "new-pass-123")
	require.Contains(t, apperrors.ToDomainError(err).Details, "old_password")

	err = f.svc.ChangePassword(context.Background(), user, "s3cret-pass", "new-pass-123", "nope")
	require.Contains(t, apperrors.ToDomainError(err).Details, "new_password_confirm")

	require.NoError(t, f.svc.ChangePassword(context.Background(), user, "s3cret-pass", "new-pass-123", "new-pass-123"))
	_, _, err = f.svc.Login(context.Background(), "ana", "s3cret-pass")
	require.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}
