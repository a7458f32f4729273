package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/club-service/internal/api/http/handlers"
	"github.com/spec-kit/club-service/internal/auth"
	"github.com/spec-kit/club-service/internal/config"
	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/observability"
	"github.com/spec-kit/club-service/internal/repository/repotest"
	"github.com/spec-kit/club-service/internal/service"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type nopMailer struct{}

func (nopMailer) Send(context.Context, string, string, string) error { return nil }

type testServer struct {
	app     *fiber.App
	db      *repotest.DB
	tokens  *auth.TokenManager
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, health map[string]handlers.Pinger) *testServer {
	t.Helper()
	db := repotest.New()
	store := db.Store()
	clock := func() time.Time { return testNow }
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	revocations := auth.NewMemoryRevocationStore()
	metrics := observability.NewMetrics()
	logger := zap.NewNop()

	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, PasswordResetTTLMinutes: 60,
		BcryptCost: 4, MinPasswordLength: 8,
	}}
	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:          store.Users,
		PasswordResetRepo: store.PasswordResets,
		Transactor:        db,
		Tokens:            tokens,
		Revocations:       revocations,
		Mailer:            nopMailer{},
		Now:               clock,
	})
	enrollments := service.NewEnrollmentService(service.EnrollmentDependencies{
		TrainingRepo:   store.Trainings,
		EnrollmentRepo: store.Enrollments,
		Transactor:     db,
		Recorder:       metrics,
		Now:            clock,
	})
	trainings := service.NewTrainingService(service.TrainingDependencies{
		TrainingRepo:   store.Trainings,
		SportRepo:      store.Sports,
		UserRepo:       store.Users,
		EnrollmentRepo: store.Enrollments,
		Transactor:     db,
		Now:            clock,
	})
	memberships := service.NewMembershipService(service.MembershipDependencies{
		MembershipRepo: store.Memberships,
		PlanRepo:       store.Plans,
		UserRepo:       store.Users,
		Now:            clock,
	})
	catalog := service.NewCatalogService(service.CatalogDependencies{
		SportRepo: store.Sports, PlanRepo: store.Plans, Transactor: db,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, metrics)})
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("club-service", "test", health),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(service.NewUserService(store.Users, db, logger)),
		Catalog:        handlers.NewCatalogHandler(catalog),
		Trainings:      handlers.NewTrainingsHandler(trainings, enrollments),
		Enrollments:    handlers.NewEnrollmentsHandler(enrollments),
		Memberships:    handlers.NewMembershipsHandler(memberships),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Users, revocations, logger),
	})
	return &testServer{app: app, db: db, tokens: tokens, metrics: metrics}
}

// user seeds an account and returns a bearer token for it.
func (s *testServer) user(t *testing.T, username string, role domain.Role) (*domain.User, string) {
	t.Helper()
	hash, err := auth.HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	u := &domain.User{
		Username: username, Email: username + "@club.test", FirstName: username,
		PasswordHash: hash, Role: role, IsActiveMember: true,
	}
	require.NoError(t, s.db.Store().Users.Create(context.Background(), u))
	issued, err := s.tokens.GenerateToken(u.ID, u.Role)
	require.NoError(t, err)
	return u, issued.Token
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealthProbes(t *testing.T) {
	healthy := newTestServer(t, map[string]handlers.Pinger{
		"postgres": pingerFunc(func(context.Context) error { return nil }),
	})
	status, _ := healthy.do(t, fiber.MethodGet, "/health/live", "", nil)
	require.Equal(t, nethttp.StatusOK, status)
	status, _ = healthy.do(t, fiber.MethodGet, "/health/ready", "", nil)
	require.Equal(t, nethttp.StatusOK, status)

	degraded := newTestServer(t, map[string]handlers.Pinger{
		"redis": pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	status, env := degraded.do(t, fiber.MethodGet, "/health/ready", "", nil)
	require.Equal(t, nethttp.StatusServiceUnavailable, status)
	require.Equal(t, "DEPENDENCY_UNAVAILABLE", env.Error.Code)
	require.Equal(t, "connection refused", env.Error.Details["redis"])
}

func TestAuthenticationAndRoleGates(t *testing.T) {
	s := newTestServer(t, nil)
	_, member := s.user(t, "member", domain.RoleMember)

	status, env := s.do(t, fiber.MethodGet, "/api/sports", "", nil)
	require.Equal(t, nethttp.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = s.do(t, fiber.MethodGet, "/api/sports", "not-a-jwt", nil)
	require.Equal(t, nethttp.StatusUnauthorized, status)

	status, env = s.do(t, fiber.MethodPost, "/api/sports", member, map[string]any{"name": "Judo"})
	require.Equal(t, nethttp.StatusForbidden, status)
	require.Equal(t, "FORBIDDEN", env.Error.Code)

	status, _ = s.do(t, fiber.MethodGet, "/api/trainings/my-trainings", member, nil)
	require.Equal(t, nethttp.StatusForbidden, status)

	status, _ = s.do(t, fiber.MethodGet, "/api/auth/users", member, nil)
	require.Equal(t, nethttp.StatusForbidden, status)

	status, env = s.do(t, fiber.MethodGet, "/api/trainings/not-a-uuid", member, nil)
	require.Equal(t, nethttp.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestRegisterLoginLogout(t *testing.T) {
	s := newTestServer(t, nil)

	status, env := s.do(t, fiber.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "ana", "email": "ana@club.test",
		"password": "s3cret-pass", "password_confirm": "s3cret-pass",
		"first_name": "Ana", "last_name": "Lee", "birth_date": "1995-04-12",
	})
	require.Equal(t, nethttp.StatusCreated, status)
	registered := decode[struct {
		User struct {
			Role      string `json:"role"`
			BirthDate string `json:"birth_date"`
		} `json:"user"`
	}](t, env)
	require.Equal(t, "member", registered.User.Role)
	require.Equal(t, "1995-04-12", registered.User.BirthDate)

	status, env = s.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]any{"username": "ana", "password": "wrong-pass"})
	require.Equal(t, nethttp.StatusUnauthorized, status)

	status, env = s.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]any{"username": "ana", "password": "s3cret-pass"})
	require.Equal(t, nethttp.StatusOK, status)
	token := decode[struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}](t, env).Auth.Token

	status, env = s.do(t, fiber.MethodGet, "/api/auth/users/me", token, nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, "ana", decode[struct {
		Username string `json:"username"`
	}](t, env).Username)

	status, _ = s.do(t, fiber.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, nethttp.StatusOK, status)
	status, _ = s.do(t, fiber.MethodGet, "/api/auth/users/me", token, nil)
	require.Equal(t, nethttp.StatusUnauthorized, status)
}

func TestRegisterValidationEnvelope(t *testing.T) {
	s := newTestServer(t, nil)
	status, env := s.do(t, fiber.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "ana", "email": "ana@club.test", "password": "short", "password_confirm": "other",
	})
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	require.Contains(t, env.Error.Details, "password")
	require.Contains(t, env.Error.Details, "password_confirm")
}

type trainingBody struct {
	ID             string `json:"id"`
	EnrolledCount  int    `json:"enrolled_count"`
	IsFull         bool   `json:"is_full"`
	AvailableSpots int    `json:"available_spots"`
	IsEnrolled     *bool  `json:"is_enrolled"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
}

func TestEnrollmentOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	_, admin := s.user(t, "admin", domain.RoleAdmin)
	_, coach := s.user(t, "coach", domain.RoleCoach)
	_, first := s.user(t, "first", domain.RoleMember)
	_, second := s.user(t, "second", domain.RoleMember)

	status, env := s.do(t, fiber.MethodPost, "/api/sports", admin, map[string]any{"name": "Boxing"})
	require.Equal(t, nethttp.StatusCreated, status)
	sportID := decode[struct {
		ID string `json:"id"`
	}](t, env).ID

	status, env = s.do(t, fiber.MethodPost, "/api/trainings", coach, map[string]any{
		"sport_id": sportID, "title": "Sparring", "date": "2026-05-10",
		"start_time": "18:00", "duration": 60, "max_participants": 1,
	})
	require.Equal(t, nethttp.StatusCreated, status, env.Error)
	training := decode[trainingBody](t, env)
	require.Equal(t, "2026-05-10", training.Date)
	require.Equal(t, "18:00", training.StartTime)
	require.Equal(t, 1, training.AvailableSpots)

	status, _ = s.do(t, fiber.MethodPost, "/api/trainings", coach, map[string]any{
		"sport_id": sportID, "title": "Clash", "date": "2026-05-10", "start_time": "18:00", "duration": 60,
	})
	require.Equal(t, nethttp.StatusConflict, status)

	enrollPath := "/api/trainings/" + training.ID + "/enroll"
	status, env = s.do(t, fiber.MethodPost, enrollPath, first, nil)
	require.Equal(t, nethttp.StatusCreated, status)
	require.Equal(t, "confirmed", decode[struct {
		Status string `json:"status"`
	}](t, env).Status)

	status, env = s.do(t, fiber.MethodPost, enrollPath, first, nil)
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "TRAINING_FULL", env.Error.Code)

	status, env = s.do(t, fiber.MethodPost, enrollPath, second, nil)
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "TRAINING_FULL", env.Error.Code)
	require.EqualValues(t, 1, env.Error.Details["max_participants"])
	require.EqualValues(t, 1, env.Error.Details["enrolled_count"])

	status, env = s.do(t, fiber.MethodGet, "/api/trainings/"+training.ID, first, nil)
	require.Equal(t, nethttp.StatusOK, status)
	view := decode[trainingBody](t, env)
	require.Equal(t, 1, view.EnrolledCount)
	require.True(t, view.IsFull)
	require.Equal(t, 0, view.AvailableSpots)
	require.NotNil(t, view.IsEnrolled)
	require.True(t, *view.IsEnrolled)

	status, env = s.do(t, fiber.MethodGet, "/api/trainings/"+training.ID+"/enrollments", coach, nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Len(t, decode[[]map[string]any](t, env), 1)

	cancelPath := "/api/trainings/" + training.ID + "/cancel-enrollment"
	status, _ = s.do(t, fiber.MethodPost, cancelPath, first, nil)
	require.Equal(t, nethttp.StatusOK, status)
	status, env = s.do(t, fiber.MethodPost, cancelPath, first, nil)
	require.Equal(t, nethttp.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", env.Error.Code)

	status, _ = s.do(t, fiber.MethodPost, enrollPath, second, nil)
	require.Equal(t, nethttp.StatusCreated, status)

	status, env = s.do(t, fiber.MethodGet, "/api/enrollments/my-enrollments", first, nil)
	require.Equal(t, nethttp.StatusOK, status)
	mine := decode[[]struct {
		Status string `json:"status"`
	}](t, env)
	require.Len(t, mine, 1)
	require.Equal(t, "cancelled", mine[0].Status)

	require.EqualValues(t, 2, s.metrics.Snapshot()["enrollments"]["confirmed"])
}

func TestMembershipsOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	_, admin := s.user(t, "admin", domain.RoleAdmin)
	member, memberToken := s.user(t, "member", domain.RoleMember)

	status, env := s.do(t, fiber.MethodGet, "/api/memberships/my-membership", memberToken, nil)
	require.Equal(t, nethttp.StatusNotFound, status)
	require.Equal(t, "no active membership", env.Error.Message)

	status, env = s.do(t, fiber.MethodPost, "/api/membership-plans", admin, map[string]any{
		"name": "Monthly", "price": 49.99, "duration_days": 30, "max_trainings_per_week": 3,
	})
	require.Equal(t, nethttp.StatusCreated, status)
	planID := decode[struct {
		ID string `json:"id"`
	}](t, env).ID

	status, _ = s.do(t, fiber.MethodPost, "/api/memberships", memberToken, map[string]any{"user_id": member.ID, "plan_id": planID})
	require.Equal(t, nethttp.StatusForbidden, status)

	status, env = s.do(t, fiber.MethodPost, "/api/memberships", admin, map[string]any{
		"user_id": member.ID, "plan_id": planID, "start_date": "2026-04-01",
	})
	require.Equal(t, nethttp.StatusCreated, status)

	status, env = s.do(t, fiber.MethodGet, "/api/memberships/my-membership", memberToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	current := decode[struct {
		EndDate       string `json:"end_date"`
		IsExpired     bool   `json:"is_expired"`
		DaysRemaining int    `json:"days_remaining"`
		Plan          struct {
			Name string `json:"name"`
		} `json:"plan"`
	}](t, env)
	require.Equal(t, "2026-05-01", current.EndDate)
	require.False(t, current.IsExpired)
	require.Equal(t, 0, current.DaysRemaining)
	require.Equal(t, "Monthly", current.Plan.Name)

	status, env = s.do(t, fiber.MethodDelete, "/api/membership-plans/"+planID, admin, nil)
	require.Equal(t, nethttp.StatusConflict, status)
	require.EqualValues(t, 1, env.Error.Details["memberships"])
}
