package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/repository/repotest"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordEnrollment(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[outcome]++
}

func (r *countingRecorder) get(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[outcome]
}

type fixture struct {
	db       *repotest.DB
	admin    *domain.User
	coach    *domain.User
	member   *domain.User
	sport    *domain.Sport
	recorder *countingRecorder

	trainings   *TrainingService
	enrollments *EnrollmentService
	memberships *MembershipService
	catalog     *CatalogService
	users       *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := repotest.New()
	store := db.Store()
	f := &fixture{db: db, recorder: &countingRecorder{}}

	f.admin = f.addUser(t, "admin", domain.RoleAdmin)
	f.coach = f.addUser(t, "coach", domain.RoleCoach)
	f.member = f.addUser(t, "member", domain.RoleMember)

	f.sport = &domain.Sport{Name: "Boxing", IsActive: true}
	require.NoError(t, store.Sports.Create(context.Background(), f.sport))

	f.trainings = NewTrainingService(TrainingDependencies{
		TrainingRepo:   store.Trainings,
		SportRepo:      store.Sports,
		UserRepo:       store.Users,
		EnrollmentRepo: store.Enrollments,
		Transactor:     db,
		Now:            fixedClock,
	})
	f.enrollments = NewEnrollmentService(EnrollmentDependencies{
		TrainingRepo:   store.Trainings,
		EnrollmentRepo: store.Enrollments,
		Transactor:     db,
		Recorder:       f.recorder,
		Now:            fixedClock,
	})
	f.memberships = NewMembershipService(MembershipDependencies{
		MembershipRepo: store.Memberships,
		PlanRepo:       store.Plans,
		UserRepo:       store.Users,
		Now:            fixedClock,
	})
	f.catalog = NewCatalogService(CatalogDependencies{
		SportRepo:  store.Sports,
		PlanRepo:   store.Plans,
		Transactor: db,
	})
	f.users = NewUserService(store.Users, db, nil)
	return f
}

func (f *fixture) addUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     username,
		Email:        username + "@club.test",
		FirstName:    username,
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, f.db.Store().Users.Create(context.Background(), u))
	return u
}

func ptr[T any](v T) *T { return &v }

// addTraining schedules a session for the fixture coach.
func (f *fixture) addTraining(t *testing.T, start string, maxParticipants int) *domain.Training {
	t.Helper()
	tr, err := f.trainings.Create(context.Background(), f.coach, TrainingInput{
		SportID:         &f.sport.ID,
		Title:           ptr("Sparring " + start),
		Date:            ptr(testNow.AddDate(0, 0, 9)),
		StartTime:       ptr(start),
		DurationMinutes: ptr(60),
		MaxParticipants: ptr(maxParticipants),
	})
	require.NoError(t, err)
	return tr
}
