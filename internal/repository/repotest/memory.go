// Package repotest provides an in-memory repository.Store for tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/repository"
)

// DB is an in-memory stand-in for Postgres. Transactions are serialized
// by txMu, which models the row lock the real store takes; rollbacks are not
// modelled, so workflows under test must fail before writing.
type DB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	Users       map[string]*domain.User
	Sports      map[string]*domain.Sport
	Trainings   map[string]*domain.Training
	Enrollments map[string]*domain.Enrollment
	Plans       map[string]*domain.MembershipPlan
	Memberships map[string]*domain.Membership
	Resets      map[string]*domain.PasswordResetToken

	clock time.Time
}

// New returns an empty database.
func New() *DB {
	return &DB{
		Users:       map[string]*domain.User{},
		Sports:      map[string]*domain.Sport{},
		Trainings:   map[string]*domain.Training{},
		Enrollments: map[string]*domain.Enrollment{},
		Plans:       map[string]*domain.MembershipPlan{},
		Memberships: map[string]*domain.Membership{},
		Resets:      map[string]*domain.PasswordResetToken{},
		clock:       time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so orderings are stable.
func (db *DB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

// Store returns repositories backed by db.
func (db *DB) Store() *repository.Store {
	return &repository.Store{
		Users:          &memUsers{db},
		Sports:         &memSports{db},
		Trainings:      &memTrainings{db},
		Enrollments:    &memEnrollments{db},
		Plans:          &memPlans{db},
		Memberships:    &memMemberships{db},
		PasswordResets: &memResets{db},
	}
}

// WithinTx runs fn with db.txMu held.
func (db *DB) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	return fn(ctx, db.Store())
}

func uniqueErr(constraint string) error {
	return &repository.ConstraintError{Constraint: constraint, Err: repository.ErrUniqueViolation}
}

// users

type memUsers struct{ db *DB }

func (r *memUsers) Create(_ context.Context, u *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.Users {
		if existing.Username == u.Username {
			return uniqueErr(repository.ConstraintUserUsername)
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return uniqueErr(repository.ConstraintUserEmail)
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = r.db.tick()
	u.UpdatedAt = u.CreatedAt
	u.MembershipStart = domain.DateOf(u.CreatedAt)
	cp := *u
	r.db.Users[u.ID] = &cp
	return nil
}

func (r *memUsers) Update(_ context.Context, u *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.db.Users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return uniqueErr(repository.ConstraintUserEmail)
		}
	}
	u.UpdatedAt = r.db.tick()
	cp := *u
	r.db.Users[u.ID] = &cp
	return nil
}

func (r *memUsers) find(match func(*domain.User) bool) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.Users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *memUsers) List(_ context.Context, f repository.UserFilter) ([]domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.User
	for _, u := range r.db.Users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		if f.IsActiveMember != nil && u.IsActiveMember != *f.IsActiveMember {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(u.Username+" "+u.Email), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memUsers) TouchLastLogin(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.Users[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := r.db.tick()
	u.LastLogin = &now
	return nil
}

func (r *memUsers) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, t := range r.db.Trainings {
		if t.CoachID == id {
			return &repository.ConstraintError{Err: repository.ErrForeignKeyViolation}
		}
	}
	delete(r.db.Users, id)
	return nil
}

// sports

type memSports struct{ db *DB }

func (r *memSports) Create(_ context.Context, s *domain.Sport) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.Sports {
		if existing.Name == s.Name {
			return uniqueErr(repository.ConstraintSportName)
		}
	}
	s.ID = uuid.NewString()
	s.CreatedAt = r.db.tick()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	r.db.Sports[s.ID] = &cp
	return nil
}

func (r *memSports) Update(_ context.Context, s *domain.Sport) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Sports[s.ID]; !ok {
		return repository.ErrNotFound
	}
	s.UpdatedAt = r.db.tick()
	cp := *s
	r.db.Sports[s.ID] = &cp
	return nil
}

func (r *memSports) GetByID(_ context.Context, id string) (*domain.Sport, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.Sports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	cp.TrainingsCount = 0
	for _, t := range r.db.Trainings {
		if t.SportID == id && t.IsActive {
			cp.TrainingsCount++
		}
	}
	return &cp, nil
}

func (r *memSports) List(_ context.Context, f repository.SportFilter) ([]domain.Sport, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Sport
	for _, s := range r.db.Sports {
		if f.IsActive != nil && s.IsActive != *f.IsActive {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memSports) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Sports[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.Sports, id)
	return nil
}

// trainings

type memTrainings struct{ db *DB }

func (r *memTrainings) slotTaken(t *domain.Training, excludeID string) bool {
	for id, existing := range r.db.Trainings {
		if id != excludeID && existing.CoachID == t.CoachID && existing.Date.Equal(t.Date) && existing.StartTime == t.StartTime {
			return true
		}
	}
	return false
}

func (r *memTrainings) Create(_ context.Context, t *domain.Training) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.slotTaken(t, "") {
		return uniqueErr(repository.ConstraintTrainingSlot)
	}
	t.ID = uuid.NewString()
	t.CreatedAt = r.db.tick()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	r.db.Trainings[t.ID] = &cp
	return nil
}

func (r *memTrainings) Update(_ context.Context, t *domain.Training) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Trainings[t.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.slotTaken(t, t.ID) {
		return uniqueErr(repository.ConstraintTrainingSlot)
	}
	t.UpdatedAt = r.db.tick()
	cp := *t
	r.db.Trainings[t.ID] = &cp
	return nil
}

func (r *memTrainings) hydrate(t *domain.Training) domain.Training {
	cp := *t
	if s, ok := r.db.Sports[t.SportID]; ok {
		cp.SportName = s.Name
	}
	if c, ok := r.db.Users[t.CoachID]; ok {
		cp.CoachName = c.FullName()
	}
	cp.EnrolledCount = 0
	for _, e := range r.db.Enrollments {
		if e.TrainingID == t.ID && e.Status == domain.EnrollmentConfirmed {
			cp.EnrolledCount++
		}
	}
	return cp
}

func (r *memTrainings) GetByID(_ context.Context, id string) (*domain.Training, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.Trainings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := r.hydrate(t)
	return &cp, nil
}

func (r *memTrainings) LockForUpdate(_ context.Context, id string) (*domain.Training, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.Trainings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTrainings) List(_ context.Context, f repository.TrainingFilter) ([]domain.Training, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Training
	for _, t := range r.db.Trainings {
		switch {
		case !f.IncludeInactive && !t.IsActive:
			continue
		case f.SportID != nil && t.SportID != *f.SportID:
			continue
		case f.CoachID != nil && t.CoachID != *f.CoachID:
			continue
		case f.Difficulty != nil && t.Difficulty != *f.Difficulty:
			continue
		case f.Date != nil && !t.Date.Equal(*f.Date):
			continue
		case f.DateFrom != nil && t.Date.Before(*f.DateFrom):
			continue
		}
		out = append(out, r.hydrate(t))
	}
	desc := strings.HasPrefix(f.OrderBy, "-")
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if desc {
			a, b = b, a
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.StartTime < b.StartTime
	})
	return out, nil
}

func (r *memTrainings) SlotTaken(_ context.Context, coachID string, date time.Time, startTime, excludeID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.slotTaken(&domain.Training{CoachID: coachID, Date: date, StartTime: startTime}, excludeID), nil
}

func (r *memTrainings) CountBySport(_ context.Context, sportID string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, t := range r.db.Trainings {
		if t.SportID == sportID {
			n++
		}
	}
	return n, nil
}

func (r *memTrainings) DeactivateBySport(_ context.Context, sportID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, t := range r.db.Trainings {
		if t.SportID == sportID && t.IsActive {
			t.IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *memTrainings) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Trainings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.Trainings, id)
	return nil
}

func (r *memTrainings) DeleteByCoach(_ context.Context, coachID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, t := range r.db.Trainings {
		if t.CoachID == coachID {
			delete(r.db.Trainings, id)
			n++
		}
	}
	return n, nil
}

// enrollments

type memEnrollments struct{ db *DB }

func (r *memEnrollments) Create(_ context.Context, e *domain.Enrollment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.Enrollments {
		if existing.UserID == e.UserID && existing.TrainingID == e.TrainingID && existing.Status.IsActive() && e.Status.IsActive() {
			return uniqueErr(repository.ConstraintActiveEnrollment)
		}
	}
	e.ID = uuid.NewString()
	e.EnrolledAt = r.db.tick()
	e.UpdatedAt = e.EnrolledAt
	cp := *e
	r.db.Enrollments[e.ID] = &cp
	return nil
}

func (r *memEnrollments) Update(_ context.Context, e *domain.Enrollment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Enrollments[e.ID]; !ok {
		return repository.ErrNotFound
	}
	e.UpdatedAt = r.db.tick()
	cp := *e
	r.db.Enrollments[e.ID] = &cp
	return nil
}

func (r *memEnrollments) GetByID(_ context.Context, id string) (*domain.Enrollment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	e, ok := r.db.Enrollments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *memEnrollments) GetActive(_ context.Context, userID, trainingID string) (*domain.Enrollment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, e := range r.db.Enrollments {
		if e.UserID == userID && e.TrainingID == trainingID && e.Status.IsActive() {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memEnrollments) count(match func(*domain.Enrollment) bool) int {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, e := range r.db.Enrollments {
		if match(e) {
			n++
		}
	}
	return n
}

func (r *memEnrollments) CountConfirmed(_ context.Context, trainingID string) (int, error) {
	return r.count(func(e *domain.Enrollment) bool {
		return e.TrainingID == trainingID && e.Status == domain.EnrollmentConfirmed
	}), nil
}

func (r *memEnrollments) CountByTraining(_ context.Context, trainingID string) (int, error) {
	return r.count(func(e *domain.Enrollment) bool { return e.TrainingID == trainingID }), nil
}

func (r *memEnrollments) list(match func(*domain.Enrollment) bool) []domain.EnrollmentDetail {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	trainings := &memTrainings{r.db}
	var out []domain.EnrollmentDetail
	for _, e := range r.db.Enrollments {
		if !match(e) {
			continue
		}
		d := domain.EnrollmentDetail{Enrollment: *e}
		if u, ok := r.db.Users[e.UserID]; ok {
			d.UserName = u.FullName()
		}
		if t, ok := r.db.Trainings[e.TrainingID]; ok {
			d.Training = trainings.hydrate(t)
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrolledAt.After(out[j].EnrolledAt) })
	return out
}

func (r *memEnrollments) ListByUser(_ context.Context, userID string) ([]domain.EnrollmentDetail, error) {
	return r.list(func(e *domain.Enrollment) bool { return e.UserID == userID }), nil
}

func (r *memEnrollments) ListByTraining(_ context.Context, trainingID string) ([]domain.EnrollmentDetail, error) {
	return r.list(func(e *domain.Enrollment) bool { return e.TrainingID == trainingID }), nil
}

func (r *memEnrollments) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, e := range r.db.Enrollments {
		if e.UserID == userID {
			delete(r.db.Enrollments, id)
			n++
		}
	}
	return n, nil
}

func (r *memEnrollments) DeleteByCoach(_ context.Context, coachID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, e := range r.db.Enrollments {
		if t, ok := r.db.Trainings[e.TrainingID]; ok && t.CoachID == coachID {
			delete(r.db.Enrollments, id)
			n++
		}
	}
	return n, nil
}

// plans

type memPlans struct{ db *DB }

func (r *memPlans) Create(_ context.Context, p *domain.MembershipPlan) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.Plans {
		if existing.Name == p.Name {
			return uniqueErr(repository.ConstraintPlanName)
		}
	}
	p.ID = uuid.NewString()
	p.CreatedAt = r.db.tick()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.db.Plans[p.ID] = &cp
	return nil
}

func (r *memPlans) Update(_ context.Context, p *domain.MembershipPlan) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Plans[p.ID]; !ok {
		return repository.ErrNotFound
	}
	p.UpdatedAt = r.db.tick()
	cp := *p
	r.db.Plans[p.ID] = &cp
	return nil
}

func (r *memPlans) GetByID(_ context.Context, id string) (*domain.MembershipPlan, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.Plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	cp.MembersCount = 0
	for _, m := range r.db.Memberships {
		if m.PlanID == id && m.IsActive {
			cp.MembersCount++
		}
	}
	return &cp, nil
}

func (r *memPlans) List(_ context.Context, onlyActive bool) ([]domain.MembershipPlan, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.MembershipPlan
	for _, p := range r.db.Plans {
		if onlyActive && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (r *memPlans) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Plans[id]; !ok {
		return repository.ErrNotFound
	}
	for _, m := range r.db.Memberships {
		if m.PlanID == id {
			return &repository.ConstraintError{Err: repository.ErrForeignKeyViolation}
		}
	}
	delete(r.db.Plans, id)
	return nil
}

// memberships

type memMemberships struct{ db *DB }

func (r *memMemberships) hydrate(m *domain.Membership) domain.Membership {
	cp := *m
	if p, ok := r.db.Plans[m.PlanID]; ok {
		plan := *p
		cp.Plan = &plan
	}
	if u, ok := r.db.Users[m.UserID]; ok {
		cp.UserName = u.FullName()
	}
	return cp
}

func (r *memMemberships) Create(_ context.Context, m *domain.Membership) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m.ID = uuid.NewString()
	m.CreatedAt = r.db.tick()
	m.UpdatedAt = m.CreatedAt
	cp := *m
	r.db.Memberships[m.ID] = &cp
	return nil
}

func (r *memMemberships) Update(_ context.Context, m *domain.Membership) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.Memberships[m.ID]; !ok {
		return repository.ErrNotFound
	}
	m.UpdatedAt = r.db.tick()
	cp := *m
	r.db.Memberships[m.ID] = &cp
	return nil
}

func (r *memMemberships) GetByID(_ context.Context, id string) (*domain.Membership, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.Memberships[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := r.hydrate(m)
	return &cp, nil
}

func (r *memMemberships) GetCurrentForUser(_ context.Context, userID string) (*domain.Membership, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var best *domain.Membership
	for _, m := range r.db.Memberships {
		if m.UserID != userID || !m.IsActive {
			continue
		}
		if best == nil || m.StartDate.After(best.StartDate) {
			best = m
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	cp := r.hydrate(best)
	return &cp, nil
}

func (r *memMemberships) List(_ context.Context, f repository.MembershipFilter) ([]domain.Membership, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Membership
	for _, m := range r.db.Memberships {
		if f.UserID != nil && m.UserID != *f.UserID {
			continue
		}
		if f.PlanID != nil && m.PlanID != *f.PlanID {
			continue
		}
		if f.IsActive != nil && m.IsActive != *f.IsActive {
			continue
		}
		out = append(out, r.hydrate(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *memMemberships) CountByPlan(_ context.Context, planID string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, m := range r.db.Memberships {
		if m.PlanID == planID {
			n++
		}
	}
	return n, nil
}

func (r *memMemberships) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, m := range r.db.Memberships {
		if m.UserID == userID {
			delete(r.db.Memberships, id)
			n++
		}
	}
	return n, nil
}

// password reset tokens

type memResets struct{ db *DB }

func (r *memResets) Create(_ context.Context, t *domain.PasswordResetToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = r.db.tick()
	cp := *t
	r.db.Resets[t.ID] = &cp
	return nil
}

func (r *memResets) GetByToken(_ context.Context, token string) (*domain.PasswordResetToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.Resets {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memResets) MarkUsed(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.Resets[id]
	if !ok || t.UsedAt != nil {
		return repository.ErrNotFound
	}
	now := r.db.tick()
	t.UsedAt = &now
	return nil
}

func (r *memResets) DeleteByUser(_ context.Context, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, t := range r.db.Resets {
		if t.UserID == userID {
			delete(r.db.Resets, id)
		}
	}
	return nil
}
