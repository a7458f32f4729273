package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/club-service/internal/auth"
	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/events"
	"github.com/spec-kit/club-service/internal/repository"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

// TrainingService maintains the training schedule.
type TrainingService struct {
	trainings   repository.TrainingRepository
	sports      repository.SportRepository
	users       repository.UserRepository
	enrollments repository.EnrollmentRepository
	tx          repository.Transactor
	events      publisher
	logger      *zap.Logger
	now         func() time.Time
}

// TrainingDependencies bundles collaborators for the training service.
type TrainingDependencies struct {
	TrainingRepo   repository.TrainingRepository
	SportRepo      repository.SportRepository
	UserRepo       repository.UserRepository
	EnrollmentRepo repository.EnrollmentRepository
	Transactor     repository.Transactor
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Now            func() time.Time
}

// NewTrainingService constructs the service.
func NewTrainingService(deps TrainingDependencies) *TrainingService {
	logger := loggerOrNop(deps.Logger)
	now := clockOrNow(deps.Now)
	return &TrainingService{
		trainings:   deps.TrainingRepo,
		sports:      deps.SportRepo,
		users:       deps.UserRepo,
		enrollments: deps.EnrollmentRepo,
		tx:          deps.Transactor,
		events:      publisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
		logger:      logger,
		now:         now,
	}
}

// TrainingInput describes training fields; nil pointers keep current values
// on update.
type TrainingInput struct {
	SportID         *string
	CoachID         *string
	Title           *string
	Description     *string
	Difficulty      *domain.Difficulty
	Date            *time.Time
	StartTime       *string
	DurationMinutes *int
	MaxParticipants *int
	IsActive        *bool
}

// TrainingView is a training as seen by one caller.
type TrainingView struct {
	domain.Training
	IsEnrolled bool
}

// List returns active trainings matching filter.
func (s *TrainingService) List(ctx context.Context, filter repository.TrainingFilter) ([]domain.Training, error) {
	filter.IncludeInactive = false
	if filter.Difficulty != nil && !filter.Difficulty.Valid() {
		return nil, apperrors.NewFieldError("difficulty", "unknown difficulty")
	}
	return s.trainings.List(ctx, filter)
}

// Upcoming returns active trainings from today on, soonest first.
func (s *TrainingService) Upcoming(ctx context.Context, limit, offset int) ([]domain.Training, error) {
	today := domain.DateOf(s.now())
	return s.trainings.List(ctx, repository.TrainingFilter{
		DateFrom: &today,
		OrderBy:  "date",
		Limit:    limit,
		Offset:   offset,
	})
}

// MyTrainings returns the caller's active trainings as coach, newest first.
func (s *TrainingService) MyTrainings(ctx context.Context, caller *domain.User, limit, offset int) ([]domain.Training, error) {
	if !auth.Allowed(caller, auth.OpViewOwnTrainings) {
		return nil, apperrors.NewForbidden("only coaches and administrators have trainings")
	}
	return s.trainings.List(ctx, repository.TrainingFilter{
		CoachID: &caller.ID,
		OrderBy: "-date",
		Limit:   limit,
		Offset:  offset,
	})
}

// Get returns a training with the caller's enrollment flag.
func (s *TrainingService) Get(ctx context.Context, caller *domain.User, id string) (*TrainingView, error) {
	training, err := s.trainings.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "training")
	}
	view := &TrainingView{Training: *training}
	if caller != nil {
		active, err := s.enrollments.GetActive(ctx, caller.ID, id)
		switch {
		case err == nil:
			view.IsEnrolled = active.Status == domain.EnrollmentConfirmed
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}
	return view, nil
}

// Create schedules a training. The coach defaults to the caller; only
// administrators may schedule for someone else.
func (s *TrainingService) Create(ctx context.Context, caller *domain.User, in TrainingInput) (*domain.Training, error) {
	if !auth.Allowed(caller, auth.OpManageTrainings) {
		return nil, apperrors.NewForbidden("only coaches and administrators can manage trainings")
	}
	if in.CoachID == nil || *in.CoachID == "" {
		in.CoachID = &caller.ID
	} else if *in.CoachID != caller.ID && !caller.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators can schedule trainings for another coach")
	}

	training := &domain.Training{
		Difficulty:      domain.DifficultyBeginner,
		MaxParticipants: domain.DefaultMaxParticipants,
		IsActive:        true,
	}
	v := fieldErrors{}
	v.check(in.SportID != nil && *in.SportID != "", "sport_id", "this field is required")
	v.check(in.Title != nil, "title", "this field is required")
	v.check(in.Date != nil, "date", "this field is required")
	v.check(in.StartTime != nil, "start_time", "this field is required")
	v.check(in.DurationMinutes != nil, "duration", "this field is required")
	applyTraining(v, training, in)
	if in.Date != nil {
		v.check(!training.Date.Before(domain.DateOf(s.now())), "date", "date cannot be in the past")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if err := s.checkReferences(ctx, training, true, true); err != nil {
		return nil, err
	}
	if err := s.checkSlot(ctx, training, ""); err != nil {
		return nil, err
	}

	if err := s.trainings.Create(ctx, training); err != nil {
		return nil, constraintConflict(err)
	}
	created, err := s.trainings.GetByID(ctx, training.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("training created",
		zap.String("training_id", created.ID),
		zap.String("coach_id", created.CoachID),
		zap.Time("date", created.Date),
		zap.String("start_time", created.StartTime))
	return created, nil
}

// Update patches a training. Past dates are allowed here; slot changes are
// rechecked for collisions. The training row stays locked while capacity is
// compared against confirmed enrollments.
func (s *TrainingService) Update(ctx context.Context, caller *domain.User, id string, in TrainingInput) (*domain.Training, error) {
	if !auth.Allowed(caller, auth.OpManageTrainings) {
		return nil, apperrors.NewForbidden("only coaches and administrators can manage trainings")
	}

	var before domain.Training
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store *repository.Store) error {
		training, err := store.Trainings.LockForUpdate(ctx, id)
		if err != nil {
			return notFoundAs(err, "training")
		}
		if in.CoachID != nil && *in.CoachID != training.CoachID && !caller.IsAdmin() {
			return apperrors.NewForbidden("only administrators can reassign a training")
		}

		before = *training
		v := fieldErrors{}
		applyTraining(v, training, in)
		if err := v.err(); err != nil {
			return err
		}

		sportChanged := training.SportID != before.SportID
		coachChanged := training.CoachID != before.CoachID
		if err := s.checkReferences(ctx, training, sportChanged, coachChanged); err != nil {
			return err
		}
		if coachChanged || !training.Date.Equal(before.Date) || training.StartTime != before.StartTime {
			if err := s.checkSlot(ctx, training, training.ID); err != nil {
				return err
			}
		}
		if training.MaxParticipants != before.MaxParticipants {
			confirmed, err := store.Enrollments.CountConfirmed(ctx, id)
			if err != nil {
				return err
			}
			if training.MaxParticipants < confirmed {
				return apperrors.NewValidationError("validation failed", map[string]any{
					"max_participants": "max participants cannot be lower than the number of enrolled participants",
					"enrolled_count":   confirmed,
				})
			}
		}

		return constraintConflict(notFoundAs(store.Trainings.Update(ctx, training), "training"))
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.trainings.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "training")
	}
	if before.IsActive && !updated.IsActive {
		s.events.publish(ctx, caller.ID, events.EventTrainingDeactivated, events.TrainingDeactivatedPayload{
			TrainingID: updated.ID,
			Title:      updated.Title,
			Reason:     "updated",
		})
	}
	return updated, nil
}

// Delete removes a training that never had enrollments; otherwise the
// training is deactivated. It reports whether the row was deleted.
func (s *TrainingService) Delete(ctx context.Context, caller *domain.User, id string) (bool, error) {
	if !auth.Allowed(caller, auth.OpManageTrainings) {
		return false, apperrors.NewForbidden("only coaches and administrators can manage trainings")
	}
	var deactivated *domain.Training
	deleted := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store *repository.Store) error {
		if _, err := store.Trainings.LockForUpdate(ctx, id); err != nil {
			return notFoundAs(err, "training")
		}
		count, err := store.Enrollments.CountByTraining(ctx, id)
		if err != nil {
			return err
		}
		if count == 0 {
			deleted = true
			return notFoundAs(store.Trainings.Delete(ctx, id), "training")
		}
		training, err := store.Trainings.GetByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "training")
		}
		if !training.IsActive {
			return nil
		}
		training.IsActive = false
		if err := store.Trainings.Update(ctx, training); err != nil {
			return err
		}
		deactivated = training
		return nil
	})
	if err != nil {
		return false, err
	}
	if deactivated != nil {
		s.logger.Info("training deactivated", zap.String("training_id", id), zap.String("actor_id", caller.ID))
		s.events.publish(ctx, caller.ID, events.EventTrainingDeactivated, events.TrainingDeactivatedPayload{
			TrainingID: deactivated.ID,
			Title:      deactivated.Title,
			Reason:     "deleted with enrollments",
		})
	}
	return deleted, nil
}

func applyTraining(v fieldErrors, t *domain.Training, in TrainingInput) {
	if in.SportID != nil {
		t.SportID = *in.SportID
	}
	if in.CoachID != nil {
		t.CoachID = *in.CoachID
	}
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
		v.check(t.Title != "", "title", "this field is required")
		v.check(len(t.Title) <= 200, "title", "ensure this field has no more than 200 characters")
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.Difficulty != nil {
		v.check(in.Difficulty.Valid(), "difficulty", "difficulty must be beginner, intermediate or advanced")
		t.Difficulty = *in.Difficulty
	}
	if in.Date != nil {
		t.Date = domain.DateOf(*in.Date)
	}
	if in.StartTime != nil {
		clock, err := domain.ParseClock(strings.TrimSpace(*in.StartTime))
		v.check(err == nil, "start_time", "start time must use HH:MM")
		t.StartTime = clock
	}
	if in.DurationMinutes != nil {
		t.DurationMinutes = *in.DurationMinutes
		v.check(t.DurationMinutes >= domain.MinDurationMinutes && t.DurationMinutes <= domain.MaxDurationMinutes,
			"duration", "duration must be between 15 and 300 minutes")
	}
	if in.MaxParticipants != nil {
		t.MaxParticipants = *in.MaxParticipants
		v.check(t.MaxParticipants >= domain.MinParticipants && t.MaxParticipants <= domain.MaxParticipants,
			"max_participants", "max participants must be between 1 and 50")
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
}

func (s *TrainingService) checkReferences(ctx context.Context, t *domain.Training, sport, coach bool) error {
	if sport {
		found, err := s.sports.GetByID(ctx, t.SportID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err != nil || !found.IsActive {
			return apperrors.NewFieldError("sport_id", "sport does not exist or is not active")
		}
	}
	if coach {
		found, err := s.users.GetByID(ctx, t.CoachID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err != nil || !found.CanCoach() {
			return apperrors.NewFieldError("coach_id", "coach must have the admin or coach role")
		}
	}
	return nil
}

func (s *TrainingService) checkSlot(ctx context.Context, t *domain.Training, excludeID string) error {
	taken, err := s.trainings.SlotTaken(ctx, t.CoachID, t.Date, t.StartTime, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewConflict("the coach already has a training at this time", map[string]any{
			"coach_id":   t.CoachID,
			"date":       t.Date.Format(domain.DateLayout),
			"start_time": t.StartTime,
		})
	}
	return nil
}
