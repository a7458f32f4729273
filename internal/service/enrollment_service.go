package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/club-service/internal/auth"
	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/events"
	"github.com/spec-kit/club-service/internal/repository"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

// EnrollmentRecorder counts enrollment outcomes.
type EnrollmentRecorder interface {
	RecordEnrollment(outcome string)
}

// Enrollment outcomes reported to the recorder.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeFull      = "full"
	OutcomeDuplicate = "duplicate"
	OutcomeCancelled = "cancelled"
)

// EnrollmentService runs the enroll and cancel workflows.
type EnrollmentService struct {
	trainings   repository.TrainingRepository
	enrollments repository.EnrollmentRepository
	tx          repository.Transactor
	recorder    EnrollmentRecorder
	events      publisher
	logger      *zap.Logger
	now         func() time.Time
}

// EnrollmentDependencies bundles collaborators for the enrollment service.
type EnrollmentDependencies struct {
	TrainingRepo   repository.TrainingRepository
	EnrollmentRepo repository.EnrollmentRepository
	Transactor     repository.Transactor
	Recorder       EnrollmentRecorder
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Now            func() time.Time
}

// NewEnrollmentService constructs the service.
func NewEnrollmentService(deps EnrollmentDependencies) *EnrollmentService {
	logger := loggerOrNop(deps.Logger)
	now := clockOrNow(deps.Now)
	return &EnrollmentService{
		trainings:   deps.TrainingRepo,
		enrollments: deps.EnrollmentRepo,
		tx:          deps.Transactor,
		recorder:    deps.Recorder,
		events:      publisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
		logger:      logger,
		now:         now,
	}
}

func trainingFull(max, enrolled int) error {
	return apperrors.NewRejection(apperrors.CodeTrainingFull, "training is full", map[string]any{
		"max_participants": max,
		"enrolled_count":   enrolled,
	})
}

func alreadyEnrolled() error {
	return apperrors.NewRejection(apperrors.CodeAlreadyEnrolled, "you are already enrolled in this training", nil)
}

// Enroll books a seat for caller. Checks run in order: the training exists
// and is active, a seat is free, the caller holds no active enrollment. The
// training row stays locked from the capacity check to the insert, so
// concurrent enrolls on one training never exceed max_participants.
func (s *EnrollmentService) Enroll(ctx context.Context, caller *domain.User, trainingID string) (*domain.Enrollment, error) {
	if !auth.Allowed(caller, auth.OpEnroll) {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	var created *domain.Enrollment
	var training *domain.Training
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store *repository.Store) error {
		locked, err := store.Trainings.LockForUpdate(ctx, trainingID)
		if err != nil {
			return notFoundAs(err, "training")
		}
		if !locked.IsActive {
			return apperrors.NewNotFound("training", nil)
		}

		count, err := store.Enrollments.CountConfirmed(ctx, trainingID)
		if err != nil {
			return err
		}
		if domain.IsFull(locked.MaxParticipants, count) {
			return trainingFull(locked.MaxParticipants, count)
		}

		if _, err := store.Enrollments.GetActive(ctx, caller.ID, trainingID); err == nil {
			return alreadyEnrolled()
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		enrollment := &domain.Enrollment{
			UserID:     caller.ID,
			TrainingID: trainingID,
			Status:     domain.EnrollmentConfirmed,
		}
		if err := store.Enrollments.Create(ctx, enrollment); err != nil {
			if repository.ConstraintName(err) == repository.ConstraintActiveEnrollment {
				return alreadyEnrolled()
			}
			return err
		}
		created, training = enrollment, locked
		return nil
	})
	if err != nil {
		s.recordRejection(caller, trainingID, err)
		return nil, err
	}

	s.record(OutcomeConfirmed)
	s.logger.Info("enrollment confirmed",
		zap.String("enrollment_id", created.ID),
		zap.String("user_id", caller.ID),
		zap.String("training_id", trainingID))
	s.events.publish(ctx, caller.ID, events.EventEnrollmentConfirmed, events.EnrollmentPayload{
		EnrollmentID:  created.ID,
		UserID:        caller.ID,
		TrainingID:    trainingID,
		TrainingTitle: training.Title,
		Date:          training.Date,
		StartTime:     training.StartTime,
	})
	return created, nil
}

// Cancel withdraws the caller's active enrollment on the training. The row is
// kept with status cancelled; a second cancel finds nothing.
func (s *EnrollmentService) Cancel(ctx context.Context, caller *domain.User, trainingID string) (*domain.Enrollment, error) {
	if !auth.Allowed(caller, auth.OpEnroll) {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	var cancelled *domain.Enrollment
	var training *domain.Training
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store *repository.Store) error {
		locked, err := store.Trainings.LockForUpdate(ctx, trainingID)
		if err != nil {
			return notFoundAs(err, "training")
		}
		enrollment, err := store.Enrollments.GetActive(ctx, caller.ID, trainingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFoundMessage("you are not enrolled in this training")
			}
			return err
		}
		enrollment.Status = domain.EnrollmentCancelled
		if err := store.Enrollments.Update(ctx, enrollment); err != nil {
			return err
		}
		cancelled, training = enrollment, locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(OutcomeCancelled)
	s.logger.Info("enrollment cancelled",
		zap.String("enrollment_id", cancelled.ID),
		zap.String("user_id", caller.ID),
		zap.String("training_id", trainingID))
	s.events.publish(ctx, caller.ID, events.EventEnrollmentCancelled, events.EnrollmentPayload{
		EnrollmentID:  cancelled.ID,
		UserID:        caller.ID,
		TrainingID:    trainingID,
		TrainingTitle: training.Title,
		Date:          training.Date,
		StartTime:     training.StartTime,
	})
	return cancelled, nil
}

// MyEnrollments lists the caller's enrollments, newest first.
func (s *EnrollmentService) MyEnrollments(ctx context.Context, caller *domain.User) ([]domain.EnrollmentDetail, error) {
	if !auth.Allowed(caller, auth.OpViewOwnEnrollments) {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return s.enrollments.ListByUser(ctx, caller.ID)
}

// TrainingEnrollments lists every enrollment of a training for staff.
func (s *EnrollmentService) TrainingEnrollments(ctx context.Context, caller *domain.User, trainingID string) ([]domain.EnrollmentDetail, error) {
	if !auth.Allowed(caller, auth.OpViewTrainingEnrollments) {
		return nil, apperrors.NewForbidden("only coaches and administrators can view enrollments")
	}
	if _, err := s.trainings.GetByID(ctx, trainingID); err != nil {
		return nil, notFoundAs(err, "training")
	}
	return s.enrollments.ListByTraining(ctx, trainingID)
}

// MarkAttendance records whether the member showed up. Marking attended
// completes a confirmed enrollment; unmarking a completed one confirms it
// again. Attendance can only be recorded once the training day has come.
func (s *EnrollmentService) MarkAttendance(ctx context.Context, caller *domain.User, enrollmentID string, attended bool) (*domain.Enrollment, error) {
	if !auth.Allowed(caller, auth.OpMarkAttendance) {
		return nil, apperrors.NewForbidden("only coaches and administrators can mark attendance")
	}

	var updated *domain.Enrollment
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store *repository.Store) error {
		enrollment, err := store.Enrollments.GetByID(ctx, enrollmentID)
		if err != nil {
			return notFoundAs(err, "enrollment")
		}
		training, err := store.Trainings.LockForUpdate(ctx, enrollment.TrainingID)
		if err != nil {
			return notFoundAs(err, "training")
		}
		if enrollment.Status == domain.EnrollmentCancelled {
			return apperrors.NewFieldError("status", "attendance cannot be recorded for a cancelled enrollment")
		}
		if training.Date.After(domain.DateOf(s.now())) {
			return apperrors.NewFieldError("attended", "attendance cannot be recorded before the training date")
		}

		enrollment.Attended = attended
		switch {
		case attended && enrollment.Status.IsActive():
			enrollment.Status = domain.EnrollmentCompleted
		case !attended && enrollment.Status == domain.EnrollmentCompleted:
			// the seat is taken back, so capacity applies again
			confirmed, err := store.Enrollments.CountConfirmed(ctx, training.ID)
			if err != nil {
				return err
			}
			if domain.IsFull(training.MaxParticipants, confirmed) {
				return trainingFull(training.MaxParticipants, confirmed)
			}
			enrollment.Status = domain.EnrollmentConfirmed
		}
		if err := store.Enrollments.Update(ctx, enrollment); err != nil {
			if repository.ConstraintName(err) == repository.ConstraintActiveEnrollment {
				return alreadyEnrolled()
			}
			return err
		}
		updated = enrollment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.publish(ctx, caller.ID, events.EventAttendanceMarked, events.AttendanceMarkedPayload{
		EnrollmentID: updated.ID,
		UserID:       updated.UserID,
		TrainingID:   updated.TrainingID,
		Attended:     attended,
	})
	return updated, nil
}

func (s *EnrollmentService) recordRejection(caller *domain.User, trainingID string, err error) {
	var outcome string
	switch {
	case apperrors.HasCode(err, apperrors.CodeTrainingFull):
		outcome = OutcomeFull
	case apperrors.HasCode(err, apperrors.CodeAlreadyEnrolled):
		outcome = OutcomeDuplicate
	default:
		return
	}
	s.record(outcome)
	s.logger.Info("enrollment rejected",
		zap.String("user_id", caller.ID),
		zap.String("training_id", trainingID),
		zap.String("reason", outcome))
}

func (s *EnrollmentService) record(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordEnrollment(outcome)
	}
}
