package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/repository"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

func trainingInput(sportID, start string) TrainingInput {
	return TrainingInput{
		SportID:         &sportID,
		Title:           ptr("Evening class"),
		Date:            ptr(testNow.AddDate(0, 0, 3)),
		StartTime:       ptr(start),
		DurationMinutes: ptr(90),
	}
}

func TestCreateTrainingDefaults(t *testing.T) {
	f := newFixture(t)
	tr, err := f.trainings.Create(context.Background(), f.coach, trainingInput(f.sport.ID, "19:30"))
	require.NoError(t, err)
	require.Equal(t, f.coach.ID, tr.CoachID)
	require.Equal(t, domain.DifficultyBeginner, tr.Difficulty)
	require.Equal(t, domain.DefaultMaxParticipants, tr.MaxParticipants)
	require.Equal(t, "Boxing", tr.SportName)
	require.True(t, tr.IsActive)
}

func TestCreateTrainingSlotConflictIgnoresSport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mma, err := f.catalog.CreateSport(ctx, f.admin, SportInput{Name: ptr("MMA")})
	require.NoError(t, err)

	_, err = f.trainings.Create(ctx, f.coach, trainingInput(f.sport.ID, "19:30"))
	require.NoError(t, err)

	_, err = f.trainings.Create(ctx, f.coach, trainingInput(mma.ID, "19:30"))
	require.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = f.trainings.Create(ctx, f.coach, trainingInput(mma.ID, "21:00"))
	require.NoError(t, err)
}

func TestCreateTrainingValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := trainingInput(f.sport.ID, "19:30")
	in.Date = ptr(testNow.AddDate(0, 0, -1))
	_, err := f.trainings.Create(ctx, f.coach, in)
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	require.Contains(t, apperrors.ToDomainError(err).Details, "date")

	in = trainingInput(f.sport.ID, "7pm")
	in.DurationMinutes = ptr(10)
	in.MaxParticipants = ptr(51)
	_, err = f.trainings.Create(ctx, f.coach, in)
	details := apperrors.ToDomainError(err).Details
	require.Contains(t, details, "start_time")
	require.Contains(t, details, "duration")
	require.Contains(t, details, "max_participants")

	_, err = f.trainings.Create(ctx, f.member, trainingInput(f.sport.ID, "19:30"))
	require.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	in = trainingInput(f.sport.ID, "19:30")
	in.CoachID = &f.member.ID
	_, err = f.trainings.Create(ctx, f.admin, in)
	require.Contains(t, apperrors.ToDomainError(err).Details, "coach_id")

	_, err = f.catalog.UpdateSport(ctx, f.admin, f.sport.ID, SportInput{IsActive: ptr(false)})
	require.NoError(t, err)
	_, err = f.trainings.Create(ctx, f.coach, trainingInput(f.sport.ID, "19:30"))
	require.Contains(t, apperrors.ToDomainError(err).Details, "sport_id")
}

func TestOnlyAdminSchedulesForAnotherCoach(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second := f.addUser(t, "coach2", domain.RoleCoach)

	in := trainingInput(f.sport.ID, "19:30")
	in.CoachID = &second.ID
	_, err := f.trainings.Create(ctx, f.coach, in)
	require.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	tr, err := f.trainings.Create(ctx, f.admin, in)
	require.NoError(t, err)
	require.Equal(t, second.ID, tr.CoachID)
}

func TestUpdateTrainingRechecksSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.addTraining(t, "10:00", 5)
	second := f.addTraining(t, "12:00", 5)

	_, err := f.trainings.Update(ctx, f.coach, second.ID, TrainingInput{StartTime: ptr("10:00")})
	require.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	// same slot on itself is not a collision; past dates are allowed on update
	updated, err := f.trainings.Update(ctx, f.coach, first.ID, TrainingInput{
		StartTime: ptr("10:00"),
		Date:      ptr(testNow.AddDate(0, 0, -30)),
		Title:     ptr("Renamed"),
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
}

func TestUpdateTrainingCannotDropBelowEnrolled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.addTraining(t, "10:00", 3)
	for _, name := range []string{"ana", "beka", "dato"} {
		_, err := f.enrollments.Enroll(ctx, f.addUser(t, name, domain.RoleMember), tr.ID)
		require.NoError(t, err)
	}

	_, err := f.trainings.Update(ctx, f.coach, tr.ID, TrainingInput{MaxParticipants: ptr(1)})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	require.Contains(t, de.Details, "max_participants")
	require.Equal(t, 3, de.Details["enrolled_count"])

	loaded, err := f.trainings.Get(ctx, f.coach, tr.ID)
	require.NoError(t, err)
	require.Equal(t, 3, loaded.MaxParticipants)
	require.Equal(t, 3, loaded.EnrolledCount)

	updated, err := f.trainings.Update(ctx, f.coach, tr.ID, TrainingInput{MaxParticipants: ptr(4)})
	require.NoError(t, err)
	require.Equal(t, 4, updated.MaxParticipants)
	require.Equal(t, 1, updated.AvailableSpots())
}

func TestDeleteTrainingHardOrDeactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	empty := f.addTraining(t, "10:00", 5)
	busy := f.addTraining(t, "12:00", 5)
	_, err := f.enrollments.Enroll(ctx, f.member, busy.ID)
	require.NoError(t, err)

	deleted, err := f.trainings.Delete(ctx, f.coach, empty.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	_, err = f.trainings.Get(ctx, f.coach, empty.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	deleted, err = f.trainings.Delete(ctx, f.coach, busy.ID)
	require.NoError(t, err)
	require.False(t, deleted)
	view, err := f.trainings.Get(ctx, f.coach, busy.ID)
	require.NoError(t, err)
	require.False(t, view.IsActive)

	list, err := f.trainings.List(ctx, repository.TrainingFilter{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestUpcomingAndMyTrainings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	late := f.addTraining(t, "20:00", 5)
	early := f.addTraining(t, "08:00", 5)
	_, err := f.trainings.Update(ctx, f.coach, f.addTraining(t, "09:00", 5).ID,
		TrainingInput{Date: ptr(testNow.AddDate(0, 0, -2))})
	require.NoError(t, err)

	upcoming, err := f.trainings.Upcoming(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	require.Equal(t, early.ID, upcoming[0].ID)
	require.Equal(t, late.ID, upcoming[1].ID)

	mine, err := f.trainings.MyTrainings(ctx, f.coach, 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 3)

	_, err = f.trainings.MyTrainings(ctx, f.member, 0, 0)
	require.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}
