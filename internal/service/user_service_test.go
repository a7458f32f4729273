package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/repository"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

func TestUserVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Get(ctx, f.member, f.coach.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	self, err := f.users.Get(ctx, f.member, f.member.ID)
	require.NoError(t, err)
	require.Equal(t, "member", self.Username)

	_, err = f.users.List(ctx, f.coach, repository.UserFilter{})
	require.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	coaches := domain.RoleCoach
	list, err := f.users.List(ctx, f.admin, repository.UserFilter{Role: &coaches})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestOnlyAdminChangesRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := domain.RoleAdmin

	_, err := f.users.Update(ctx, f.member, f.member.ID, UserUpdateInput{Role: &admin})
	require.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.users.Update(ctx, f.member, f.member.ID, UserUpdateInput{IsActiveMember: ptr(false)})
	require.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	updated, err := f.users.Update(ctx, f.member, f.member.ID, UserUpdateInput{Phone: ptr("+1 555 0100")})
	require.NoError(t, err)
	require.Equal(t, "+1 555 0100", updated.Phone)

	coach := domain.RoleCoach
	promoted, err := f.users.Update(ctx, f.admin, f.member.ID, UserUpdateInput{Role: &coach})
	require.NoError(t, err)
	require.True(t, promoted.CanCoach())
}

func TestDeleteUserCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.addTraining(t, "18:00", 5)
	_, err := f.enrollments.Enroll(ctx, f.member, tr.ID)
	require.NoError(t, err)
	plan := f.addPlan(t, "Monthly", 30)
	_, err = f.memberships.Create(ctx, f.admin, MembershipInput{UserID: f.coach.ID, PlanID: plan.ID})
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(ctx, f.admin, f.coach.ID))

	_, err = f.users.Get(ctx, f.admin, f.coach.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	_, err = f.trainings.Get(ctx, f.member, tr.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	require.Empty(t, f.db.Enrollments)
	require.Empty(t, f.db.Memberships)

	err = f.users.Delete(ctx, f.member, f.admin.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}
