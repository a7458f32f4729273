package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/repository"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

func (f *fixture) addPlan(t *testing.T, name string, days int) *domain.MembershipPlan {
	t.Helper()
	plan, err := f.catalog.CreatePlan(context.Background(), f.admin, PlanInput{
		Name:                ptr(name),
		Price:               ptr(49.99),
		DurationDays:        ptr(days),
		MaxTrainingsPerWeek: ptr(3),
	})
	require.NoError(t, err)
	return plan
}

func TestCreateMembershipDefaultsDates(t *testing.T) {
	f := newFixture(t)
	plan := f.addPlan(t, "Monthly", 30)

	m, err := f.memberships.Create(context.Background(), f.admin, MembershipInput{UserID: f.member.ID, PlanID: plan.ID})
	require.NoError(t, err)
	today := domain.DateOf(testNow)
	require.Equal(t, today, m.StartDate)
	require.Equal(t, today.AddDate(0, 0, 30), m.EndDate)
	require.True(t, m.IsActive)
	require.Equal(t, 30, m.DaysRemaining(testNow))
	require.False(t, m.IsExpired(testNow))
}

func TestCreateMembershipValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.addPlan(t, "Monthly", 30)

	start := domain.DateOf(testNow)
	_, err := f.memberships.Create(ctx, f.admin, MembershipInput{
		UserID: f.member.ID, PlanID: plan.ID, StartDate: &start, EndDate: &start,
	})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	require.Contains(t, apperrors.ToDomainError(err).Details, "end_date")

	_, err = f.memberships.Create(ctx, f.member, MembershipInput{UserID: f.member.ID, PlanID: plan.ID})
	require.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.memberships.Create(ctx, f.admin, MembershipInput{UserID: "missing", PlanID: plan.ID})
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.catalog.UpdatePlan(ctx, f.admin, plan.ID, PlanInput{IsActive: ptr(false)})
	require.NoError(t, err)
	_, err = f.memberships.Create(ctx, f.admin, MembershipInput{UserID: f.member.ID, PlanID: plan.ID})
	require.Contains(t, apperrors.ToDomainError(err).Details, "plan_id")
}

func TestCurrentMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.memberships.Current(ctx, f.member)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	require.Equal(t, "no active membership", apperrors.ToDomainError(err).Message)

	plan := f.addPlan(t, "Monthly", 30)
	older := domain.DateOf(testNow).AddDate(0, -2, 0)
	_, err = f.memberships.Create(ctx, f.admin, MembershipInput{UserID: f.member.ID, PlanID: plan.ID, StartDate: &older})
	require.NoError(t, err)
	latest, err := f.memberships.Create(ctx, f.admin, MembershipInput{UserID: f.member.ID, PlanID: plan.ID})
	require.NoError(t, err)

	current, err := f.memberships.Current(ctx, f.member)
	require.NoError(t, err)
	require.Equal(t, latest.ID, current.ID)
	require.Equal(t, "Monthly", current.Plan.Name)
}

func TestExpiredMembershipStillCurrentWhileActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plan := f.addPlan(t, "Weekly", 7)
	start := domain.DateOf(testNow).AddDate(0, 0, -20)

	_, err := f.memberships.Create(ctx, f.admin, MembershipInput{UserID: f.member.ID, PlanID: plan.ID, StartDate: &start})
	require.NoError(t, err)

	current, err := f.memberships.Current(ctx, f.member)
	require.NoError(t, err)
	require.True(t, current.IsExpired(testNow))
	require.Equal(t, 0, current.DaysRemaining(testNow))
}

func TestUpdateMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	monthly := f.addPlan(t, "Monthly", 30)
	yearly := f.addPlan(t, "Yearly", 365)
	m, err := f.memberships.Create(ctx, f.admin, MembershipInput{UserID: f.member.ID, PlanID: monthly.ID})
	require.NoError(t, err)

	updated, err := f.memberships.Update(ctx, f.admin, m.ID, MembershipUpdateInput{
		PlanID:    &yearly.ID,
		AutoRenew: ptr(true),
		IsActive:  ptr(false),
	})
	require.NoError(t, err)
	require.Equal(t, "Yearly", updated.Plan.Name)
	require.True(t, updated.AutoRenew)
	require.False(t, updated.IsActive)

	early := m.StartDate.AddDate(0, 0, -1)
	_, err = f.memberships.Update(ctx, f.admin, m.ID, MembershipUpdateInput{EndDate: &early})
	require.Contains(t, apperrors.ToDomainError(err).Details, "end_date")

	inactive := false
	list, err := f.memberships.List(ctx, f.admin, repository.MembershipFilter{IsActive: &inactive})
	require.NoError(t, err)
	require.Len(t, list, 1)
}
