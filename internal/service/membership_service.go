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

// MembershipService tracks member subscriptions.
type MembershipService struct {
	memberships repository.MembershipRepository
	plans       repository.MembershipPlanRepository
	users       repository.UserRepository
	events      publisher
	logger      *zap.Logger
	now         func() time.Time
}

// MembershipDependencies bundles collaborators for the membership service.
type MembershipDependencies struct {
	MembershipRepo repository.MembershipRepository
	PlanRepo       repository.MembershipPlanRepository
	UserRepo       repository.UserRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Now            func() time.Time
}

// NewMembershipService constructs the service.
func NewMembershipService(deps MembershipDependencies) *MembershipService {
	logger := loggerOrNop(deps.Logger)
	now := clockOrNow(deps.Now)
	return &MembershipService{
		memberships: deps.MembershipRepo,
		plans:       deps.PlanRepo,
		users:       deps.UserRepo,
		events:      publisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
		logger:      logger,
		now:         now,
	}
}

// MembershipInput describes a new membership. StartDate defaults to today
// and EndDate to StartDate plus the plan duration.
type MembershipInput struct {
	UserID    string
	PlanID    string
	StartDate *time.Time
	EndDate   *time.Time
	IsActive  *bool
	AutoRenew bool
}

// MembershipUpdateInput is a partial membership update.
type MembershipUpdateInput struct {
	PlanID    *string
	StartDate *time.Time
	EndDate   *time.Time
	IsActive  *bool
	AutoRenew *bool
}

// Today is the calendar date memberships are evaluated against.
func (s *MembershipService) Today() time.Time {
	return domain.DateOf(s.now())
}

func (s *MembershipService) List(ctx context.Context, caller *domain.User, filter repository.MembershipFilter) ([]domain.Membership, error) {
	if !auth.Allowed(caller, auth.OpManageMemberships) {
		return nil, apperrors.NewForbidden("only administrators can manage memberships")
	}
	return s.memberships.List(ctx, filter)
}

func (s *MembershipService) Get(ctx context.Context, caller *domain.User, id string) (*domain.Membership, error) {
	if !auth.Allowed(caller, auth.OpManageMemberships) {
		return nil, apperrors.NewForbidden("only administrators can manage memberships")
	}
	m, err := s.memberships.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "membership")
	}
	return m, nil
}

// Current returns the caller's active membership with the latest start date.
func (s *MembershipService) Current(ctx context.Context, caller *domain.User) (*domain.Membership, error) {
	if !auth.Allowed(caller, auth.OpViewOwnMembership) {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	m, err := s.memberships.GetCurrentForUser(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundMessage("no active membership")
		}
		return nil, err
	}
	return m, nil
}

func (s *MembershipService) Create(ctx context.Context, caller *domain.User, in MembershipInput) (*domain.Membership, error) {
	if !auth.Allowed(caller, auth.OpManageMemberships) {
		return nil, apperrors.NewForbidden("only administrators can manage memberships")
	}
	v := fieldErrors{}
	v.check(in.UserID != "", "user_id", "this field is required")
	v.check(in.PlanID != "", "plan_id", "this field is required")
	if err := v.err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}
	plan, err := s.plans.GetByID(ctx, in.PlanID)
	if err != nil {
		return nil, notFoundAs(err, "membership plan")
	}
	if !plan.IsActive {
		return nil, apperrors.NewFieldError("plan_id", "membership plan is not active")
	}

	start := s.Today()
	if in.StartDate != nil {
		start = domain.DateOf(*in.StartDate)
	}
	end := start.AddDate(0, 0, plan.DurationDays)
	if in.EndDate != nil {
		end = domain.DateOf(*in.EndDate)
	}
	if !end.After(start) {
		return nil, apperrors.NewFieldError("end_date", "end date must be after the start date")
	}

	m := &domain.Membership{
		UserID:    user.ID,
		UserName:  user.FullName(),
		PlanID:    plan.ID,
		Plan:      plan,
		StartDate: start,
		EndDate:   end,
		IsActive:  true,
		AutoRenew: in.AutoRenew,
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	if err := s.memberships.Create(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("membership created",
		zap.String("membership_id", m.ID),
		zap.String("user_id", m.UserID),
		zap.String("plan_id", m.PlanID))
	s.events.publish(ctx, caller.ID, events.EventMembershipCreated, events.MembershipCreatedPayload{
		MembershipID: m.ID,
		UserID:       m.UserID,
		PlanName:     plan.Name,
		EndDate:      m.EndDate,
	})
	return m, nil
}

func (s *MembershipService) Update(ctx context.Context, caller *domain.User, id string, in MembershipUpdateInput) (*domain.Membership, error) {
	if !auth.Allowed(caller, auth.OpManageMemberships) {
		return nil, apperrors.NewForbidden("only administrators can manage memberships")
	}
	m, err := s.memberships.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "membership")
	}

	if in.PlanID != nil && *in.PlanID != m.PlanID {
		plan, err := s.plans.GetByID(ctx, *in.PlanID)
		if err != nil {
			return nil, notFoundAs(err, "membership plan")
		}
		m.PlanID, m.Plan = plan.ID, plan
	}
	if in.StartDate != nil {
		m.StartDate = domain.DateOf(*in.StartDate)
	}
	if in.EndDate != nil {
		m.EndDate = domain.DateOf(*in.EndDate)
	}
	if !m.EndDate.After(m.StartDate) {
		return nil, apperrors.NewFieldError("end_date", "end date must be after the start date")
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	if in.AutoRenew != nil {
		m.AutoRenew = *in.AutoRenew
	}

	if err := s.memberships.Update(ctx, m); err != nil {
		return nil, notFoundAs(err, "membership")
	}
	return m, nil
}
