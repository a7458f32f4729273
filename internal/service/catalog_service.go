package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/club-service/internal/auth"
	"github.com/spec-kit/club-service/internal/domain"
	"github.com/spec-kit/club-service/internal/repository"
	apperrors "github.com/spec-kit/club-service/pkg/util/errorutil"
)

// CatalogService manages sports and membership plans.
type CatalogService struct {
	sports repository.SportRepository
	plans  repository.MembershipPlanRepository
	tx     repository.Transactor
	logger *zap.Logger
}

// CatalogDependencies bundles repositories for the catalog service.
type CatalogDependencies struct {
	SportRepo  repository.SportRepository
	PlanRepo   repository.MembershipPlanRepository
	Transactor repository.Transactor
	Logger     *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		sports: deps.SportRepo,
		plans:  deps.PlanRepo,
		tx:     deps.Transactor,
		logger: loggerOrNop(deps.Logger),
	}
}

// SportInput describes sport fields; nil pointers keep current values on
// update.
type SportInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// ListSports returns active sports.
func (s *CatalogService) ListSports(ctx context.Context, search string, limit, offset int) ([]domain.Sport, error) {
	active := true
	return s.sports.List(ctx, repository.SportFilter{IsActive: &active, Search: search, Limit: limit, Offset: offset})
}

// GetSport returns a sport, active or not.
func (s *CatalogService) GetSport(ctx context.Context, id string) (*domain.Sport, error) {
	sport, err := s.sports.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "sport")
	}
	return sport, nil
}

func (s *CatalogService) CreateSport(ctx context.Context, caller *domain.User, in SportInput) (*domain.Sport, error) {
	if !auth.Allowed(caller, auth.OpManageSports) {
		return nil, apperrors.NewForbidden("only administrators can manage sports")
	}
	sport := &domain.Sport{IsActive: true}
	if err := applySport(sport, in, true); err != nil {
		return nil, err
	}
	if err := s.sports.Create(ctx, sport); err != nil {
		return nil, constraintConflict(err)
	}
	return sport, nil
}

func (s *CatalogService) UpdateSport(ctx context.Context, caller *domain.User, id string, in SportInput) (*domain.Sport, error) {
	if !auth.Allowed(caller, auth.OpManageSports) {
		return nil, apperrors.NewForbidden("only administrators can manage sports")
	}
	sport, err := s.sports.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "sport")
	}
	if err := applySport(sport, in, false); err != nil {
		return nil, err
	}
	if err := s.sports.Update(ctx, sport); err != nil {
		return nil, constraintConflict(notFoundAs(err, "sport"))
	}
	return sport, nil
}

// DeleteSport removes a sport without trainings. A sport with trainings is
// deactivated together with its trainings so enrollment history survives.
// It reports whether the row was physically deleted.
func (s *CatalogService) DeleteSport(ctx context.Context, caller *domain.User, id string) (bool, error) {
	if !auth.Allowed(caller, auth.OpManageSports) {
		return false, apperrors.NewForbidden("only administrators can manage sports")
	}
	deleted := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store *repository.Store) error {
		sport, err := store.Sports.GetByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "sport")
		}
		count, err := store.Trainings.CountBySport(ctx, id)
		if err != nil {
			return err
		}
		if count == 0 {
			deleted = true
			return notFoundAs(store.Sports.Delete(ctx, id), "sport")
		}
		deactivated, err := store.Trainings.DeactivateBySport(ctx, id)
		if err != nil {
			return err
		}
		sport.IsActive = false
		if err := store.Sports.Update(ctx, sport); err != nil {
			return err
		}
		s.logger.Info("sport deactivated",
			zap.String("sport_id", id),
			zap.Int64("trainings_deactivated", deactivated))
		return nil
	})
	return deleted, err
}

func applySport(sport *domain.Sport, in SportInput, create bool) error {
	v := fieldErrors{}
	if in.Name != nil || create {
		name := ""
		if in.Name != nil {
			name = strings.TrimSpace(*in.Name)
		}
		v.check(name != "", "name", "this field is required")
		v.check(len(name) <= 100, "name", "ensure this field has no more than 100 characters")
		sport.Name = name
	}
	if in.Description != nil {
		sport.Description = strings.TrimSpace(*in.Description)
	}
	if in.IsActive != nil {
		sport.IsActive = *in.IsActive
	}
	return v.err()
}

// PlanInput describes membership plan fields; nil pointers keep current
// values on update.
type PlanInput struct {
	Name                *string
	Description         *string
	Price               *float64
	DurationDays        *int
	MaxTrainingsPerWeek *int
	IsActive            *bool
}

// ListPlans returns active plans ordered by price.
func (s *CatalogService) ListPlans(ctx context.Context) ([]domain.MembershipPlan, error) {
	return s.plans.List(ctx, true)
}

func (s *CatalogService) GetPlan(ctx context.Context, id string) (*domain.MembershipPlan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "membership plan")
	}
	return plan, nil
}

func (s *CatalogService) CreatePlan(ctx context.Context, caller *domain.User, in PlanInput) (*domain.MembershipPlan, error) {
	if !auth.Allowed(caller, auth.OpManagePlans) {
		return nil, apperrors.NewForbidden("only administrators can manage membership plans")
	}
	plan := &domain.MembershipPlan{IsActive: true}
	if err := applyPlan(plan, in, true); err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, constraintConflict(err)
	}
	return plan, nil
}

func (s *CatalogService) UpdatePlan(ctx context.Context, caller *domain.User, id string, in PlanInput) (*domain.MembershipPlan, error) {
	if !auth.Allowed(caller, auth.OpManagePlans) {
		return nil, apperrors.NewForbidden("only administrators can manage membership plans")
	}
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "membership plan")
	}
	if err := applyPlan(plan, in, false); err != nil {
		return nil, err
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, constraintConflict(notFoundAs(err, "membership plan"))
	}
	return plan, nil
}

// DeletePlan refuses while any membership references the plan.
func (s *CatalogService) DeletePlan(ctx context.Context, caller *domain.User, id string) error {
	if !auth.Allowed(caller, auth.OpManagePlans) {
		return apperrors.NewForbidden("only administrators can manage membership plans")
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context, store *repository.Store) error {
		if _, err := store.Plans.GetByID(ctx, id); err != nil {
			return notFoundAs(err, "membership plan")
		}
		refs, err := store.Memberships.CountByPlan(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return planInUse(refs)
		}
		err = store.Plans.Delete(ctx, id)
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return planInUse(refs)
		}
		return notFoundAs(err, "membership plan")
	})
}

func planInUse(refs int) error {
	return apperrors.NewConflict("membership plan is referenced by memberships",
		map[string]any{"memberships": refs})
}

func applyPlan(plan *domain.MembershipPlan, in PlanInput, create bool) error {
	v := fieldErrors{}
	if in.Name != nil || create {
		name := ""
		if in.Name != nil {
			name = strings.TrimSpace(*in.Name)
		}
		v.check(name != "", "name", "this field is required")
		v.check(len(name) <= 50, "name", "ensure this field has no more than 50 characters")
		plan.Name = name
	}
	if in.Description != nil {
		plan.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil || create {
		v.check(in.Price != nil, "price", "this field is required")
		if in.Price != nil {
			v.check(*in.Price >= 0 && *in.Price < 1e8, "price", "price must be between 0 and 99999999.99")
			plan.Price = math.Round(*in.Price*100) / 100
		}
	}
	if in.DurationDays != nil || create {
		v.check(in.DurationDays != nil, "duration_days", "this field is required")
		if in.DurationDays != nil {
			v.check(*in.DurationDays >= 1, "duration_days", "ensure this value is greater than or equal to 1")
			plan.DurationDays = *in.DurationDays
		}
	}
	if in.MaxTrainingsPerWeek != nil || create {
		v.check(in.MaxTrainingsPerWeek != nil, "max_trainings_per_week", "this field is required")
		if in.MaxTrainingsPerWeek != nil {
			v.check(*in.MaxTrainingsPerWeek >= 1, "max_trainings_per_week", "ensure this value is greater than or equal to 1")
			plan.MaxTrainingsPerWeek = *in.MaxTrainingsPerWeek
		}
	}
	if in.IsActive != nil {
		plan.IsActive = *in.IsActive
	}
	return v.err()
}
