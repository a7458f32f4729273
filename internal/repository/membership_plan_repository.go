package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/club-service/internal/domain"
)

// MembershipPlanRepository encapsulates plan persistence.
type MembershipPlanRepository interface {
	Create(ctx context.Context, plan *domain.MembershipPlan) error
	Update(ctx context.Context, plan *domain.MembershipPlan) error
	GetByID(ctx context.Context, id string) (*domain.MembershipPlan, error)
	List(ctx context.Context, onlyActive bool) ([]domain.MembershipPlan, error)
	Delete(ctx context.Context, id string) error
}

type membershipPlanRepository struct {
	db DBTX
}

// NewMembershipPlanRepository instantiates repository.
func NewMembershipPlanRepository(db DBTX) MembershipPlanRepository {
	return &membershipPlanRepository{db: db}
}

const planSelect = `
        SELECT p.id, p.name, p.description, p.price::float8, p.duration_days, p.max_trainings_per_week,
               p.is_active, p.created_at, p.updated_at,
               (SELECT COUNT(*) FROM memberships m WHERE m.plan_id = p.id AND m.is_active)
        FROM membership_plans p`

func (r *membershipPlanRepository) Create(ctx context.Context, plan *domain.MembershipPlan) error {
	const query = `
        INSERT INTO membership_plans (name, description, price, duration_days, max_trainings_per_week, is_active)
        VALUES ($1,$2,$3::numeric,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return mapErr(r.db.QueryRow(ctx, query,
		plan.Name,
		plan.Description,
		plan.Price,
		plan.DurationDays,
		plan.MaxTrainingsPerWeek,
		plan.IsActive,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt))
}

func (r *membershipPlanRepository) Update(ctx context.Context, plan *domain.MembershipPlan) error {
	const query = `
        UPDATE membership_plans SET name=$1, description=$2, price=$3::numeric, duration_days=$4,
            max_trainings_per_week=$5, is_active=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	return mapErr(r.db.QueryRow(ctx, query,
		plan.Name,
		plan.Description,
		plan.Price,
		plan.DurationDays,
		plan.MaxTrainingsPerWeek,
		plan.IsActive,
		plan.ID,
	).Scan(&plan.UpdatedAt))
}

func (r *membershipPlanRepository) GetByID(ctx context.Context, id string) (*domain.MembershipPlan, error) {
	plan, err := scanPlan(r.db.QueryRow(ctx, planSelect+` WHERE p.id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return plan, nil
}

func (r *membershipPlanRepository) List(ctx context.Context, onlyActive bool) ([]domain.MembershipPlan, error) {
	query := planSelect
	if onlyActive {
		query += " WHERE p.is_active"
	}
	query += " ORDER BY p.price, p.name"

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var result []domain.MembershipPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *plan)
	}
	return result, rows.Err()
}

// Delete fails with ErrForeignKeyViolation while memberships reference the
// plan.
func (r *membershipPlanRepository) Delete(ctx context.Context, id string) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM membership_plans WHERE id=$1`, id))
}

func scanPlan(row pgx.Row) (*domain.MembershipPlan, error) {
	var plan domain.MembershipPlan
	if err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Description,
		&plan.Price,
		&plan.DurationDays,
		&plan.MaxTrainingsPerWeek,
		&plan.IsActive,
		&plan.CreatedAt,
		&plan.UpdatedAt,
		&plan.MembersCount,
	); err != nil {
		return nil, err
	}
	return &plan, nil
}
