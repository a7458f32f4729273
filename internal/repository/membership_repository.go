package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/club-service/internal/domain"
)

// MembershipFilter captures admin listing parameters.
type MembershipFilter struct {
	UserID   *string
	PlanID   *string
	IsActive *bool
	OrderBy  string
	Limit    int
	Offset   int
}

// MembershipRepository encapsulates membership persistence.
type MembershipRepository interface {
	Create(ctx context.Context, membership *domain.Membership) error
	Update(ctx context.Context, membership *domain.Membership) error
	GetByID(ctx context.Context, id string) (*domain.Membership, error)
	// GetCurrentForUser returns the active membership with the latest start
	// date.
	GetCurrentForUser(ctx context.Context, userID string) (*domain.Membership, error)
	List(ctx context.Context, filter MembershipFilter) ([]domain.Membership, error)
	CountByPlan(ctx context.Context, planID string) (int, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type membershipRepository struct {
	db DBTX
}

// NewMembershipRepository instantiates repository.
func NewMembershipRepository(db DBTX) MembershipRepository {
	return &membershipRepository{db: db}
}

var membershipSelect = `
        SELECT m.id, m.user_id, ` + displayName("u") + `, m.plan_id, m.start_date, m.end_date,
               m.is_active, m.auto_renew, m.created_at, m.updated_at,
               p.id, p.name, p.description, p.price::float8, p.duration_days, p.max_trainings_per_week,
               p.is_active, p.created_at, p.updated_at
        FROM memberships m
        JOIN users u ON u.id = m.user_id
        JOIN membership_plans p ON p.id = m.plan_id`

func (r *membershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	const query = `
        INSERT INTO memberships (user_id, plan_id, start_date, end_date, is_active, auto_renew)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return mapErr(r.db.QueryRow(ctx, query,
		membership.UserID,
		membership.PlanID,
		membership.StartDate,
		membership.EndDate,
		membership.IsActive,
		membership.AutoRenew,
	).Scan(&membership.ID, &membership.CreatedAt, &membership.UpdatedAt))
}

func (r *membershipRepository) Update(ctx context.Context, membership *domain.Membership) error {
	const query = `
        UPDATE memberships SET plan_id=$1, start_date=$2, end_date=$3, is_active=$4, auto_renew=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	return mapErr(r.db.QueryRow(ctx, query,
		membership.PlanID,
		membership.StartDate,
		membership.EndDate,
		membership.IsActive,
		membership.AutoRenew,
		membership.ID,
	).Scan(&membership.UpdatedAt))
}

func (r *membershipRepository) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	m, err := scanMembership(r.db.QueryRow(ctx, membershipSelect+` WHERE m.id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return m, nil
}

func (r *membershipRepository) GetCurrentForUser(ctx context.Context, userID string) (*domain.Membership, error) {
	query := membershipSelect + `
        WHERE m.user_id=$1 AND m.is_active
        ORDER BY m.start_date DESC, m.created_at DESC
        LIMIT 1`
	m, err := scanMembership(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, mapErr(err)
	}
	return m, nil
}

var membershipOrderings = map[string]string{
	"start_date":  "m.start_date ASC",
	"-start_date": "m.start_date DESC",
	"end_date":    "m.end_date ASC",
	"-end_date":   "m.end_date DESC",
}

func (r *membershipRepository) List(ctx context.Context, filter MembershipFilter) ([]domain.Membership, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("m.user_id=$%d", len(args)))
	}
	if filter.PlanID != nil {
		args = append(args, *filter.PlanID)
		clauses = append(clauses, fmt.Sprintf("m.plan_id=$%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, fmt.Sprintf("m.is_active=$%d", len(args)))
	}

	order, ok := membershipOrderings[filter.OrderBy]
	if !ok {
		order = membershipOrderings["-start_date"]
	}
	query := membershipSelect + " WHERE " + strings.Join(clauses, " AND ") +
		" ORDER BY " + order + limitOffset(filter.Limit, filter.Offset, 50)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var result []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func (r *membershipRepository) CountByPlan(ctx context.Context, planID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM memberships WHERE plan_id=$1`, planID).Scan(&count)
	return count, mapErr(err)
}

func (r *membershipRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM memberships WHERE user_id=$1`, userID)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

func scanMembership(row pgx.Row) (*domain.Membership, error) {
	var m domain.Membership
	var p domain.MembershipPlan
	var start, end time.Time
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.UserName,
		&m.PlanID,
		&start,
		&end,
		&m.IsActive,
		&m.AutoRenew,
		&m.CreatedAt,
		&m.UpdatedAt,
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.DurationDays,
		&p.MaxTrainingsPerWeek,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m.StartDate = domain.DateOf(start)
	m.EndDate = domain.DateOf(end)
	m.Plan = &p
	return &m, nil
}
