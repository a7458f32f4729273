package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/club-service/internal/domain"
)

// SportFilter captures catalog listing parameters.
type SportFilter struct {
	IsActive *bool
	Search   string
	Limit    int
	Offset   int
}

// SportRepository encapsulates sport persistence.
type SportRepository interface {
	Create(ctx context.Context, sport *domain.Sport) error
	Update(ctx context.Context, sport *domain.Sport) error
	GetByID(ctx context.Context, id string) (*domain.Sport, error)
	List(ctx context.Context, filter SportFilter) ([]domain.Sport, error)
	Delete(ctx context.Context, id string) error
}

type sportRepository struct {
	db DBTX
}

// NewSportRepository instantiates repository.
func NewSportRepository(db DBTX) SportRepository {
	return &sportRepository{db: db}
}

const sportSelect = `
        SELECT s.id, s.name, s.description, s.is_active, s.created_at, s.updated_at,
               (SELECT COUNT(*) FROM trainings t WHERE t.sport_id = s.id AND t.is_active)
        FROM sports s`

func (r *sportRepository) Create(ctx context.Context, sport *domain.Sport) error {
	const query = `
        INSERT INTO sports (name, description, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return mapErr(r.db.QueryRow(ctx, query,
		sport.Name,
		sport.Description,
		sport.IsActive,
	).Scan(&sport.ID, &sport.CreatedAt, &sport.UpdatedAt))
}

func (r *sportRepository) Update(ctx context.Context, sport *domain.Sport) error {
	const query = `
        UPDATE sports SET name=$1, description=$2, is_active=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return mapErr(r.db.QueryRow(ctx, query,
		sport.Name,
		sport.Description,
		sport.IsActive,
		sport.ID,
	).Scan(&sport.UpdatedAt))
}

func (r *sportRepository) GetByID(ctx context.Context, id string) (*domain.Sport, error) {
	sport, err := scanSport(r.db.QueryRow(ctx, sportSelect+` WHERE s.id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return sport, nil
}

func (r *sportRepository) List(ctx context.Context, filter SportFilter) ([]domain.Sport, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, fmt.Sprintf("s.is_active=$%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		clauses = append(clauses, fmt.Sprintf("(LOWER(s.name) LIKE $%[1]d OR LOWER(s.description) LIKE $%[1]d)", len(args)))
	}

	query := sportSelect + " WHERE " + strings.Join(clauses, " AND ") +
		" ORDER BY s.name" + limitOffset(filter.Limit, filter.Offset, 100)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var result []domain.Sport
	for rows.Next() {
		sport, err := scanSport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sport)
	}
	return result, rows.Err()
}

func (r *sportRepository) Delete(ctx context.Context, id string) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM sports WHERE id=$1`, id))
}

func scanSport(row pgx.Row) (*domain.Sport, error) {
	var sport domain.Sport
	if err := row.Scan(
		&sport.ID,
		&sport.Name,
		&sport.Description,
		&sport.IsActive,
		&sport.CreatedAt,
		&sport.UpdatedAt,
		&sport.TrainingsCount,
	); err != nil {
		return nil, err
	}
	return &sport, nil
}
