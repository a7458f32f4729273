package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/club-service/internal/domain"
)

// UserFilter captures admin listing parameters.
type UserFilter struct {
	Role           *domain.Role
	IsActiveMember *bool
	Search         string
	OrderBy        string
	Limit          int
	Offset         int
}

// UserRepository defines persistence access for club users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	TouchLastLogin(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, first_name, last_name, phone, birth_date, address,
        password_hash, role, is_active_member, membership_start, last_login, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, email, first_name, last_name, phone, birth_date, address,
                           password_hash, role, is_active_member)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, membership_start, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.BirthDate,
		user.Address,
		user.PasswordHash,
		user.Role,
		user.IsActiveMember,
	).Scan(&user.ID, &user.MembershipStart, &user.CreatedAt, &user.UpdatedAt)
	return mapErr(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET username=$1, email=$2, first_name=$3, last_name=$4, phone=$5, birth_date=$6,
            address=$7, password_hash=$8, role=$9, is_active_member=$10, updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.BirthDate,
		user.Address,
		user.PasswordHash,
		user.Role,
		user.IsActiveMember,
		user.ID,
	).Scan(&user.UpdatedAt)
	return mapErr(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapErr(err)
	}
	return user, nil
}

var userOrderings = map[string]string{
	"username":     "username ASC",
	"-username":    "username DESC",
	"date_joined":  "created_at ASC",
	"-date_joined": "created_at DESC",
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	clauses := []string{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.IsActiveMember != nil {
		args = append(args, *filter.IsActiveMember)
		clauses = append(clauses, fmt.Sprintf("is_active_member=$%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(username) LIKE %[1]s OR LOWER(first_name) LIKE %[1]s OR LOWER(last_name) LIKE %[1]s OR LOWER(email) LIKE %[1]s)", p))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	order, ok := userOrderings[filter.OrderBy]
	if !ok {
		order = "created_at DESC"
	}
	query += " ORDER BY " + order + limitOffset(filter.Limit, filter.Offset, 50)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id string) error {
	return requireAffected(r.db.Exec(ctx, `UPDATE users SET last_login=NOW() WHERE id=$1`, id))
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, id))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.BirthDate,
		&user.Address,
		&user.PasswordHash,
		&user.Role,
		&user.IsActiveMember,
		&user.MembershipStart,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func limitOffset(limit, offset, fallback int) string {
	if limit <= 0 {
		limit = fallback
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}
