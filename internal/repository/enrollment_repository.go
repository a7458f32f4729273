package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/club-service/internal/domain"
)

// EnrollmentRepository encapsulates enrollment persistence.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *domain.Enrollment) error
	Update(ctx context.Context, enrollment *domain.Enrollment) error
	GetByID(ctx context.Context, id string) (*domain.Enrollment, error)
	// GetActive returns the pending or confirmed enrollment of user on
	// training.
	GetActive(ctx context.Context, userID, trainingID string) (*domain.Enrollment, error)
	CountConfirmed(ctx context.Context, trainingID string) (int, error)
	CountByTraining(ctx context.Context, trainingID string) (int, error)
	ListByUser(ctx context.Context, userID string) ([]domain.EnrollmentDetail, error)
	ListByTraining(ctx context.Context, trainingID string) ([]domain.EnrollmentDetail, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteByCoach(ctx context.Context, coachID string) (int64, error)
}

type enrollmentRepository struct {
	db DBTX
}

// NewEnrollmentRepository instantiates repository.
func NewEnrollmentRepository(db DBTX) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

const enrollmentColumns = `id, user_id, training_id, status, attended, notes, enrolled_at, updated_at`

var enrollmentDetailSelect = `
        SELECT e.id, e.user_id, e.training_id, e.status, e.attended, e.notes, e.enrolled_at, e.updated_at,
               ` + displayName("u") + `,
               t.id, t.sport_id, s.name, t.coach_id, ` + displayName("c") + `, t.title, t.description,
               t.difficulty, t.date, to_char(t.start_time, 'HH24:MI'), t.duration, t.max_participants,
               t.is_active, t.created_at, t.updated_at,
               (SELECT COUNT(*) FROM enrollments x WHERE x.training_id = t.id AND x.status = 'confirmed')
        FROM enrollments e
        JOIN users u ON u.id = e.user_id
        JOIN trainings t ON t.id = e.training_id
        JOIN sports s ON s.id = t.sport_id
        JOIN users c ON c.id = t.coach_id`

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	const query = `
        INSERT INTO enrollments (user_id, training_id, status, attended, notes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, enrolled_at, updated_at`
	return mapErr(r.db.QueryRow(ctx, query,
		enrollment.UserID,
		enrollment.TrainingID,
		enrollment.Status,
		enrollment.Attended,
		enrollment.Notes,
	).Scan(&enrollment.ID, &enrollment.EnrolledAt, &enrollment.UpdatedAt))
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *domain.Enrollment) error {
	const query = `
        UPDATE enrollments SET status=$1, attended=$2, notes=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return mapErr(r.db.QueryRow(ctx, query,
		enrollment.Status,
		enrollment.Attended,
		enrollment.Notes,
		enrollment.ID,
	).Scan(&enrollment.UpdatedAt))
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id string) (*domain.Enrollment, error) {
	return r.fetchSingle(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id=$1`, id)
}

func (r *enrollmentRepository) GetActive(ctx context.Context, userID, trainingID string) (*domain.Enrollment, error) {
	const query = `SELECT ` + enrollmentColumns + ` FROM enrollments
        WHERE user_id=$1 AND training_id=$2 AND status IN ('pending', 'confirmed')
        ORDER BY enrolled_at DESC
        LIMIT 1`
	return r.fetchSingle(ctx, query, userID, trainingID)
}

func (r *enrollmentRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Enrollment, error) {
	var e domain.Enrollment
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&e.ID,
		&e.UserID,
		&e.TrainingID,
		&e.Status,
		&e.Attended,
		&e.Notes,
		&e.EnrolledAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return &e, nil
}

func (r *enrollmentRepository) CountConfirmed(ctx context.Context, trainingID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE training_id=$1 AND status='confirmed'`, trainingID,
	).Scan(&count)
	return count, mapErr(err)
}

func (r *enrollmentRepository) CountByTraining(ctx context.Context, trainingID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments WHERE training_id=$1`, trainingID).Scan(&count)
	return count, mapErr(err)
}

func (r *enrollmentRepository) ListByUser(ctx context.Context, userID string) ([]domain.EnrollmentDetail, error) {
	return r.listDetails(ctx, enrollmentDetailSelect+` WHERE e.user_id=$1 ORDER BY e.enrolled_at DESC`, userID)
}

func (r *enrollmentRepository) ListByTraining(ctx context.Context, trainingID string) ([]domain.EnrollmentDetail, error) {
	return r.listDetails(ctx, enrollmentDetailSelect+` WHERE e.training_id=$1 ORDER BY e.enrolled_at ASC`, trainingID)
}

func (r *enrollmentRepository) listDetails(ctx context.Context, query string, arg any) ([]domain.EnrollmentDetail, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var result []domain.EnrollmentDetail
	for rows.Next() {
		detail, err := scanEnrollmentDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *detail)
	}
	return result, rows.Err()
}

func (r *enrollmentRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM enrollments WHERE user_id=$1`, userID)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByCoach removes every enrollment on trainings coached by coachID.
func (r *enrollmentRepository) DeleteByCoach(ctx context.Context, coachID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        DELETE FROM enrollments
        WHERE training_id IN (SELECT id FROM trainings WHERE coach_id=$1)`, coachID)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

func scanEnrollmentDetail(row pgx.Row) (*domain.EnrollmentDetail, error) {
	var d domain.EnrollmentDetail
	t := &d.Training
	if err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.TrainingID,
		&d.Status,
		&d.Attended,
		&d.Notes,
		&d.EnrolledAt,
		&d.UpdatedAt,
		&d.UserName,
		&t.ID,
		&t.SportID,
		&t.SportName,
		&t.CoachID,
		&t.CoachName,
		&t.Title,
		&t.Description,
		&t.Difficulty,
		&t.Date,
		&t.StartTime,
		&t.DurationMinutes,
		&t.MaxParticipants,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.EnrolledCount,
	); err != nil {
		return nil, err
	}
	return &d, nil
}
