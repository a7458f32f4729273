package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/club-service/internal/domain"
)

// TrainingFilter captures schedule listing parameters.
type TrainingFilter struct {
	SportID    *string
	CoachID    *string
	Difficulty *domain.Difficulty
	Date       *time.Time
	DateFrom   *time.Time
	// IncludeInactive lists deactivated trainings too.
	IncludeInactive bool
	Search          string
	OrderBy         string
	Limit           int
	Offset          int
}

// TrainingRepository encapsulates training persistence.
type TrainingRepository interface {
	Create(ctx context.Context, training *domain.Training) error
	Update(ctx context.Context, training *domain.Training) error
	GetByID(ctx context.Context, id string) (*domain.Training, error)
	// LockForUpdate row-locks the training until the surrounding transaction
	// ends. Joined and derived fields are left empty.
	LockForUpdate(ctx context.Context, id string) (*domain.Training, error)
	List(ctx context.Context, filter TrainingFilter) ([]domain.Training, error)
	SlotTaken(ctx context.Context, coachID string, date time.Time, startTime, excludeID string) (bool, error)
	CountBySport(ctx context.Context, sportID string) (int, error)
	DeactivateBySport(ctx context.Context, sportID string) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteByCoach(ctx context.Context, coachID string) (int64, error)
}

type trainingRepository struct {
	db DBTX
}

// NewTrainingRepository instantiates repository.
func NewTrainingRepository(db DBTX) TrainingRepository {
	return &trainingRepository{db: db}
}

// displayName renders "first last" for a users alias, falling back to the
// username.
func displayName(alias string) string {
	return fmt.Sprintf("COALESCE(NULLIF(TRIM(%[1]s.first_name || ' ' || %[1]s.last_name), ''), %[1]s.username)", alias)
}

var trainingSelect = `
        SELECT t.id, t.sport_id, s.name, t.coach_id, ` + displayName("c") + `, t.title, t.description,
               t.difficulty, t.date, to_char(t.start_time, 'HH24:MI'), t.duration, t.max_participants,
               t.is_active, t.created_at, t.updated_at,
               (SELECT COUNT(*) FROM enrollments e WHERE e.training_id = t.id AND e.status = 'confirmed')
        FROM trainings t
        JOIN sports s ON s.id = t.sport_id
        JOIN users c ON c.id = t.coach_id`

func (r *trainingRepository) Create(ctx context.Context, training *domain.Training) error {
	const query = `
        INSERT INTO trainings (sport_id, coach_id, title, description, difficulty, date, start_time,
                               duration, max_participants, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7::text::time,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return mapErr(r.db.QueryRow(ctx, query,
		training.SportID,
		training.CoachID,
		training.Title,
		training.Description,
		training.Difficulty,
		training.Date,
		training.StartTime,
		training.DurationMinutes,
		training.MaxParticipants,
		training.IsActive,
	).Scan(&training.ID, &training.CreatedAt, &training.UpdatedAt))
}

func (r *trainingRepository) Update(ctx context.Context, training *domain.Training) error {
	const query = `
        UPDATE trainings SET sport_id=$1, coach_id=$2, title=$3, description=$4, difficulty=$5, date=$6,
            start_time=$7::text::time, duration=$8, max_participants=$9, is_active=$10, updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	return mapErr(r.db.QueryRow(ctx, query,
		training.SportID,
		training.CoachID,
		training.Title,
		training.Description,
		training.Difficulty,
		training.Date,
		training.StartTime,
		training.DurationMinutes,
		training.MaxParticipants,
		training.IsActive,
		training.ID,
	).Scan(&training.UpdatedAt))
}

func (r *trainingRepository) GetByID(ctx context.Context, id string) (*domain.Training, error) {
	training, err := scanTraining(r.db.QueryRow(ctx, trainingSelect+` WHERE t.id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return training, nil
}

func (r *trainingRepository) LockForUpdate(ctx context.Context, id string) (*domain.Training, error) {
	const query = `
        SELECT id, sport_id, coach_id, title, date, to_char(start_time, 'HH24:MI'), duration,
               max_participants, is_active
        FROM trainings WHERE id=$1
        FOR UPDATE`
	var t domain.Training
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.SportID,
		&t.CoachID,
		&t.Title,
		&t.Date,
		&t.StartTime,
		&t.DurationMinutes,
		&t.MaxParticipants,
		&t.IsActive,
	); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

var trainingOrderings = map[string]string{
	"date":              "t.date ASC, t.start_time ASC",
	"-date":             "t.date DESC, t.start_time DESC",
	"start_time":        "t.start_time ASC, t.date ASC",
	"-start_time":       "t.start_time DESC, t.date DESC",
	"created_at":        "t.created_at ASC",
	"-created_at":       "t.created_at DESC",
	"max_participants":  "t.max_participants ASC",
	"-max_participants": "t.max_participants DESC",
}

func (r *trainingRepository) List(ctx context.Context, filter TrainingFilter) ([]domain.Training, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if !filter.IncludeInactive {
		clauses = append(clauses, "t.is_active")
	}
	if filter.SportID != nil {
		args = append(args, *filter.SportID)
		clauses = append(clauses, fmt.Sprintf("t.sport_id=$%d", len(args)))
	}
	if filter.CoachID != nil {
		args = append(args, *filter.CoachID)
		clauses = append(clauses, fmt.Sprintf("t.coach_id=$%d", len(args)))
	}
	if filter.Difficulty != nil {
		args = append(args, *filter.Difficulty)
		clauses = append(clauses, fmt.Sprintf("t.difficulty=$%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		clauses = append(clauses, fmt.Sprintf("t.date=$%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("t.date >= $%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		clauses = append(clauses, fmt.Sprintf("(LOWER(t.title) LIKE $%[1]d OR LOWER(t.description) LIKE $%[1]d)", len(args)))
	}

	order, ok := trainingOrderings[filter.OrderBy]
	if !ok {
		order = trainingOrderings["date"]
	}
	query := trainingSelect + " WHERE " + strings.Join(clauses, " AND ") +
		" ORDER BY " + order + limitOffset(filter.Limit, filter.Offset, 50)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var result []domain.Training
	for rows.Next() {
		training, err := scanTraining(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *training)
	}
	return result, rows.Err()
}

func (r *trainingRepository) SlotTaken(ctx context.Context, coachID string, date time.Time, startTime, excludeID string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM trainings
            WHERE coach_id=$1 AND date=$2 AND start_time=$3::text::time`
	args := []any{coachID, date, startTime}
	if excludeID != "" {
		args = append(args, excludeID)
		query += " AND id <> $4"
	}
	query += ")"

	var taken bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&taken); err != nil {
		return false, mapErr(err)
	}
	return taken, nil
}

func (r *trainingRepository) CountBySport(ctx context.Context, sportID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM trainings WHERE sport_id=$1`, sportID).Scan(&count)
	return count, mapErr(err)
}

func (r *trainingRepository) DeactivateBySport(ctx context.Context, sportID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE trainings SET is_active=FALSE, updated_at=NOW()
        WHERE sport_id=$1 AND is_active`, sportID)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

func (r *trainingRepository) Delete(ctx context.Context, id string) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM trainings WHERE id=$1`, id))
}

func (r *trainingRepository) DeleteByCoach(ctx context.Context, coachID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM trainings WHERE coach_id=$1`, coachID)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

func scanTraining(row pgx.Row) (*domain.Training, error) {
	var t domain.Training
	if err := row.Scan(
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
	return &t, nil
}
