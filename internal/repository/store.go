package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx, so every
// repository can run either on the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the repositories bound to one DBTX.
type Store struct {
	Users          UserRepository
	Sports         SportRepository
	Trainings      TrainingRepository
	Enrollments    EnrollmentRepository
	Plans          MembershipPlanRepository
	Memberships    MembershipRepository
	PasswordResets PasswordResetRepository
}

// NewStore binds all repositories to db.
func NewStore(db DBTX) *Store {
	return &Store{
		Users:          NewUserRepository(db),
		Sports:         NewSportRepository(db),
		Trainings:      NewTrainingRepository(db),
		Enrollments:    NewEnrollmentRepository(db),
		Plans:          NewMembershipPlanRepository(db),
		Memberships:    NewMembershipRepository(db),
		PasswordResets: NewPasswordResetRepository(db),
	}
}

// TxFunc runs against a Store whose repositories share one transaction.
type TxFunc func(ctx context.Context, store *Store) error

// Transactor runs units of work atomically.
type Transactor interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

type pgTransactor struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewTransactor returns a Transactor backed by pool.
func NewTransactor(pool *pgxpool.Pool, logger *zap.Logger) Transactor {
	return &pgTransactor{pool: pool, logger: logger}
}

// WithinTx commits when fn returns nil and rolls back otherwise. A
// serialization failure or deadlock is retried once with a fresh transaction;
// fn must therefore re-read everything it relies on.
func (t *pgTransactor) WithinTx(ctx context.Context, fn TxFunc) error {
	if t.pool == nil {
		return errors.New("postgres pool not configured")
	}
	err := t.runOnce(ctx, fn)
	if IsRetryable(err) {
		t.logger.Warn("retrying transaction after transient conflict", zap.Error(err))
		err = t.runOnce(ctx, fn)
	}
	return err
}

func (t *pgTransactor) runOnce(ctx context.Context, fn TxFunc) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, NewStore(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
