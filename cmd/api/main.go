package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/club-service/internal/api/http"
	"github.com/spec-kit/club-service/internal/api/http/handlers"
	"github.com/spec-kit/club-service/internal/auth"
	"github.com/spec-kit/club-service/internal/config"
	"github.com/spec-kit/club-service/internal/events"
	"github.com/spec-kit/club-service/internal/observability"
	"github.com/spec-kit/club-service/internal/persistence"
	"github.com/spec-kit/club-service/internal/repository"
	"github.com/spec-kit/club-service/internal/service"
	"github.com/spec-kit/club-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var revocations auth.RevocationStore = auth.NewMemoryRevocationStore()
	health := map[string]handlers.Pinger{"postgres": pg}
	if redis.Client != nil {
		revocations = auth.NewRedisRevocationStore(redis.Client)
		health["redis"] = redis
	}

	pool := pg.PoolHandle()
	store := repository.NewStore(pool)
	tx := repository.NewTransactor(pool, logger)
	metrics := observability.NewMetrics()
	queue := events.NewQueuedDispatcher(256, logger)
	mailer := service.NewMailer(cfg.Notification, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          store.Users,
		PasswordResetRepo: store.PasswordResets,
		Transactor:        tx,
		Revocations:       revocations,
		Mailer:            mailer,
		Dispatcher:        queue,
		Logger:            logger,
	})
	userService := service.NewUserService(store.Users, tx, logger)
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		SportRepo:  store.Sports,
		PlanRepo:   store.Plans,
		Transactor: tx,
		Logger:     logger,
	})
	trainingService := service.NewTrainingService(service.TrainingDependencies{
		TrainingRepo:   store.Trainings,
		SportRepo:      store.Sports,
		UserRepo:       store.Users,
		EnrollmentRepo: store.Enrollments,
		Transactor:     tx,
		Dispatcher:     queue,
		Logger:         logger,
	})
	enrollmentService := service.NewEnrollmentService(service.EnrollmentDependencies{
		TrainingRepo:   store.Trainings,
		EnrollmentRepo: store.Enrollments,
		Transactor:     tx,
		Recorder:       metrics,
		Dispatcher:     queue,
		Logger:         logger,
	})
	membershipService := service.NewMembershipService(service.MembershipDependencies{
		MembershipRepo: store.Memberships,
		PlanRepo:       store.Plans,
		UserRepo:       store.Users,
		Dispatcher:     queue,
		Logger:         logger,
	})
	notifications := service.NewNotificationService(queue, store.Users, mailer, logger)

	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := worker.StartNotificationWorker(workerCtx, queue, notifications, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Users, revocations, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, health),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Trainings:      handlers.NewTrainingsHandler(trainingService, enrollmentService),
		Enrollments:    handlers.NewEnrollmentsHandler(enrollmentService),
		Memberships:    handlers.NewMembershipsHandler(membershipService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	stopWorker()
	<-workerDone
	logger.Info("metrics", zap.Any("counters", metrics.Snapshot()))
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
