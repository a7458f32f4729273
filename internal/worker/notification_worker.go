package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/club-service/internal/events"
	"github.com/spec-kit/club-service/internal/service"
)

// StartNotificationWorker registers notification handlers and delivers
// queued events in the background until ctx is cancelled. The returned
// channel closes once the queue has been drained.
func StartNotificationWorker(ctx context.Context, queue *events.QueuedDispatcher, notifications *service.NotificationService, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if queue == nil || notifications == nil {
		close(done)
		return done
	}
	notifications.RegisterHandlers()

	go func() {
		defer close(done)
		logger.Info("notification worker started")
		queue.Run(ctx)
		logger.Info("notification worker stopped")
	}()
	return done
}
