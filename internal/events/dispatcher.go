package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type registry struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
}

func newRegistry(logger *zap.Logger) *registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &registry{listeners: make(map[EventType][]EventHandler), logger: logger}
}

// Subscribe registers a handler for the given event type.
func (r *registry) Subscribe(eventType EventType, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[eventType] = append(r.listeners[eventType], handler)
}

func (r *registry) deliver(ctx context.Context, event Event) {
	r.mu.RLock()
	handlers := append([]EventHandler{}, r.listeners[event.Type]...)
	r.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			r.logger.Warn("event handler failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
	}
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	*registry
}

// NewInMemoryDispatcher creates a dispatcher that runs handlers inline.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	return &inMemoryDispatcher{registry: newRegistry(logger)}
}

// Publish synchronously invokes handlers for the given event.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.deliver(ctx, event)
	return nil
}

// QueuedDispatcher buffers events for a background consumer so publishers
// never wait on handlers.
type QueuedDispatcher struct {
	*registry
	queue chan Event
}

// NewQueuedDispatcher creates a dispatcher with the given buffer size.
func NewQueuedDispatcher(size int, logger *zap.Logger) *QueuedDispatcher {
	if size <= 0 {
		size = 128
	}
	return &QueuedDispatcher{registry: newRegistry(logger), queue: make(chan Event, size)}
}

// Publish enqueues the event, dropping it when the buffer is full.
func (d *QueuedDispatcher) Publish(_ context.Context, event Event) error {
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("event queue full; dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}

// Run delivers queued events until ctx is cancelled, then drains what is
// already buffered.
func (d *QueuedDispatcher) Run(ctx context.Context) {
	for {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
		case <-ctx.Done():
			for {
				select {
				case event := <-d.queue:
					d.deliver(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}
