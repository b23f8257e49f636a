package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, AuthEvent) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event AuthEvent) error
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
	}
}

// Publish synchronously invokes handlers for the given event. Every handler runs;
// their errors are joined.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event AuthEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			d.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// AuditLogger returns a handler that writes every event to logger.
func AuditLogger(logger *zap.Logger) EventHandler {
	return func(_ context.Context, event AuthEvent) error {
		logger.Info("auth event",
			zap.String("event", string(event.Type)),
			zap.String("identity", event.Identity),
			zap.String("provider", event.Provider),
			zap.Time("occurred_at", event.OccurredAt),
		)
		return nil
	}
}

// AllEventTypes lists every auth event the service publishes.
var AllEventTypes = []EventType{EventRegistered, EventLoggedIn, EventLoggedOut, EventReissued, EventWithdrawn}

// SubscribeAll registers handler for every auth event type.
func SubscribeAll(d Dispatcher, handler EventHandler) {
	for _, t := range AllEventTypes {
		d.Subscribe(t, handler)
	}
}
