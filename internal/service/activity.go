package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-tracker/internal/events"
)

// ActivityLog records every domain event through the structured logger. It
// is a plain notifier subscriber: the store does not know it exists.
type ActivityLog struct {
	notifier     events.Notifier
	logger       *zap.Logger
	subscription *events.Subscription
}

// NewActivityLog creates the service.
func NewActivityLog(notifier events.Notifier, logger *zap.Logger) *ActivityLog {
	return &ActivityLog{
		notifier: notifier,
		logger:   logger,
	}
}

// Register subscribes to the notifier.
func (a *ActivityLog) Register() {
	if a.notifier == nil || a.subscription != nil {
		return
	}
	a.subscription = a.notifier.Subscribe(a.handleEvent)
}

// Close drops the subscription.
func (a *ActivityLog) Close() {
	if a.subscription != nil {
		a.subscription.Unsubscribe()
		a.subscription = nil
	}
}

func (a *ActivityLog) handleEvent(ctx context.Context, event events.Event) error {
	a.logger.Info("ticket activity",
		zap.String("event", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	return nil
}
