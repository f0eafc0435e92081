package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk-tracker/internal/events"
)

func TestActivityLog_RecordsEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	notifier := events.NewNotifier()
	activity := NewActivityLog(notifier, zap.New(core))
	activity.Register()

	require.NoError(t, notifier.Publish(context.Background(), events.Event{
		Type:     events.EventTicketCreated,
		TicketID: "t-1",
	}))

	entries := logs.FilterMessage("ticket activity").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, string(events.EventTicketCreated), fields["event"])
	assert.Equal(t, "t-1", fields["ticket_id"])
}

func TestActivityLog_RegisterIsIdempotent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	notifier := events.NewNotifier()
	activity := NewActivityLog(notifier, zap.New(core))
	activity.Register()
	activity.Register()

	require.NoError(t, notifier.Publish(context.Background(), events.Event{Type: events.EventTicketDeleted}))
	assert.Len(t, logs.All(), 1)
}

func TestActivityLog_CloseStopsLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	notifier := events.NewNotifier()
	activity := NewActivityLog(notifier, zap.New(core))
	activity.Register()
	activity.Close()

	require.NoError(t, notifier.Publish(context.Background(), events.Event{Type: events.EventTicketUpdated}))
	assert.Empty(t, logs.All())
}
