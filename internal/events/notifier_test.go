package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_DeliversInRegistrationOrder(t *testing.T) {
	n := NewNotifier()
	var order []string
	n.Subscribe(func(ctx context.Context, e Event) error {
		order = append(order, "first")
		return nil
	})
	n.Subscribe(func(ctx context.Context, e Event) error {
		order = append(order, "second")
		return nil
	})
	n.Subscribe(func(ctx context.Context, e Event) error {
		order = append(order, "third")
		return nil
	})

	require.NoError(t, n.Publish(context.Background(), Event{Type: EventTicketCreated}))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestNotifier_DuplicateRegistrationsAreIndependent(t *testing.T) {
	n := NewNotifier()
	calls := 0
	handler := func(ctx context.Context, e Event) error {
		calls++
		return nil
	}
	first := n.Subscribe(handler)
	n.Subscribe(handler)

	require.NoError(t, n.Publish(context.Background(), Event{}))
	assert.Equal(t, 2, calls)

	first.Unsubscribe()
	calls = 0
	require.NoError(t, n.Publish(context.Background(), Event{}))
	assert.Equal(t, 1, calls)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	n := NewNotifier()
	calls := 0
	sub := n.Subscribe(func(ctx context.Context, e Event) error {
		calls++
		return nil
	})

	require.NoError(t, n.Publish(context.Background(), Event{}))
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent
	require.NoError(t, n.Publish(context.Background(), Event{}))
	assert.Equal(t, 1, calls)
}

func TestNotifier_UnsubscribeDuringPassDoesNotAffectCurrentPass(t *testing.T) {
	n := NewNotifier()
	var delivered []string
	var second *Subscription

	n.Subscribe(func(ctx context.Context, e Event) error {
		delivered = append(delivered, "first")
		second.Unsubscribe()
		return nil
	})
	second = n.Subscribe(func(ctx context.Context, e Event) error {
		delivered = append(delivered, "second")
		return nil
	})

	require.NoError(t, n.Publish(context.Background(), Event{}))
	assert.Equal(t, []string{"first", "second"}, delivered, "snapshot taken at pass start")

	require.NoError(t, n.Publish(context.Background(), Event{}))
	assert.Equal(t, []string{"first", "second", "first"}, delivered)
}

func TestNotifier_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	n := NewNotifier()
	reached := false
	n.Subscribe(func(ctx context.Context, e Event) error {
		return assert.AnError
	})
	n.Subscribe(func(ctx context.Context, e Event) error {
		reached = true
		return nil
	})

	require.NoError(t, n.Publish(context.Background(), Event{}))
	assert.True(t, reached)
}

func TestNotifier_SubscribeDuringPassNotCalledInCurrentPass(t *testing.T) {
	n := NewNotifier()
	lateCalls := 0
	n.Subscribe(func(ctx context.Context, e Event) error {
		n.Subscribe(func(ctx context.Context, e Event) error {
			lateCalls++
			return nil
		})
		return nil
	})

	require.NoError(t, n.Publish(context.Background(), Event{}))
	assert.Equal(t, 0, lateCalls)
	require.NoError(t, n.Publish(context.Background(), Event{}))
	assert.Equal(t, 1, lateCalls)
}
