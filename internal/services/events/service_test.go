package events

import (
	"context"
	"errors"
	"testing"

	"github.com/porticodesk/portico/internal/common"
	"github.com/porticodesk/portico/internal/interfaces"
	"github.com/stretchr/testify/assert"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	svc := NewService(common.GetLogger())

	var got []string
	svc.Subscribe("subscription.changed", func(ctx context.Context, event interfaces.Event) error {
		got = append(got, event.Payload["tenant_id"].(string))
		return nil
	})
	svc.Subscribe("subscription.changed", func(ctx context.Context, event interfaces.Event) error {
		got = append(got, "second")
		return nil
	})

	svc.Publish(context.Background(), interfaces.Event{
		Type:    "subscription.changed",
		Payload: map[string]any{"tenant_id": "ten_1"},
	})

	assert.Equal(t, []string{"ten_1", "second"}, got)
}

func TestPublishIgnoresUnsubscribedTypes(t *testing.T) {
	svc := NewService(common.GetLogger())

	called := false
	svc.Subscribe("a", func(ctx context.Context, event interfaces.Event) error {
		called = true
		return nil
	})

	svc.Publish(context.Background(), interfaces.Event{Type: "b"})
	assert.False(t, called)
}

func TestHandlerErrorDoesNotStopDelivery(t *testing.T) {
	svc := NewService(common.GetLogger())

	var reached bool
	svc.Subscribe("x", func(ctx context.Context, event interfaces.Event) error {
		return errors.New("handler blew up")
	})
	svc.Subscribe("x", func(ctx context.Context, event interfaces.Event) error {
		reached = true
		return nil
	})

	svc.Publish(context.Background(), interfaces.Event{Type: "x"})
	assert.True(t, reached)
}

func TestCloseStopsDelivery(t *testing.T) {
	svc := NewService(common.GetLogger())

	called := false
	svc.Subscribe("x", func(ctx context.Context, event interfaces.Event) error {
		called = true
		return nil
	})

	assert.NoError(t, svc.Close())
	svc.Publish(context.Background(), interfaces.Event{Type: "x"})
	assert.False(t, called)
}
