package crossfilter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifications struct {
	channels []string
	events   []FilterEvent
}

func (r *recordingNotifications) PublishFilterEvent(_ context.Context, channel string, event FilterEvent) error {
	r.channels = append(r.channels, channel)
	r.events = append(r.events, event)
	return nil
}

func TestNotificationsHookForwardsCoordinatorEvents(t *testing.T) {
	client := &recordingNotifications{}
	broadcast := NewBroadcastHook()
	events, cancel := broadcast.Subscribe("s-1")
	defer cancel()

	hooks := FilterHooks{broadcast, &NotificationsHook{Client: client}}
	c := NewCoordinator(churnRows(), churnColumns(), WithSessionID("s-1"), WithFilterHook(hooks))
	_, err := c.Toggle(context.Background(), "plan", "Pro")
	require.NoError(t, err)

	require.Len(t, client.events, 1)
	assert.Equal(t, "crossfilter.s-1", client.channels[0])
	assert.Equal(t, "plan", client.events[0].ColumnID)

	select {
	case event := <-events:
		assert.Equal(t, "s-1", event.SessionID)
	default:
		t.Fatalf("expected broadcast subscriber to receive the event")
	}
}

func TestNotificationsHookWithoutClient(t *testing.T) {
	var hook *NotificationsHook
	assert.NoError(t, hook.FiltersChanged(context.Background(), FilterEvent{}))
	assert.NoError(t, (&NotificationsHook{}).FiltersChanged(context.Background(), FilterEvent{}))
}
