package crossfilter

import "context"

// NotificationsClient publishes filter events to an external notifications
// service (go-notifications or similar).
type NotificationsClient interface {
	PublishFilterEvent(ctx context.Context, channel string, event FilterEvent) error
}

// NotificationsHook forwards filter events to a notifications client.
type NotificationsHook struct {
	Client  NotificationsClient
	Channel string
}

// FiltersChanged implements FilterHook.
func (h *NotificationsHook) FiltersChanged(ctx context.Context, event FilterEvent) error {
	if h == nil || h.Client == nil {
		return nil
	}
	channel := h.Channel
	if channel == "" {
		channel = "crossfilter." + event.SessionID
	}
	return h.Client.PublishFilterEvent(ctx, channel, event)
}
