package imapclient

import (
	evbus "github.com/asaskevich/EventBus"
)

// Event identifies a folder notification spec.md §4.7 names:
// "the folder fires messageCount (added/removed) and messageChanged
// (flags) events in order". Subscribers receive the owning *Folder as
// the first Publish argument.
type Event int

const (
	// EventMessageCount fires whenever EXISTS/EXPUNGE change the
	// folder's message count.
	EventMessageCount Event = iota
	// EventMessageChanged fires after a FETCH or STORE response
	// changes a cached message's flags.
	EventMessageChanged
)

var eventList = [...]string{
	"imapclient:message_count",
	"imapclient:message_changed",
}

func (e Event) String() string {
	if int(e) < 0 || int(e) >= len(eventList) {
		return "imapclient:unknown"
	}
	return eventList[e]
}

// EventHandler lazily wraps an EventBus so a Conn with no subscribers
// never allocates one, same as flashmob's ev.EventHandler.
type EventHandler struct {
	*evbus.EventBus
}

func (h *EventHandler) Subscribe(topic Event, fn interface{}) error {
	if h.EventBus == nil {
		h.EventBus = evbus.New()
	}
	return h.EventBus.Subscribe(topic.String(), fn)
}

func (h *EventHandler) Publish(topic Event, args ...interface{}) {
	if h.EventBus == nil {
		return
	}
	h.EventBus.Publish(topic.String(), args...)
}

func (h *EventHandler) Unsubscribe(topic Event, handler interface{}) error {
	if h.EventBus == nil {
		return nil
	}
	return h.EventBus.Unsubscribe(topic.String(), handler)
}
