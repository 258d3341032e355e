package events

import (
	"encoding/json"
	"time"

	"github.com/go-go-golems/docqa/pkg/conversation"
	"github.com/pkg/errors"
)

type EventType string

const (
	EventTypeConversationsRefreshed EventType = "conversations-refreshed"
	EventTypeConversationSelected   EventType = "conversation-selected"
	EventTypeConversationDeleted    EventType = "conversation-deleted"
	EventTypeMessageAppended        EventType = "message-appended"
	EventTypeSendStarted            EventType = "send-started"
	EventTypeSendFinished           EventType = "send-finished"
	EventTypeUploadStarted          EventType = "upload-started"
	EventTypeUploadFinished         EventType = "upload-finished"
	EventTypeNotificationShown      EventType = "notification-shown"
	EventTypeNotificationCleared    EventType = "notification-cleared"
)

var knownEventTypes = map[EventType]struct{}{
	EventTypeConversationsRefreshed: {},
	EventTypeConversationSelected:   {},
	EventTypeConversationDeleted:    {},
	EventTypeMessageAppended:        {},
	EventTypeSendStarted:            {},
	EventTypeSendFinished:           {},
	EventTypeUploadStarted:          {},
	EventTypeUploadFinished:         {},
	EventTypeNotificationShown:      {},
	EventTypeNotificationCleared:    {},
}

// Event tells subscribers that orchestrator state changed. It carries just
// enough to log or react; the full state is read back from the orchestrator.
type Event struct {
	Type           EventType             `json:"type"`
	ConversationID string                `json:"conversation_id,omitempty"`
	Message        *conversation.Message `json:"message,omitempty"`
	Notification   string                `json:"notification,omitempty"`
	Error          string                `json:"error,omitempty"`
	Time           time.Time             `json:"time"`
}

type EventOption func(*Event)

func WithConversationID(id string) EventOption {
	return func(e *Event) {
		e.ConversationID = id
	}
}

func WithMessage(msg *conversation.Message) EventOption {
	return func(e *Event) {
		e.Message = msg
	}
}

func WithNotification(text string) EventOption {
	return func(e *Event) {
		e.Notification = text
	}
}

func WithError(err error) EventOption {
	return func(e *Event) {
		if err != nil {
			e.Error = err.Error()
		}
	}
}

func NewEvent(t EventType, options ...EventOption) Event {
	ret := Event{
		Type: t,
		Time: time.Now(),
	}
	for _, o := range options {
		o(&ret)
	}
	return ret
}

func NewEventFromJSON(b []byte) (Event, error) {
	var ret Event
	if err := json.Unmarshal(b, &ret); err != nil {
		return Event{}, errors.Wrap(err, "could not decode event")
	}
	if _, ok := knownEventTypes[ret.Type]; !ok {
		return Event{}, errors.Errorf("unknown event type %q", ret.Type)
	}
	return ret, nil
}
