package orchestrator

import (
	"fmt"
	"time"

	"github.com/go-go-golems/docqa/pkg/events"
	"github.com/rs/zerolog/log"
)

const DefaultNotificationTimeout = 3 * time.Second

type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationFailure NotificationKind = "failure"
)

const (
	uploadFailedText   = "Error while uploading the document."
	creationFailedText = "Error while creating the conversation."
)

func uploadSucceededText(n int) string {
	return fmt.Sprintf("%d document(s) analyzed successfully!", n)
}

type Notification struct {
	Text string           `json:"text" yaml:"text"`
	Kind NotificationKind `json:"kind" yaml:"kind"`
}

// showNotification replaces the current notification and schedules its
// dismissal. The generation counter keeps a timer that already fired for an
// older notification from clearing this one. Nothing is shown after Close.
func (o *Orchestrator) showNotification(kind NotificationKind, text string) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	if o.notifTimer != nil {
		o.notifTimer.Stop()
		o.notifTimer = nil
	}
	o.notifGen++
	gen := o.notifGen
	o.notification = &Notification{Text: text, Kind: kind}
	if o.notificationTimeout > 0 {
		o.notifTimer = time.AfterFunc(o.notificationTimeout, func() {
			o.clearNotification(gen)
		})
	}
	o.mu.Unlock()

	log.Debug().Str("kind", string(kind)).Str("text", text).Msg("Showing notification")
	o.publish(events.NewEvent(events.EventTypeNotificationShown, events.WithNotification(text)))
}

func (o *Orchestrator) clearNotification(gen uint64) {
	o.mu.Lock()
	if gen != o.notifGen || o.notification == nil {
		o.mu.Unlock()
		return
	}
	o.notification = nil
	o.notifTimer = nil
	o.mu.Unlock()

	o.publish(events.NewEvent(events.EventTypeNotificationCleared))
}

// DismissNotification clears the current notification right away.
func (o *Orchestrator) DismissNotification() {
	o.mu.Lock()
	if o.notifTimer != nil {
		o.notifTimer.Stop()
		o.notifTimer = nil
	}
	gen := o.notifGen
	o.mu.Unlock()

	o.clearNotification(gen)
}
