package orchestrator

import (
	"testing"
	"time"

	"github.com/go-go-golems/docqa/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationAutoDismiss(t *testing.T) {
	f := newFixture(t, WithNotificationTimeout(50*time.Millisecond))

	f.o.showNotification(NotificationSuccess, uploadSucceededText(1))
	require.NotNil(t, f.o.State().Notification)

	require.Eventually(t, func() bool {
		return f.o.State().Notification == nil
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return countEvents(f.sink, events.EventTypeNotificationCleared) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestNotificationRestartsTimer(t *testing.T) {
	f := newFixture(t, WithNotificationTimeout(400*time.Millisecond))

	f.o.showNotification(NotificationFailure, uploadFailedText)
	time.Sleep(300 * time.Millisecond)
	f.o.showNotification(NotificationSuccess, uploadSucceededText(2))

	// the first timer would have fired by now
	time.Sleep(200 * time.Millisecond)
	n := f.o.State().Notification
	require.NotNil(t, n)
	assert.Equal(t, NotificationSuccess, n.Kind)

	require.Eventually(t, func() bool {
		return f.o.State().Notification == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStaleDismissalIsIgnored(t *testing.T) {
	f := newFixture(t)

	f.o.showNotification(NotificationFailure, "first")
	f.o.showNotification(NotificationSuccess, "second")

	f.o.clearNotification(1)
	n := f.o.State().Notification
	require.NotNil(t, n)
	assert.Equal(t, "second", n.Text)

	f.o.clearNotification(2)
	assert.Nil(t, f.o.State().Notification)
}

func TestDismissNotification(t *testing.T) {
	f := newFixture(t)

	f.o.DismissNotification()
	assert.Equal(t, 0, countEvents(f.sink, events.EventTypeNotificationCleared))

	f.o.showNotification(NotificationSuccess, "done")
	f.o.DismissNotification()
	assert.Nil(t, f.o.State().Notification)
	assert.Equal(t, 1, countEvents(f.sink, events.EventTypeNotificationCleared))
}

func TestCloseStopsPendingDismissal(t *testing.T) {
	f := newFixture(t, WithNotificationTimeout(20*time.Millisecond))

	f.o.showNotification(NotificationSuccess, "done")
	f.o.Close()
	time.Sleep(100 * time.Millisecond)

	assert.NotNil(t, f.o.State().Notification)
}

func TestNoNotificationAfterClose(t *testing.T) {
	f := newFixture(t)
	f.o.Close()

	f.o.showNotification(NotificationFailure, uploadFailedText)

	assert.Nil(t, f.o.State().Notification)
	assert.Equal(t, 0, countEvents(f.sink, events.EventTypeNotificationShown))
}
