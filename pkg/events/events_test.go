package events

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-go-golems/docqa/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventFromJSON(t *testing.T) {
	msg := conversation.NewUserMessage("hello")
	e := NewEvent(EventTypeMessageAppended, WithConversationID("c1"), WithMessage(msg), WithError(nil))

	b, err := json.Marshal(e)
	require.NoError(t, err)

	decoded, err := NewEventFromJSON(b)
	require.NoError(t, err)
	assert.Equal(t, EventTypeMessageAppended, decoded.Type)
	assert.Equal(t, "c1", decoded.ConversationID)
	require.NotNil(t, decoded.Message)
	assert.Equal(t, msg.ID, decoded.Message.ID)
	assert.Empty(t, decoded.Error)

	_, err = NewEventFromJSON([]byte(`{"type":"bogus"}`))
	assert.Error(t, err)
	_, err = NewEventFromJSON([]byte(`{`))
	assert.Error(t, err)
}

func TestWithError(t *testing.T) {
	e := NewEvent(EventTypeSendFinished, WithError(errors.New("QA down")))
	assert.Equal(t, "QA down", e.Error)
}

func TestEventRouterDeliversSinkEvents(t *testing.T) {
	router, err := NewEventRouter(WithLogger(watermill.NopLogger{}))
	require.NoError(t, err)

	received := make(chan Event, 4)
	router.AddHandler("collect", TopicOrchestrator, EventHandler(func(ctx context.Context, e Event) error {
		received <- e
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = router.Run(ctx)
	}()
	<-router.Running()

	sink := router.Sink(TopicOrchestrator)
	require.NoError(t, sink.PublishEvent(NewEvent(EventTypeNotificationShown, WithNotification("1 document(s) analyzed successfully!"))))

	select {
	case e := <-received:
		assert.Equal(t, EventTypeNotificationShown, e.Type)
		assert.Equal(t, "1 document(s) analyzed successfully!", e.Notification)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	require.NoError(t, router.Close())
}

func TestDumpRawEvents(t *testing.T) {
	buf := &bytes.Buffer{}
	router, err := NewEventRouter(WithDumpWriter(buf))
	require.NoError(t, err)

	payload, err := json.Marshal(NewEvent(EventTypeSendStarted, WithConversationID("c1")))
	require.NoError(t, err)
	require.NoError(t, router.DumpRawEvents(message.NewMessage("m1", payload)))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "m1", out["id"])
	assert.Equal(t, "send-started", out["type"])
	assert.Equal(t, "c1", out["conversation_id"])
}

func TestRecordingSink(t *testing.T) {
	s := &RecordingSink{}
	require.NoError(t, s.PublishEvent(NewEvent(EventTypeUploadStarted)))
	require.NoError(t, s.PublishEvent(NewEvent(EventTypeUploadFinished)))
	assert.Equal(t, []EventType{EventTypeUploadStarted, EventTypeUploadFinished}, s.Types())
	assert.Len(t, s.Events(), 2)
}
