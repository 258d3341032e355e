// Package orchestrator owns the state of a document QA session: the summary
// list of conversations, the active transcript, the send and upload busy
// flags and the transient notification.
//
// Every mutation goes through an Orchestrator method and is announced on an
// events.EventSink. The lock is never held across a store or network call,
// so sends and uploads run concurrently with navigation.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-go-golems/docqa/pkg/client"
	"github.com/go-go-golems/docqa/pkg/conversation"
	"github.com/go-go-golems/docqa/pkg/events"
	"github.com/go-go-golems/docqa/pkg/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrorMarker prefixes the synthetic assistant message added when a send fails.
const ErrorMarker = "❌ Error: "

type QAClient interface {
	Ask(ctx context.Context, prompt string, conversationID string, history []conversation.HistoryEntry) (*client.AskResponse, error)
}

type IngestClient interface {
	Upload(ctx context.Context, doc client.Document, conversationID string) (*client.UploadResponse, error)
}

var (
	_ QAClient     = (*client.QAClient)(nil)
	_ IngestClient = (*client.IngestClient)(nil)
)

// State is a snapshot of the orchestrator, safe to keep and read.
type State struct {
	Conversations        []conversation.Summary  `json:"conversations" yaml:"conversations"`
	ActiveConversationID string                  `json:"activeConversationId,omitempty" yaml:"activeConversationId,omitempty"`
	ActiveMessages       []*conversation.Message `json:"activeMessages" yaml:"activeMessages"`
	Sending              bool                    `json:"sending" yaml:"sending"`
	Uploading            bool                    `json:"uploading" yaml:"uploading"`
	Notification         *Notification           `json:"notification,omitempty" yaml:"notification,omitempty"`
}

type Orchestrator struct {
	store               store.Store
	qa                  QAClient
	ingest              IngestClient
	sink                events.EventSink
	notificationTimeout time.Duration
	now                 func() time.Time

	mu            sync.Mutex
	conversations []conversation.Summary
	activeID      string
	messages      conversation.Messages
	// selectGen is bumped on every change of activeID, late fetches compare against it.
	selectGen    uint64
	sending      bool
	uploading    bool
	notification *Notification
	notifGen     uint64
	notifTimer   *time.Timer
	closed       bool
}

type Option func(*Orchestrator)

func WithEventSink(sink events.EventSink) Option {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

func WithNotificationTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.notificationTimeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func New(s store.Store, qa QAClient, ingest IngestClient, options ...Option) *Orchestrator {
	ret := &Orchestrator{
		store:               s,
		qa:                  qa,
		ingest:              ingest,
		sink:                events.NullSink{},
		notificationTimeout: DefaultNotificationTimeout,
		now:                 time.Now,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

func (o *Orchestrator) publish(e events.Event) {
	if err := o.sink.PublishEvent(e); err != nil {
		log.Warn().Err(err).Str("event_type", string(e.Type)).Msg("Failed to publish orchestrator event")
	}
}

// State returns a deep copy of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	ret := State{
		Conversations:        append([]conversation.Summary(nil), o.conversations...),
		ActiveConversationID: o.activeID,
		ActiveMessages:       o.messages.Clone(),
		Sending:              o.sending,
		Uploading:            o.uploading,
	}
	if o.notification != nil {
		n := *o.notification
		ret.Notification = &n
	}
	return ret
}

// Initialize loads the summary list. No conversation is active afterwards.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	o.activeID = ""
	o.messages = nil
	o.selectGen++
	o.mu.Unlock()

	if err := o.refreshConversations(ctx); err != nil {
		return err
	}
	log.Debug().Int("conversations", len(o.State().Conversations)).Msg("Orchestrator initialized")
	return nil
}

func (o *Orchestrator) refreshConversations(ctx context.Context) error {
	convs, err := o.store.List(ctx)
	if err != nil {
		return errors.Wrap(err, "could not list conversations")
	}
	summaries := conversation.Summaries(convs)

	o.mu.Lock()
	o.conversations = summaries
	o.mu.Unlock()

	o.publish(events.NewEvent(events.EventTypeConversationsRefreshed))
	return nil
}

// SelectConversation makes id the active conversation and loads its messages.
// In-flight sends and uploads keep running against their own conversation.
// An empty id deselects. A fetch that completes after another selection is
// dropped.
func (o *Orchestrator) SelectConversation(ctx context.Context, id string) error {
	o.mu.Lock()
	o.activeID = id
	o.messages = nil
	o.selectGen++
	gen := o.selectGen
	o.mu.Unlock()

	o.publish(events.NewEvent(events.EventTypeConversationSelected, events.WithConversationID(id)))
	if id == "" {
		return nil
	}

	c, ok, err := o.store.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "could not load conversation %s", id)
	}

	o.mu.Lock()
	if gen != o.selectGen {
		o.mu.Unlock()
		log.Debug().Str("conversation_id", id).Msg("Dropping stale conversation fetch")
		return nil
	}
	if ok {
		o.messages = c.Messages.Clone()
	}
	o.mu.Unlock()

	if !ok {
		return &store.NotFoundError{ID: id}
	}
	o.publish(events.NewEvent(events.EventTypeConversationSelected, events.WithConversationID(id)))
	return nil
}

// CreateConversation creates an empty conversation with the placeholder
// title and makes it active. On failure a notification is shown and a
// *ConversationCreationError is returned.
func (o *Orchestrator) CreateConversation(ctx context.Context) (string, error) {
	id, err := o.store.Create(ctx, conversation.DefaultTitle)
	if err != nil {
		log.Error().Err(err).Msg("Could not create conversation")
		o.showNotification(NotificationFailure, creationFailedText)
		return "", &ConversationCreationError{Err: err}
	}

	o.mu.Lock()
	o.activeID = id
	o.messages = conversation.Messages{}
	o.selectGen++
	o.mu.Unlock()

	if err := o.refreshConversations(ctx); err != nil {
		log.Warn().Err(err).Str("conversation_id", id).Msg("Could not refresh conversations after creation")
	}

	log.Info().Str("conversation_id", id).Msg("Created conversation")
	o.publish(events.NewEvent(events.EventTypeConversationSelected, events.WithConversationID(id)))
	return id, nil
}

// NewConversation is the explicit "new conversation" user action.
func (o *Orchestrator) NewConversation(ctx context.Context) (string, error) {
	return o.CreateConversation(ctx)
}

// DeleteConversation removes id from the store and deselects it if active.
func (o *Orchestrator) DeleteConversation(ctx context.Context, id string) error {
	if err := o.store.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "could not delete conversation %s", id)
	}

	o.mu.Lock()
	wasActive := o.activeID == id
	if wasActive {
		o.activeID = ""
		o.messages = nil
		o.selectGen++
	}
	o.mu.Unlock()

	log.Info().Str("conversation_id", id).Bool("was_active", wasActive).Msg("Deleted conversation")
	o.publish(events.NewEvent(events.EventTypeConversationDeleted, events.WithConversationID(id)))

	return o.refreshConversations(ctx)
}

// appendIfActive adds msg to the transcript if conversationID is still the
// active conversation.
func (o *Orchestrator) appendIfActive(conversationID string, msg *conversation.Message) bool {
	o.mu.Lock()
	if o.activeID != conversationID {
		o.mu.Unlock()
		return false
	}
	o.messages = append(o.messages, msg.Clone())
	o.mu.Unlock()

	o.publish(events.NewEvent(
		events.EventTypeMessageAppended,
		events.WithConversationID(conversationID),
		events.WithMessage(msg),
	))
	return true
}

func (o *Orchestrator) activeHistory(conversationID string) ([]conversation.HistoryEntry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.activeID != conversationID {
		return nil, false
	}
	return o.messages.History(), true
}

// SendMessage runs the send pipeline for text on the active conversation,
// creating one if needed. The user message shows up in the transcript before
// any network call. A failure adds an unpersisted error message to the
// transcript and returns a *SendPipelineError.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) (err error) {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	o.mu.Lock()
	if o.sending {
		o.mu.Unlock()
		return ErrSendInProgress
	}
	o.sending = true
	conversationID := o.activeID
	o.mu.Unlock()

	o.publish(events.NewEvent(events.EventTypeSendStarted, events.WithConversationID(conversationID)))
	defer func() {
		o.mu.Lock()
		o.sending = false
		o.mu.Unlock()
		o.publish(events.NewEvent(
			events.EventTypeSendFinished,
			events.WithConversationID(conversationID),
			events.WithError(err),
		))
	}()

	if conversationID == "" {
		id, err := o.CreateConversation(ctx)
		if err != nil {
			return err
		}
		conversationID = id
	}

	userMessage := conversation.NewUserMessage(text, conversation.WithTime(o.now()))
	o.appendIfActive(conversationID, userMessage)

	if err = o.runSend(ctx, conversationID, text, userMessage); err != nil {
		log.Warn().Err(err).Str("conversation_id", conversationID).Msg("Send failed")
		errorMessage := conversation.NewAssistantMessage(ErrorMarker+describe(err), conversation.WithTime(o.now()))
		o.appendIfActive(conversationID, errorMessage)
		return &SendPipelineError{ConversationID: conversationID, Err: err}
	}
	return nil
}

func (o *Orchestrator) runSend(ctx context.Context, conversationID string, text string, userMessage *conversation.Message) error {
	if err := o.store.AppendMessage(ctx, conversationID, userMessage); err != nil {
		return errors.Wrap(err, "could not persist user message")
	}

	history, ok := o.activeHistory(conversationID)
	if !ok {
		// switched away, the store holds the transcript
		c, found, err := o.store.Get(ctx, conversationID)
		if err != nil {
			return errors.Wrap(err, "could not load history")
		}
		if !found {
			return &store.NotFoundError{ID: conversationID}
		}
		history = c.Messages.History()
	}

	log.Debug().Str("conversation_id", conversationID).Int("history", len(history)).Msg("Asking question")
	resp, err := o.qa.Ask(ctx, text, conversationID, history)
	if err != nil {
		return err
	}

	assistantMessage := conversation.NewAssistantMessage(
		resp.Answer,
		conversation.WithSources(resp.Sources),
		conversation.WithTime(o.now()),
	)
	o.appendIfActive(conversationID, assistantMessage)

	if err := o.store.AppendMessage(ctx, conversationID, assistantMessage); err != nil {
		return errors.Wrap(err, "could not persist answer")
	}

	return o.refreshConversations(ctx)
}

// UploadDocuments sends docs one after the other to the ingestion service for
// the active conversation, creating one if needed. The outcome is reported as
// a single notification: the first failure stops the batch.
func (o *Orchestrator) UploadDocuments(ctx context.Context, docs []client.Document) (err error) {
	if len(docs) == 0 {
		return nil
	}

	o.mu.Lock()
	if o.uploading {
		o.mu.Unlock()
		return ErrUploadInProgress
	}
	o.uploading = true
	conversationID := o.activeID
	o.mu.Unlock()

	o.publish(events.NewEvent(events.EventTypeUploadStarted, events.WithConversationID(conversationID)))
	defer func() {
		o.mu.Lock()
		o.uploading = false
		o.mu.Unlock()
		o.publish(events.NewEvent(
			events.EventTypeUploadFinished,
			events.WithConversationID(conversationID),
			events.WithError(err),
		))
	}()

	if conversationID == "" {
		id, err := o.CreateConversation(ctx)
		if err != nil {
			return err
		}
		conversationID = id
	}

	for i, doc := range docs {
		log.Debug().
			Str("conversation_id", conversationID).
			Str("filename", doc.Filename).
			Int("index", i).
			Int("files", len(docs)).
			Msg("Uploading document")

		if _, err := o.ingest.Upload(ctx, doc, conversationID); err != nil {
			log.Error().Err(err).Str("conversation_id", conversationID).Str("filename", doc.Filename).Msg("Upload failed")
			o.showNotification(NotificationFailure, uploadFailedText)
			return &UploadError{
				Filename:  doc.Filename,
				Completed: i,
				Total:     len(docs),
				Err:       err,
			}
		}
	}

	log.Info().Str("conversation_id", conversationID).Int("files", len(docs)).Msg("Documents uploaded")
	o.showNotification(NotificationSuccess, uploadSucceededText(len(docs)))
	return nil
}

// Close stops the pending notification timer. The store is owned by the caller.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	if o.notifTimer != nil {
		o.notifTimer.Stop()
		o.notifTimer = nil
	}
}
