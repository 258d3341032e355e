package store

import (
	"context"
	"sync"
	"time"

	"github.com/go-go-golems/docqa/pkg/conversation"
)

// InMemoryStore is a thread-safe Store that keeps conversations in a map.
// Reads return deep copies.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*conversation.Conversation
	now           Clock
	closed        bool
}

type InMemoryStoreOption func(*InMemoryStore)

func WithInMemoryClock(now Clock) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		s.now = now
	}
}

func NewInMemoryStore(options ...InMemoryStoreOption) *InMemoryStore {
	ret := &InMemoryStore{
		conversations: map[string]*conversation.Conversation{},
		now:           time.Now,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

func (s *InMemoryStore) Create(_ context.Context, title string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return "", err
	}

	id := newConversationID()
	s.conversations[id] = conversation.New(id, title, s.now())
	return id, nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*conversation.Conversation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return nil, false, err
	}

	c, ok := s.conversations[id]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*conversation.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	out := make([]*conversation.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, c.Clone())
	}
	sortByRecency(out)
	return out, nil
}

func (s *InMemoryStore) AppendMessage(_ context.Context, id string, msg *conversation.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}

	c, ok := s.conversations[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	c.AppendMessage(msg, s.now())
	return nil
}

func (s *InMemoryStore) Overwrite(_ context.Context, id string, msgs []*conversation.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}

	c, ok := s.conversations[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	c.Overwrite(msgs, s.now())
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureOpen(); err != nil {
		return err
	}

	delete(s.conversations, id)
	return nil
}

func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *InMemoryStore) ensureOpen() error {
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

var _ Store = (*InMemoryStore)(nil)
