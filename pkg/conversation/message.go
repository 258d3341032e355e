package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation. Messages are immutable once
// created: conversations only ever append them.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Sources   []string  `json:"sources,omitempty" yaml:"sources,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

type MessageOption func(*Message)

func WithSources(sources []string) MessageOption {
	return func(m *Message) {
		if len(sources) == 0 {
			m.Sources = nil
			return
		}
		m.Sources = append([]string(nil), sources...)
	}
}

func WithTime(t time.Time) MessageOption {
	return func(m *Message) {
		m.Timestamp = t
	}
}

// NewMessageID returns a time-ordered identifier (UUIDv7), so ids sort in
// creation order.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func NewMessage(role Role, content string, options ...MessageOption) *Message {
	ret := &Message{
		ID:        NewMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}

	for _, option := range options {
		option(ret)
	}

	return ret
}

func NewUserMessage(content string, options ...MessageOption) *Message {
	return NewMessage(RoleUser, content, options...)
}

func NewAssistantMessage(content string, options ...MessageOption) *Message {
	return NewMessage(RoleAssistant, content, options...)
}

func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	ret := *m
	if m.Sources != nil {
		ret.Sources = append([]string(nil), m.Sources...)
	}
	return &ret
}

func (m *Message) String() string {
	return fmt.Sprintf("[%s]: %s", m.Role, strings.TrimRight(m.Content, "\n"))
}

// HistoryEntry is the {role, content} projection of a message sent to the QA service.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Messages []*Message

// History maps the messages to {role, content} pairs, in order.
func (ms Messages) History() []HistoryEntry {
	ret := make([]HistoryEntry, 0, len(ms))
	for _, m := range ms {
		ret = append(ret, HistoryEntry{Role: string(m.Role), Content: m.Content})
	}
	return ret
}

func (ms Messages) Clone() Messages {
	if ms == nil {
		return nil
	}
	ret := make(Messages, len(ms))
	for i, m := range ms {
		ret[i] = m.Clone()
	}
	return ret
}
