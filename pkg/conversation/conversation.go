// Package conversation holds the data model shared by the stores, the remote
// clients and the orchestrator.
//
// A Conversation is a titled, append-only sequence of Messages. Its title is
// derived once, from the first user message, and never changes afterwards.
package conversation

import (
	"time"
)

const (
	// DefaultTitle is the placeholder title of a conversation that has no user message yet.
	DefaultTitle = "New conversation"
	// UntitledTitle is displayed when a stored conversation has an empty title.
	UntitledTitle = "Untitled"

	MaxTitleLength = 50
	TitleEllipsis  = "..."
)

type Conversation struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Messages  Messages  `json:"messages" yaml:"messages"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
	// TitleSet records that the title was derived from a user message.
	TitleSet bool `json:"titleSet,omitempty" yaml:"titleSet,omitempty"`
}

func New(id string, title string, now time.Time) *Conversation {
	return &Conversation{
		ID:        id,
		Title:     title,
		Messages:  Messages{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DeriveTitle truncates content to MaxTitleLength runes, adding TitleEllipsis
// when something was cut off.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxTitleLength {
		return content
	}
	return string(runes[:MaxTitleLength]) + TitleEllipsis
}

// AppendMessage appends msg, derives the title if msg is the first user
// message and refreshes UpdatedAt.
func (c *Conversation) AppendMessage(msg *Message, now time.Time) {
	if !c.TitleSet && msg.Role == RoleUser {
		c.Title = DeriveTitle(msg.Content)
		c.TitleSet = true
	}
	c.Messages = append(c.Messages, msg.Clone())
	c.UpdatedAt = now
}

// Overwrite replaces the whole message list. The title is left alone.
func (c *Conversation) Overwrite(msgs []*Message, now time.Time) {
	c.Messages = Messages(msgs).Clone()
	if c.Messages == nil {
		c.Messages = Messages{}
	}
	c.UpdatedAt = now
}

// DisplayTitle returns the title, or UntitledTitle when it is empty.
func (c *Conversation) DisplayTitle() string {
	if c.Title == "" {
		return UntitledTitle
	}
	return c.Title
}

func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	ret := *c
	ret.Messages = c.Messages.Clone()
	if ret.Messages == nil {
		ret.Messages = Messages{}
	}
	return &ret
}

// Summary is the navigation projection of a conversation.
type Summary struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	MessageCount int       `json:"messageCount" yaml:"messageCount"`
	CreatedAt    time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" yaml:"updatedAt"`
}

func (c *Conversation) Summary() Summary {
	return Summary{
		ID:           c.ID,
		Title:        c.DisplayTitle(),
		MessageCount: len(c.Messages),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func Summaries(convs []*Conversation) []Summary {
	ret := make([]Summary, 0, len(convs))
	for _, c := range convs {
		ret = append(ret, c.Summary())
	}
	return ret
}
