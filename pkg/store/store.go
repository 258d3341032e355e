package store

import (
	"context"
	"sort"
	"time"

	"github.com/go-go-golems/docqa/pkg/conversation"
	"github.com/google/uuid"
)

// Store is the durable owner of conversations.
//
// Writers are not coordinated: two clients appending to the same conversation
// race, and the last write wins.
type Store interface {
	// Create stores an empty conversation with the given title and returns its id.
	Create(ctx context.Context, title string) (string, error)
	// Get returns the conversation, or false if it does not exist.
	Get(ctx context.Context, id string) (*conversation.Conversation, bool, error)
	// List returns all conversations, most recently updated first.
	List(ctx context.Context) ([]*conversation.Conversation, error)
	// AppendMessage appends msg, derives the title on the first user message
	// and refreshes the update timestamp. Unknown ids fail with NotFoundError.
	AppendMessage(ctx context.Context, id string, msg *conversation.Message) error
	// Overwrite replaces the message list. Unknown ids fail with NotFoundError.
	Overwrite(ctx context.Context, id string, msgs []*conversation.Message) error
	// Delete removes the conversation. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
	Close() error
}

type Clock func() time.Time

func newConversationID() string {
	return uuid.NewString()
}

// sortByRecency orders conversations by UpdatedAt descending, then CreatedAt
// descending, then id, so listings are stable.
func sortByRecency(convs []*conversation.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		a, b := convs[i], convs[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
