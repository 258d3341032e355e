package store

import (
	"errors"
	"fmt"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrStoreClosed          = errors.New("store closed")
	ErrUnknownDriver        = errors.New("unknown store driver")
)

// NotFoundError reports a write against a conversation that does not exist (anymore).
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	if e == nil || e.ID == "" {
		return ErrConversationNotFound.Error()
	}
	return fmt.Sprintf("%s: %q", ErrConversationNotFound, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrConversationNotFound }
