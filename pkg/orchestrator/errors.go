package orchestrator

import (
	"fmt"

	"github.com/go-go-golems/docqa/pkg/client"
	"github.com/pkg/errors"
)

var (
	ErrEmptyMessage     = errors.New("message is empty")
	ErrSendInProgress   = errors.New("a message is already being sent")
	ErrUploadInProgress = errors.New("an upload is already in progress")
)

// ConversationCreationError aborts the send or upload that needed a new
// conversation. Nothing was persisted.
type ConversationCreationError struct {
	Err error
}

func (e *ConversationCreationError) Error() string {
	return fmt.Sprintf("could not create conversation: %v", e.Err)
}

func (e *ConversationCreationError) Unwrap() error { return e.Err }

// SendPipelineError is returned after a failed send, once the synthetic error
// message has been added to the transcript.
type SendPipelineError struct {
	ConversationID string
	Err            error
}

func (e *SendPipelineError) Error() string {
	return fmt.Sprintf("send failed for conversation %s: %v", e.ConversationID, e.Err)
}

func (e *SendPipelineError) Unwrap() error { return e.Err }

// UploadError reports the file that stopped an upload batch.
type UploadError struct {
	Filename  string
	Completed int
	Total     int
	Err       error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %s failed after %d/%d document(s): %v", e.Filename, e.Completed, e.Total, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// describe returns the text shown to the user for a pipeline failure. Remote
// errors already carry a human readable message, anything else is reduced to
// its root cause so persistence and QA failures read the same.
func describe(err error) string {
	var rerr *client.RemoteError
	if errors.As(err, &rerr) {
		return rerr.Message
	}
	if cause := errors.Cause(err); cause != nil {
		return cause.Error()
	}
	return "unknown error"
}
