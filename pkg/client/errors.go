package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RemoteError is the single failure type of the remote clients. Message is
// meant to be shown to the user as is.
type RemoteError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 * 1024

type errorPayload struct {
	Detail json.RawMessage `json:"detail"`
}

func newTransportError(service string, url string, err error) *RemoteError {
	return &RemoteError{
		Service: service,
		Message: fmt.Sprintf("%s is unreachable (%s): %v", service, url, err),
		Err:     err,
	}
}

// newStatusError builds a RemoteError from a non-2xx response, preferring the
// "detail" field of the JSON error payload.
func newStatusError(service string, resp *http.Response) *RemoteError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	ret := &RemoteError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP error %d", resp.StatusCode),
	}
	if detail := extractDetail(body); detail != "" {
		ret.Message = detail
	}
	return ret
}

func extractDetail(body []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	raw := bytes.TrimSpace(payload.Detail)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	// validation errors carry a list of objects instead of a string
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return ""
	}
	return buf.String()
}
