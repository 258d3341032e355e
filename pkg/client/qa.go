package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-go-golems/docqa/pkg/conversation"
	"github.com/rs/zerolog/log"
)

const (
	QAServiceName = "QA service"
	askPath       = "/ask-qa"
)

// AskRequest is the body of POST /ask-qa.
type AskRequest struct {
	Prompt         string                      `json:"prompt"`
	ConversationID string                      `json:"conversation_id"`
	History        []conversation.HistoryEntry `json:"history"`
}

// AskResponse is the answer of the QA service.
type AskResponse struct {
	Answer        string   `json:"answer"`
	Sources       []string `json:"sources"`
	ContextChunks int      `json:"context_chunks"`
}

// QAClient talks to the question-answering service.
type QAClient struct {
	baseURL    string
	httpClient *http.Client
}

type QAClientOption func(*QAClient)

func WithQAHTTPClient(c *http.Client) QAClientOption {
	return func(q *QAClient) {
		q.httpClient = c
	}
}

func NewQAClient(baseURL string, options ...QAClientOption) *QAClient {
	ret := &QAClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

// Ask sends prompt and the conversation history to the QA service.
func (c *QAClient) Ask(
	ctx context.Context,
	prompt string,
	conversationID string,
	history []conversation.HistoryEntry,
) (*AskResponse, error) {
	if history == nil {
		history = []conversation.HistoryEntry{}
	}
	body, err := json.Marshal(AskRequest{
		Prompt:         prompt,
		ConversationID: conversationID,
		History:        history,
	})
	if err != nil {
		return nil, &RemoteError{Service: QAServiceName, Message: fmt.Sprintf("could not encode question: %v", err), Err: err}
	}

	url := c.baseURL + askPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &RemoteError{Service: QAServiceName, Message: fmt.Sprintf("could not create request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Debug().
		Str("conversation_id", conversationID).
		Int("history", len(history)).
		Str("url", url).
		Msg("Asking QA service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newTransportError(QAServiceName, url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rerr := newStatusError(QAServiceName, resp)
		log.Warn().Int("status", resp.StatusCode).Str("detail", rerr.Message).Msg("QA service returned an error")
		return nil, rerr
	}

	var ret AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&ret); err != nil {
		return nil, &RemoteError{
			Service:    QAServiceName,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("invalid response from %s: %v", QAServiceName, err),
			Err:        err,
		}
	}
	return &ret, nil
}
