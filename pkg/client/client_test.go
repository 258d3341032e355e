package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-go-golems/docqa/pkg/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQAClient_Ask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ask-qa", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req AskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is the dosage for drug X?", req.Prompt)
		assert.Equal(t, "conv-1", req.ConversationID)
		assert.Equal(t, []conversation.HistoryEntry{
			{Role: "user", Content: "What is the dosage for drug X?"},
		}, req.History)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"answer":"10mg","sources":["doc1.pdf"],"context_chunks":3}`)
	}))
	defer server.Close()

	c := NewQAClient(server.URL + "/")
	resp, err := c.Ask(context.Background(), "What is the dosage for drug X?", "conv-1", []conversation.HistoryEntry{
		{Role: "user", Content: "What is the dosage for drug X?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "10mg", resp.Answer)
	assert.Equal(t, []string{"doc1.pdf"}, resp.Sources)
	assert.Equal(t, 3, resp.ContextChunks)
}

func TestQAClient_AskSendsEmptyHistoryAsArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.JSONEq(t, `[]`, string(raw["history"]))
		_, _ = io.WriteString(w, `{"answer":"ok","sources":[],"context_chunks":0}`)
	}))
	defer server.Close()

	_, err := NewQAClient(server.URL).Ask(context.Background(), "q", "c", nil)
	require.NoError(t, err)
}

func TestQAClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "detail string", status: http.StatusServiceUnavailable, body: `{"detail":"Le modèle LLM n'est pas chargé."}`, message: "Le modèle LLM n'est pas chargé."},
		{name: "structured detail", status: http.StatusUnprocessableEntity, body: `{"detail": [ {"loc": ["body","prompt"], "msg": "field required"} ]}`, message: `[{"loc":["body","prompt"],"msg":"field required"}]`},
		{name: "no payload", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, message: "HTTP error 502"},
		{name: "empty detail", status: http.StatusInternalServerError, body: `{"detail":null}`, message: "HTTP error 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := NewQAClient(server.URL).Ask(context.Background(), "q", "c", nil)
			require.Error(t, err)

			var rerr *RemoteError
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, tt.status, rerr.StatusCode)
			assert.Equal(t, tt.message, rerr.Error())
		})
	}
}

func TestQAClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewQAClient(url).Ask(context.Background(), "q", "c", nil)
	require.Error(t, err)

	var rerr *RemoteError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 0, rerr.StatusCode)
	assert.Contains(t, rerr.Error(), QAServiceName)
	assert.NotNil(t, errors.Unwrap(rerr))
}

func TestQAClient_InvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))
	defer server.Close()

	_, err := NewQAClient(server.URL).Ask(context.Background(), "q", "c", nil)
	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusOK, rerr.StatusCode)
}

func TestIngestClient_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload-pdf", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "conv-1", r.FormValue("conversation_id"))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		assert.Equal(t, "fileA.pdf", header.Filename)
		assert.Equal(t, PDFMediaType, header.Header.Get("Content-Type"))
		content, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 test", string(content))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"ok","filename":"fileA.pdf","indexer_response":{"status":"indexed","message":"12 chunks"}}`)
	}))
	defer server.Close()

	c := NewIngestClient(server.URL)
	resp, err := c.Upload(context.Background(), Document{Filename: "fileA.pdf", Content: []byte("%PDF-1.4 test")}, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "fileA.pdf", resp.Filename)
	require.NotNil(t, resp.IndexerResponse)
	assert.Equal(t, "indexed", resp.IndexerResponse.Status)
}

func TestIngestClient_UploadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Le fichier PDF est vide ou illisible."}`)
	}))
	defer server.Close()

	_, err := NewIngestClient(server.URL).Upload(context.Background(), Document{Filename: "empty.pdf"}, "conv-1")
	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusBadRequest, rerr.StatusCode)
	assert.Equal(t, IngestorServiceName, rerr.Service)
	assert.Equal(t, "Le fichier PDF est vide ou illisible.", rerr.Message)
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "Report.PDF")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.7"), 0o644))
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))

	d, err := LoadDocument(pdf)
	require.NoError(t, err)
	assert.Equal(t, "Report.PDF", d.Filename)
	assert.Equal(t, []byte("%PDF-1.7"), d.Content)

	_, err = LoadDocument(txt)
	assert.ErrorIs(t, err, ErrUnsupportedDocument)

	_, err = LoadDocument(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)

	docs, err := LoadDocuments(pdf, pdf)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}
