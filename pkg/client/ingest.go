package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	IngestorServiceName = "ingestion service"
	uploadPath          = "/upload-pdf"
)

type IndexerResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UploadResponse is the acceptance status returned by POST /upload-pdf.
type UploadResponse struct {
	Status          string           `json:"status"`
	Filename        string           `json:"filename"`
	IndexerResponse *IndexerResponse `json:"indexer_response,omitempty"`
}

// IngestClient uploads documents to the ingestion service.
type IngestClient struct {
	baseURL    string
	httpClient *http.Client
}

type IngestClientOption func(*IngestClient)

func WithIngestHTTPClient(c *http.Client) IngestClientOption {
	return func(i *IngestClient) {
		i.httpClient = c
	}
}

func NewIngestClient(baseURL string, options ...IngestClientOption) *IngestClient {
	ret := &IngestClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

// Upload sends doc as a multipart form bound to conversationID.
func (c *IngestClient) Upload(ctx context.Context, doc Document, conversationID string) (*UploadResponse, error) {
	body, contentType, err := encodeUploadForm(doc, conversationID)
	if err != nil {
		return nil, &RemoteError{Service: IngestorServiceName, Message: fmt.Sprintf("could not encode %s: %v", doc.Filename, err), Err: err}
	}

	url := c.baseURL + uploadPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, &RemoteError{Service: IngestorServiceName, Message: fmt.Sprintf("could not create request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	log.Debug().
		Str("conversation_id", conversationID).
		Str("filename", doc.Filename).
		Int("size", len(doc.Content)).
		Msg("Uploading document")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newTransportError(IngestorServiceName, url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rerr := newStatusError(IngestorServiceName, resp)
		log.Warn().Int("status", resp.StatusCode).Str("detail", rerr.Message).Str("filename", doc.Filename).Msg("Ingestion service returned an error")
		return nil, rerr
	}

	var ret UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ret); err != nil {
		return nil, &RemoteError{
			Service:    IngestorServiceName,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("invalid response from %s: %v", IngestorServiceName, err),
			Err:        err,
		}
	}
	return &ret, nil
}

func encodeUploadForm(doc Document, conversationID string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, doc.Filename))
	h.Set("Content-Type", PDFMediaType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(doc.Content); err != nil {
		return nil, "", err
	}

	if err := w.WriteField("conversation_id", conversationID); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
