package client

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const PDFMediaType = "application/pdf"

var ErrUnsupportedDocument = errors.New("unsupported document, only PDF files are accepted")

// Document is a file handed to the ingestion service.
type Document struct {
	Filename string
	Content  []byte
}

// LoadDocument reads a local PDF file.
func LoadDocument(path string) (Document, error) {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return Document{}, errors.Wrap(ErrUnsupportedDocument, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errors.Wrap(err, "failed to read document")
	}

	return Document{
		Filename: filepath.Base(path),
		Content:  content,
	}, nil
}

func LoadDocuments(paths ...string) ([]Document, error) {
	ret := make([]Document, 0, len(paths))
	for _, p := range paths {
		d, err := LoadDocument(p)
		if err != nil {
			return nil, err
		}
		ret = append(ret, d)
	}
	return ret, nil
}
