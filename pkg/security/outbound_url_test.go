package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateServiceURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		opts   ServiceURLOptions
		wantOK bool
	}{
		{name: "default qa service", url: "http://127.0.0.1:8002", opts: LocalServices, wantOK: true},
		{name: "default ingestor", url: "http://localhost:8000/", opts: LocalServices, wantOK: true},
		{name: "compose hostname", url: "http://llm-qa-module:8002", opts: LocalServices, wantOK: true},
		{name: "unspecified address", url: "http://0.0.0.0:8002", opts: LocalServices, wantOK: false},
		{name: "bad scheme", url: "ftp://example.com", opts: LocalServices, wantOK: false},
		{name: "no host", url: "http://", opts: LocalServices, wantOK: false},
		{name: "query", url: "http://example.com/?a=b", opts: LocalServices, wantOK: false},
		{name: "strict https public", url: "https://qa.example.com", opts: Strict, wantOK: true},
		{name: "strict http", url: "http://qa.example.com", opts: Strict, wantOK: false},
		{name: "strict loopback", url: "https://127.0.0.1:8002", opts: Strict, wantOK: false},
		{name: "strict private", url: "https://10.0.0.4", opts: Strict, wantOK: false},
		{name: "strict localhost", url: "https://localhost", opts: Strict, wantOK: false},
		{name: "strict zoned ipv6", url: "https://[fe80::1%25eth0]/", opts: Strict, wantOK: false},
		{name: "zoned ipv6 on local network", url: "https://[fe80::1%25eth0]/", opts: LocalServices, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServiceURL(tt.url, tt.opts)
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
