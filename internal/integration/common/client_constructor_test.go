package common

import (
	"net/http"
	"testing"
	"time"

	"github.com/futig/fundqa-bot/internal/config"
	pkgHTTP "github.com/futig/fundqa-bot/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPOptions_Timeouts(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.HTTPClientConfig
		wantRequest time.Duration
		wantHeader  time.Duration
	}{
		{
			name:        "header timeout follows request timeout",
			cfg:         config.HTTPClientConfig{RequestTimeout: 60 * time.Second},
			wantRequest: 60 * time.Second,
			wantHeader:  60 * time.Second,
		},
		{
			name:        "zero means unbounded",
			cfg:         config.HTTPClientConfig{},
			wantRequest: 0,
			wantHeader:  0,
		},
		{
			name:        "explicit header timeout wins",
			cfg:         config.HTTPClientConfig{RequestTimeout: 60 * time.Second, ResponseHeaderTimeout: 5 * time.Second},
			wantRequest: 60 * time.Second,
			wantHeader:  5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := pkgHTTP.NewClient(HTTPOptions(tt.cfg)...)
			assert.Equal(t, tt.wantRequest, client.Timeout)

			transport, ok := client.Transport.(*http.Transport)
			require.True(t, ok)
			assert.Equal(t, tt.wantHeader, transport.ResponseHeaderTimeout)
		})
	}
}
