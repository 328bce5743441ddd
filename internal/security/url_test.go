package security

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	guard := NewURLGuard()

	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{"public https", "https://example.com/report", ""},
		{"public http", "http://example.com", ""},
		{"file scheme", "file:///etc/passwd", "unsupported scheme"},
		{"gopher scheme", "gopher://example.com", "unsupported scheme"},
		{"localhost", "http://localhost:8080", "blocked host"},
		{"metadata hostname", "http://metadata.google.internal/computeMetadata", "blocked host"},
		{"loopback ip", "http://127.0.0.1/admin", "loopback"},
		{"private 10", "http://10.0.0.5", "private IP"},
		{"private 192.168", "http://192.168.1.1", "private IP"},
		{"private 172.16", "http://172.16.0.1", "private IP"},
		{"link local metadata", "http://169.254.169.254/latest/meta-data", "link-local"},
		{"unspecified", "http://0.0.0.0", "unspecified"},
		{"mapped ipv4 loopback", "http://[::ffff:127.0.0.1]", "loopback"},
		{"ipv6 loopback", "http://[::1]", "loopback"},
		{"empty host", "http://", "empty hostname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Validate(tt.url)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_LoopbackAllowedForTests(t *testing.T) {
	guard := NewURLGuard(WithLoopbackAllowed())

	assert.NoError(t, guard.Validate("http://127.0.0.1:39213/page"))
	assert.NoError(t, guard.Validate("http://localhost:8080"))
	// Everything else stays blocked.
	assert.Error(t, guard.Validate("http://10.0.0.5"))
	assert.Error(t, guard.Validate("http://169.254.169.254"))
}

func TestCheckRedirect(t *testing.T) {
	guard := NewURLGuard()

	public, err := url.Parse("https://example.com/next")
	require.NoError(t, err)
	private, err := url.Parse("http://192.168.0.10/internal")
	require.NoError(t, err)

	assert.NoError(t, guard.CheckRedirect(&http.Request{URL: public}, nil))
	assert.ErrorContains(t, guard.CheckRedirect(&http.Request{URL: private}, nil), "private IP")

	via := make([]*http.Request, 10)
	assert.ErrorContains(t, guard.CheckRedirect(&http.Request{URL: public}, via), "10 redirects")
}
