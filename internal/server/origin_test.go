package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func requestWithOrigin(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestOriginPolicy(t *testing.T) {
	policy := newOriginPolicy([]string{"http://localhost:5000", "not a url", " https://Chat.Example "}, zerolog.Nop())

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "http://localhost:5000", want: true},
		{origin: "HTTP://LOCALHOST:5000", want: true},
		{origin: "https://chat.example", want: true},
		{origin: "http://chat.example", want: false},
		{origin: "http://localhost:5001", want: false},
		{origin: "null", want: false},
		{origin: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			require.Equal(t, tt.want, policy.checkOrigin(requestWithOrigin(tt.origin)))
		})
	}
}

func TestOriginPolicyWildcard(t *testing.T) {
	req := require.New(t)
	policy := newOriginPolicy([]string{"*"}, zerolog.Nop())

	req.True(policy.allows(requestWithOrigin("https://anything.example")))
	// A wildcard still requires a well-formed Origin header
	req.False(policy.allows(requestWithOrigin("")))
	req.False(policy.allows(requestWithOrigin("garbage")))
}

func TestNormalizeOrigin(t *testing.T) {
	req := require.New(t)

	got, ok := normalizeOrigin("HTTPS://Example.COM:8443")
	req.True(ok)
	req.Equal("https://example.com:8443", got)

	_, ok = normalizeOrigin("example.com")
	req.False(ok)
}
