package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDFromRequestHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("X-Request-Id", "req-123")

	assert.Equal(t, "req-123", RequestIDFromRequest(req))
}

func TestRequestIDFromRequestGenerated(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)

	requestID := RequestIDFromRequest(req)
	_, err := uuid.Parse(requestID)
	require.NoError(t, err, "generated request id must be a uuid")

	assert.NotEqual(t, requestID, RequestIDFromRequest(req))
}

func TestIPFromRequestForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	assert.Equal(t, "203.0.113.7", IPFromRequest(req))
}

func TestIPFromRequestRemoteAddr(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)
	req.RemoteAddr = "192.0.2.4:51234"

	assert.Equal(t, "192.0.2.4", IPFromRequest(req))
}
