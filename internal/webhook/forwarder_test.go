package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTransport struct {
	calls int64
	next  http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt64(&t.calls, 1)
	return t.next.RoundTrip(req)
}

func TestForwardInvalidURLNoNetworkAttempt(t *testing.T) {
	transport := &countingTransport{next: http.DefaultTransport}
	f := &HTTPForwarder{client: &http.Client{Transport: transport}}

	for _, rawURL := range []string{"not-a-url", "", "/relative/path", "host.without.scheme/hook"} {
		_, err := f.Forward(context.Background(), rawURL, "hi", "s1")
		var fwdErr *ForwardError
		require.ErrorAs(t, err, &fwdErr, "url %q", rawURL)
		assert.Equal(t, KindInvalidURL, fwdErr.Kind, "url %q", rawURL)
	}

	assert.EqualValues(t, 0, atomic.LoadInt64(&transport.calls))
}

func TestForwardPostsJSONBody(t *testing.T) {
	var got struct {
		ChatInput string `json:"chatInput"`
		SessionID string `json:"sessionId"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"output":"hello back"}`))
	}))
	defer server.Close()

	f := NewHTTPForwarder(5 * time.Second)
	body, err := f.Forward(context.Background(), server.URL, "hi there", "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"output":"hello back"}`, string(body))
	assert.Equal(t, "hi there", got.ChatInput)
	assert.Equal(t, "s1", got.SessionID)
}

func TestForwardRejectedCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not active", http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewHTTPForwarder(5 * time.Second)
	_, err := f.Forward(context.Background(), server.URL, "hi", "s1")

	var fwdErr *ForwardError
	require.ErrorAs(t, err, &fwdErr)
	assert.Equal(t, KindRejected, fwdErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, fwdErr.Status)
	assert.Contains(t, fwdErr.Body, "workflow not active")
}

func TestForwardUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	unreachableURL := server.URL
	server.Close()

	f := NewHTTPForwarder(5 * time.Second)
	_, err := f.Forward(context.Background(), unreachableURL, "hi", "s1")

	var fwdErr *ForwardError
	require.ErrorAs(t, err, &fwdErr)
	assert.Equal(t, KindUnreachable, fwdErr.Kind)
}

func TestForwardTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	f := NewHTTPForwarder(30 * time.Millisecond)
	_, err := f.Forward(context.Background(), server.URL, "hi", "s1")

	var fwdErr *ForwardError
	require.ErrorAs(t, err, &fwdErr)
	assert.Equal(t, KindTimeout, fwdErr.Kind)
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "invalid_url", KindInvalidURL.String())
	assert.Equal(t, "unreachable", KindUnreachable.String())
	assert.Equal(t, "rejected", KindRejected.String())
	assert.Equal(t, "timeout", KindTimeout.String())
}
