package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"chat-relay/internal/observability"
)

// Kind classifies forward failures so callers can present the right
// message to the user.
type Kind int

const (
	KindInvalidURL Kind = iota
	KindUnreachable
	KindRejected
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindUnreachable:
		return "unreachable"
	case KindRejected:
		return "rejected"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ForwardError describes a failed forward attempt. Status and Body are
// set only for KindRejected.
type ForwardError struct {
	Kind   Kind
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *ForwardError) Error() string {
	switch e.Kind {
	case KindRejected:
		return fmt.Sprintf("webhook rejected request: status %d: %s", e.Status, e.Body)
	case KindInvalidURL:
		return fmt.Sprintf("invalid webhook url %q", e.URL)
	case KindTimeout:
		return fmt.Sprintf("webhook call timed out: %s", e.URL)
	default:
		return fmt.Sprintf("webhook unreachable: %v", e.Err)
	}
}

func (e *ForwardError) Unwrap() error { return e.Err }

// Forwarder delivers a user message to the external webhook.
type Forwarder interface {
	Forward(ctx context.Context, rawURL, content, sessionID string) ([]byte, error)
}

// HTTPForwarder issues a single POST per message, no retries. The
// webhook answers asynchronously through the HTTP callback, so the
// response body is returned opaque.
type HTTPForwarder struct {
	client *http.Client
}

// NewHTTPForwarder builds a forwarder with a bounded request timeout.
func NewHTTPForwarder(timeout time.Duration) *HTTPForwarder {
	return &HTTPForwarder{client: &http.Client{Timeout: timeout}}
}

type forwardRequest struct {
	ChatInput string `json:"chatInput"`
	SessionID string `json:"sessionId"`
}

// Forward validates the destination and POSTs the message as JSON. Any
// non-2xx status is a rejection carrying the remote status and body.
func (f *HTTPForwarder) Forward(ctx context.Context, rawURL, content, sessionID string) ([]byte, error) {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		observability.IncWebhookForward(KindInvalidURL.String())
		return nil, &ForwardError{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}

	ctx, span := otel.Tracer("chat-relay/webhook").Start(ctx, "webhook.forward")
	defer span.End()
	span.SetAttributes(attribute.String("webhook.host", parsed.Host))

	body, err := json.Marshal(forwardRequest{ChatInput: content, SessionID: sessionID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		observability.IncWebhookForward(KindInvalidURL.String())
		return nil, &ForwardError{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		kind := KindUnreachable
		if isTimeout(err) {
			kind = KindTimeout
		}
		observability.IncWebhookForward(kind.String())
		return nil, &ForwardError{Kind: kind, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.IncWebhookForward(KindRejected.String())
		return nil, &ForwardError{Kind: KindRejected, URL: rawURL, Status: resp.StatusCode, Body: string(respBody)}
	}

	observability.IncWebhookForward("ok")
	return respBody, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}

var _ Forwarder = (*HTTPForwarder)(nil)
