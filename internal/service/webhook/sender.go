package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	domsvc "EngineGate/internal/domain/service"
	xhttp "EngineGate/pkg/http"
)

// Sender posts alert payloads to the webhook endpoint.
type Sender struct {
	url      string
	client   *xhttp.Client
	attempts int
}

func NewSender(url string, timeout time.Duration, attempts int, opts ...xhttp.ClientOption) *Sender {
	if attempts < 1 {
		attempts = 1
	}
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(timeout), xhttp.WithUserAgent("enginegate-relay")}, opts...)
	return &Sender{
		url:      url,
		client:   xhttp.NewClient(opts...),
		attempts: attempts,
	}
}

// Send posts payload, retrying transport failures and 5xx answers with a linear backoff.
// A 4xx answer is final.
func (s *Sender) Send(ctx context.Context, payload map[string]any) error {
	var err error
	for i := 1; i <= s.attempts; i++ {
		err = s.post(ctx, payload)
		if err == nil || !retryable(err) {
			return err
		}
		if i == s.attempts {
			break
		}
		select {
		case <-time.After(time.Duration(i) * 200 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (s *Sender) post(ctx context.Context, payload map[string]any) error {
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     s.url,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	}, nil)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	return nil
}

func retryable(err error) bool {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled)
}

var _ domsvc.WebhookSender = (*Sender)(nil)
