package webhook

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// Sender performs a single best-effort POST per call. Retrying is the
// messaging transport's job, never this package's.
type Sender struct {
	client *http.Client
}

func New(timeout time.Duration) *Sender {
	return &Sender{
		client: &http.Client{Timeout: timeout},
	}
}

func (s *Sender) Send(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("Sender - Send - http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("Sender - Send - s.client.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("Sender - Send: %s returned status %d", url, resp.StatusCode)
	}

	return nil
}
