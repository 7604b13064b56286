package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const _defaultTimeout = 30 * time.Second

// Fetcher downloads source image bytes from the URL carried in the
// uploaded event.
type Fetcher struct {
	client *http.Client
}

func New() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: _defaultTimeout},
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("Fetcher - Fetch - http.NewRequestWithContext: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Fetcher - Fetch - f.client.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Fetcher - Fetch: %s returned status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Fetcher - Fetch - io.ReadAll: %w", err)
	}

	return data, nil
}
