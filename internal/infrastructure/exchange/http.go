package exchange

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	BinanceBaseURL   = "https://api.binance.com"
	KrakenBaseURL    = "https://api.kraken.com"
	CoinGeckoBaseURL = "https://api.coingecko.com"
	AllOriginsURL    = "https://api.allorigins.win"

	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 1 << 20
)

// NewHTTPClient returns the client shared by all sources.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// getJSON performs a single GET attempt and returns the body of a 2xx response.
func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API error! status: %d: %s", resp.StatusCode, truncate(body, 200))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
