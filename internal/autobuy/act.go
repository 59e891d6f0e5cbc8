package autobuy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/talgya/idle-economy/internal/engine"
)

// StatusError is a purchase the API answered with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("purchase rejected (%d): %s", e.Code, e.Body)
}

// Actor places purchases through the admin API. Rate-limited requests are
// retried after the server's Retry-After, up to MaxRetries times.
type Actor struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
	MaxRetries int
	MaxWait    time.Duration // ceiling on a single Retry-After
}

// NewActor creates an Actor targeting the given API base URL with admin auth.
func NewActor(baseURL, adminKey string) *Actor {
	return &Actor{
		BaseURL:    baseURL,
		AdminKey:   adminKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		MaxRetries: 3,
		MaxWait:    30 * time.Second,
	}
}

// Buy purchases generator id in the given buy mode.
func (a *Actor) Buy(ctx context.Context, id, mode string) (*engine.Receipt, error) {
	body, err := json.Marshal(map[string]string{"kind": "generator", "id": id, "mode": mode})
	if err != nil {
		return nil, fmt.Errorf("encode purchase: %w", err)
	}

	for attempt := 0; ; attempt++ {
		receipt, wait, err := a.post(ctx, body)
		if wait < 0 || attempt >= a.MaxRetries {
			return receipt, err
		}
		slog.Debug("purchase rate limited", "id", id, "retry_in", wait, "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// post sends one purchase. A non-negative wait means the server asked us
// to come back later.
func (a *Actor) post(ctx context.Context, body []byte) (*engine.Receipt, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/api/v1/buy", bytes.NewReader(body))
	if err != nil {
		return nil, -1, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.AdminKey)

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, -1, fmt.Errorf("POST buy: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, -1, fmt.Errorf("read purchase response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var receipt engine.Receipt
		if err := json.Unmarshal(data, &receipt); err != nil {
			return nil, -1, fmt.Errorf("decode receipt: %w", err)
		}
		return &receipt, -1, nil
	case http.StatusTooManyRequests:
		return nil, a.retryAfter(resp.Header.Get("Retry-After")), &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	return nil, -1, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
}

func (a *Actor) retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		secs = 1
	}
	return min(time.Duration(secs)*time.Second, a.MaxWait)
}
