package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ghostchat/internal/domain"
)

var (
	// ErrTURNUnavailable means the relay has no TURN secret configured;
	// connectivity degrades to direct-only.
	ErrTURNUnavailable = errors.New("turn credentials unavailable")
	// ErrRateLimited means the relay throttled this address.
	ErrRateLimited = errors.New("rate limited by relay")
)

// TURNCredentials fetches short-lived TURN credentials from the relay.
func (c *Client) TURNCredentials(ctx context.Context) (domain.TURNCredentials, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/turn-credentials", nil)
	if err != nil {
		return domain.TURNCredentials{}, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return domain.TURNCredentials{}, fmt.Errorf("fetching turn credentials: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusServiceUnavailable:
		return domain.TURNCredentials{}, ErrTURNUnavailable
	case http.StatusTooManyRequests:
		return domain.TURNCredentials{}, ErrRateLimited
	default:
		return domain.TURNCredentials{}, fmt.Errorf("turn credentials: %s", resp.Status)
	}

	var creds domain.TURNCredentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return domain.TURNCredentials{}, fmt.Errorf("turn credentials: %w", err)
	}
	return creds, nil
}

var _ domain.TURNProvider = (*Client)(nil)
