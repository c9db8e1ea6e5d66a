// Package riot is a rate-limited client for the Riot match-v5 and account-v1
// APIs, covering exactly the calls the review pipeline needs.
package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	// Rate limits for a dev key (conservative values to be safe)
	requestsPerSecond = 15 // Actual: 20
	requestsPer2Min   = 90 // Actual: 100
)

// ErrNotFound is returned for 404s: unknown player, match, or timeline.
var ErrNotFound = fmt.Errorf("riot: not found")

// Client is a rate-limited Riot API client. Safe for concurrent use.
type Client struct {
	apiKey     string
	regionBase string // e.g. https://europe.api.riotgames.com
	platBase   string // e.g. https://euw1.api.riotgames.com
	httpClient *http.Client

	// Sliding-window rate limiting
	mu          sync.Mutex
	shortWindow []time.Time // requests in the last second
	longWindow  []time.Time // requests in the last 2 minutes
}

// NewClient creates a client for the given regional/platform routing values
// (e.g. "europe"/"euw1").
func NewClient(apiKey, region, platform string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("riot: API key not set")
	}
	return &Client{
		apiKey:     apiKey,
		regionBase: fmt.Sprintf("https://%s.api.riotgames.com", region),
		platBase:   fmt.Sprintf("https://%s.api.riotgames.com", platform),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// waitForRateLimit blocks until another request is allowed.
func (c *Client) waitForRateLimit() {
	for {
		c.mu.Lock()

		now := time.Now()
		oneSecondAgo := now.Add(-1 * time.Second)
		twoMinutesAgo := now.Add(-2 * time.Minute)

		newShort := c.shortWindow[:0]
		for _, t := range c.shortWindow {
			if t.After(oneSecondAgo) {
				newShort = append(newShort, t)
			}
		}
		c.shortWindow = newShort

		newLong := c.longWindow[:0]
		for _, t := range c.longWindow {
			if t.After(twoMinutesAgo) {
				newLong = append(newLong, t)
			}
		}
		c.longWindow = newLong

		if len(c.shortWindow) >= requestsPerSecond {
			waitTime := c.shortWindow[0].Add(time.Second).Sub(now) + 100*time.Millisecond
			c.mu.Unlock()
			fmt.Printf("      [Rate limit] %d req/sec, waiting %.1fs...\n", requestsPerSecond, waitTime.Seconds())
			time.Sleep(waitTime)
			continue
		}

		if len(c.longWindow) >= requestsPer2Min {
			waitTime := c.longWindow[0].Add(2*time.Minute).Sub(now) + 100*time.Millisecond
			c.mu.Unlock()
			fmt.Printf("      [Rate limit] %d req/2min, waiting %.1fs...\n", requestsPer2Min, waitTime.Seconds())
			time.Sleep(waitTime)
			continue
		}

		c.shortWindow = append(c.shortWindow, now)
		c.longWindow = append(c.longWindow, now)
		c.mu.Unlock()
		return
	}
}

// get performs a rate-limited GET, decodes the body into result when result
// is non-nil, and returns the raw body.
func (c *Client) get(ctx context.Context, u string, result any) ([]byte, error) {
	c.waitForRateLimit()

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		waitTime := 10
		if retryAfter != "" {
			fmt.Sscanf(retryAfter, "%d", &waitTime)
		}
		fmt.Printf("      [429 Rate limited] Waiting %d seconds...\n", waitTime)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(waitTime) * time.Second):
		}
		return c.get(ctx, u, result)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return nil, fmt.Errorf("riot: 403 Forbidden - check if the API key is valid")
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("riot: API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return nil, fmt.Errorf("riot: decoding response: %w", err)
		}
	}
	return body, nil
}

// ValidateKey checks the API key against the lightweight platform status
// endpoint. Returns (false, nil) when the key is rejected and
// (false, error) when validity could not be determined.
func (c *Client) ValidateKey(ctx context.Context) (bool, error) {
	u := c.platBase + "/lol/status/v4/platform-data"
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("riot: validation request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, nil
	default:
		return false, fmt.Errorf("riot: validation returned status %d", resp.StatusCode)
	}
}

// GetAccountByRiotID resolves a Riot ID (gameName#tagLine) to an account.
func (c *Client) GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*Account, error) {
	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.regionBase, url.PathEscape(gameName), url.PathEscape(tagLine))

	var account Account
	if _, err := c.get(ctx, u, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetMatchIDs fetches the latest match IDs for a player.
func (c *Client) GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?count=%d",
		c.regionBase, url.PathEscape(puuid), count)

	var matchIDs []string
	if _, err := c.get(ctx, u, &matchIDs); err != nil {
		return nil, err
	}
	return matchIDs, nil
}

// GetMatch fetches match details. The raw body is retained on the returned
// Match so the archive and the prompt builders see full fidelity.
func (c *Client) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.regionBase, url.PathEscape(matchID))

	var match Match
	raw, err := c.get(ctx, u, &match)
	if err != nil {
		return nil, err
	}
	match.Raw = raw
	return &match, nil
}

// GetTimeline fetches the match timeline as a generic JSON document, the
// shape the timeline transformers operate on.
func (c *Client) GetTimeline(ctx context.Context, matchID string) (map[string]any, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s/timeline", c.regionBase, url.PathEscape(matchID))

	var doc map[string]any
	if _, err := c.get(ctx, u, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
