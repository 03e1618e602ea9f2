package collections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"bookshelf/src/internal/cache"
	"bookshelf/src/internal/httpx"
)

// FeedbinSubscriptionsURL is the Feedbin v2 subscriptions endpoint.
const FeedbinSubscriptionsURL = "https://api.feedbin.com/v2/subscriptions.json"

// ErrBlogroll is returned, wrapping the cause, when Feedbin cannot be read.
var ErrBlogroll = errors.New("failed to fetch blogroll data")

// Subscription is one feed in the blogroll.
type Subscription struct {
	ID        int    `json:"id"`
	FeedID    int    `json:"feed_id"`
	Title     string `json:"title"`
	FeedURL   string `json:"feed_url"`
	SiteURL   string `json:"site_url"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Credentials are Feedbin basic-auth credentials.
type Credentials struct {
	Username string
	Password string
	// Endpoint overrides FeedbinSubscriptionsURL.
	Endpoint string
}

// Blogroll lists the Feedbin subscriptions for creds.
func Blogroll(ctx context.Context, c cache.Cache, doer httpx.Doer, creds Credentials) ([]Subscription, error) {
	var subs []Subscription
	if cache.GetJSON(c, BlogrollKey, BlogrollTTL, &subs) {
		return subs, nil
	}
	subs, err := fetchSubscriptions(ctx, doer, creds)
	if err != nil {
		slog.ErrorContext(ctx, "fetching feedbin subscriptions", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrBlogroll, err)
	}
	if err := cache.SetJSON(c, BlogrollKey, subs); err != nil {
		slog.WarnContext(ctx, "caching blogroll failed", "error", err)
	}
	return subs, nil
}

func fetchSubscriptions(ctx context.Context, doer httpx.Doer, creds Credentials) ([]Subscription, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, errors.New("feedbin credentials are not configured")
	}
	endpoint := creds.Endpoint
	if endpoint == "" {
		endpoint = FeedbinSubscriptionsURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(creds.Username, creds.Password)
	req.Header.Set("Accept", httpx.AcceptJSON)
	httpx.SetUA(req)
	resp, err := doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feedbin: http %d", resp.StatusCode)
	}
	var subs []Subscription
	if err := json.NewDecoder(resp.Body).Decode(&subs); err != nil {
		return nil, fmt.Errorf("feedbin: decode: %w", err)
	}
	return subs, nil
}
