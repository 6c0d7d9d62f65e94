package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"liff-gateway/internal/logger"
	"liff-gateway/internal/telemetry"
	"liff-gateway/utils"
)

const nameCachePrefix = "liff:actual_name:"

// NameLookup asks the remote script for the "actual name" registered for a
// LINE display name. It only feeds what is shown on screen, so every failure
// falls back to the display name.
type NameLookup struct {
	endpoint   string
	httpClient *http.Client
	rdb        *redis.Client
	ttl        time.Duration
	breaker    *gobreaker.CircuitBreaker
	metrics    *telemetry.Metrics
}

// NewNameLookup returns nil when no endpoint is configured; a nil lookup
// always falls back.
func NewNameLookup(endpoint string, rdb *redis.Client, ttl time.Duration, httpClient *http.Client, metrics *telemetry.Metrics) *NameLookup {
	if endpoint == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &NameLookup{
		endpoint:   endpoint,
		httpClient: httpClient,
		rdb:        rdb,
		ttl:        ttl,
		metrics:    metrics,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "NameLookup",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

type actualNameResponse struct {
	ActualName string `json:"actualName"`
}

func (n *NameLookup) ActualName(ctx context.Context, lineDisplayName string) string {
	if n == nil || lineDisplayName == "" {
		return lineDisplayName
	}

	key := nameCachePrefix + lineDisplayName
	if n.rdb != nil {
		cached, err := n.rdb.Get(ctx, key).Result()
		if err == nil {
			n.metrics.RecordNameLookup("cache")
			if cached == "" {
				return lineDisplayName
			}
			return cached
		}
		if err != redis.Nil {
			logger.Warn("name cache read failed", "error", err)
		}
	}

	actual, err := n.fetch(ctx, lineDisplayName)
	if err != nil {
		logger.Warn("actual name lookup failed, using LINE display name", "display_name", lineDisplayName, "error", err)
		n.metrics.RecordNameLookup("fallback")
		return lineDisplayName
	}
	n.metrics.RecordNameLookup("remote")

	if n.rdb != nil {
		// Misses are cached as "" so unknown users don't hit the script each time.
		if err := n.rdb.Set(ctx, key, actual, n.ttl).Err(); err != nil {
			logger.Warn("name cache write failed", "error", err)
		}
	}

	if actual == "" {
		return lineDisplayName
	}
	return actual
}

func (n *NameLookup) fetch(ctx context.Context, lineDisplayName string) (string, error) {
	ctx, cancel := utils.WithShortTimeout(ctx)
	defer cancel()

	result, err := n.breaker.Execute(func() (interface{}, error) {
		u, err := url.Parse(n.endpoint)
		if err != nil {
			return "", fmt.Errorf("invalid lookup endpoint: %w", err)
		}
		q := u.Query()
		q.Set("action", "getActualNameByLineDisplayName")
		q.Set("lineDisplayName", lineDisplayName)
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return "", err
		}
		resp, err := n.httpClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", fmt.Errorf("lookup returned status %d", resp.StatusCode)
		}

		var body actualNameResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("failed to decode lookup response: %w", err)
		}
		return body.ActualName, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
