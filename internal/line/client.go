package line

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"liff-gateway/internal/logger"
	"liff-gateway/models"
)

const (
	DefaultAuthURL    = "https://access.line.me/oauth2/v2.1/authorize"
	DefaultTokenURL   = "https://api.line.me/oauth2/v2.1/token"
	DefaultProfileURL = "https://api.line.me/v2/profile"
)

// ErrUnauthorized is returned when LINE rejects the access token.
var ErrUnauthorized = errors.New("line: access token rejected")

type Endpoints struct {
	AuthURL    string
	TokenURL   string
	ProfileURL string
}

type ClientOptions struct {
	ChannelID     string
	ChannelSecret string
	CallbackURL   string
	Endpoints     Endpoints
	HTTPClient    *http.Client
}

// Client talks to the LINE Login and profile APIs on behalf of every request.
type Client struct {
	channelID     string
	channelSecret string
	oauth         *oauth2.Config
	profileURL    string
	httpClient    *http.Client
	breaker       *gobreaker.CircuitBreaker
}

// Token is the result of a successful authorization-code exchange.
type Token struct {
	AccessToken string
	Expiry      time.Time
	Claims      *IDTokenClaims
}

func NewClient(opts ClientOptions) *Client {
	ep := opts.Endpoints
	if ep.AuthURL == "" {
		ep.AuthURL = DefaultAuthURL
	}
	if ep.TokenURL == "" {
		ep.TokenURL = DefaultTokenURL
	}
	if ep.ProfileURL == "" {
		ep.ProfileURL = DefaultProfileURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "LineAPI",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// A rejected token is the caller's problem, not LINE being down.
			return err == nil || errors.Is(err, ErrUnauthorized)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		channelID:     opts.ChannelID,
		channelSecret: opts.ChannelSecret,
		oauth: &oauth2.Config{
			ClientID:     opts.ChannelID,
			ClientSecret: opts.ChannelSecret,
			RedirectURL:  opts.CallbackURL,
			Scopes:       []string{"profile", "openid"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   ep.AuthURL,
				TokenURL:  ep.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		profileURL: ep.ProfileURL,
		httpClient: httpClient,
		breaker:    breaker,
	}
}

// AuthCodeURL builds the LINE authorize URL for the given state and nonce.
func (c *Client) AuthCodeURL(state, nonce string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("nonce", nonce))
}

// Exchange trades the authorization code for tokens and verifies the ID token.
func (c *Client) Exchange(ctx context.Context, code, nonce string) (*Token, error) {
	ctx, span := otel.Tracer("line-client").Start(ctx, "line.exchange")
	defer span.End()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, errors.New("token response has no id_token")
	}

	claims, err := VerifyIDToken(rawIDToken, c.channelID, c.channelSecret, nonce)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("line.user_id", claims.Subject))

	return &Token{
		AccessToken: tok.AccessToken,
		Expiry:      tok.Expiry,
		Claims:      claims,
	}, nil
}

// GetProfile calls the LINE profile API with the user's access token.
func (c *Client) GetProfile(ctx context.Context, accessToken string) (models.Profile, error) {
	ctx, span := otel.Tracer("line-client").Start(ctx, "line.get_profile")
	defer span.End()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create profile request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("profile request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("profile request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var profile models.Profile
		if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
			return nil, fmt.Errorf("failed to decode profile response: %w", err)
		}
		if profile.UserID == "" {
			return nil, errors.New("profile response has no userId")
		}
		return profile, nil
	})
	if err != nil {
		span.RecordError(err)
		return models.Profile{}, err
	}

	return result.(models.Profile), nil
}
