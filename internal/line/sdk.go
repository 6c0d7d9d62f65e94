package line

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"liff-gateway/internal/logger"
	"liff-gateway/models"
)

const SessionName = "liff_session"

const (
	keyAccessToken = "access_token"
	keyExpiresAt   = "expires_at"
	keyUserID      = "user_id"
	keyDisplayName = "display_name"
	keyState       = "oauth_state"
	keyNonce       = "oauth_nonce"
	keyReturnTo    = "return_to"
)

var (
	ErrNotInitialized = errors.New("liff: init has not completed")
	ErrNotLoggedIn    = errors.New("liff: not logged in")
	ErrStateMismatch  = errors.New("liff: oauth state mismatch")
)

type InitConfig struct {
	LIFFID string
}

type LoginOptions struct {
	RedirectURI string
}

type OpenWindowOptions struct {
	URL      string
	External bool
}

// SDK is the subset of the LIFF surface the gateway relies on.
type SDK interface {
	Init(ctx context.Context, cfg InitConfig) error
	IsLoggedIn() bool
	Login(opts LoginOptions) error
	GetProfile(ctx context.Context) (models.Profile, error)
	IsInClient() bool
	OpenWindow(opts OpenWindowOptions) error
	Logout() error
}

// RequestSDK binds the SDK operations to one HTTP request/response pair.
// Session data lives in a signed cookie managed by gorilla/sessions.
type RequestSDK struct {
	client *Client
	store  sessions.Store
	w      http.ResponseWriter
	r      *http.Request
	now    func() time.Time

	liffID  string
	session *sessions.Session
}

func NewRequestSDK(client *Client, store sessions.Store, w http.ResponseWriter, r *http.Request) *RequestSDK {
	return &RequestSDK{
		client: client,
		store:  store,
		w:      w,
		r:      r,
		now:    time.Now,
	}
}

func (s *RequestSDK) Init(ctx context.Context, cfg InitConfig) error {
	if strings.TrimSpace(cfg.LIFFID) == "" {
		return errors.New("liffId is necessary for liff.init()")
	}
	s.liffID = cfg.LIFFID

	sess, err := s.store.Get(s.r, SessionName)
	if err != nil {
		// A cookie signed with a rotated secret decodes to a fresh session.
		logger.Warn("discarding unreadable session cookie", "error", err)
	}
	if sess == nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	s.session = sess
	return nil
}

func (s *RequestSDK) IsLoggedIn() bool {
	if s.session == nil {
		return false
	}
	token, _ := s.session.Values[keyAccessToken].(string)
	if token == "" {
		return false
	}
	expiresAt, _ := s.session.Values[keyExpiresAt].(int64)
	return expiresAt == 0 || s.now().Unix() < expiresAt
}

// Login sends the browser to the LINE authorize page. The response is
// complete once it returns; the caller must not write anything else.
func (s *RequestSDK) Login(opts LoginOptions) error {
	if s.session == nil {
		return ErrNotInitialized
	}

	state := uuid.NewString()
	nonce := uuid.NewString()
	s.session.Values[keyState] = state
	s.session.Values[keyNonce] = nonce
	s.session.Values[keyReturnTo] = opts.RedirectURI
	if err := s.session.Save(s.r, s.w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	http.Redirect(s.w, s.r, s.client.AuthCodeURL(state, nonce), http.StatusFound)
	return nil
}

func (s *RequestSDK) GetProfile(ctx context.Context) (models.Profile, error) {
	if s.session == nil {
		return models.Profile{}, ErrNotInitialized
	}
	token, _ := s.session.Values[keyAccessToken].(string)
	if token == "" {
		return models.Profile{}, ErrNotLoggedIn
	}

	profile, err := s.client.GetProfile(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			// Forget the dead token so the next visit starts a fresh login.
			s.clear()
			if saveErr := s.session.Save(s.r, s.w); saveErr != nil {
				logger.Warn("failed to clear expired session", "error", saveErr)
			}
		}
		return models.Profile{}, err
	}

	s.session.Values[keyUserID] = profile.UserID
	s.session.Values[keyDisplayName] = profile.DisplayName
	if err := s.session.Save(s.r, s.w); err != nil {
		logger.Warn("failed to persist resolved identity", "error", err)
	}
	return profile, nil
}

func (s *RequestSDK) IsInClient() bool {
	return IsInClientUserAgent(s.r.UserAgent())
}

var openWindowTmpl = template.Must(template.New("open").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>LIFF</title>
<script src="https://static.line-scdn.net/liff/edge/2/sdk.js"></script></head>
<body><script>
liff.init({ liffId: {{.LIFFID}} })
  .then(function () { liff.openWindow({ url: {{.URL}}, external: {{.External}} }); })
  .catch(function () { window.location.href = {{.URL}}; });
</script></body></html>`))

// OpenWindow answers with a page that asks the LINE app to open the URL
// inside its own browser.
func (s *RequestSDK) OpenWindow(opts OpenWindowOptions) error {
	s.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.w.WriteHeader(http.StatusOK)
	return openWindowTmpl.Execute(s.w, struct {
		LIFFID   string
		URL      string
		External bool
	}{s.liffID, opts.URL, opts.External})
}

func (s *RequestSDK) Logout() error {
	if s.session == nil {
		return ErrNotInitialized
	}
	s.clear()
	s.session.Options.MaxAge = -1
	return s.session.Save(s.r, s.w)
}

// CompleteLogin handles the authorize callback and returns where the user
// originally wanted to go.
func (s *RequestSDK) CompleteLogin(ctx context.Context) (string, error) {
	if s.session == nil {
		return "", ErrNotInitialized
	}

	q := s.r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		return "", fmt.Errorf("login rejected: %s %s", errCode, q.Get("error_description"))
	}

	want, _ := s.session.Values[keyState].(string)
	if want == "" || q.Get("state") != want {
		return "", ErrStateMismatch
	}
	nonce, _ := s.session.Values[keyNonce].(string)
	returnTo, _ := s.session.Values[keyReturnTo].(string)

	tok, err := s.client.Exchange(ctx, q.Get("code"), nonce)
	if err != nil {
		return "", err
	}

	delete(s.session.Values, keyState)
	delete(s.session.Values, keyNonce)
	delete(s.session.Values, keyReturnTo)
	s.session.Values[keyAccessToken] = tok.AccessToken
	if !tok.Expiry.IsZero() {
		s.session.Values[keyExpiresAt] = tok.Expiry.Unix()
	}
	s.session.Values[keyUserID] = tok.Claims.Subject
	s.session.Values[keyDisplayName] = tok.Claims.Name
	if err := s.session.Save(s.r, s.w); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	return returnTo, nil
}

// StoredIdentity returns the identity resolved by an earlier request, or nil
// when none has been resolved in this session yet.
func (s *RequestSDK) StoredIdentity() *models.Identity {
	if s.session == nil || !s.IsLoggedIn() {
		return nil
	}
	userID, _ := s.session.Values[keyUserID].(string)
	if userID == "" {
		return nil
	}
	displayName, _ := s.session.Values[keyDisplayName].(string)
	return &models.Identity{UserID: userID, DisplayName: displayName}
}

func (s *RequestSDK) clear() {
	for _, k := range []string{keyAccessToken, keyExpiresAt, keyUserID, keyDisplayName} {
		delete(s.session.Values, k)
	}
}

// IsInClientUserAgent reports whether the request came from the LINE in-app
// browser.
func IsInClientUserAgent(ua string) bool {
	return strings.Contains(ua, " Line/") || strings.HasPrefix(ua, "Line/")
}
