package line

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testChannelID     = "1657000000"
	testChannelSecret = "channel-secret-for-tests"
)

func signIDToken(t *testing.T, secret string, claims IDTokenClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func validClaims(nonce string) IDTokenClaims {
	now := time.Now()
	return IDTokenClaims{
		Name:  "Jane Doe",
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   "U1",
			Audience:  jwt.ClaimStrings{testChannelID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

// fakeLine serves the token and profile endpoints.
type fakeLine struct {
	*httptest.Server
	t *testing.T

	mu          sync.Mutex
	nonce       string
	profileCode int
	codes       []string
}

func newFakeLine(t *testing.T) *fakeLine {
	f := &fakeLine{t: t, profileCode: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", f.token)
	mux.HandleFunc("/profile", f.profile)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeLine) endpoints() Endpoints {
	return Endpoints{
		AuthURL:    "https://access.line.example/authorize",
		TokenURL:   f.URL + "/token",
		ProfileURL: f.URL + "/profile",
	}
}

func (f *fakeLine) setNonce(n string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonce = n
}

func (f *fakeLine) setProfileStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCode = code
}

func (f *fakeLine) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("client_secret") != testChannelSecret {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_client"}`))
		return
	}
	f.mu.Lock()
	f.codes = append(f.codes, r.PostForm.Get("code"))
	nonce := f.nonce
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": "access-" + r.PostForm.Get("code"),
		"token_type":   "Bearer",
		"expires_in":   2592000,
		"id_token":     signIDToken(f.t, testChannelSecret, validClaims(nonce)),
	})
}

func (f *fakeLine) profile(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	code := f.profileCode
	f.mu.Unlock()

	if code != http.StatusOK {
		w.WriteHeader(code)
		w.Write([]byte(`{"message":"invalid token"}`))
		return
	}
	if r.Header.Get("Authorization") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"userId":"U1","displayName":"Jane Doe","pictureUrl":"https://profile.line-scdn.net/x"}`))
}

func newTestClient(f *fakeLine) *Client {
	return NewClient(ClientOptions{
		ChannelID:     testChannelID,
		ChannelSecret: testChannelSecret,
		CallbackURL:   "https://gw.example/auth/callback",
		Endpoints:     f.endpoints(),
	})
}
