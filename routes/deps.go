package routes

import (
	"errors"
	"net/http"
	"net/url"
	"sort"

	"liff-gateway/internal/config"
	"liff-gateway/internal/line"
	"liff-gateway/internal/logger"
	"liff-gateway/internal/telemetry"
	"liff-gateway/middleware"
	"liff-gateway/models"
	"liff-gateway/services"
	"liff-gateway/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// Deps is everything the route handlers share.
type Deps struct {
	Config     *config.Config
	Line       *line.Client
	Sessions   sessions.Store
	Pages      *services.PageRouter
	Redirector *services.Redirector
	Relay      *services.Relay
	Lookup     *services.NameLookup
	UI         *services.UIStates
	Metrics    *telemetry.Metrics
}

func (d *Deps) sdk(c *gin.Context) *line.RequestSDK {
	return line.NewRequestSDK(d.Line, d.Sessions, c.Writer, c.Request)
}

// NewSessionStore returns the signed cookie store backing the LINE session.
func NewSessionStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   cfg.GinMode == "release",
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// currentURL rebuilds the absolute URL of the request, honouring the proxy
// headers LIFF hosting usually sits behind.
func currentURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}

// bootstrap runs the session bootstrapper for c. ok is false when the
// response has already been written (login redirect or failure page).
func (d *Deps) bootstrap(c *gin.Context, sdk line.SDK, view services.Renderer) (models.Identity, bool) {
	ctx, cancel := utils.WithTimeout(c.Request.Context())
	defer cancel()

	identity, err := services.Bootstrap(ctx, sdk, d.Config.LIFFID, currentURL(c))
	switch {
	case err == nil:
		c.Set(middleware.IdentityKey, identity)
		return identity, true
	case errors.Is(err, services.ErrLoginRedirect):
		d.Metrics.RecordLoginEvent("login_redirect")
	case errors.Is(err, services.ErrConfig):
		logger.Error("configuration error", "error", err)
		view.ShowFailure(services.FailureConfig, err.Error())
	default:
		logger.Error("LIFF bootstrap failed", "error", err, "request_id", middleware.GetRequestID(c))
		view.ShowFailure(services.FailureSDK, err.Error())
	}
	return models.Identity{}, false
}

// safeReturnTo keeps post-login redirects on this host.
func safeReturnTo(c *gin.Context, raw string) string {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return "/liff"
	}
	if u.Host != "" && u.Host != c.Request.Host {
		return "/liff"
	}
	return u.RequestURI()
}

// pageOrder lists page keys with the default page first, the rest sorted.
func (d *Deps) pageOrder() []string {
	keys := d.Pages.Pages().Keys()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == d.Config.DefaultPage {
			return true
		}
		if keys[j] == d.Config.DefaultPage {
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}
