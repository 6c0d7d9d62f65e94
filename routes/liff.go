package routes

import (
	"errors"
	"net/http"
	"strings"

	"liff-gateway/internal/line"
	"liff-gateway/internal/logger"
	"liff-gateway/services"

	"github.com/gin-gonic/gin"
)

// SetupLIFFRoutes wires the redirect flow and the tab single-page app.
func SetupLIFFRoutes(router *gin.Engine, d *Deps) {
	// Entry point of the LIFF app: /liff?page=<key>
	router.GET("/liff", func(c *gin.Context) {
		sdk := d.sdk(c)
		view := newHTMLRenderer(c, d.Config)

		identity, ok := d.bootstrap(c, sdk, view)
		if !ok {
			return
		}

		// An empty ?page= behaves like a missing one.
		page := strings.ToLower(strings.TrimSpace(c.Query("page")))
		if page == "" {
			page = d.Config.DefaultPage
		}
		path, err := d.Pages.Resolve(page)
		if errors.Is(err, services.ErrPageNotFound) {
			logger.Warn("undefined page parameter", "page", page)
			d.Metrics.RecordRedirect(page, "not_found")
			view.ShowNotFound(page)
			return
		}

		d.Metrics.RecordRedirect(page, redirectOutcome(d, sdk))
		if err := d.Redirector.Redirect(&identity, path, sdk, view); err != nil {
			logger.Error("redirect failed", "page", page, "error", err)
		}
	})

	router.GET("/app", func(c *gin.Context) {
		sdk := d.sdk(c)
		view := newHTMLRenderer(c, d.Config)

		identity, ok := d.bootstrap(c, sdk, view)
		if !ok {
			return
		}

		c.HTML(http.StatusOK, "app.html", gin.H{
			"Identity":   identity,
			"ActualName": d.Lookup.ActualName(c.Request.Context(), identity.DisplayName),
			"Tabs":       services.NewTabs(d.pageOrder(), nil),
		})
	})

	// Button handler of the single-page app. Uses the identity resolved when
	// /app loaded; without one the user is asked to wait.
	router.GET("/app/open", func(c *gin.Context) {
		sdk := d.sdk(c)
		view := newHTMLRenderer(c, d.Config)

		if err := sdk.Init(c.Request.Context(), line.InitConfig{LIFFID: d.Config.LIFFID}); err != nil {
			logger.Error("LIFF init failed", "error", err)
			view.ShowFailure(services.FailureSDK, err.Error())
			return
		}

		page := strings.ToLower(c.Query("page"))
		path, err := d.Pages.Resolve(page)
		if err != nil {
			logger.Warn("undefined page parameter", "page", page)
			d.Metrics.RecordRedirect(page, "not_found")
			view.ShowNotFound(page)
			return
		}

		identity := sdk.StoredIdentity()
		if identity == nil {
			d.Metrics.RecordRedirect(page, "wait")
		} else {
			d.Metrics.RecordRedirect(page, redirectOutcome(d, sdk))
		}
		if err := d.Redirector.Redirect(identity, path, sdk, view); err != nil {
			logger.Error("redirect failed", "page", page, "error", err)
		}
	})
}

func redirectOutcome(d *Deps, sdk line.SDK) string {
	switch {
	case d.Config.DebugMode:
		return "debug"
	case sdk.IsInClient():
		return "in_client"
	default:
		return "navigated"
	}
}
