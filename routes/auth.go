package routes

import (
	"net/http"

	"liff-gateway/internal/line"
	"liff-gateway/internal/logger"
	"liff-gateway/services"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes wires the LINE Login callback, logout and "return home".
func SetupAuthRoutes(router *gin.Engine, d *Deps) {
	auth := router.Group("/auth")

	auth.GET("/callback", func(c *gin.Context) {
		sdk := d.sdk(c)
		view := newHTMLRenderer(c, d.Config)

		if err := sdk.Init(c.Request.Context(), line.InitConfig{LIFFID: d.Config.LIFFID}); err != nil {
			logger.Error("LIFF init failed on callback", "error", err)
			view.ShowFailure(services.FailureSDK, err.Error())
			return
		}

		returnTo, err := sdk.CompleteLogin(c.Request.Context())
		if err != nil {
			logger.Error("LINE login callback failed", "error", err)
			d.Metrics.RecordLoginEvent("callback_error")
			view.ShowFailure(services.FailureSDK, err.Error())
			return
		}

		d.Metrics.RecordLoginEvent("callback_ok")
		c.Redirect(http.StatusFound, safeReturnTo(c, returnTo))
	})

	auth.GET("/logout", func(c *gin.Context) {
		sdk := d.sdk(c)
		if err := sdk.Init(c.Request.Context(), line.InitConfig{LIFFID: d.Config.LIFFID}); err == nil {
			if err := sdk.Logout(); err != nil {
				logger.Warn("failed to clear session", "error", err)
			}
		}
		c.Redirect(http.StatusFound, HomeURL(d.Config))
	})

	router.GET("/home", func(c *gin.Context) {
		c.Redirect(http.StatusFound, HomeURL(d.Config))
	})
}
