package routes

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"liff-gateway/internal/line"
	"liff-gateway/internal/logger"
	"liff-gateway/middleware"
	"liff-gateway/models"
	"liff-gateway/services"
	"liff-gateway/utils"

	"github.com/gin-gonic/gin"
)

const maxSubmitBytes = 32 << 20

// SetupRelayRoutes wires the form page and the submission relay.
func SetupRelayRoutes(router *gin.Engine, d *Deps) {
	router.GET("/form", func(c *gin.Context) {
		sdk := d.sdk(c)
		view := newHTMLRenderer(c, d.Config)

		identity, ok := d.bootstrap(c, sdk, view)
		if !ok {
			return
		}

		action := c.Query("action")
		ui := d.UI.Get(uiKey(c, &identity))
		control := ui.Control(action)

		c.HTML(http.StatusOK, "form.html", gin.H{
			"ActualName":      d.Lookup.ActualName(c.Request.Context(), identity.DisplayName),
			"LineDisplayName": identity.DisplayName,
			"Action":          action,
			"Status":          ui.Status.Current(),
			"ButtonLabel":     control.Label(),
			"Disabled":        control.Disabled(),
			"RetryAfterMs":    control.RetryAfter().Milliseconds(),
		})
	})

	api := router.Group("/api")

	api.POST("/submit", middleware.RequestSizeLimit(maxSubmitBytes), func(c *gin.Context) {
		form, err := readForm(c.Request)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid form data", gin.H{"error": err.Error()})
			return
		}

		action := form.Get(services.ActionField)
		if action == "" {
			action = c.Query(services.ActionField)
		}
		form = form.Without(services.ActionField)

		ui := d.UI.Get(uiKey(c, storedIdentity(c, d)))
		control := ui.Control(action)

		ctx, cancel := utils.WithLongTimeout(c.Request.Context())
		defer cancel()

		result, err := d.Relay.Submit(ctx, form, action, ui, services.SubmitHooks{
			OnSuccess: func() { logger.Info("form submitted", "action", action) },
			OnError:   func(detail string) { logger.Warn("form submission failed", "action", action, "detail", detail) },
		})
		switch {
		case errors.Is(err, services.ErrSubmitInFlight):
			utils.RespondWithTooManyRequests(c, "submission_in_progress", "A submission is already in progress",
				gin.H{"retry_after_ms": control.RetryAfter().Milliseconds()})
			return
		case errors.Is(err, services.ErrConfig):
			logger.Error("relay not configured", "error", err)
			utils.RespondWithServiceUnavailable(c, "Form relay is not configured")
			return
		case err != nil:
			utils.RespondWithInternalError(c, "Submission failed", nil)
			return
		}

		status := http.StatusOK
		if !result.OK {
			status = http.StatusBadGateway
		}
		c.JSON(status, models.SubmitResponse{
			Result:       result,
			Status:       ui.Status.Current(),
			ButtonLabel:  control.Label(),
			Disabled:     control.Disabled(),
			RetryAfterMs: control.RetryAfter().Milliseconds(),
		})
	})

	api.GET("/status", func(c *gin.Context) {
		ui, ok := d.UI.Peek(uiKey(c, storedIdentity(c, d)))
		if !ok {
			c.JSON(http.StatusOK, models.StatusMessage{})
			return
		}
		c.JSON(http.StatusOK, ui.Status.Current())
	})
}

// uiKey scopes UI state to the LINE user, or to the client IP before login.
func uiKey(c *gin.Context, identity *models.Identity) string {
	if identity != nil && identity.UserID != "" {
		return "user:" + identity.UserID
	}
	return "ip:" + c.ClientIP()
}

func storedIdentity(c *gin.Context, d *Deps) *models.Identity {
	sdk := d.sdk(c)
	if err := sdk.Init(c.Request.Context(), line.InitConfig{LIFFID: d.Config.LIFFID}); err != nil {
		return nil
	}
	return sdk.StoredIdentity()
}

// readForm accepts multipart and urlencoded bodies.
func readForm(r *http.Request) (services.Form, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxSubmitBytes); err != nil {
			return services.Form{}, err
		}
		form := services.NewForm(url.Values(r.MultipartForm.Value))
		for field, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				data, err := readUpload(fh)
				if err != nil {
					return services.Form{}, err
				}
				form.Files = append(form.Files, services.FormFile{Field: field, Filename: fh.Filename, Data: data})
			}
		}
		return form, nil
	}

	if err := r.ParseForm(); err != nil {
		return services.Form{}, err
	}
	return services.NewForm(r.PostForm), nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
