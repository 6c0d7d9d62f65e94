package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"liff-gateway/internal/line"
	"liff-gateway/internal/logger"
	"liff-gateway/models"
)

// Bootstrap initialises the SDK and resolves the signed-in user.
//
// When the session is not authenticated the SDK is asked to start a login and
// ErrLoginRedirect is returned; the response has already been written and the
// caller must stop. Init and profile faults come back as *SdkError.
func Bootstrap(ctx context.Context, sdk line.SDK, clientID, currentURL string) (models.Identity, error) {
	ctx, span := otel.Tracer("liff-gateway").Start(ctx, "liff.bootstrap")
	defer span.End()

	if strings.TrimSpace(clientID) == "" {
		return models.Identity{}, &ConfigError{Field: "LIFF_ID", Message: "liffId is required"}
	}

	if err := sdk.Init(ctx, line.InitConfig{LIFFID: clientID}); err != nil {
		span.RecordError(err)
		return models.Identity{}, &SdkError{Op: "init", Err: err}
	}

	if !sdk.IsLoggedIn() {
		logger.Info("not logged in, redirecting to LINE login", "return_to", currentURL)
		if err := sdk.Login(line.LoginOptions{RedirectURI: currentURL}); err != nil {
			return models.Identity{}, &SdkError{Op: "login", Err: err}
		}
		span.SetAttributes(attribute.Bool("liff.login_redirect", true))
		return models.Identity{}, ErrLoginRedirect
	}

	profile, err := sdk.GetProfile(ctx)
	if err != nil {
		span.RecordError(err)
		return models.Identity{}, &SdkError{Op: "getProfile", Err: err}
	}

	span.SetAttributes(attribute.String("user.id", profile.UserID))
	return profile.Identity(), nil
}
