package services

import (
	"liff-gateway/internal/line"
	"liff-gateway/internal/logger"
	"liff-gateway/models"
	"liff-gateway/utils"
)

// Window is the part of the SDK used to decide how to leave the page.
type Window interface {
	IsInClient() bool
	OpenWindow(opts line.OpenWindowOptions) error
}

type Redirector struct {
	baseURL string
	debug   bool
}

func NewRedirector(baseURL string, debug bool) *Redirector {
	return &Redirector{baseURL: baseURL, debug: debug}
}

// BuildTargetURL appends userId then displayName, both percent-encoded the
// way encodeURIComponent does it.
func BuildTargetURL(baseURL, destinationPath string, identity models.Identity) string {
	return baseURL + destinationPath +
		"?userId=" + utils.EncodeURIComponent(identity.UserID) +
		"&displayName=" + utils.EncodeURIComponent(identity.DisplayName)
}

// Redirect sends the user to destinationPath carrying the identity. A nil
// identity means the profile has not been resolved yet and only the wait
// notice is shown.
func (rd *Redirector) Redirect(identity *models.Identity, destinationPath string, win Window, view Renderer) error {
	if identity == nil {
		view.ShowWaitNotice()
		return nil
	}

	target := BuildTargetURL(rd.baseURL, destinationPath, *identity)

	if rd.debug {
		logger.Debug("debug mode, not navigating", "target", target, "user_id", identity.UserID)
		view.ShowDebug(*identity, target)
		return nil
	}

	logger.Info("redirecting", "target", target)
	if win != nil && win.IsInClient() {
		return win.OpenWindow(line.OpenWindowOptions{URL: target, External: false})
	}
	view.Navigate(target)
	return nil
}
