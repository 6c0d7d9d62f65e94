package services

import "liff-gateway/models"

type FailureKind string

const (
	FailureConfig FailureKind = "config"
	FailureSDK    FailureKind = "sdk"
)

// Renderer is the presentation surface the flows draw on. The HTTP layer
// implements it with HTML templates; tests record the calls.
type Renderer interface {
	// ShowFailure replaces the whole page with a failure state and a
	// "return home" action.
	ShowFailure(kind FailureKind, detail string)
	// ShowNotFound renders the "under construction" notice for pageKey.
	ShowNotFound(pageKey string)
	// ShowWaitNotice asks the user to retry once their profile has loaded.
	ShowWaitNotice()
	// ShowDebug displays the computed identity and target instead of leaving.
	ShowDebug(identity models.Identity, target string)
	// Navigate performs a full top-level navigation.
	Navigate(target string)
}
