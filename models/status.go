package models

import "time"

type StatusKind string

const (
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// StatusMessage is the transient text shown in a status region.
type StatusMessage struct {
	Text    string     `json:"text"`
	Kind    StatusKind `json:"kind"`
	Visible bool       `json:"visible"`
	// HideAt is zero when the message stays until replaced.
	HideAt time.Time `json:"hide_at,omitempty"`
}

// AutoHides reports whether a hide timer was scheduled for the message.
func (m StatusMessage) AutoHides() bool {
	return !m.HideAt.IsZero()
}

type FormSubmissionResult struct {
	OK          bool   `json:"ok"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// SubmitResponse is the JSON body returned by the relay endpoint.
type SubmitResponse struct {
	Result      FormSubmissionResult `json:"result"`
	Status      StatusMessage        `json:"status"`
	ButtonLabel string               `json:"button_label"`
	Disabled    bool                 `json:"disabled"`
	// RetryAfterMs is how long the submit control stays disabled.
	RetryAfterMs int64 `json:"retry_after_ms"`
}
