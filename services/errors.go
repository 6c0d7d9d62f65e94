package services

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks missing or invalid static configuration.
	ErrConfig = errors.New("configuration error")

	// ErrLoginRedirect means the SDK has already answered the request with a
	// redirect to the LINE login page. Callers must stop and write nothing.
	ErrLoginRedirect = errors.New("login redirect issued")

	ErrPageNotFound   = errors.New("page not found")
	ErrSubmitInFlight = errors.New("submission already in progress")
)

type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// SdkError wraps a fault raised while initialising the SDK or fetching the
// profile.
type SdkError struct {
	Op  string
	Err error
}

func (e *SdkError) Error() string {
	return fmt.Sprintf("liff %s: %v", e.Op, e.Err)
}

func (e *SdkError) Unwrap() error {
	return e.Err
}

// SubmissionError is a failed relay call. Status is zero when the request
// never completed.
type SubmissionError struct {
	Status int
	Detail string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("submission transport failure: %v", e.Err)
	}
	return fmt.Sprintf("submission rejected with status %d: %s", e.Status, e.Detail)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
