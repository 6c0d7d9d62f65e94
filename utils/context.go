package utils

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds calls to LINE and the remote script.
	DefaultTimeout = 10 * time.Second

	// LongTimeout is for form submissions carrying file uploads.
	LongTimeout = 30 * time.Second

	// ShortTimeout is for the optional name lookup and cache calls.
	ShortTimeout = 2 * time.Second
)

func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

func WithLongTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, LongTimeout)
}

func WithShortTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, ShortTimeout)
}
