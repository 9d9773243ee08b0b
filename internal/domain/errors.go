package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidPrompt     = errors.New("invalid prompt")
	ErrInvalidSettings   = errors.New("invalid settings")
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrQueueFull         = errors.New("queue full")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrProviderFailure   = errors.New("provider failure")
)
