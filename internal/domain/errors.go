package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidPrompt       = errors.New("invalid prompt")
	ErrTooManyImages       = errors.New("too many reference images")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrJobNotRefinable     = errors.New("job cannot be refined")
	ErrQueueEmpty          = errors.New("queue empty")
)
