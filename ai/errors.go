package ai

import "errors"

var (
	// ErrInvalidConfig indicates a required configuration value is missing or out of range.
	ErrInvalidConfig = errors.New("ai config")

	// ErrUnknownProvider indicates Config.Provider names no known backend.
	ErrUnknownProvider = errors.New("unknown AI provider")

	// ErrMissingAPIKey indicates a hosted provider was selected without a credential.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrMalformedPlan indicates the reasoning engine returned something that is not a research plan.
	ErrMalformedPlan = errors.New("malformed research plan")

	// ErrEmptyResponse indicates the model returned no usable content.
	ErrEmptyResponse = errors.New("empty model response")
)
