// Package apperr defines the sentinel errors shared across depo layers.
package apperr

import "errors"

var (
	// ErrValidation covers caller mistakes: both or neither payload
	// source, empty payload, malformed codes or URLs.
	ErrValidation = errors.New("invalid input")

	// ErrTooLarge is kept distinct from ErrValidation so the web layer
	// can answer 413 instead of a generic 400.
	ErrTooLarge = errors.New("payload too large")

	// ErrUnclassified means no classification strategy matched the content.
	ErrUnclassified = errors.New("unclassifiable content")

	// ErrImageDecode means bytes claimed to be a picture failed to parse.
	ErrImageDecode = errors.New("invalid image data")

	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrCodeCollision means a resolved code violated uniqueness at
	// insert time. Indicates a logic bug; never retried.
	ErrCodeCollision = errors.New("code collision")

	// ErrInconsistent means a compensating delete after a storage
	// failure itself failed, leaving a metadata row without bytes.
	// Must reach operational alerting, never be swallowed.
	ErrInconsistent = errors.New("inconsistent state")
)
