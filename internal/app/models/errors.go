package models

import "errors"

// Domain specific errors shared across the API surface.
var (
	ErrNotFound   = errors.New("requested item not found")
	ErrConflict   = errors.New("item already exists or conflict")
	ErrValidation = errors.New("validation failed")
	ErrBadRequest = errors.New("bad request")

	// ErrAllSkipped is returned by the bulk add when every candidate event
	// was either already listed or collided with an existing date.
	ErrAllSkipped = errors.New("all candidate events were skipped")
)
