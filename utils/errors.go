package utils

import "errors"

// Outcomes shared by the visibility policy and the controllers.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("authentication required")
)
