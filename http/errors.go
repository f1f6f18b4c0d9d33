package http

import "errors"

// ErrUnauthorized is returned when authentication or authorization fails.
var ErrUnauthorized = errors.New("unauthorized")
