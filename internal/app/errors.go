package service

import "errors"

// Sentinel error kinds surfaced to callers. Oracle failures are not here on
// purpose: they degrade the response instead of failing it.
var (
	ErrValidation = errors.New("invalid event")
	ErrStorage    = errors.New("storage failure")
)
