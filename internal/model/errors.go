package model

import "errors"

// ErrInsufficientData reports that a computation was asked for with less
// history than it needs. It propagates to callers and is never silently
// replaced by zero-filled output.
var ErrInsufficientData = errors.New("insufficient data")
