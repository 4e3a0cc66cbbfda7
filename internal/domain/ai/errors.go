package ai

import "errors"

// ErrUnavailable indicates the reasoning backend is unreachable or returned
// a quota/limit error (HTTP 429 or similar).
var ErrUnavailable = errors.New("reasoning backend unavailable")
