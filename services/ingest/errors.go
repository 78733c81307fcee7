package ingest

import "errors"

// Error taxonomy for lifecycle operations. Ownership failures surface as
// ErrNotFound so callers cannot distinguish "absent" from "not yours".
var (
	ErrNotFound     = errors.New("item not found")
	ErrInvalidState = errors.New("item is not in a retryable state")
)
