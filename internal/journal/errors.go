package journal

import "errors"

// ErrNotFound is returned when the requested record does not exist,
// notably when no learner progress has been configured yet.
var ErrNotFound = errors.New("journal: not found")
