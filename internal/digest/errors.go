package digest

import "errors"

// ErrNoProgress is returned when a digest is requested before the learner
// has recorded any progress, so there is nothing to personalize against.
var ErrNoProgress = errors.New("digest: no learner progress recorded")
