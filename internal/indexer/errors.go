package indexer

import "errors"

// ErrNoSources is returned when an ingestion run finds no registered
// content sources to pull from.
var ErrNoSources = errors.New("indexer: no content sources registered")
