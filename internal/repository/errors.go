package repository

import "errors"

// ErrNotFound is returned by all implementations when a record does not
// exist, so services stay independent of the storage backend.
var ErrNotFound = errors.New("record not found")
