package storage

import "errors"

var (
	// ErrNotFound is returned when no document or checkpoint exists under the requested key.
	ErrNotFound = errors.New("not found")

	// ErrStorageClosed is returned by operations on a closed backend.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery is returned for similarity queries with a non-positive limit.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrSerializationFailed wraps decoding failures of stored records.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData is returned when a stored value is empty.
	ErrTruncatedData = errors.New("truncated data")
)
