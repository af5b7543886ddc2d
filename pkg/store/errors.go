package store

import "errors"

var (
	// ErrNotFound is returned when a document or segment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSegmentExists is returned by CreateSegment when the name is taken.
	ErrSegmentExists = errors.New("segment already exists")

	// ErrUnsupportedStore is returned for an unknown backend type.
	ErrUnsupportedStore = errors.New("unsupported store type")
)
