package store

import (
	"context"
)

// Store is the document-store collaborator. A document is an externally
// owned container of named segments; each segment is a rectangular grid of
// string cells addressed in A1 notation. Every method is a remote call and
// may fail independently; callers must not assume atomicity across calls.
type Store interface {
	// ListSegments returns the segment names of a document in tab order.
	ListSegments(ctx context.Context, docID string) ([]string, error)

	// CreateSegment creates a new, empty segment and returns its assigned
	// numeric identifier. Fails with ErrSegmentExists if the name is taken.
	CreateSegment(ctx context.Context, docID, name string) (int64, error)

	// ReadRange reads a rectangular range (e.g. "A1:B10", "A6:E", "C7").
	// Trailing empty rows and trailing empty cells are trimmed, so an
	// entirely empty range reads as a nil slice. Fails with ErrNotFound
	// if the segment does not exist.
	ReadRange(ctx context.Context, docID, segment, rng string) ([][]string, error)

	// AppendRow appends values immediately below the last row holding a
	// value in the written columns.
	AppendRow(ctx context.Context, docID, segment string, values []string) error

	// UpdateCell writes a single cell addressed in A1 notation.
	UpdateCell(ctx context.Context, docID, segment, cell, value string) error

	// BatchMutate applies a list of structural operations in one request.
	BatchMutate(ctx context.Context, docID string, ops []Op) error
}

// OpKind identifies a structural batch operation.
type OpKind string

const (
	OpSetValue     OpKind = "set_value"
	OpCheckbox     OpKind = "checkbox"
	OpNumberFormat OpKind = "number_format"
	OpColumnWidth  OpKind = "column_width"
)

// Op is one structural operation inside a BatchMutate request. Which fields
// are meaningful depends on Kind: SetValue and Checkbox address a Cell,
// NumberFormat a Range with a Pattern, ColumnWidth a Column letter.
type Op struct {
	Kind    OpKind `json:"kind"`
	Segment string `json:"segment"`
	Cell    string `json:"cell,omitempty"`
	Value   string `json:"value,omitempty"`
	Range   string `json:"range,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Column  string `json:"column,omitempty"`
	Width   int    `json:"width,omitempty"`
}

// Config holds store backend configuration.
type Config struct {
	Type string // "memory" or "remote"
	URL  string // gateway base URL for the remote backend
}

// NewStore creates a store backend based on configuration.
func NewStore(config Config) (Store, error) {
	switch config.Type {
	case "remote":
		return NewRemoteStore(config.URL), nil
	case "memory", "":
		return NewMemoryStore(), nil
	default:
		return nil, ErrUnsupportedStore
	}
}
