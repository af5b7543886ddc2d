package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of the document store. It is
// used by tests and by the daemon's development mode. Documents are created
// implicitly on first touch, since document provisioning is owned by the
// external service in production.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]*memoryDocument
	nextID int64
}

type memoryDocument struct {
	handle   string
	segments []*memorySegment
}

type memorySegment struct {
	id      int64
	name    string
	grid    [][]string
	formats []Op // recorded format/width ops, for inspection in tests
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*memoryDocument)}
}

func (s *MemoryStore) document(docID string) *memoryDocument {
	doc, ok := s.docs[docID]
	if !ok {
		doc = &memoryDocument{handle: uuid.New().String()}
		s.docs[docID] = doc
	}
	return doc
}

func (d *memoryDocument) segment(name string) *memorySegment {
	for _, seg := range d.segments {
		if seg.name == name {
			return seg
		}
	}
	return nil
}

// ListSegments returns the segment names of a document in tab order.
func (s *MemoryStore) ListSegments(ctx context.Context, docID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[docID]
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, len(doc.segments))
	for _, seg := range doc.segments {
		names = append(names, seg.name)
	}
	return names, nil
}

// CreateSegment creates a new empty segment.
func (s *MemoryStore) CreateSegment(ctx context.Context, docID, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.document(docID)
	if doc.segment(name) != nil {
		return 0, fmt.Errorf("create segment %q: %w", name, ErrSegmentExists)
	}
	s.nextID++
	doc.segments = append(doc.segments, &memorySegment{id: s.nextID, name: name})
	return s.nextID, nil
}

// ReadRange reads a rectangular range from a segment.
func (s *MemoryStore) ReadRange(ctx context.Context, docID, segment, rng string) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[docID]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", docID, ErrNotFound)
	}
	seg := doc.segment(segment)
	if seg == nil {
		return nil, fmt.Errorf("segment %q: %w", segment, ErrNotFound)
	}

	startCol, startRow, endCol, endRow, err := parseRange(rng)
	if err != nil {
		return nil, err
	}
	if endRow == 0 || endRow > len(seg.grid) {
		endRow = len(seg.grid)
	}

	var out [][]string
	for r := startRow; r <= endRow; r++ {
		var row []string
		for c := startCol; c <= endCol; c++ {
			row = append(row, seg.cell(c, r))
		}
		// Trim trailing empty cells, as the real store does.
		for len(row) > 0 && row[len(row)-1] == "" {
			row = row[:len(row)-1]
		}
		out = append(out, row)
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// AppendRow appends values immediately below the last row holding a value
// in the written columns.
func (s *MemoryStore) AppendRow(ctx context.Context, docID, segment string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[docID]
	if !ok {
		return fmt.Errorf("document %q: %w", docID, ErrNotFound)
	}
	seg := doc.segment(segment)
	if seg == nil {
		return fmt.Errorf("segment %q: %w", segment, ErrNotFound)
	}

	last := 0
	for r := 1; r <= len(seg.grid); r++ {
		for c := 1; c <= len(values); c++ {
			if seg.cell(c, r) != "" {
				last = r
				break
			}
		}
	}
	for c, v := range values {
		seg.setCell(c+1, last+1, v)
	}
	return nil
}

// UpdateCell writes a single cell.
func (s *MemoryStore) UpdateCell(ctx context.Context, docID, segment, cell, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[docID]
	if !ok {
		return fmt.Errorf("document %q: %w", docID, ErrNotFound)
	}
	seg := doc.segment(segment)
	if seg == nil {
		return fmt.Errorf("segment %q: %w", segment, ErrNotFound)
	}
	ref, err := parseCell(cell)
	if err != nil {
		return err
	}
	seg.setCell(ref.Col, ref.Row, value)
	return nil
}

// BatchMutate applies structural operations. Value-bearing ops mutate the
// grid; format and width ops are recorded but have no visible effect on
// string cells.
func (s *MemoryStore) BatchMutate(ctx context.Context, docID string, ops []Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[docID]
	if !ok {
		return fmt.Errorf("document %q: %w", docID, ErrNotFound)
	}
	for _, op := range ops {
		seg := doc.segment(op.Segment)
		if seg == nil {
			return fmt.Errorf("segment %q: %w", op.Segment, ErrNotFound)
		}
		switch op.Kind {
		case OpSetValue:
			ref, err := parseCell(op.Cell)
			if err != nil {
				return err
			}
			seg.setCell(ref.Col, ref.Row, op.Value)
		case OpCheckbox:
			ref, err := parseCell(op.Cell)
			if err != nil {
				return err
			}
			if seg.cell(ref.Col, ref.Row) == "" {
				seg.setCell(ref.Col, ref.Row, "FALSE")
			}
			seg.formats = append(seg.formats, op)
		case OpNumberFormat, OpColumnWidth:
			seg.formats = append(seg.formats, op)
		default:
			return fmt.Errorf("unknown batch op kind %q", op.Kind)
		}
	}
	return nil
}

// Formats returns the recorded format ops for a segment. Test helper.
func (s *MemoryStore) Formats(docID, segment string) []Op {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[docID]
	if !ok {
		return nil
	}
	seg := doc.segment(segment)
	if seg == nil {
		return nil
	}
	return append([]Op(nil), seg.formats...)
}

func (seg *memorySegment) cell(col, row int) string {
	if row < 1 || row > len(seg.grid) {
		return ""
	}
	r := seg.grid[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}

func (seg *memorySegment) setCell(col, row int, value string) {
	for len(seg.grid) < row {
		seg.grid = append(seg.grid, nil)
	}
	r := seg.grid[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = value
	seg.grid[row-1] = r
}
