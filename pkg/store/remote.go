package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RemoteStore talks to a document-store gateway over JSON/HTTP. Every method
// is a single remote call; failures are wrapped with the operation that
// produced them so the engine can surface them as store errors.
type RemoteStore struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemoteStore creates a client for the gateway at baseURL.
func NewRemoteStore(baseURL string) *RemoteStore {
	return &RemoteStore{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type segmentInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ListSegments returns the segment names of a document in tab order.
func (s *RemoteStore) ListSegments(ctx context.Context, docID string) ([]string, error) {
	var out struct {
		Segments []segmentInfo `json:"segments"`
	}
	if err := s.do(ctx, http.MethodGet, s.docPath(docID, "segments"), nil, &out); err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	names := make([]string, 0, len(out.Segments))
	for _, seg := range out.Segments {
		names = append(names, seg.Name)
	}
	return names, nil
}

// CreateSegment creates a new empty segment and returns its assigned ID.
func (s *RemoteStore) CreateSegment(ctx context.Context, docID, name string) (int64, error) {
	in := map[string]string{"name": name}
	var out segmentInfo
	if err := s.do(ctx, http.MethodPost, s.docPath(docID, "segments"), in, &out); err != nil {
		return 0, fmt.Errorf("create segment %q: %w", name, err)
	}
	return out.ID, nil
}

// ReadRange reads a rectangular range from a segment.
func (s *RemoteStore) ReadRange(ctx context.Context, docID, segment, rng string) ([][]string, error) {
	var out struct {
		Values [][]string `json:"values"`
	}
	path := s.segPath(docID, segment, "values", rng)
	if err := s.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("read range %s!%s: %w", segment, rng, err)
	}
	return out.Values, nil
}

// AppendRow appends values below the last populated row.
func (s *RemoteStore) AppendRow(ctx context.Context, docID, segment string, values []string) error {
	in := map[string][][]string{"values": {values}}
	path := s.segPath(docID, segment, "values:append")
	if err := s.do(ctx, http.MethodPost, path, in, nil); err != nil {
		return fmt.Errorf("append row to %s: %w", segment, err)
	}
	return nil
}

// UpdateCell writes a single cell.
func (s *RemoteStore) UpdateCell(ctx context.Context, docID, segment, cell, value string) error {
	in := map[string]string{"value": value}
	path := s.segPath(docID, segment, "values", cell)
	if err := s.do(ctx, http.MethodPut, path, in, nil); err != nil {
		return fmt.Errorf("update cell %s!%s: %w", segment, cell, err)
	}
	return nil
}

// BatchMutate applies structural operations in one request.
func (s *RemoteStore) BatchMutate(ctx context.Context, docID string, ops []Op) error {
	in := map[string][]Op{"ops": ops}
	if err := s.do(ctx, http.MethodPost, s.docPath(docID, "batch"), in, nil); err != nil {
		return fmt.Errorf("batch mutate: %w", err)
	}
	return nil
}

func (s *RemoteStore) docPath(docID string, parts ...string) string {
	p := s.baseURL + "/documents/" + url.PathEscape(docID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (s *RemoteStore) segPath(docID, segment string, parts ...string) string {
	p := s.docPath(docID, "segments", url.PathEscape(segment))
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func (s *RemoteStore) do(ctx context.Context, method, url string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return ErrSegmentExists
	case resp.StatusCode >= 300:
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
