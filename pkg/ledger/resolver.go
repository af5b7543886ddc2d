package ledger

import (
	"context"
	"regexp"
	"sort"
)

// segmentNamePattern is the strict calendar-date form a period segment must
// carry. Anything else in the document (Config, scratch tabs) is invisible
// to segment resolution.
var segmentNamePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// currentSegment determines the single current period segment: the most
// recent date-named segment whose invoiced flag is not set. Descending sort
// is chronological for this name format, so an older open segment is only
// chosen when every newer one is closed. Returns errNoOpenSegment when all
// candidates are closed or none exist.
func (e *Engine) currentSegment(ctx context.Context, docID string) (string, error) {
	names, err := e.store.ListSegments(ctx, docID)
	if err != nil {
		return "", storeErr("list segments", err)
	}

	var candidates []string
	for _, name := range names {
		if segmentNamePattern.MatchString(name) {
			candidates = append(candidates, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(candidates)))

	for _, name := range candidates {
		flag, err := e.readFlag(ctx, docID, name)
		if err != nil {
			return "", err
		}
		if flag != e.layout.FlagClosed {
			return name, nil
		}
	}
	return "", errNoOpenSegment
}

func (e *Engine) readFlag(ctx context.Context, docID, segment string) (string, error) {
	rows, err := e.store.ReadRange(ctx, docID, segment, e.layout.FlagCell)
	if err != nil {
		return "", storeErr("read invoiced flag", err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", nil
	}
	return rows[0][0], nil
}
