package ledger

import "context"

// timerEntry is one parsed data row of a period segment.
type timerEntry struct {
	Row   int // 1-based row inside the segment
	Date  string
	Start string
	End   string
}

// open reports whether the entry has a start but no end yet.
func (t timerEntry) open() bool {
	return t.Start != "" && t.End == ""
}

// lastEntry derives the timer-relevant row from raw range data. State is
// never persisted: running/idle is recomputed from the shape of the last
// data row on every call. An open row anywhere but last is invisible.
func lastEntry(rows [][]string, dataStartRow int) (timerEntry, bool) {
	if len(rows) == 0 {
		return timerEntry{}, false
	}
	row := rows[len(rows)-1]
	entry := timerEntry{Row: dataStartRow + len(rows) - 1}
	if len(row) > 0 {
		entry.Date = row[0]
	}
	if len(row) > 1 {
		entry.Start = row[1]
	}
	if len(row) > 2 {
		entry.End = row[2]
	}
	return entry, true
}

// readLastEntry fetches the entry area of a segment and derives its last
// row. The derived columns D and E are never read.
func (e *Engine) readLastEntry(ctx context.Context, docID, segment string) (timerEntry, bool, error) {
	rows, err := e.store.ReadRange(ctx, docID, segment, e.layout.dataRange())
	if err != nil {
		return timerEntry{}, false, storeErr("read entries", err)
	}
	entry, ok := lastEntry(rows, e.layout.DataStartRow)
	return entry, ok, nil
}
