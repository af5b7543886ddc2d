package ledger_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gridtime/gridtime/pkg/settings"
	"github.com/gridtime/gridtime/pkg/store"
)

func readCell(t *testing.T, st *store.MemoryStore, doc, seg, cell string) string {
	t.Helper()
	rows, err := st.ReadRange(context.Background(), doc, seg, cell)
	if err != nil {
		t.Fatalf("reading %s!%s: %v", seg, cell, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return ""
	}
	return rows[0][0]
}

func TestProvisionedSegmentLayout(t *testing.T) {
	e, st, _ := newTestEngine(t)
	ctx := context.Background()

	result, err := e.StartTimer(ctx, "doc", "")
	if err != nil {
		t.Fatalf("StartTimer failed: %v", err)
	}
	seg := result.Segment

	t.Run("checkbox flag", func(t *testing.T) {
		if got := readCell(t, st, "doc", seg, "A1"); got != "FALSE" {
			t.Errorf("A1 = %q, want FALSE", got)
		}
	})

	t.Run("summary formulas", func(t *testing.T) {
		if got := readCell(t, st, "doc", seg, "A2"); got != "Total Time" {
			t.Errorf("A2 = %q", got)
		}
		if got := readCell(t, st, "doc", seg, "B2"); got != "=SUM(D6:D)" {
			t.Errorf("B2 = %q, want =SUM(D6:D)", got)
		}
		if got := readCell(t, st, "doc", seg, "A3"); got != "Total Billable" {
			t.Errorf("A3 = %q", got)
		}
		if got := readCell(t, st, "doc", seg, "B3"); got != "=SUM(E6:E)" {
			t.Errorf("B3 = %q, want =SUM(E6:E)", got)
		}
	})

	t.Run("headers", func(t *testing.T) {
		rows, err := st.ReadRange(ctx, "doc", seg, "A5:E5")
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"Date", "Start Time", "End Time", "Total Time", "Billable Amount"}
		if len(rows) != 1 || len(rows[0]) != len(want) {
			t.Fatalf("header row = %v", rows)
		}
		for i, h := range want {
			if rows[0][i] != h {
				t.Errorf("header %d = %q, want %q", i, rows[0][i], h)
			}
		}
	})

	t.Run("seed formulas", func(t *testing.T) {
		if got := readCell(t, st, "doc", seg, "D6"); got != `=IF(C6="","",C6-B6)` {
			t.Errorf("D6 = %q", got)
		}
		if got := readCell(t, st, "doc", seg, "E6"); got != `=IF(D6="","",D6*24*Config!$B$1)` {
			t.Errorf("E6 = %q", got)
		}
	})

	t.Run("formats and widths recorded", func(t *testing.T) {
		var formats, widths, checkboxes int
		for _, op := range st.Formats("doc", seg) {
			switch op.Kind {
			case store.OpNumberFormat:
				formats++
			case store.OpColumnWidth:
				widths++
			case store.OpCheckbox:
				checkboxes++
			}
		}
		if checkboxes != 1 || formats != 5 || widths != 5 {
			t.Errorf("checkboxes=%d formats=%d widths=%d, want 1/5/5", checkboxes, formats, widths)
		}
	})

	t.Run("config provisioned as prerequisite", func(t *testing.T) {
		if got := readCell(t, st, "doc", settings.SegmentName, "A1"); got != settings.KeyHourlyRate {
			t.Errorf("Config!A1 = %q, want %q", got, settings.KeyHourlyRate)
		}
	})
}

func TestSegmentsDoNotCrossContaminate(t *testing.T) {
	e, st, clock := newTestEngine(t)
	ctx := context.Background()

	first, err := e.StartTimer(ctx, "doc", "")
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Hour)
	if _, err := e.StopTimer(ctx, "doc", nil); err != nil {
		t.Fatal(err)
	}
	if err := st.UpdateCell(ctx, "doc", first.Segment, "A1", "TRUE"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(24 * time.Hour)

	second, err := e.StartTimer(ctx, "doc", "")
	if err != nil {
		t.Fatal(err)
	}

	for _, seg := range []string{first.Segment, second.Segment} {
		for _, cell := range []string{"B2", "B3", "D6", "E6"} {
			formula := readCell(t, st, "doc", seg, cell)
			if formula == "" {
				t.Errorf("%s!%s is empty", seg, cell)
				continue
			}
			// Formulas may reference the segment's own cells and the
			// Config segment, never the other period segment.
			other := first.Segment
			if seg == first.Segment {
				other = second.Segment
			}
			if strings.Contains(formula, other) {
				t.Errorf("%s!%s references foreign segment: %q", seg, cell, formula)
			}
		}
	}

	if got := readCell(t, st, "doc", second.Segment, "B2"); got != "=SUM(D6:D)" {
		t.Errorf("second segment summary = %q, want =SUM(D6:D)", got)
	}
}
