package ledger

import (
	"fmt"

	"github.com/gridtime/gridtime/pkg/settings"
	"github.com/gridtime/gridtime/pkg/store"
)

// periodLayout is the fixed geometry of a period segment, kept in one place
// so a schema change has a single point of update. Row 1 holds the
// closed/invoiced checkbox, rows 2-3 the summary formulas, row 5 the column
// headers and rows 6..N the entries.
type periodLayout struct {
	FlagCell   string
	FlagClosed string // sentinel marking a segment invoiced

	SummaryLabels [][2]string // label cell -> text
	HeaderRow     int
	DataStartRow  int

	Headers []string // columns A..E

	DateCol     int
	StartCol    int
	EndCol      int
	TotalCol    int
	BillableCol int
}

var layoutV1 = periodLayout{
	FlagCell:   "A1",
	FlagClosed: "TRUE",
	SummaryLabels: [][2]string{
		{"A2", "Total Time"},
		{"A3", "Total Billable"},
	},
	HeaderRow:    5,
	DataStartRow: 6,
	Headers:      []string{"Date", "Start Time", "End Time", "Total Time", "Billable Amount"},
	DateCol:      1,
	StartCol:     2,
	EndCol:       3,
	TotalCol:     4,
	BillableCol:  5,
}

// dataRange covers the value columns of the entry area; the derived columns
// D and E are formula-owned and never read by the engine.
func (l periodLayout) dataRange() string {
	return fmt.Sprintf("%s:%s",
		store.CellAddress(l.DateCol, l.DataStartRow),
		columnOf(l.EndCol))
}

func (l periodLayout) endCell(row int) string {
	return store.CellAddress(l.EndCol, row)
}

// ops builds the single batched layout mutation for a freshly created
// segment. All formulas are relative to the segment itself except the
// hourly-rate reference, which points at the Config segment.
func (l periodLayout) ops(segment string) []store.Op {
	totalCol := columnOf(l.TotalCol)
	billCol := columnOf(l.BillableCol)
	dataRow := l.DataStartRow

	ops := []store.Op{
		{Kind: store.OpCheckbox, Segment: segment, Cell: l.FlagCell},
	}
	for _, label := range l.SummaryLabels {
		ops = append(ops, store.Op{Kind: store.OpSetValue, Segment: segment, Cell: label[0], Value: label[1]})
	}
	ops = append(ops,
		store.Op{Kind: store.OpSetValue, Segment: segment, Cell: "B2",
			Value: fmt.Sprintf("=SUM(%s%d:%s)", totalCol, dataRow, totalCol)},
		store.Op{Kind: store.OpSetValue, Segment: segment, Cell: "B3",
			Value: fmt.Sprintf("=SUM(%s%d:%s)", billCol, dataRow, billCol)},
	)

	for i, header := range l.Headers {
		ops = append(ops, store.Op{
			Kind:    store.OpSetValue,
			Segment: segment,
			Cell:    store.CellAddress(i+1, l.HeaderRow),
			Value:   header,
		})
	}

	widths := []int{110, 120, 120, 110, 140}
	for i, w := range widths {
		ops = append(ops, store.Op{Kind: store.OpColumnWidth, Segment: segment, Column: columnOf(i + 1), Width: w})
	}

	formats := []struct {
		col     int
		pattern string
	}{
		{l.DateCol, "yyyy-mm-dd"},
		{l.StartCol, "hh:mm:ss am/pm"},
		{l.EndCol, "hh:mm:ss am/pm"},
		{l.TotalCol, "[h]:mm:ss"},
		{l.BillableCol, "$#,##0.00"},
	}
	for _, f := range formats {
		c := columnOf(f.col)
		ops = append(ops, store.Op{
			Kind:    store.OpNumberFormat,
			Segment: segment,
			Range:   fmt.Sprintf("%s%d:%s", c, dataRow, c),
			Pattern: f.pattern,
		})
	}

	// Seed formulas: the store's row-extension behavior copies these into
	// every appended entry.
	startCell := store.CellAddress(l.StartCol, dataRow)
	endCell := store.CellAddress(l.EndCol, dataRow)
	totalCell := store.CellAddress(l.TotalCol, dataRow)
	ops = append(ops,
		store.Op{Kind: store.OpSetValue, Segment: segment, Cell: totalCell,
			Value: fmt.Sprintf(`=IF(%s="","",%s-%s)`, endCell, endCell, startCell)},
		store.Op{Kind: store.OpSetValue, Segment: segment, Cell: store.CellAddress(l.BillableCol, dataRow),
			Value: fmt.Sprintf(`=IF(%s="","",%s*24*%s!$B$1)`, totalCell, totalCell, settings.SegmentName)},
	)
	return ops
}

func columnOf(col int) string {
	addr := store.CellAddress(col, 1)
	return addr[:len(addr)-1]
}
