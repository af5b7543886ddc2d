package store

import (
	"fmt"
	"strconv"
	"strings"
)

// cellRef is a parsed A1-notation cell. Row and Col are 1-based; a Row of 0
// means the reference was column-only (as in the open end of "A6:E").
type cellRef struct {
	Col int
	Row int
}

// parseCell parses a single A1 reference like "C7" or a bare column "E".
func parseCell(s string) (cellRef, error) {
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 {
		return cellRef{}, fmt.Errorf("invalid cell reference %q", s)
	}
	col := 0
	for _, ch := range s[:i] {
		col = col*26 + int(ch-'A') + 1
	}
	if i == len(s) {
		return cellRef{Col: col}, nil
	}
	row, err := strconv.Atoi(s[i:])
	if err != nil || row < 1 {
		return cellRef{}, fmt.Errorf("invalid cell reference %q", s)
	}
	return cellRef{Col: col, Row: row}, nil
}

// parseRange parses "A1:B10", "A6:E" (open-ended rows) or a single cell.
// Returned bounds are 1-based; endRow of 0 means "to the last row".
func parseRange(rng string) (startCol, startRow, endCol, endRow int, err error) {
	parts := strings.SplitN(rng, ":", 2)
	start, err := parseCell(parts[0])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if start.Row == 0 {
		return 0, 0, 0, 0, fmt.Errorf("invalid range %q", rng)
	}
	if len(parts) == 1 {
		return start.Col, start.Row, start.Col, start.Row, nil
	}
	end, err := parseCell(parts[1])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return start.Col, start.Row, end.Col, end.Row, nil
}

// columnLetter converts a 1-based column index to its A1 letter form.
func columnLetter(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// CellAddress renders a 1-based (column, row) pair in A1 notation.
func CellAddress(col, row int) string {
	return fmt.Sprintf("%s%d", columnLetter(col), row)
}
