package formulas

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// MaxRows and MaxColumns are the worksheet limits of the xlsx format;
// the last cell is XFD1048576
const (
	MaxRows    = 1 << 20
	MaxColumns = 1 << 14
)

// RangeAddress represents a range of cells within a single worksheet
type RangeAddress struct {
	WorksheetID uint32
	StartRow    uint32
	StartColumn uint32
	EndRow      uint32
	EndColumn   uint32
}

// Contains reports whether the cell lies inside the range
func (r RangeAddress) Contains(worksheetID uint32, row, col uint32) bool {
	return r.WorksheetID == worksheetID &&
		row >= r.StartRow && row <= r.EndRow &&
		col >= r.StartColumn && col <= r.EndColumn
}

// Rows returns the number of rows spanned by the range
func (r RangeAddress) Rows() uint32 {
	return r.EndRow - r.StartRow + 1
}

// Columns returns the number of columns spanned by the range
func (r RangeAddress) Columns() uint32 {
	return r.EndColumn - r.StartColumn + 1
}

// InBounds reports whether the range is ordered and lies within the
// worksheet limits
func (r RangeAddress) InBounds() bool {
	return r.StartRow <= r.EndRow && r.StartColumn <= r.EndColumn &&
		r.EndRow < MaxRows && r.EndColumn < MaxColumns
}

// IsSingleCell reports whether the range addresses exactly one cell
func (r RangeAddress) IsSingleCell() bool {
	return r.StartRow == r.EndRow && r.StartColumn == r.EndColumn
}

// String renders the range in A1 notation without a sheet prefix
func (r RangeAddress) String() string {
	start := FormatCellAddress(r.StartRow, r.StartColumn)
	if r.IsSingleCell() {
		return start
	}
	return start + ":" + FormatCellAddress(r.EndRow, r.EndColumn)
}

// Range represents a lazy range type for memory-efficient function evaluation.
// a direct cell reference is handed to functions as a 1x1 range so that they
// can tell referenced values apart from literals.
type Range interface {
	GetBounds() RangeAddress
	Iterate() iter.Seq[*Cell]
	IterateValues() iter.Seq[Primitive]
}

// Cell is a single cell yielded by range iteration
type Cell struct {
	Type  CellType  // cell type constant indicating data type
	Row   uint32    // zero-based row index
	Col   uint32    // zero-based column index
	Value Primitive // actual cell value - type depends on cell type
}

// CellRange implements Range for lazy cell iteration over a worksheet
type CellRange struct {
	worksheetID uint32
	startRow    uint32
	startCol    uint32
	endRow      uint32
	endCol      uint32
	worksheet   *Worksheet
}

// GetBounds returns the range boundaries
func (r *CellRange) GetBounds() RangeAddress {
	return RangeAddress{
		WorksheetID: r.worksheetID,
		StartRow:    r.startRow,
		StartColumn: r.startCol,
		EndRow:      r.endRow,
		EndColumn:   r.endCol,
	}
}

// Iterate returns an iterator over all cells in the range, row by row
func (r *CellRange) Iterate() iter.Seq[*Cell] {
	return func(yield func(*Cell) bool) {
		if r.worksheet == nil {
			return
		}

		// wider counters so that an end bound of MaxUint32 cannot wrap
		for row := uint64(r.startRow); row <= uint64(r.endRow); row++ {
			for col := uint64(r.startCol); col <= uint64(r.endCol); col++ {
				cell := r.worksheet.GetCell(uint32(row), uint32(col))
				if cell == nil {
					// empty cells are yielded with a nil value
					cell = &Cell{
						Type:  CellValueTypeEmpty,
						Row:   uint32(row),
						Col:   uint32(col),
						Value: nil,
					}
				}
				if !yield(cell) {
					return
				}
			}
		}
	}
}

// IterateValues returns an iterator over cell values in the range
func (r *CellRange) IterateValues() iter.Seq[Primitive] {
	return func(yield func(Primitive) bool) {
		for cell := range r.Iterate() {
			if !yield(cell.Value) {
				return
			}
		}
	}
}

// ValueRange is a single-column Range over in-memory values. it stands in
// for a cell reference when an engine has already materialised the values.
type ValueRange struct {
	values []Primitive
}

// NewValueRange builds a range over the given values. integers are
// widened to float64 like worksheet cells; values of other types are kept
// as given and read as #VALUE! by the functions.
func NewValueRange(values ...Primitive) *ValueRange {
	normalized := make([]Primitive, len(values))
	for i, v := range values {
		n, ok := normalizeValue(v)
		if !ok {
			n = v
		}
		normalized[i] = n
	}
	return &ValueRange{values: normalized}
}

// GetBounds returns a column-shaped address with no worksheet
func (r *ValueRange) GetBounds() RangeAddress {
	end := uint32(0)
	if len(r.values) > 0 {
		end = uint32(len(r.values) - 1)
	}
	return RangeAddress{EndRow: end}
}

// Iterate yields one cell per value
func (r *ValueRange) Iterate() iter.Seq[*Cell] {
	return func(yield func(*Cell) bool) {
		for i, v := range r.values {
			if !yield(&Cell{Type: TypeOf(v), Row: uint32(i), Value: v}) {
				return
			}
		}
	}
}

// IterateValues yields the values in order
func (r *ValueRange) IterateValues() iter.Seq[Primitive] {
	return func(yield func(Primitive) bool) {
		for _, v := range r.values {
			if !yield(v) {
				return
			}
		}
	}
}

// Reference is a parsed textual reference such as "Sheet1!A1:B3"
type Reference struct {
	Sheet    string // empty for unqualified references
	StartRow uint32
	StartCol uint32
	EndRow   uint32
	EndCol   uint32
}

// ParseReference parses "A1", "$A$1", "A1:B3", "Sheet1!A1:B3" and
// "'My Sheet'!A1". ranges are normalized so that start <= end.
func ParseReference(text string) (Reference, error) {
	ref := Reference{}
	text = strings.TrimSpace(text)
	if idx := strings.LastIndex(text, "!"); idx >= 0 {
		ref.Sheet = strings.TrimSpace(text[:idx])
		if len(ref.Sheet) >= 2 && ref.Sheet[0] == '\'' && ref.Sheet[len(ref.Sheet)-1] == '\'' {
			ref.Sheet = strings.ReplaceAll(ref.Sheet[1:len(ref.Sheet)-1], "''", "'")
		}
		if ref.Sheet == "" {
			return Reference{}, NewApplicationError(InvalidArgument, fmt.Sprintf("Invalid reference: %s", text))
		}
		text = text[idx+1:]
	}

	start, end, isRange := strings.Cut(text, ":")
	var err error
	ref.StartCol, ref.StartRow, err = parseCellAddress(start)
	if err != nil {
		return Reference{}, err
	}
	ref.EndCol, ref.EndRow = ref.StartCol, ref.StartRow
	if isRange {
		ref.EndCol, ref.EndRow, err = parseCellAddress(end)
		if err != nil {
			return Reference{}, err
		}
	}

	if ref.StartRow > ref.EndRow {
		ref.StartRow, ref.EndRow = ref.EndRow, ref.StartRow
	}
	if ref.StartCol > ref.EndCol {
		ref.StartCol, ref.EndCol = ref.EndCol, ref.StartCol
	}
	return ref, nil
}

// parseCellAddress parses "B12" into zero-based column and row indices.
// absolute markers ($) are ignored.
func parseCellAddress(cell string) (col uint32, row uint32, err error) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), "$", "")
	if len(cell) < 2 {
		return 0, 0, NewApplicationError(InvalidArgument, fmt.Sprintf("Invalid cell reference: %s", cell))
	}

	// find where letters end and numbers begin
	letterEnd := 0
	for i, ch := range cell {
		if ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' {
			letterEnd = i + 1
		} else {
			break
		}
	}

	if letterEnd == 0 || letterEnd == len(cell) || letterEnd > 3 {
		return 0, 0, NewApplicationError(InvalidArgument, fmt.Sprintf("Invalid cell reference: %s", cell))
	}

	// parse column (A=0, B=1, ..., Z=25, AA=26, AB=27, ...)
	colStr := strings.ToUpper(cell[:letterEnd])
	for i, ch := range colStr {
		col = col*26 + uint32(ch-'A')
		if i < len(colStr)-1 {
			col++ // account for positional notation
		}
	}

	// parse row (1-based in notation, but we want 0-based)
	rowStr := cell[letterEnd:]
	rowNum, parseErr := strconv.ParseUint(rowStr, 10, 32)
	if parseErr != nil || rowNum < 1 || rowNum > MaxRows {
		return 0, 0, NewApplicationError(InvalidArgument, fmt.Sprintf("Invalid row number: %s", rowStr))
	}
	if col >= MaxColumns {
		return 0, 0, NewApplicationError(InvalidArgument, fmt.Sprintf("Column out of range: %s", colStr))
	}

	return col, uint32(rowNum - 1), nil
}

// FormatCellAddress renders zero-based indices in A1 notation
func FormatCellAddress(row, col uint32) string {
	letters := ""
	n := col + 1
	for n > 0 {
		n--
		letters = string(rune('A'+n%26)) + letters
		n /= 26
	}
	return letters + strconv.FormatUint(uint64(row)+1, 10)
}
