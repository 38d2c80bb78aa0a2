package formulas

import (
	"fmt"
	"strings"
)

// WorksheetTable manages worksheet storage and ID mappings
type WorksheetTable struct {
	nameToID map[string]uint32     // upper-cased name -> ID
	idToName map[uint32]string     // ID -> name
	sheets   map[uint32]*Worksheet // ID -> worksheet
	order    []uint32              // IDs in insertion order
	nextID   uint32
}

// NewWorksheetTable creates a new worksheet table
func NewWorksheetTable() *WorksheetTable {
	return &WorksheetTable{
		nameToID: make(map[string]uint32),
		idToName: make(map[uint32]string),
		sheets:   make(map[uint32]*Worksheet),
		nextID:   1, // start at 1, reserve 0 for no worksheet
	}
}

// DefineWorksheet registers a worksheet under name and returns its ID
func (wt *WorksheetTable) DefineWorksheet(name string, worksheet *Worksheet) uint32 {
	id := wt.nextID
	wt.nameToID[strings.ToUpper(name)] = id
	wt.idToName[id] = name
	wt.sheets[id] = worksheet
	wt.order = append(wt.order, id)
	wt.nextID++

	worksheet.worksheetID = id
	return id
}

// GetWorksheet returns the Worksheet for a given ID
func (wt *WorksheetTable) GetWorksheet(id uint32) (*Worksheet, bool) {
	worksheet, exists := wt.sheets[id]
	return worksheet, exists
}

// GetWorksheetByName returns the Worksheet for a given name. names match
// case-insensitively.
func (wt *WorksheetTable) GetWorksheetByName(name string) (*Worksheet, bool) {
	id, exists := wt.nameToID[strings.ToUpper(name)]
	if !exists {
		return nil, false
	}
	return wt.GetWorksheet(id)
}

// Contains checks if a worksheet exists
func (wt *WorksheetTable) Contains(name string) bool {
	_, exists := wt.nameToID[strings.ToUpper(name)]
	return exists
}

// Names returns worksheet names in the order they were added
func (wt *WorksheetTable) Names() []string {
	result := make([]string, 0, len(wt.order))
	for _, id := range wt.order {
		result = append(result, wt.idToName[id])
	}
	return result
}

// Count returns the number of worksheets
func (wt *WorksheetTable) Count() int {
	return len(wt.sheets)
}

type cellKey struct {
	row uint32
	col uint32
}

// Worksheet is a sparse, read-mostly cell store backing range arguments.
// values are kept already normalized (numbers as float64) so that range
// iteration never needs to convert.
type Worksheet struct {
	name        string
	worksheetID uint32
	cells       map[cellKey]Primitive
}

// NewWorksheet creates a new, unregistered worksheet
func NewWorksheet(name string) *Worksheet {
	return &Worksheet{
		name:  name,
		cells: make(map[cellKey]Primitive),
	}
}

// Name returns the worksheet name
func (w *Worksheet) Name() string {
	return w.name
}

// ID returns the worksheet ID assigned by its workbook
func (w *Worksheet) ID() uint32 {
	return w.worksheetID
}

// GetCell retrieves a cell at the given row and column, nil when empty
func (w *Worksheet) GetCell(row, col uint32) *Cell {
	value, exists := w.cells[cellKey{row: row, col: col}]
	if !exists {
		return nil
	}
	return &Cell{
		Type:  TypeOf(value),
		Row:   row,
		Col:   col,
		Value: value,
	}
}

// SetCell stores a value at the given row and column. nil removes the cell.
func (w *Worksheet) SetCell(row, col uint32, value Primitive) error {
	if row >= MaxRows || col >= MaxColumns {
		return NewApplicationError(InvalidArgument, fmt.Sprintf("Cell %d,%d is outside the worksheet", row, col))
	}
	normalized, ok := normalizeValue(value)
	if !ok {
		return NewApplicationError(InvalidArgument, fmt.Sprintf("Unsupported cell value type %T", value))
	}
	key := cellKey{row: row, col: col}
	if normalized == nil {
		delete(w.cells, key)
		return nil
	}
	w.cells[key] = normalized
	return nil
}

// Set stores a value at an A1-style address such as "B3"
func (w *Worksheet) Set(address string, value Primitive) error {
	col, row, err := parseCellAddress(address)
	if err != nil {
		return err
	}
	return w.SetCell(row, col, value)
}

// Get returns the value at an A1-style address, nil when empty
func (w *Worksheet) Get(address string) (Primitive, error) {
	col, row, err := parseCellAddress(address)
	if err != nil {
		return nil, err
	}
	return w.cells[cellKey{row: row, col: col}], nil
}

// RemoveCell removes a cell at the given row and column
func (w *Worksheet) RemoveCell(row, col uint32) {
	delete(w.cells, cellKey{row: row, col: col})
}

// GetTotalCells returns the total number of non-empty cells
func (w *Worksheet) GetTotalCells() int {
	return len(w.cells)
}

// Workbook is a read-only snapshot of worksheets and defined names handed
// to functions through the evaluation context. it is not safe for
// concurrent mutation, but concurrent reads are fine once populated.
type Workbook struct {
	worksheets *WorksheetTable
	names      map[string]RangeAddress // upper-cased name -> address
}

// NewWorkbook creates an empty workbook
func NewWorkbook() *Workbook {
	return &Workbook{
		worksheets: NewWorksheetTable(),
		names:      make(map[string]RangeAddress),
	}
}

// AddWorksheet creates a worksheet. the first worksheet added is the
// default target of unqualified references.
func (wb *Workbook) AddWorksheet(name string) (*Worksheet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewApplicationError(InvalidArgument, "Worksheet name cannot be empty")
	}
	if wb.worksheets.Contains(name) {
		return nil, NewApplicationError(AlreadyExists, fmt.Sprintf("Worksheet already exists: %s", name))
	}
	worksheet := NewWorksheet(name)
	wb.worksheets.DefineWorksheet(name, worksheet)
	return worksheet, nil
}

// Worksheet returns a worksheet by name
func (wb *Workbook) Worksheet(name string) (*Worksheet, bool) {
	return wb.worksheets.GetWorksheetByName(name)
}

// ListWorksheets returns worksheet names in the order they were added
func (wb *Workbook) ListWorksheets() []string {
	return wb.worksheets.Names()
}

// DefineName binds a name such as "Scores" to a reference
func (wb *Workbook) DefineName(name string, reference string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewApplicationError(InvalidArgument, "Name cannot be empty")
	}
	if _, _, err := parseCellAddress(name); err == nil {
		return NewApplicationError(InvalidArgument, fmt.Sprintf("Name looks like a cell reference: %s", name))
	}
	addr, err := wb.resolveReference(reference)
	if err != nil {
		return err
	}
	wb.names[strings.ToUpper(name)] = addr
	return nil
}

// Resolve turns a textual reference or defined name into a RangeAddress
func (wb *Workbook) Resolve(reference string) (RangeAddress, error) {
	if addr, ok := wb.names[strings.ToUpper(strings.TrimSpace(reference))]; ok {
		return addr, nil
	}
	return wb.resolveReference(reference)
}

func (wb *Workbook) resolveReference(reference string) (RangeAddress, error) {
	ref, err := ParseReference(reference)
	if err != nil {
		return RangeAddress{}, err
	}

	var worksheet *Worksheet
	if ref.Sheet == "" {
		names := wb.worksheets.Names()
		if len(names) == 0 {
			return RangeAddress{}, NewApplicationError(NotFound, "Workbook has no worksheets")
		}
		worksheet, _ = wb.worksheets.GetWorksheetByName(names[0])
	} else {
		var exists bool
		worksheet, exists = wb.worksheets.GetWorksheetByName(ref.Sheet)
		if !exists {
			return RangeAddress{}, NewApplicationError(NotFound, fmt.Sprintf("Worksheet not found: %s", ref.Sheet))
		}
	}

	return RangeAddress{
		WorksheetID: worksheet.worksheetID,
		StartRow:    ref.StartRow,
		StartColumn: ref.StartCol,
		EndRow:      ref.EndRow,
		EndColumn:   ref.EndCol,
	}, nil
}

// Range resolves a reference or defined name into a lazy Range
func (wb *Workbook) Range(reference string) (Range, error) {
	addr, err := wb.Resolve(reference)
	if err != nil {
		return nil, err
	}
	return wb.RangeAt(addr)
}

// RangeAt builds a lazy Range for an already resolved address
func (wb *Workbook) RangeAt(addr RangeAddress) (Range, error) {
	worksheet, exists := wb.worksheets.GetWorksheet(addr.WorksheetID)
	if !exists {
		return nil, NewApplicationError(NotFound, fmt.Sprintf("Worksheet with ID %d not found", addr.WorksheetID))
	}
	if !addr.InBounds() {
		return nil, NewApplicationError(InvalidArgument, fmt.Sprintf("Range %s is outside the worksheet", addr))
	}
	return &CellRange{
		worksheetID: addr.WorksheetID,
		startRow:    addr.StartRow,
		startCol:    addr.StartColumn,
		endRow:      addr.EndRow,
		endCol:      addr.EndColumn,
		worksheet:   worksheet,
	}, nil
}

// normalizeValue widens integer types to float64 and rejects types that
// cannot live in a cell
func normalizeValue(value Primitive) (Primitive, bool) {
	switch v := value.(type) {
	case nil, float64, string, bool, *SpreadsheetError:
		return v, true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case uint32:
		return float64(v), true
	default:
		return nil, false
	}
}
