package formulas

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReference(t *testing.T) {
	cases := []struct {
		text string
		want Reference
	}{
		{"A1", Reference{}},
		{"$B$3", Reference{StartRow: 2, StartCol: 1, EndRow: 2, EndCol: 1}},
		{"A1:C4", Reference{EndRow: 3, EndCol: 2}},
		{"C4:A1", Reference{EndRow: 3, EndCol: 2}},
		{"Sheet2!AA10", Reference{Sheet: "Sheet2", StartRow: 9, StartCol: 26, EndRow: 9, EndCol: 26}},
		{"'My Sheet'!b2:b3", Reference{Sheet: "My Sheet", StartRow: 1, StartCol: 1, EndRow: 2, EndCol: 1}},
		{"'It''s'!A1", Reference{Sheet: "It's"}},
		{"XFD1048576", Reference{StartRow: MaxRows - 1, StartCol: MaxColumns - 1, EndRow: MaxRows - 1, EndCol: MaxColumns - 1}},
	}
	for _, c := range cases {
		got, err := ParseReference(c.text)
		if assert.NoError(t, err, c.text) {
			assert.Equal(t, c.want, got, c.text)
		}
	}

	for _, bad := range []string{"", "A", "1", "A0", "ABCD1", "!A1", "A1:", "A1B", "XFE1", "ZZZ1", "A1048577", "A4294967295", "A1:ZZZ4294967295"} {
		_, err := ParseReference(bad)
		var appErr *AppError
		if assert.ErrorAs(t, err, &appErr, bad) {
			assert.Equal(t, InvalidArgument, appErr.Code, bad)
		}
	}
}

func TestFormatCellAddress(t *testing.T) {
	assert.Equal(t, "A1", FormatCellAddress(0, 0))
	assert.Equal(t, "Z10", FormatCellAddress(9, 25))
	assert.Equal(t, "AA1", FormatCellAddress(0, 26))
	assert.Equal(t, "BA7", FormatCellAddress(6, 52))
	assert.Equal(t, "AAA3", FormatCellAddress(2, 702))

	for _, col := range []uint32{0, 1, 25, 26, 51, 52, 701, 702, 16383} {
		text := FormatCellAddress(4, col)
		gotCol, gotRow, err := parseCellAddress(text)
		require.NoError(t, err, text)
		assert.Equal(t, col, gotCol, text)
		assert.Equal(t, uint32(4), gotRow, text)
	}
}

func TestWorkbookWorksheets(t *testing.T) {
	wb := NewWorkbook()

	_, err := wb.Resolve("A1")
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, NotFound, appErr.Code)

	first, err := wb.AddWorksheet("Data")
	require.NoError(t, err)
	_, err = wb.AddWorksheet("Other")
	require.NoError(t, err)

	_, err = wb.AddWorksheet("Data")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, AlreadyExists, appErr.Code)

	_, err = wb.AddWorksheet("  ")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, InvalidArgument, appErr.Code)

	assert.Equal(t, []string{"Data", "Other"}, wb.ListWorksheets())

	// unqualified references target the first worksheet
	addr, err := wb.Resolve("B2")
	require.NoError(t, err)
	assert.Equal(t, first.ID(), addr.WorksheetID)

	_, err = wb.Resolve("Missing!A1")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, NotFound, appErr.Code)
}

func TestWorksheetCells(t *testing.T) {
	ws := NewWorksheet("Sheet1")

	require.NoError(t, ws.Set("A1", 3))
	require.NoError(t, ws.Set("B2", "text"))
	require.NoError(t, ws.Set("C3", float32(1.5)))
	assert.Equal(t, 3, ws.GetTotalCells())

	v, err := ws.Get("A1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	cell := ws.GetCell(1, 1)
	require.NotNil(t, cell)
	assert.Equal(t, CellValueTypeString, cell.Type)
	assert.Nil(t, ws.GetCell(5, 5))

	require.NoError(t, ws.Set("A1", nil))
	assert.Equal(t, 2, ws.GetTotalCells())
	ws.RemoveCell(1, 1)
	assert.Equal(t, 1, ws.GetTotalCells())

	err = ws.Set("A1", []int{1})
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, InvalidArgument, appErr.Code)

	_, err = ws.Get("??")
	assert.Error(t, err)
}

func TestDefinedNames(t *testing.T) {
	wb := NewWorkbook()
	ws, err := wb.AddWorksheet("Sheet1")
	require.NoError(t, err)
	require.NoError(t, ws.Set("A1", 10))
	require.NoError(t, ws.Set("A2", 20))

	require.NoError(t, wb.DefineName("Scores", "Sheet1!A1:A2"))
	assert.Error(t, wb.DefineName("B2", "A1"))
	assert.Error(t, wb.DefineName("", "A1"))
	assert.Error(t, wb.DefineName("Broken", "Nowhere!A1"))

	r, err := wb.Range("scores")
	require.NoError(t, err)
	assert.Equal(t, []Primitive{10.0, 20.0}, slices.Collect(r.IterateValues()))

	ctx := NewEvaluationContext(wb)
	addr, err := wb.Resolve("SCORES")
	require.NoError(t, err)
	result, err := NewDefaultBuiltInFunctions().Execute(ctx, "SUM", addr)
	require.NoError(t, err)
	assert.Equal(t, 30.0, result)
}

func TestCellRangeIteration(t *testing.T) {
	wb := NewWorkbook()
	ws, err := wb.AddWorksheet("Sheet1")
	require.NoError(t, err)
	require.NoError(t, ws.Set("A1", 1))
	require.NoError(t, ws.Set("B2", 4))

	r, err := wb.Range("A1:B2")
	require.NoError(t, err)

	bounds := r.GetBounds()
	assert.Equal(t, uint32(2), bounds.Rows())
	assert.Equal(t, uint32(2), bounds.Columns())
	assert.False(t, bounds.IsSingleCell())
	assert.True(t, bounds.Contains(ws.ID(), 1, 1))
	assert.False(t, bounds.Contains(ws.ID(), 2, 0))

	var visited []string
	for cell := range r.Iterate() {
		visited = append(visited, FormatCellAddress(cell.Row, cell.Col))
	}
	// row by row, blanks included
	assert.Equal(t, []string{"A1", "B1", "A2", "B2"}, visited)
	assert.Equal(t, []Primitive{1.0, nil, nil, 4.0}, slices.Collect(r.IterateValues()))

	// stopping early must not panic
	for range r.IterateValues() {
		break
	}
}

func TestRangesStayWithinWorksheetLimits(t *testing.T) {
	wb := NewWorkbook()
	ws, err := wb.AddWorksheet("Sheet1")
	require.NoError(t, err)
	require.NoError(t, ws.Set("A1", 1))

	var appErr *AppError
	err = ws.SetCell(MaxRows, 0, 1)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, InvalidArgument, appErr.Code)
	err = ws.SetCell(0, MaxColumns, 1)
	require.ErrorAs(t, err, &appErr)
	require.NoError(t, ws.SetCell(MaxRows-1, MaxColumns-1, 2))

	for _, addr := range []RangeAddress{
		{WorksheetID: ws.ID(), StartRow: math.MaxUint32 - 1, EndRow: math.MaxUint32},
		{WorksheetID: ws.ID(), EndRow: MaxRows},
		{WorksheetID: ws.ID(), EndColumn: MaxColumns},
		{WorksheetID: ws.ID(), StartRow: 3, EndRow: 1},
	} {
		_, err := wb.RangeAt(addr)
		if assert.ErrorAs(t, err, &appErr, addr.String()) {
			assert.Equal(t, InvalidArgument, appErr.Code)
		}
	}

	tc := NewFunctionTestCase(t, "COUNTA").Set("A1", 1)
	huge := tc.Ref("A1")
	huge.StartRow, huge.EndRow = math.MaxUint32-1, math.MaxUint32
	tc.Call(huge).AssertErr(ErrorCodeRef)
	tc.Set("XFD1048576", 2)
	tc.Call(tc.Ref("XFC1048575:XFD1048576")).AssertEq(1.0)

	// a range ending on the last uint32 row still terminates
	edge := &CellRange{startRow: math.MaxUint32 - 1, endRow: math.MaxUint32, worksheet: ws}
	assert.Len(t, slices.Collect(edge.IterateValues()), 2)
}

func TestWorksheetNamesIgnoreCase(t *testing.T) {
	wb := NewWorkbook()
	_, err := wb.AddWorksheet("Sheet1")
	require.NoError(t, err)
	data, err := wb.AddWorksheet("Data")
	require.NoError(t, err)
	require.NoError(t, data.Set("B2", 5))

	addr, err := wb.Resolve("data!B2")
	require.NoError(t, err)
	assert.Equal(t, data.ID(), addr.WorksheetID)

	ws, ok := wb.Worksheet("DATA")
	require.True(t, ok)
	assert.Same(t, data, ws)

	var appErr *AppError
	_, err = wb.AddWorksheet("sheet1")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, AlreadyExists, appErr.Code)
	// the name keeps the case it was created with
	assert.Equal(t, []string{"Sheet1", "Data"}, wb.ListWorksheets())

	tc := NewFunctionTestCase(t, "SUM").Set("Data!B2", 5)
	tc.Call(tc.Ref("data!B2")).AssertEq(5.0)
	tc.Call(tc.Ref("'DATA'!A1:B2")).AssertEq(5.0)
}

func TestSpreadsheetErrors(t *testing.T) {
	for code, text := range ErrorMapper {
		assert.Equal(t, text, code.String())
		parsed, ok := ParseErrorCode(text)
		assert.True(t, ok, text)
		assert.Equal(t, code, parsed)
	}
	parsed, ok := ParseErrorCode(" #n/a ")
	assert.True(t, ok)
	assert.Equal(t, ErrorCodeNA, parsed)
	_, ok = ParseErrorCode("#WHAT")
	assert.False(t, ok)

	err := NewSpreadsheetError(ErrorCodeNum, "bad input")
	assert.Equal(t, "bad input", err.Error())
	assert.Equal(t, "#NUM!", NewSpreadsheetError(ErrorCodeNum, "").Error())
	assert.True(t, errors.Is(err, NewSpreadsheetError(ErrorCodeNum, "other message")))
	assert.False(t, errors.Is(err, NewSpreadsheetError(ErrorCodeNA, "")))

	got, ok := AsSpreadsheetError(err)
	assert.True(t, ok)
	assert.Same(t, err, got)
	_, ok = AsSpreadsheetError(errors.New("plain"))
	assert.False(t, ok)

	assert.Equal(t, CellValueTypeError, TypeOf(err))
	assert.Equal(t, CellValueTypeEmpty, TypeOf(nil))
	assert.Equal(t, CellValueTypeBoolean, TypeOf(false))
}
