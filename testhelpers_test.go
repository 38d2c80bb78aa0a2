package formulas

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type FunctionTestCase struct {
	t         *testing.T
	name      string
	functions *BuiltInFunctions
	workbook  *Workbook
	ctx       *EvaluationContext
}

// NewFunctionTestCase builds a case for the named function over a workbook
// holding an empty Sheet1
func NewFunctionTestCase(t *testing.T, name string) *FunctionTestCase {
	t.Helper()
	workbook := NewWorkbook()
	_, err := workbook.AddWorksheet("Sheet1")
	require.NoError(t, err)
	return &FunctionTestCase{
		t:         t,
		name:      name,
		functions: NewDefaultBuiltInFunctions(),
		workbook:  workbook,
		ctx:       NewEvaluationContext(workbook),
	}
}

func (tc *FunctionTestCase) WithRandom(rng RandomGenerator) *FunctionTestCase {
	tc.ctx.Random = rng
	return tc
}

func (tc *FunctionTestCase) WithOptions(options Options) *FunctionTestCase {
	tc.ctx.Options = options
	return tc
}

// Set stores a value in a cell. addresses without a sheet go to Sheet1.
func (tc *FunctionTestCase) Set(address string, value Primitive) *FunctionTestCase {
	tc.t.Helper()
	sheet := "Sheet1"
	if idx := strings.LastIndex(address, "!"); idx >= 0 {
		sheet, address = address[:idx], address[idx+1:]
	}
	ws, ok := tc.workbook.Worksheet(sheet)
	if !ok {
		var err error
		ws, err = tc.workbook.AddWorksheet(sheet)
		require.NoError(tc.t, err)
	}
	require.NoError(tc.t, ws.Set(address, value), "%s: Set(%s)", tc.name, address)
	return tc
}

// Ref resolves a reference so it can be passed as an argument
func (tc *FunctionTestCase) Ref(reference string) RangeAddress {
	tc.t.Helper()
	addr, err := tc.workbook.Resolve(reference)
	require.NoError(tc.t, err, "%s: Resolve(%s)", tc.name, reference)
	return addr
}

// Call evaluates the function with args
func (tc *FunctionTestCase) Call(args ...any) *FunctionResult {
	tc.t.Helper()
	value, err := tc.functions.Execute(tc.ctx, tc.name, args...)
	return &FunctionResult{
		tc:    tc,
		value: value,
		err:   err,
		desc:  fmt.Sprintf("%s%v", tc.name, args),
	}
}

type FunctionResult struct {
	tc    *FunctionTestCase
	value Primitive
	err   error
	desc  string
}

func (r *FunctionResult) AssertEq(expected Primitive) *FunctionTestCase {
	r.tc.t.Helper()
	if assert.NoError(r.tc.t, r.err, r.desc) {
		assert.Equal(r.tc.t, expected, r.value, r.desc)
	}
	return r.tc
}

func (r *FunctionResult) AssertNear(expected float64, delta float64) *FunctionTestCase {
	r.tc.t.Helper()
	if assert.NoError(r.tc.t, r.err, r.desc) {
		if assert.IsType(r.tc.t, 0.0, r.value, r.desc) {
			assert.InDelta(r.tc.t, expected, r.value.(float64), delta, r.desc)
		}
	}
	return r.tc
}

func (r *FunctionResult) AssertErr(code ErrorCode) *FunctionTestCase {
	r.tc.t.Helper()
	ssErr, ok := AsSpreadsheetError(r.err)
	if assert.True(r.tc.t, ok, "%s: expected %s, got value %v (err %v)", r.desc, code, r.value, r.err) {
		assert.Equal(r.tc.t, code, ssErr.ErrorCode, "%s: %s", r.desc, ssErr.Message)
	}
	return r.tc
}

func (r *FunctionResult) AssertFn(fn func(t *testing.T, value Primitive, err error)) *FunctionTestCase {
	r.tc.t.Helper()
	fn(r.tc.t, r.value, r.err)
	return r.tc
}

type fixedRandom float64

func (f fixedRandom) Float64() float64 {
	return float64(f)
}

func errValue(code ErrorCode) *SpreadsheetError {
	return NewSpreadsheetError(code, "")
}
