package formulas

import (
	"errors"
	"strings"
)

// Primitive represents basic spreadsheet value types.
// types:
//   - float64: numeric values (integers are converted to float64)
//   - string: text values
//   - bool: boolean values (TRUE/FALSE)
//   - nil: blank cells and omitted arguments
//   - *SpreadsheetError: error values (#DIV/0!, #VALUE!, etc.)
type Primitive any

// ErrorCode represents standard spreadsheet error codes following
// Excel conventions
type ErrorCode uint8

const (
	ErrorCodeNull  ErrorCode = 1 // #NULL! - no cells in common between ranges
	ErrorCodeDiv0  ErrorCode = 2 // #DIV/0! - division by zero
	ErrorCodeValue ErrorCode = 3 // #VALUE! - wrong type of argument or arity
	ErrorCodeRef   ErrorCode = 4 // #REF! - invalid cell reference
	ErrorCodeName  ErrorCode = 5 // #NAME? - unrecognized function name
	ErrorCodeNum   ErrorCode = 6 // #NUM! - input or result outside the valid domain
	ErrorCodeNA    ErrorCode = 7 // #N/A - value not found, or too many arguments
	ErrorCodeOther ErrorCode = 8 // #ERROR! - all other errors
)

// ErrorMapper maps error code numbers to their string representations
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeNull:  "#NULL!",
	ErrorCodeDiv0:  "#DIV/0!",
	ErrorCodeValue: "#VALUE!",
	ErrorCodeRef:   "#REF!",
	ErrorCodeName:  "#NAME?",
	ErrorCodeNum:   "#NUM!",
	ErrorCodeNA:    "#N/A",
	ErrorCodeOther: "#ERROR!",
}

// String returns the display text of the code, e.g. "#NUM!"
func (c ErrorCode) String() string {
	if s, ok := ErrorMapper[c]; ok {
		return s
	}
	return ErrorMapper[ErrorCodeOther]
}

// ParseErrorCode maps display text such as "#N/A" back to its code. the
// match is case-insensitive and ignores surrounding whitespace.
func ParseErrorCode(text string) (ErrorCode, bool) {
	text = strings.ToUpper(strings.TrimSpace(text))
	for code, display := range ErrorMapper {
		if display == text {
			return code, true
		}
	}
	return 0, false
}

// SpreadsheetError preserves error code for display in cells
type SpreadsheetError struct {
	ErrorCode ErrorCode
	Message   string
}

func (e *SpreadsheetError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrorMapper[e.ErrorCode]
}

// Is reports whether target is a *SpreadsheetError with the same code, so
// errors.Is can compare formula errors regardless of message.
func (e *SpreadsheetError) Is(target error) bool {
	var other *SpreadsheetError
	if !errors.As(target, &other) {
		return false
	}
	return other.ErrorCode == e.ErrorCode
}

func NewSpreadsheetError(code ErrorCode, message string) *SpreadsheetError {
	if message == "" {
		message = ErrorMapper[code]
	}
	return &SpreadsheetError{
		ErrorCode: code,
		Message:   message,
	}
}

// AsSpreadsheetError extracts a formula error from err
func AsSpreadsheetError(err error) (*SpreadsheetError, bool) {
	var ssErr *SpreadsheetError
	if errors.As(err, &ssErr) {
		return ssErr, true
	}
	return nil, false
}

// CellType represents numeric constants for cell value
// types (external API)
type CellType uint8

const (
	CellValueTypeEmpty   CellType = 0
	CellValueTypeNumber  CellType = 1
	CellValueTypeString  CellType = 2
	CellValueTypeBoolean CellType = 4
	CellValueTypeError   CellType = 5
)

// TypeOf classifies a primitive value
func TypeOf(value Primitive) CellType {
	switch value.(type) {
	case float64, int, int64:
		return CellValueTypeNumber
	case string:
		return CellValueTypeString
	case bool:
		return CellValueTypeBoolean
	case *SpreadsheetError:
		return CellValueTypeError
	default:
		return CellValueTypeEmpty
	}
}

// CellAddress identifies a single cell of a workbook snapshot
type CellAddress struct {
	WorksheetID uint32
	Row         uint32
	Column      uint32
}

// AppErrorCode represents gRPC-style error codes for application-level errors.
// note that we are skipping error codes that don't make sense for our use-case,
// like unauthenticated, or permission denied.
type AppErrorCode int

const (
	// OK indicates the operation completed successfully.
	OK AppErrorCode = 0

	// InvalidArgument indicates client specified an invalid argument, such
	// as a malformed cell reference.
	InvalidArgument AppErrorCode = 3

	// NotFound means some requested entity (e.g., worksheet or defined name)
	// was not found.
	NotFound AppErrorCode = 5

	// AlreadyExists means an attempt to create an entity failed because one
	// already exists.
	AlreadyExists AppErrorCode = 6
)

// AppError represents errors at the application level (not
// spreadsheet formula errors)
type AppError struct {
	Code    AppErrorCode
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}
