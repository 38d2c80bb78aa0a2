package conformance

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/vogtb/go-spreadsheet/packages/formulas"
)

var errOracleTimeout = errors.New("expression timed out")

// evalExpectation evaluates a JavaScript expression such as
// "Math.acos(args[0])" and returns its value as the expected result. args
// holds the literal call arguments; references are passed as their text.
// a string result naming an error code ("#NUM!") expects that error.
func evalExpectation(expr string, args []Arg, timeout time.Duration) (formulas.Primitive, error) {
	vm := goja.New()

	jsArgs := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.Value.(type) {
		case *formulas.SpreadsheetError:
			jsArgs[i] = v.ErrorCode.String()
		default:
			jsArgs[i] = v
		}
		if arg.Ref != "" || arg.inline {
			jsArgs[i] = arg.String()
		}
	}
	if err := vm.Set("args", jsArgs); err != nil {
		return nil, fmt.Errorf("bind args: %w", err)
	}

	if timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			vm.Interrupt(errOracleTimeout)
		})
		defer timer.Stop()
	}

	value, err := vm.RunString(expr)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("expect_expr %q: %w", expr, errOracleTimeout)
		}
		return nil, fmt.Errorf("expect_expr %q: %w", expr, err)
	}
	if goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, fmt.Errorf("expect_expr %q produced no value", expr)
	}

	switch v := value.Export().(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case bool:
		return v, nil
	case string:
		if code, ok := formulas.ParseErrorCode(v); ok {
			return formulas.NewSpreadsheetError(code, ""), nil
		}
		return v, nil
	default:
		return nil, fmt.Errorf("expect_expr %q produced unsupported %T", expr, v)
	}
}
