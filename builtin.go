package formulas

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Function is the evaluation contract every built-in implements
type Function interface {
	Name() string
	Policy() CoercionPolicy
	Execute(ctx *EvaluationContext, args ...any) (Primitive, error)
}

// variadic marks functions that accept any number of arguments up to
// Options.MaxArguments
const variadic = -1

// evalFunc computes a result from already arity-checked arguments. args
// are literals, Ranges or RangeAddresses; direct error arguments have been
// handled before evalFunc runs.
type evalFunc func(ctx *EvaluationContext, policy CoercionPolicy, args []any) (Primitive, *SpreadsheetError)

type builtin struct {
	name     string
	minArgs  int
	maxArgs  int
	policy   CoercionPolicy
	volatile bool
	eval     evalFunc
}

var _ Function = (*builtin)(nil)

func (b *builtin) Name() string {
	return b.name
}

func (b *builtin) Policy() CoercionPolicy {
	return b.policy
}

// Execute runs the function. formula errors are returned as
// *SpreadsheetError; a nil error means result holds the value.
func (b *builtin) Execute(ctx *EvaluationContext, args ...any) (Primitive, error) {
	start := time.Now()
	result, err := b.execute(ctx, args)
	if ctx != nil && ctx.Observer != nil {
		ctx.Observer.ObserveCall(b.name, err, time.Since(start))
	}
	if err != nil {
		ctx.logger().Debug("function returned error",
			"function", b.name,
			"args", len(args),
			"error", err.Error())
		return nil, err
	}
	return result, nil
}

func (b *builtin) execute(ctx *EvaluationContext, args []any) (Primitive, *SpreadsheetError) {
	if len(args) < b.minArgs {
		return nil, NewSpreadsheetError(ErrorCodeValue, fmt.Sprintf("%s requires at least %d argument(s)", b.name, b.minArgs))
	}
	if b.maxArgs == variadic {
		if len(args) > ctx.maxArguments() {
			return nil, NewSpreadsheetError(ErrorCodeNA, fmt.Sprintf("%s accepts at most %d arguments", b.name, ctx.maxArguments()))
		}
	} else if len(args) > b.maxArgs {
		return nil, NewSpreadsheetError(ErrorCodeValue, fmt.Sprintf("%s accepts at most %d argument(s)", b.name, b.maxArgs))
	}

	// the first error typed directly into the call wins
	if err := firstError(args); err != nil {
		return nil, err
	}

	result, err := b.eval(ctx, b.policy, args)
	if err != nil {
		return nil, err
	}
	if num, ok := result.(float64); ok && (math.IsNaN(num) || math.IsInf(num, 0)) {
		return nil, NewSpreadsheetError(ErrorCodeNum, fmt.Sprintf("%s result is not a finite number", b.name))
	}
	return result, nil
}

// BuiltInFunctions contains all spreadsheet built-in functions
type BuiltInFunctions struct {
	functions map[string]*builtin
}

// NewDefaultBuiltInFunctions creates a BuiltInFunctions with every
// function registered
func NewDefaultBuiltInFunctions() *BuiltInFunctions {
	bf := &BuiltInFunctions{
		functions: make(map[string]*builtin),
	}
	registerTrigFunctions(bf)
	registerRoundingFunctions(bf)
	registerArithmeticFunctions(bf)
	registerAggregateFunctions(bf)
	registerStatisticalFunctions(bf)
	return bf
}

func (bf *BuiltInFunctions) register(fn *builtin) {
	bf.functions[fn.name] = fn
}

// normalizeFunctionName upper-cases a name and strips the prefixes newer
// file formats put in front of functions introduced after Excel 2007
func normalizeFunctionName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "_XLFN.")
	name = strings.TrimPrefix(name, "_XLWS.")
	return name
}

// Lookup returns a function by name
func (bf *BuiltInFunctions) Lookup(name string) (Function, bool) {
	fn, ok := bf.functions[normalizeFunctionName(name)]
	if !ok {
		return nil, false
	}
	return fn, true
}

// Names returns the sorted names of all registered functions
func (bf *BuiltInFunctions) Names() []string {
	names := make([]string, 0, len(bf.functions))
	for name := range bf.functions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute invokes a built-in function by name against ctx
func (bf *BuiltInFunctions) Execute(ctx *EvaluationContext, name string, args ...any) (Primitive, error) {
	fn, ok := bf.functions[normalizeFunctionName(name)]
	if !ok {
		err := NewSpreadsheetError(ErrorCodeName, fmt.Sprintf("Unknown function: %s", name))
		if ctx != nil && ctx.Observer != nil {
			ctx.Observer.ObserveCall(normalizeFunctionName(name), err, 0)
		}
		ctx.logger().Debug("unknown function", "function", name)
		return nil, err
	}
	return fn.Execute(ctx, args...)
}

// Call invokes a built-in function with literal arguments and default
// options
func (bf *BuiltInFunctions) Call(name string, args ...any) (Primitive, error) {
	return bf.Execute(NewEvaluationContext(nil), name, args...)
}

// IsVolatile returns true if the function must be re-evaluated on every
// calculation pass
func (bf *BuiltInFunctions) IsVolatile(name string) bool {
	fn, ok := bf.functions[normalizeFunctionName(name)]
	return ok && fn.volatile
}

// unary adapts a float function of one scalar argument
func unary(fn func(x float64) (float64, *SpreadsheetError)) evalFunc {
	return func(ctx *EvaluationContext, _ CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
		x, err := toNumber(ctx, args[0])
		if err != nil {
			return nil, err
		}
		result, err := fn(x)
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

// binary adapts a float function of two scalar arguments
func binary(fn func(x, y float64) (float64, *SpreadsheetError)) evalFunc {
	return func(ctx *EvaluationContext, _ CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
		x, err := toNumber(ctx, args[0])
		if err != nil {
			return nil, err
		}
		y, err := toNumber(ctx, args[1])
		if err != nil {
			return nil, err
		}
		result, err := fn(x, y)
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

// roundSignificant trims x to the given number of significant digits,
// hiding binary floating point noise such as 3.0000000000000004
func roundSignificant(x float64, digits int) float64 {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(x, 'g', digits, 64), 64)
	if err != nil {
		return x
	}
	return rounded
}

func numError(format string, args ...any) *SpreadsheetError {
	return NewSpreadsheetError(ErrorCodeNum, fmt.Sprintf(format, args...))
}

func div0Error(format string, args ...any) *SpreadsheetError {
	return NewSpreadsheetError(ErrorCodeDiv0, fmt.Sprintf(format, args...))
}
