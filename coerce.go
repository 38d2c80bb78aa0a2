package formulas

import (
	"math"
	"strconv"
	"strings"
)

// TextRule decides what happens to a text value during coercion
type TextRule uint8

const (
	TextSkip        TextRule = iota // text is ignored
	TextParse                       // numeric text converts, other text is #VALUE!
	TextParseOrSkip                 // numeric text converts, other text is ignored
	TextAsZero                      // any text counts as 0
)

// BoolRule decides what happens to a boolean value during coercion
type BoolRule uint8

const (
	BoolSkip     BoolRule = iota // booleans are ignored
	BoolAsNumber                 // TRUE is 1, FALSE is 0
)

// ErrorRule decides what happens to an error value found inside a range
type ErrorRule uint8

const (
	ErrorPropagate ErrorRule = iota // the error becomes the result
	ErrorSkip                       // the error is ignored
)

// BlankRule decides what happens to a blank value during coercion
type BlankRule uint8

const (
	BlankSkip   BlankRule = iota // blanks are ignored
	BlankAsZero                  // blanks count as 0
)

// ValueRules is the coercion applied to one kind of argument source
type ValueRules struct {
	Text  TextRule
	Bool  BoolRule
	Error ErrorRule
	Blank BlankRule
}

// CoercionPolicy holds separate rules for values typed directly into the
// call and values read through a cell or range reference. spreadsheet
// functions differ here on purpose (COUNT("5") is 1 while COUNT(A1) with
// A1="5" is 0), so every function names its policy explicitly.
type CoercionPolicy struct {
	Name      string
	Literal   ValueRules
	Reference ValueRules
}

var (
	// ScalarPolicy is used by functions taking single numbers (trig,
	// rounding, arithmetic). references are dereferenced to one cell and
	// treated like literals.
	ScalarPolicy = CoercionPolicy{
		Name:      "scalar",
		Literal:   ValueRules{Text: TextParse, Bool: BoolAsNumber, Error: ErrorPropagate, Blank: BlankAsZero},
		Reference: ValueRules{Text: TextParse, Bool: BoolAsNumber, Error: ErrorPropagate, Blank: BlankAsZero},
	}

	// SumPolicy is used by SUM, AVERAGE, MIN, MAX, STDEV and friends
	SumPolicy = CoercionPolicy{
		Name:      "sum",
		Literal:   ValueRules{Text: TextParse, Bool: BoolAsNumber, Error: ErrorPropagate, Blank: BlankAsZero},
		Reference: ValueRules{Text: TextSkip, Bool: BoolSkip, Error: ErrorPropagate, Blank: BlankSkip},
	}

	// CountPolicy is used by COUNT
	CountPolicy = CoercionPolicy{
		Name:      "count",
		Literal:   ValueRules{Text: TextParseOrSkip, Bool: BoolAsNumber, Error: ErrorPropagate, Blank: BlankAsZero},
		Reference: ValueRules{Text: TextSkip, Bool: BoolSkip, Error: ErrorSkip, Blank: BlankSkip},
	}

	// ValuesPolicy is used by the A-suffixed functions (AVERAGEA, MINA,
	// MAXA, STDEVA, STDEVPA) where referenced text counts as 0
	ValuesPolicy = CoercionPolicy{
		Name:      "values",
		Literal:   ValueRules{Text: TextParse, Bool: BoolAsNumber, Error: ErrorPropagate, Blank: BlankAsZero},
		Reference: ValueRules{Text: TextAsZero, Bool: BoolAsNumber, Error: ErrorPropagate, Blank: BlankSkip},
	}

	// RankPolicy is used for the reference set of RANK; anything that is
	// not a number is silently skipped
	RankPolicy = CoercionPolicy{
		Name:      "rank",
		Literal:   ValueRules{Text: TextParse, Bool: BoolAsNumber, Error: ErrorPropagate, Blank: BlankAsZero},
		Reference: ValueRules{Text: TextSkip, Bool: BoolSkip, Error: ErrorSkip, Blank: BlankSkip},
	}
)

// coerce applies rules to one value. include is false when the value is
// skipped.
func (r ValueRules) coerce(value Primitive) (num float64, include bool, err *SpreadsheetError) {
	switch v := value.(type) {
	case nil:
		if r.Blank == BlankAsZero {
			return 0, true, nil
		}
		return 0, false, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false, NewSpreadsheetError(ErrorCodeNum, "Number is not finite")
		}
		return v, true, nil
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case bool:
		if r.Bool == BoolSkip {
			return 0, false, nil
		}
		if v {
			return 1, true, nil
		}
		return 0, true, nil
	case string:
		switch r.Text {
		case TextSkip:
			return 0, false, nil
		case TextAsZero:
			return 0, true, nil
		}
		if n, ok := parseNumericText(v); ok {
			return n, true, nil
		}
		if r.Text == TextParseOrSkip {
			return 0, false, nil
		}
		return 0, false, NewSpreadsheetError(ErrorCodeValue, "Text cannot be converted to a number")
	case *SpreadsheetError:
		if r.Error == ErrorSkip {
			return 0, false, nil
		}
		return 0, false, v
	default:
		// other numeric types widen the way worksheet cells do
		if n, ok := normalizeValue(value); ok {
			if f, isFloat := n.(float64); isFloat {
				return r.coerce(f)
			}
		}
		return 0, false, NewSpreadsheetError(ErrorCodeValue, "Unsupported argument type")
	}
}

// parseNumericText converts text such as " 12.5 ", "1e3" or "50%" to a
// number
func parseNumericText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		scale = 0.01
		s = strings.TrimSpace(s[:len(s)-1])
	}
	unsigned := strings.TrimLeft(s, "+-")
	if unsigned == "" || !(unsigned[0] >= '0' && unsigned[0] <= '9' || unsigned[0] == '.') {
		// rejects inf, nan and similar words ParseFloat would accept
		return 0, false
	}
	if len(unsigned) > 1 && (unsigned[1] == 'x' || unsigned[1] == 'X') {
		return 0, false
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(num, 0) || math.IsNaN(num) {
		return 0, false
	}
	return num * scale, true
}

// collectNumbers flattens arguments into numbers following policy. the
// first error the policy does not skip is returned.
func collectNumbers(ctx *EvaluationContext, policy CoercionPolicy, args []any) ([]float64, *SpreadsheetError) {
	values := make([]float64, 0, len(args))
	for _, arg := range args {
		resolved, err := ctx.resolveArgument(arg)
		if err != nil {
			return nil, err
		}

		if r, ok := resolved.(Range); ok {
			for value := range r.IterateValues() {
				num, include, err := policy.Reference.coerce(value)
				if err != nil {
					return nil, err
				}
				if include {
					values = append(values, num)
				}
			}
			continue
		}

		num, include, err := policy.Literal.coerce(resolved)
		if err != nil {
			return nil, err
		}
		if include {
			values = append(values, num)
		}
	}
	return values, nil
}

// scalarValue dereferences an argument to a single value. a reference to
// exactly one cell yields that cell's value, larger ranges are #VALUE!.
func scalarValue(ctx *EvaluationContext, arg any) (Primitive, *SpreadsheetError) {
	resolved, err := ctx.resolveArgument(arg)
	if err != nil {
		return nil, err
	}
	r, ok := resolved.(Range)
	if !ok {
		return resolved, nil
	}
	if !r.GetBounds().IsSingleCell() {
		return nil, NewSpreadsheetError(ErrorCodeValue, "Range given where a single value is expected")
	}
	for value := range r.IterateValues() {
		return value, nil
	}
	return nil, nil
}

// toNumber converts a single argument to a number with ScalarPolicy
func toNumber(ctx *EvaluationContext, arg any) (float64, *SpreadsheetError) {
	value, err := scalarValue(ctx, arg)
	if err != nil {
		return 0, err
	}
	num, _, err := ScalarPolicy.Literal.coerce(value)
	return num, err
}

// optionalNumber reads args[i] as a number, or def when the argument is
// omitted. a blank argument is present and reads as 0.
func optionalNumber(ctx *EvaluationContext, args []any, i int, def float64) (float64, *SpreadsheetError) {
	if i >= len(args) {
		return def, nil
	}
	return toNumber(ctx, args[i])
}

// firstError returns the first argument that is itself an error value.
// ranges are not inspected, functions decide how to treat their contents.
func firstError(args []any) *SpreadsheetError {
	for _, arg := range args {
		if err, ok := arg.(*SpreadsheetError); ok {
			return err
		}
	}
	return nil
}
