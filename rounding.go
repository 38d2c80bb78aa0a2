package formulas

import (
	"math"

	"github.com/shopspring/decimal"
)

func registerRoundingFunctions(bf *BuiltInFunctions) {
	for _, fn := range []*builtin{
		{name: "ROUND", minArgs: 1, maxArgs: 2, policy: ScalarPolicy, eval: roundDigits(decimalRoundHalfAway)},
		{name: "ROUNDUP", minArgs: 1, maxArgs: 2, policy: ScalarPolicy, eval: roundDigits(decimalRoundUp)},
		{name: "ROUNDDOWN", minArgs: 1, maxArgs: 2, policy: ScalarPolicy, eval: roundDigits(decimalRoundDown)},
		{name: "TRUNC", minArgs: 1, maxArgs: 2, policy: ScalarPolicy, eval: roundDigits(decimalRoundDown)},
		{name: "INT", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(intFloor)},
		{name: "CEILING", minArgs: 1, maxArgs: 2, policy: ScalarPolicy, eval: ceiling},
		{name: "CEILING.MATH", minArgs: 1, maxArgs: 3, policy: ScalarPolicy, eval: ceilingMath},
		{name: "CEILING.PRECISE", minArgs: 1, maxArgs: 2, policy: ScalarPolicy, eval: precise(decimalCeil)},
		{name: "ISO.CEILING", minArgs: 1, maxArgs: 2, policy: ScalarPolicy, eval: precise(decimalCeil)},
		{name: "FLOOR", minArgs: 1, maxArgs: 2, policy: ScalarPolicy, eval: floor},
		{name: "FLOOR.MATH", minArgs: 1, maxArgs: 3, policy: ScalarPolicy, eval: floorMath},
		{name: "FLOOR.PRECISE", minArgs: 1, maxArgs: 2, policy: ScalarPolicy, eval: precise(decimalFloor)},
		{name: "MROUND", minArgs: 2, maxArgs: 2, policy: ScalarPolicy, eval: binary(mround)},
		{name: "EVEN", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(even)},
		{name: "ODD", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(odd)},
	} {
		bf.register(fn)
	}
}

// decimalMode selects how a decimal is rounded to an integer number of
// places or multiples
type decimalMode uint8

const (
	decimalRoundHalfAway decimalMode = iota // 2.5 -> 3, -2.5 -> -3
	decimalRoundUp                          // away from zero
	decimalRoundDown                        // toward zero
	decimalCeil                             // toward +inf
	decimalFloor                            // toward -inf
)

// maxRoundDigits bounds the digits argument; doubles carry no information
// beyond it in either direction
const maxRoundDigits = 330

// roundToDigits rounds x to digits decimal places using decimal
// arithmetic so that values like 2.675 round the way they are written
func roundToDigits(x float64, digits int32, mode decimalMode) float64 {
	d := decimal.NewFromFloat(x)
	switch mode {
	case decimalRoundUp:
		d = d.RoundUp(digits)
	case decimalRoundDown:
		d = d.RoundDown(digits)
	case decimalCeil:
		d = d.RoundCeil(digits)
	case decimalFloor:
		d = d.RoundFloor(digits)
	default:
		d = d.Round(digits)
	}
	return d.InexactFloat64()
}

// roundToMultiple rounds x to a multiple of the positive significance sig
func roundToMultiple(x, sig float64, mode decimalMode) float64 {
	quotient := decimal.NewFromFloat(x).Div(decimal.NewFromFloat(sig))
	switch mode {
	case decimalRoundUp:
		quotient = quotient.RoundUp(0)
	case decimalRoundDown:
		quotient = quotient.RoundDown(0)
	case decimalCeil:
		quotient = quotient.Ceil()
	case decimalFloor:
		quotient = quotient.Floor()
	default:
		quotient = quotient.Round(0)
	}
	return quotient.Mul(decimal.NewFromFloat(sig)).InexactFloat64()
}

func roundDigits(mode decimalMode) evalFunc {
	return func(ctx *EvaluationContext, _ CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
		x, err := toNumber(ctx, args[0])
		if err != nil {
			return nil, err
		}
		digits, err := optionalNumber(ctx, args, 1, 0)
		if err != nil {
			return nil, err
		}
		digits = math.Trunc(digits)
		if digits > maxRoundDigits {
			return x, nil
		}
		if digits < -maxRoundDigits {
			return 0.0, nil
		}
		return roundToDigits(x, int32(digits), mode), nil
	}
}

func intFloor(x float64) (float64, *SpreadsheetError) {
	return math.Floor(x), nil
}

// ceiling implements CEILING(number, significance). a negative number
// with a negative significance rounds away from zero, with a positive
// significance toward +inf.
func ceiling(ctx *EvaluationContext, _ CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	x, err := toNumber(ctx, args[0])
	if err != nil {
		return nil, err
	}
	sig, err := optionalNumber(ctx, args, 1, 1)
	if err != nil {
		return nil, err
	}

	switch {
	case x == 0 || sig == 0:
		return 0.0, nil
	case x > 0 && sig < 0:
		return nil, numError("CEILING requires significance to have the same sign as a positive number")
	case x < 0 && sig < 0:
		return -roundToMultiple(-x, -sig, decimalCeil), nil
	default:
		return roundToMultiple(x, sig, decimalCeil), nil
	}
}

// floor implements FLOOR(number, significance). unlike CEILING, a zero
// significance is a division by zero.
func floor(ctx *EvaluationContext, _ CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	x, err := toNumber(ctx, args[0])
	if err != nil {
		return nil, err
	}
	sig, err := optionalNumber(ctx, args, 1, 1)
	if err != nil {
		return nil, err
	}

	switch {
	case x == 0:
		return 0.0, nil
	case sig == 0:
		return nil, div0Error("FLOOR significance cannot be 0")
	case x > 0 && sig < 0:
		return nil, numError("FLOOR requires significance to have the same sign as a positive number")
	case x < 0 && sig < 0:
		return -roundToMultiple(-x, -sig, decimalFloor), nil
	default:
		return roundToMultiple(x, sig, decimalFloor), nil
	}
}

// ceilingMath implements CEILING.MATH(number, [significance], [mode]).
// the sign of significance is ignored; a non-zero mode rounds negative
// numbers away from zero.
func ceilingMath(ctx *EvaluationContext, _ CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	x, sig, mode, err := mathRoundingArgs(ctx, args)
	if err != nil {
		return nil, err
	}
	if sig == 0 || x == 0 {
		return 0.0, nil
	}
	if x < 0 && mode != 0 {
		return -roundToMultiple(-x, sig, decimalCeil), nil
	}
	return roundToMultiple(x, sig, decimalCeil), nil
}

// floorMath implements FLOOR.MATH(number, [significance], [mode]). a
// non-zero mode rounds negative numbers toward zero.
func floorMath(ctx *EvaluationContext, _ CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	x, sig, mode, err := mathRoundingArgs(ctx, args)
	if err != nil {
		return nil, err
	}
	if sig == 0 || x == 0 {
		return 0.0, nil
	}
	if x < 0 && mode != 0 {
		return -roundToMultiple(-x, sig, decimalFloor), nil
	}
	return roundToMultiple(x, sig, decimalFloor), nil
}

func mathRoundingArgs(ctx *EvaluationContext, args []any) (x, sig, mode float64, err *SpreadsheetError) {
	x, err = toNumber(ctx, args[0])
	if err != nil {
		return 0, 0, 0, err
	}
	sig, err = optionalNumber(ctx, args, 1, 1)
	if err != nil {
		return 0, 0, 0, err
	}
	mode, err = optionalNumber(ctx, args, 2, 0)
	if err != nil {
		return 0, 0, 0, err
	}
	return x, math.Abs(sig), mode, nil
}

// precise implements the *.PRECISE family, which ignores the sign of
// significance and always rounds in one direction
func precise(mode decimalMode) evalFunc {
	return func(ctx *EvaluationContext, _ CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
		x, err := toNumber(ctx, args[0])
		if err != nil {
			return nil, err
		}
		sig, err := optionalNumber(ctx, args, 1, 1)
		if err != nil {
			return nil, err
		}
		sig = math.Abs(sig)
		if sig == 0 || x == 0 {
			return 0.0, nil
		}
		return roundToMultiple(x, sig, mode), nil
	}
}

func mround(x, multiple float64) (float64, *SpreadsheetError) {
	if multiple == 0 || x == 0 {
		return 0, nil
	}
	if (x > 0) != (multiple > 0) {
		return 0, numError("MROUND requires number and multiple to have the same sign")
	}
	return roundToMultiple(x, multiple, decimalRoundHalfAway), nil
}

func even(x float64) (float64, *SpreadsheetError) {
	result := math.Ceil(math.Abs(x)/2) * 2
	if x < 0 {
		return -result, nil
	}
	return result, nil
}

func odd(x float64) (float64, *SpreadsheetError) {
	result := math.Ceil(math.Abs(x))
	if math.Mod(result, 2) == 0 {
		result++
	}
	if x < 0 {
		return -result, nil
	}
	return result, nil
}
