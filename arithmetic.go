package formulas

import "math"

func registerArithmeticFunctions(bf *BuiltInFunctions) {
	for _, fn := range []*builtin{
		{name: "ABS", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(abs)},
		{name: "SIGN", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(sign)},
		{name: "SQRT", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(sqrt)},
		{name: "SQRTPI", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(sqrtPi)},
		{name: "POWER", minArgs: 2, maxArgs: 2, policy: ScalarPolicy, eval: binary(power)},
		{name: "EXP", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(exp)},
		{name: "LN", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(ln)},
		{name: "LOG", minArgs: 1, maxArgs: 2, policy: ScalarPolicy, eval: logBase},
		{name: "LOG10", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(log10)},
		{name: "MOD", minArgs: 2, maxArgs: 2, policy: ScalarPolicy, eval: mod},
		{name: "QUOTIENT", minArgs: 2, maxArgs: 2, policy: ScalarPolicy, eval: binary(quotient)},
		{name: "FACT", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(fact)},
		{name: "RAND", minArgs: 0, maxArgs: 0, policy: ScalarPolicy, volatile: true, eval: randFunc},
		{name: "RANDBETWEEN", minArgs: 2, maxArgs: 2, policy: ScalarPolicy, volatile: true, eval: randBetween},
	} {
		bf.register(fn)
	}
}

func abs(x float64) (float64, *SpreadsheetError) {
	return math.Abs(x), nil
}

func sign(x float64) (float64, *SpreadsheetError) {
	switch {
	case x > 0:
		return 1, nil
	case x < 0:
		return -1, nil
	default:
		return 0, nil
	}
}

func sqrt(x float64) (float64, *SpreadsheetError) {
	if x < 0 {
		return 0, numError("SQRT requires a non-negative argument")
	}
	return math.Sqrt(x), nil
}

func sqrtPi(x float64) (float64, *SpreadsheetError) {
	if x < 0 {
		return 0, numError("SQRTPI requires a non-negative argument")
	}
	return math.Sqrt(x * math.Pi), nil
}

func power(base, exponent float64) (float64, *SpreadsheetError) {
	switch {
	case base == 0 && exponent == 0:
		return 0, numError("POWER(0, 0) is undefined")
	case base == 0 && exponent < 0:
		return 0, div0Error("POWER of 0 to a negative exponent divides by zero")
	case base < 0 && exponent != math.Trunc(exponent):
		return 0, numError("POWER of a negative base requires an integer exponent")
	}
	return math.Pow(base, exponent), nil
}

func exp(x float64) (float64, *SpreadsheetError) {
	return math.Exp(x), nil
}

func ln(x float64) (float64, *SpreadsheetError) {
	if x <= 0 {
		return 0, numError("LN requires a positive argument")
	}
	return math.Log(x), nil
}

func log10(x float64) (float64, *SpreadsheetError) {
	if x <= 0 {
		return 0, numError("LOG10 requires a positive argument")
	}
	return math.Log10(x), nil
}

// logBase implements LOG(number, [base]) with base 10 by default
func logBase(ctx *EvaluationContext, _ CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	x, err := toNumber(ctx, args[0])
	if err != nil {
		return nil, err
	}
	base, err := optionalNumber(ctx, args, 1, 10)
	if err != nil {
		return nil, err
	}

	switch {
	case x <= 0:
		return nil, numError("LOG requires a positive number")
	case base <= 0:
		return nil, numError("LOG requires a positive base")
	case base == 1:
		return nil, div0Error("LOG base 1 divides by zero")
	case base == 10:
		return math.Log10(x), nil
	case base == 2:
		return math.Log2(x), nil
	}
	return roundSignificant(math.Log(x)/math.Log(base), ctx.significantDigits()), nil
}

// mod implements MOD(number, divisor); the result takes the sign of the
// divisor
func mod(ctx *EvaluationContext, _ CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	n, err := toNumber(ctx, args[0])
	if err != nil {
		return nil, err
	}
	d, err := toNumber(ctx, args[1])
	if err != nil {
		return nil, err
	}
	if d == 0 {
		return nil, div0Error("MOD divisor cannot be 0")
	}
	result := roundSignificant(n-d*math.Floor(n/d), ctx.significantDigits())
	if result != 0 && math.Abs(result) >= math.Abs(d) {
		result = 0
	}
	return result, nil
}

func quotient(n, d float64) (float64, *SpreadsheetError) {
	if d == 0 {
		return 0, div0Error("QUOTIENT divisor cannot be 0")
	}
	return math.Trunc(n / d), nil
}

// maxFactorial is the largest n whose factorial fits in a double
const maxFactorial = 170

func fact(x float64) (float64, *SpreadsheetError) {
	if x < 0 {
		return 0, numError("FACT requires a non-negative argument")
	}
	n := math.Trunc(x)
	if n > maxFactorial {
		return 0, numError("FACT argument is too large")
	}
	result := 1.0
	for i := 2.0; i <= n; i++ {
		result *= i
	}
	return result, nil
}

func randFunc(ctx *EvaluationContext, _ CoercionPolicy, _ []any) (Primitive, *SpreadsheetError) {
	return ctx.random().Float64(), nil
}

// randBetween returns an integer in [ceil(bottom), floor(top)]
func randBetween(ctx *EvaluationContext, _ CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	bottom, err := toNumber(ctx, args[0])
	if err != nil {
		return nil, err
	}
	top, err := toNumber(ctx, args[1])
	if err != nil {
		return nil, err
	}
	bottom = math.Ceil(bottom)
	top = math.Floor(top)
	if bottom > top {
		return nil, numError("RANDBETWEEN requires bottom to be less than or equal to top")
	}
	return bottom + math.Floor(ctx.random().Float64()*(top-bottom+1)), nil
}
