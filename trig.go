package formulas

import "math"

// trigLimit is the magnitude from which periodic functions stop being
// meaningful in double precision; Excel answers #NUM! there
const trigLimit = 134217728 // 2^27

func registerTrigFunctions(bf *BuiltInFunctions) {
	for _, fn := range []*builtin{
		{name: "ACOS", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(acos)},
		{name: "ACOSH", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(acosh)},
		{name: "ACOT", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(acot)},
		{name: "ACOTH", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(acoth)},
		{name: "ASIN", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(asin)},
		{name: "ASINH", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(asinh)},
		{name: "ATAN", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(atan)},
		{name: "ATAN2", minArgs: 2, maxArgs: 2, policy: ScalarPolicy, eval: binary(atan2)},
		{name: "ATANH", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(atanh)},
		{name: "COS", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(cos)},
		{name: "COSH", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(cosh)},
		{name: "COT", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(cot)},
		{name: "COTH", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(coth)},
		{name: "CSC", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(csc)},
		{name: "CSCH", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(csch)},
		{name: "SEC", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(sec)},
		{name: "SECH", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(sech)},
		{name: "SIN", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(sin)},
		{name: "SINH", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(sinh)},
		{name: "TAN", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(tan)},
		{name: "TANH", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(tanh)},
		{name: "DEGREES", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(degrees)},
		{name: "RADIANS", minArgs: 1, maxArgs: 1, policy: ScalarPolicy, eval: unary(radians)},
		{name: "PI", minArgs: 0, maxArgs: 0, policy: ScalarPolicy, eval: pi},
	} {
		bf.register(fn)
	}
}

func acos(x float64) (float64, *SpreadsheetError) {
	if x < -1 || x > 1 {
		return 0, numError("ACOS requires a number between -1 and 1")
	}
	return math.Acos(x), nil
}

func acosh(x float64) (float64, *SpreadsheetError) {
	if x < 1 {
		return 0, numError("ACOSH requires a number greater than or equal to 1")
	}
	return math.Acosh(x), nil
}

func acot(x float64) (float64, *SpreadsheetError) {
	return math.Pi/2 - math.Atan(x), nil
}

func acoth(x float64) (float64, *SpreadsheetError) {
	if math.Abs(x) <= 1 {
		return 0, numError("ACOTH requires a number whose absolute value is greater than 1")
	}
	return 0.5 * math.Log((x+1)/(x-1)), nil
}

func asin(x float64) (float64, *SpreadsheetError) {
	if x < -1 || x > 1 {
		return 0, numError("ASIN requires a number between -1 and 1")
	}
	return math.Asin(x), nil
}

func asinh(x float64) (float64, *SpreadsheetError) {
	return math.Asinh(x), nil
}

func atan(x float64) (float64, *SpreadsheetError) {
	return math.Atan(x), nil
}

// atan2 follows the spreadsheet argument order ATAN2(x_num, y_num)
func atan2(x, y float64) (float64, *SpreadsheetError) {
	if x == 0 && y == 0 {
		return 0, div0Error("ATAN2 is undefined when both coordinates are 0")
	}
	return math.Atan2(y, x), nil
}

func atanh(x float64) (float64, *SpreadsheetError) {
	if x <= -1 || x >= 1 {
		return 0, numError("ATANH requires a number strictly between -1 and 1")
	}
	return math.Atanh(x), nil
}

func cos(x float64) (float64, *SpreadsheetError) {
	if math.Abs(x) >= trigLimit {
		return 0, numError("COS argument is too large")
	}
	return math.Cos(x), nil
}

func cosh(x float64) (float64, *SpreadsheetError) {
	return math.Cosh(x), nil
}

func cot(x float64) (float64, *SpreadsheetError) {
	if math.Abs(x) >= trigLimit {
		return 0, numError("COT argument is too large")
	}
	if x == 0 {
		return 0, div0Error("COT is undefined at 0")
	}
	return 1 / math.Tan(x), nil
}

func coth(x float64) (float64, *SpreadsheetError) {
	if math.Abs(x) >= trigLimit {
		return 0, numError("COTH argument is too large")
	}
	if x == 0 {
		return 0, div0Error("COTH is undefined at 0")
	}
	return 1 / math.Tanh(x), nil
}

func csc(x float64) (float64, *SpreadsheetError) {
	if math.Abs(x) >= trigLimit {
		return 0, numError("CSC argument is too large")
	}
	if x == 0 {
		return 0, div0Error("CSC is undefined at 0")
	}
	return 1 / math.Sin(x), nil
}

func csch(x float64) (float64, *SpreadsheetError) {
	if math.Abs(x) >= trigLimit {
		return 0, numError("CSCH argument is too large")
	}
	if x == 0 {
		return 0, div0Error("CSCH is undefined at 0")
	}
	return 1 / math.Sinh(x), nil
}

func sec(x float64) (float64, *SpreadsheetError) {
	if math.Abs(x) >= trigLimit {
		return 0, numError("SEC argument is too large")
	}
	return 1 / math.Cos(x), nil
}

func sech(x float64) (float64, *SpreadsheetError) {
	if math.Abs(x) >= trigLimit {
		return 0, numError("SECH argument is too large")
	}
	return 1 / math.Cosh(x), nil
}

func sin(x float64) (float64, *SpreadsheetError) {
	if math.Abs(x) >= trigLimit {
		return 0, numError("SIN argument is too large")
	}
	return math.Sin(x), nil
}

func sinh(x float64) (float64, *SpreadsheetError) {
	return math.Sinh(x), nil
}

func tan(x float64) (float64, *SpreadsheetError) {
	if math.Abs(x) >= trigLimit {
		return 0, numError("TAN argument is too large")
	}
	return math.Tan(x), nil
}

func tanh(x float64) (float64, *SpreadsheetError) {
	return math.Tanh(x), nil
}

func degrees(x float64) (float64, *SpreadsheetError) {
	return x * 180 / math.Pi, nil
}

func radians(x float64) (float64, *SpreadsheetError) {
	return x * math.Pi / 180, nil
}

func pi(_ *EvaluationContext, _ CoercionPolicy, _ []any) (Primitive, *SpreadsheetError) {
	return math.Pi, nil
}
