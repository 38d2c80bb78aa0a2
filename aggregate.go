package formulas

import (
	"math"
	"slices"
)

func registerAggregateFunctions(bf *BuiltInFunctions) {
	for _, fn := range []*builtin{
		{name: "SUM", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: sum},
		{name: "SUMSQ", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: sumSquares},
		{name: "PRODUCT", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: product},
		{name: "COUNT", minArgs: 1, maxArgs: variadic, policy: CountPolicy, eval: count},
		{name: "COUNTA", minArgs: 1, maxArgs: variadic, policy: CountPolicy, eval: countA},
		{name: "COUNTBLANK", minArgs: 1, maxArgs: 1, policy: CountPolicy, eval: countBlank},
		{name: "AVERAGE", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: average},
		{name: "AVERAGEA", minArgs: 1, maxArgs: variadic, policy: ValuesPolicy, eval: average},
		{name: "MIN", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: minimum},
		{name: "MINA", minArgs: 1, maxArgs: variadic, policy: ValuesPolicy, eval: minimum},
		{name: "MAX", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: maximum},
		{name: "MAXA", minArgs: 1, maxArgs: variadic, policy: ValuesPolicy, eval: maximum},
		{name: "MEDIAN", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: median},
		{name: "MODE", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: mode},
		{name: "MODE.SNGL", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: mode},
	} {
		bf.register(fn)
	}
}

func sum(ctx *EvaluationContext, policy CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	values, err := collectNumbers(ctx, policy, args)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return roundSignificant(total, ctx.significantDigits()), nil
}

func sumSquares(ctx *EvaluationContext, policy CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	values, err := collectNumbers(ctx, policy, args)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, v := range values {
		total += v * v
	}
	return roundSignificant(total, ctx.significantDigits()), nil
}

// product returns 0 rather than 1 when there is nothing to multiply
func product(ctx *EvaluationContext, policy CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	values, err := collectNumbers(ctx, policy, args)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return 0.0, nil
	}
	result := 1.0
	for _, v := range values {
		result *= v
	}
	return result, nil
}

// count only counts numbers. numeric text and booleans typed directly as
// arguments are numbers here, the same values read from cells are not.
func count(ctx *EvaluationContext, policy CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	values, err := collectNumbers(ctx, policy, args)
	if err != nil {
		return nil, err
	}
	return float64(len(values)), nil
}

// countA counts every non-blank value, including text, booleans and
// errors stored in cells
func countA(ctx *EvaluationContext, _ CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	total := 0
	for _, arg := range args {
		resolved, err := ctx.resolveArgument(arg)
		if err != nil {
			return nil, err
		}
		r, ok := resolved.(Range)
		if !ok {
			// direct arguments always count, even an omitted one
			total++
			continue
		}
		for value := range r.IterateValues() {
			if value != nil {
				total++
			}
		}
	}
	return float64(total), nil
}

// countBlank counts empty cells and cells holding empty text in a
// reference
func countBlank(ctx *EvaluationContext, _ CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	resolved, err := ctx.resolveArgument(args[0])
	if err != nil {
		return nil, err
	}
	r, ok := resolved.(Range)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "COUNTBLANK requires a reference")
	}
	total := 0
	for value := range r.IterateValues() {
		if value == nil || value == "" {
			total++
		}
	}
	return float64(total), nil
}

func average(ctx *EvaluationContext, policy CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	values, err := collectNumbers(ctx, policy, args)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, div0Error("AVERAGE has no numeric values")
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values)), nil
}

// minimum returns 0 when no value qualifies
func minimum(ctx *EvaluationContext, policy CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	values, err := collectNumbers(ctx, policy, args)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return 0.0, nil
	}
	return slices.Min(values), nil
}

// maximum returns 0 when no value qualifies
func maximum(ctx *EvaluationContext, policy CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	values, err := collectNumbers(ctx, policy, args)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return 0.0, nil
	}
	return slices.Max(values), nil
}

func median(ctx *EvaluationContext, policy CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	values, err := collectNumbers(ctx, policy, args)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, numError("MEDIAN has no numeric values")
	}

	slices.Sort(values)
	mid := len(values) / 2
	if len(values)%2 == 0 {
		// even count: average of two middle values
		return (values[mid-1] + values[mid]) / 2, nil
	}
	return values[mid], nil
}

// mode returns the most frequent value; on ties the one that appears
// first in argument order wins
func mode(ctx *EvaluationContext, policy CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
	values, err := collectNumbers(ctx, policy, args)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, NewSpreadsheetError(ErrorCodeNA, "MODE has no numeric values")
	}

	frequency := make(map[float64]int, len(values))
	for _, v := range values {
		frequency[v]++
	}

	best := math.NaN()
	bestFreq := 1
	for _, v := range values {
		if frequency[v] > bestFreq {
			best = v
			bestFreq = frequency[v]
		}
	}
	if bestFreq == 1 {
		return nil, NewSpreadsheetError(ErrorCodeNA, "MODE: no value appears more than once")
	}
	return best, nil
}
