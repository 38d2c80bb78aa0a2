package formulas

import "math"

func registerStatisticalFunctions(bf *BuiltInFunctions) {
	for _, fn := range []*builtin{
		{name: "STDEV", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: dispersion(true, true)},
		{name: "STDEV.S", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: dispersion(true, true)},
		{name: "STDEVA", minArgs: 1, maxArgs: variadic, policy: ValuesPolicy, eval: dispersion(true, true)},
		{name: "STDEVP", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: dispersion(false, true)},
		{name: "STDEV.P", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: dispersion(false, true)},
		{name: "STDEVPA", minArgs: 1, maxArgs: variadic, policy: ValuesPolicy, eval: dispersion(false, true)},
		{name: "VAR", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: dispersion(true, false)},
		{name: "VAR.S", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: dispersion(true, false)},
		{name: "VARP", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: dispersion(false, false)},
		{name: "VAR.P", minArgs: 1, maxArgs: variadic, policy: SumPolicy, eval: dispersion(false, false)},
		{name: "RANK", minArgs: 2, maxArgs: 3, policy: RankPolicy, eval: rank(false)},
		{name: "RANK.EQ", minArgs: 2, maxArgs: 3, policy: RankPolicy, eval: rank(false)},
		{name: "RANK.AVG", minArgs: 2, maxArgs: 3, policy: RankPolicy, eval: rank(true)},
	} {
		bf.register(fn)
	}
}

// variance computes the sample (n-1) or population (n) variance with a
// two-pass algorithm
func variance(values []float64, sample bool) (float64, *SpreadsheetError) {
	n := len(values)
	if n == 0 {
		return 0, div0Error("no numeric values")
	}
	if sample && n < 2 {
		return 0, div0Error("sample dispersion requires at least two values")
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	squares := 0.0
	for _, v := range values {
		d := v - mean
		squares += d * d
	}

	if sample {
		return squares / float64(n-1), nil
	}
	return squares / float64(n), nil
}

func dispersion(sample, root bool) evalFunc {
	return func(ctx *EvaluationContext, policy CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
		values, err := collectNumbers(ctx, policy, args)
		if err != nil {
			return nil, err
		}
		v, err := variance(values, sample)
		if err != nil {
			return nil, err
		}
		if root {
			return math.Sqrt(v), nil
		}
		return v, nil
	}
}

// rank implements RANK(number, ref, [order]). order 0 ranks the largest
// value first, any other order ranks the smallest first. with averageTies set,
// tied values share the mean of the ranks they occupy.
func rank(averageTies bool) evalFunc {
	return func(ctx *EvaluationContext, policy CoercionPolicy, args []any) (Primitive, *SpreadsheetError) {
		number, err := toNumber(ctx, args[0])
		if err != nil {
			return nil, err
		}

		ref, err := ctx.resolveArgument(args[1])
		if err != nil {
			return nil, err
		}
		if _, ok := ref.(Range); !ok {
			return nil, NewSpreadsheetError(ErrorCodeValue, "RANK requires a reference for ref")
		}

		order, err := optionalNumber(ctx, args, 2, 0)
		if err != nil {
			return nil, err
		}
		ascending := order != 0

		values, err := collectNumbers(ctx, policy, []any{ref})
		if err != nil {
			return nil, err
		}

		before, ties := 0, 0
		for _, v := range values {
			switch {
			case v == number:
				ties++
			case ascending && v < number, !ascending && v > number:
				before++
			}
		}
		if ties == 0 {
			return nil, NewSpreadsheetError(ErrorCodeNA, "RANK number not found in ref")
		}

		result := float64(before + 1)
		if averageTies {
			result += float64(ties-1) / 2
		}
		return result, nil
	}
}
