package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	NewFunctionTestCase(t, "ROUND").
		Call(2.15, 1).AssertEq(2.2).
		Call(2.149, 1).AssertEq(2.1).
		Call(-1.475, 2).AssertEq(-1.48).
		Call(21.5, -1).AssertEq(20.0).
		Call(626.3, -3).AssertEq(1000.0).
		Call(1.98, -1).AssertEq(0.0).
		Call(-50.55, -2).AssertEq(-100.0).
		Call(2.675, 2).AssertEq(2.68).
		Call(2.5).AssertEq(3.0).
		Call(-2.5).AssertEq(-3.0).
		Call(1234.567, -2).AssertEq(1200.0).
		Call(1.5, 2.9).AssertEq(1.5).
		Call(1.5, 400).AssertEq(1.5).
		Call(1.5, -400).AssertEq(0.0).
		Call("2.15", "1").AssertEq(2.2).
		Call(2.15, "one").AssertErr(ErrorCodeValue).
		Call().AssertErr(ErrorCodeValue).
		Call(1, 2, 3).AssertErr(ErrorCodeValue)
}

func TestRoundIsIdempotent(t *testing.T) {
	functions := NewDefaultBuiltInFunctions()
	inputs := []float64{0, 1.005, -1.005, 2.675, 123456.789, -0.0005, 1e-10, 98765.4321}
	for _, name := range []string{"ROUND", "ROUNDUP", "ROUNDDOWN", "TRUNC"} {
		for _, x := range inputs {
			for digits := -3; digits <= 4; digits++ {
				once, err := functions.Call(name, x, digits)
				if !assert.NoError(t, err) {
					continue
				}
				twice, err := functions.Call(name, once, digits)
				if assert.NoError(t, err) {
					assert.Equal(t, once, twice, "%s(%s(%v, %d), %d)", name, name, x, digits, digits)
				}
			}
		}
	}
}

func TestRoundUpAndDown(t *testing.T) {
	NewFunctionTestCase(t, "ROUNDUP").
		Call(3.2, 0).AssertEq(4.0).
		Call(76.9, 0).AssertEq(77.0).
		Call(3.14159, 3).AssertEq(3.142).
		Call(-3.14159, 1).AssertEq(-3.2).
		Call(31415.92654, -2).AssertEq(31500.0)

	NewFunctionTestCase(t, "ROUNDDOWN").
		Call(3.2, 0).AssertEq(3.0).
		Call(76.9, 0).AssertEq(76.0).
		Call(3.14159, 3).AssertEq(3.141).
		Call(-3.14159, 1).AssertEq(-3.1).
		Call(31415.92654, -2).AssertEq(31400.0)

	NewFunctionTestCase(t, "TRUNC").
		Call(8.9).AssertEq(8.0).
		Call(-8.9).AssertEq(-8.0).
		Call(0.45).AssertEq(0.0).
		Call(3.14159, 2).AssertEq(3.14)

	NewFunctionTestCase(t, "INT").
		Call(8.9).AssertEq(8.0).
		Call(-8.9).AssertEq(-9.0).
		Call("19.5").AssertEq(19.0)
}

func TestCeiling(t *testing.T) {
	NewFunctionTestCase(t, "CEILING").
		Call(2.5, 1).AssertEq(3.0).
		Call(2.5).AssertEq(3.0).
		Call(-2.5, -2).AssertEq(-4.0).
		Call(-2.5, 2).AssertEq(-2.0).
		Call(1.5, 0.1).AssertEq(1.5).
		Call(0.234, 0.01).AssertEq(0.24).
		Call(2.5, 0).AssertEq(0.0).
		Call(0, -2).AssertEq(0.0).
		Call(2.5, -2).AssertErr(ErrorCodeNum)

	NewFunctionTestCase(t, "CEILING.MATH").
		Call(24.3, 5).AssertEq(25.0).
		Call(6.7).AssertEq(7.0).
		Call(-8.1, 2).AssertEq(-8.0).
		Call(-5.5, 2, -1).AssertEq(-6.0).
		Call(10.5, 2, 1).AssertEq(12.0).
		Call(10.5, -2).AssertEq(12.0).
		Call(10.5, 0).AssertEq(0.0)

	NewFunctionTestCase(t, "CEILING.PRECISE").
		Call(4.3).AssertEq(5.0).
		Call(-4.3).AssertEq(-4.0).
		Call(4.3, 2).AssertEq(6.0).
		Call(4.3, -2).AssertEq(6.0).
		Call(-4.3, 2).AssertEq(-4.0).
		Call(-4.3, -2).AssertEq(-4.0)

	NewFunctionTestCase(t, "ISO.CEILING").
		Call(4.3).AssertEq(5.0).
		Call(-4.3, 2).AssertEq(-4.0)
}

func TestFloor(t *testing.T) {
	NewFunctionTestCase(t, "FLOOR").
		Call(3.7, 2).AssertEq(2.0).
		Call(-2.5, -2).AssertEq(-2.0).
		Call(-2.5, 2).AssertEq(-4.0).
		Call(1.58, 0.1).AssertEq(1.5).
		Call(0.234, 0.01).AssertEq(0.23).
		Call(2.5, 0).AssertErr(ErrorCodeDiv0).
		Call(0, 0).AssertEq(0.0).
		Call(2.5, -2).AssertErr(ErrorCodeNum)

	NewFunctionTestCase(t, "FLOOR.MATH").
		Call(24.3, 5).AssertEq(20.0).
		Call(6.7).AssertEq(6.0).
		Call(-8.1, 2).AssertEq(-10.0).
		Call(-5.5, 2, -1).AssertEq(-4.0).
		Call(-15.36, 2).AssertEq(-16.0).
		Call(-15.36, 2, 1).AssertEq(-14.0)

	NewFunctionTestCase(t, "FLOOR.PRECISE").
		Call(-3.2, -1).AssertEq(-4.0).
		Call(3.2, 1).AssertEq(3.0).
		Call(-3.2, 1).AssertEq(-4.0).
		Call(3.2, -1).AssertEq(3.0).
		Call(3.2).AssertEq(3.0)
}

func TestMRoundEvenOdd(t *testing.T) {
	NewFunctionTestCase(t, "MROUND").
		Call(10, 3).AssertEq(9.0).
		Call(-10, -3).AssertEq(-9.0).
		Call(1.3, 0.2).AssertEq(1.4).
		Call(5, 0).AssertEq(0.0).
		Call(5, -2).AssertErr(ErrorCodeNum).
		Call(5).AssertErr(ErrorCodeValue)

	NewFunctionTestCase(t, "EVEN").
		Call(1.5).AssertEq(2.0).
		Call(3).AssertEq(4.0).
		Call(2).AssertEq(2.0).
		Call(-1).AssertEq(-2.0).
		Call(0).AssertEq(0.0)

	NewFunctionTestCase(t, "ODD").
		Call(1.5).AssertEq(3.0).
		Call(3).AssertEq(3.0).
		Call(2).AssertEq(3.0).
		Call(-1).AssertEq(-1.0).
		Call(-2).AssertEq(-3.0).
		Call(0).AssertEq(1.0)
}

func TestRoundingReadsReferences(t *testing.T) {
	tc := NewFunctionTestCase(t, "ROUND").
		Set("A1", 2.675).
		Set("A2", 2).
		Set("A3", "1.25")

	tc.Call(tc.Ref("A1"), tc.Ref("A2")).AssertEq(2.68)
	tc.Call(tc.Ref("A3"), 1).AssertEq(1.3)
	// blank digits cell reads as 0
	tc.Call(tc.Ref("A1"), tc.Ref("B9")).AssertEq(3.0)
}
