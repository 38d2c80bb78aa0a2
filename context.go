package formulas

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"time"
)

// DefaultMaxArguments is the argument cap for variadic functions
const DefaultMaxArguments = 255

// DefaultSignificantDigits is the number of significant digits results are
// trimmed to where binary floating point noise would otherwise show
const DefaultSignificantDigits = 15

// Options tunes evaluation behaviour
type Options struct {
	MaxArguments      int
	SignificantDigits int
}

// DefaultOptions returns Excel-compatible options
func DefaultOptions() Options {
	return Options{
		MaxArguments:      DefaultMaxArguments,
		SignificantDigits: DefaultSignificantDigits,
	}
}

// RandomGenerator interface provides random number generation for testing
type RandomGenerator interface {
	Float64() float64
}

// DefaultRandomGenerator uses the standard library's rand package
type DefaultRandomGenerator struct{}

func (d *DefaultRandomGenerator) Float64() float64 {
	return rand.Float64()
}

// Observer is notified after every function call. err is nil on success.
type Observer interface {
	ObserveCall(name string, err *SpreadsheetError, elapsed time.Duration)
}

// EvaluationContext threads read-only workbook state and evaluation
// settings into a function call
type EvaluationContext struct {
	Workbook *Workbook
	Options  Options
	Random   RandomGenerator
	Observer Observer
	Logger   *slog.Logger
}

// NewEvaluationContext creates a context over the given workbook, which
// may be nil when only literal arguments are used
func NewEvaluationContext(workbook *Workbook) *EvaluationContext {
	return &EvaluationContext{
		Workbook: workbook,
		Options:  DefaultOptions(),
		Random:   &DefaultRandomGenerator{},
	}
}

func (ctx *EvaluationContext) maxArguments() int {
	if ctx == nil || ctx.Options.MaxArguments <= 0 {
		return DefaultMaxArguments
	}
	return ctx.Options.MaxArguments
}

func (ctx *EvaluationContext) significantDigits() int {
	if ctx == nil || ctx.Options.SignificantDigits <= 0 || ctx.Options.SignificantDigits > 17 {
		return DefaultSignificantDigits
	}
	return ctx.Options.SignificantDigits
}

func (ctx *EvaluationContext) random() RandomGenerator {
	if ctx == nil || ctx.Random == nil {
		return &DefaultRandomGenerator{}
	}
	return ctx.Random
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (ctx *EvaluationContext) logger() *slog.Logger {
	if ctx == nil || ctx.Logger == nil {
		return discardLogger
	}
	return ctx.Logger
}

// resolveArgument turns a RangeAddress argument into a Range using the
// workbook snapshot. other arguments are returned unchanged.
func (ctx *EvaluationContext) resolveArgument(arg any) (any, *SpreadsheetError) {
	addr, ok := arg.(RangeAddress)
	if !ok {
		if ptr, isPtr := arg.(*RangeAddress); isPtr && ptr != nil {
			addr, ok = *ptr, true
		}
	}
	if !ok {
		return arg, nil
	}
	if ctx == nil || ctx.Workbook == nil {
		return nil, NewSpreadsheetError(ErrorCodeRef, "Reference used without a workbook")
	}
	r, err := ctx.Workbook.RangeAt(addr)
	if err != nil {
		return nil, NewSpreadsheetError(ErrorCodeRef, err.Error())
	}
	return r, nil
}
