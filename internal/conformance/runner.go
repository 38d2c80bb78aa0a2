package conformance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/vogtb/go-spreadsheet/packages/formulas"
)

// Config tunes a Runner
type Config struct {
	Workers     int
	Tolerance   float64       // default when a case sets none
	CaseTimeout time.Duration // bound on evaluating expect_expr
	Evaluator   formulas.Options
	Observer    formulas.Observer
	Logger      *slog.Logger
}

// Runner evaluates suites on a bounded worker pool
type Runner struct {
	functions *formulas.BuiltInFunctions
	config    Config
	logger    *slog.Logger
}

// NewRunner creates a runner over the default built-in functions
func NewRunner(config Config) *Runner {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.Evaluator.MaxArguments == 0 && config.Evaluator.SignificantDigits == 0 {
		config.Evaluator = formulas.DefaultOptions()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		functions: formulas.NewDefaultBuiltInFunctions(),
		config:    config,
		logger:    logger,
	}
}

type job struct {
	index    int
	suite    *Suite
	workbook *formulas.Workbook
	c        Case
}

// Run evaluates every case of every suite. the returned report lists
// results in file and case order regardless of completion order.
func (r *Runner) Run(ctx context.Context, suites ...*Suite) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	var jobs []job
	for _, suite := range suites {
		wb, err := suite.Workbook()
		if err != nil {
			return nil, fmt.Errorf("suite %s: %w", suite.Name, err)
		}
		for _, c := range suite.Cases {
			jobs = append(jobs, job{index: len(jobs), suite: suite, workbook: wb, c: c})
		}
	}

	r.logger.Info("running conformance cases",
		"run_id", report.RunID,
		"suites", len(suites),
		"cases", len(jobs),
		"workers", r.config.Workers)

	results := make([]Result, len(jobs))
	p := pool.New().WithMaxGoroutines(min(r.config.Workers, max(len(jobs), 1)))
	for _, j := range jobs {
		p.Go(func() {
			defer func() {
				if rec := recover(); rec != nil {
					results[j.index] = j.result(StatusError)
					results[j.index].Message = fmt.Sprintf("panic: %v", rec)
				}
			}()
			results[j.index] = r.runCase(ctx, j)
		})
	}
	p.Wait()

	report.Results = results
	report.Duration = time.Since(report.StartedAt)
	report.tally()

	r.logger.Info("conformance run finished",
		"run_id", report.RunID,
		"passed", report.Passed,
		"failed", report.Failed,
		"errored", report.Errored,
		"skipped", report.Skipped,
		"duration", report.Duration)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("conformance run interrupted: %w", err)
	}
	return report, nil
}

func (j job) result(status Status) Result {
	name := j.c.Name
	if name == "" {
		name = fmt.Sprintf("%s#%d", strings.ToUpper(j.c.Function), j.index+1)
	}
	args := make([]string, len(j.c.Args))
	for i, a := range j.c.Args {
		args[i] = a.String()
	}
	return Result{
		Suite:    j.suite.Name,
		Case:     name,
		Function: strings.ToUpper(j.c.Function),
		Args:     args,
		Status:   status,
	}
}

func (r *Runner) runCase(ctx context.Context, j job) Result {
	res := j.result(StatusPass)
	logger := r.logger.With("suite", res.Suite, "case", res.Case)

	if j.c.Skip != "" {
		res.Status = StatusSkip
		res.Message = j.c.Skip
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Status = StatusError
		res.Message = err.Error()
		return res
	}

	expected, err := r.expectation(j.c)
	if err != nil {
		res.Status = StatusError
		res.Message = err.Error()
		logger.Warn("case expectation failed", "error", err)
		return res
	}
	res.Expected = expected

	args := make([]any, len(j.c.Args))
	for i, arg := range j.c.Args {
		args[i], err = arg.resolve(j.workbook)
		if err != nil {
			res.Status = StatusError
			res.Message = err.Error()
			logger.Warn("case argument failed", "error", err)
			return res
		}
	}

	evalCtx := formulas.NewEvaluationContext(j.workbook)
	evalCtx.Options = r.config.Evaluator
	evalCtx.Observer = r.config.Observer
	evalCtx.Logger = logger

	start := time.Now()
	actual, err := r.functions.Execute(evalCtx, j.c.Function, args...)
	res.Elapsed = time.Since(start)
	if err != nil {
		ssErr, ok := formulas.AsSpreadsheetError(err)
		if !ok {
			res.Status = StatusError
			res.Message = err.Error()
			return res
		}
		actual = ssErr
		res.Message = ssErr.Message
	}
	res.Actual = actual

	tolerance := j.c.Tolerance
	if tolerance == 0 {
		tolerance = r.config.Tolerance
	}
	if !matches(expected, actual, tolerance) {
		res.Status = StatusFail
		logger.Warn("case failed",
			"function", res.Function,
			"expected", displayValue(expected),
			"actual", displayValue(actual))
		return res
	}
	logger.Debug("case passed", "function", res.Function, "elapsed", res.Elapsed)
	return res
}

func (r *Runner) expectation(c Case) (formulas.Primitive, error) {
	switch {
	case c.ExpectError != "":
		code, ok := formulas.ParseErrorCode(c.ExpectError)
		if !ok {
			return nil, fmt.Errorf("unknown expect_error %q", c.ExpectError)
		}
		return formulas.NewSpreadsheetError(code, ""), nil
	case c.ExpectExpr != "":
		return evalExpectation(c.ExpectExpr, c.Args, r.config.CaseTimeout)
	case c.Expect != nil:
		return c.Expect.V, nil
	default:
		return nil, fmt.Errorf("case has no expectation")
	}
}

// matches compares an expected and an actual result. numbers agree when
// they are within tolerance, scaled by the expected magnitude above 1.
func matches(expected, actual formulas.Primitive, tolerance float64) bool {
	switch e := expected.(type) {
	case *formulas.SpreadsheetError:
		a, ok := actual.(*formulas.SpreadsheetError)
		return ok && a.ErrorCode == e.ErrorCode
	case float64:
		a, ok := actual.(float64)
		if !ok {
			return false
		}
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return false
		}
		return math.Abs(a-e) <= tolerance*math.Max(1, math.Abs(e))
	default:
		return expected == actual
	}
}
