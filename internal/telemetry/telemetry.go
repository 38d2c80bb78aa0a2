// Package telemetry records function call metrics with OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/vogtb/go-spreadsheet/packages/formulas"
)

const (
	meterName = "github.com/vogtb/go-spreadsheet/packages/formulas"

	MetricCalls    = "formulas_function_calls"
	MetricErrors   = "formulas_function_errors"
	MetricDuration = "formulas_function_duration"
)

const (
	// AttrFunction names the built-in that was called (e.g. ACOS).
	AttrFunction = attribute.Key("function")
	// AttrResult is "ok" or "error".
	AttrResult = attribute.Key("result")
	// AttrErrorCode carries the display text of a formula error (e.g. #NUM!).
	AttrErrorCode = attribute.Key("error.code")
)

// Metrics groups the meter provider used by an evaluation run and, when
// enabled, the reader that collects it
type Metrics struct {
	MeterProvider metric.MeterProvider
	reader        *sdkmetric.ManualReader
	shutdown      func(context.Context) error
}

// Init returns an SDK meter provider backed by a manual reader, or a noop
// provider when metrics are disabled
func Init(enabled bool) *Metrics {
	if !enabled {
		return &Metrics{
			MeterProvider: noop.NewMeterProvider(),
			shutdown:      func(context.Context) error { return nil },
		}
	}
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return &Metrics{
		MeterProvider: mp,
		reader:        reader,
		shutdown:      mp.Shutdown,
	}
}

// Enabled reports whether metrics are being collected
func (m *Metrics) Enabled() bool {
	return m != nil && m.reader != nil
}

// Shutdown flushes and stops the provider
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.shutdown == nil {
		return nil
	}
	return m.shutdown(ctx)
}

// Summarize collects what has been recorded so far. a disabled Metrics
// returns an empty summary.
func (m *Metrics) Summarize(ctx context.Context) (Summary, error) {
	summary := Summary{
		Calls:  make(map[string]int64),
		Errors: make(map[string]int64),
	}
	if !m.Enabled() {
		return summary, nil
	}

	var rm metricdata.ResourceMetrics
	if err := m.reader.Collect(ctx, &rm); err != nil {
		return summary, fmt.Errorf("collect metrics: %w", err)
	}

	for _, scope := range rm.ScopeMetrics {
		for _, md := range scope.Metrics {
			switch md.Name {
			case MetricCalls:
				if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
					for _, dp := range sum.DataPoints {
						name, _ := dp.Attributes.Value(AttrFunction)
						summary.Calls[name.AsString()] += dp.Value
						summary.TotalCalls += dp.Value
					}
				}
			case MetricErrors:
				if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
					for _, dp := range sum.DataPoints {
						code, _ := dp.Attributes.Value(AttrErrorCode)
						summary.Errors[code.AsString()] += dp.Value
					}
				}
			case MetricDuration:
				if hist, ok := md.Data.(metricdata.Histogram[float64]); ok {
					for _, dp := range hist.DataPoints {
						summary.TotalMillis += dp.Sum
					}
				}
			}
		}
	}
	return summary, nil
}

// Summary aggregates recorded metrics for display
type Summary struct {
	TotalCalls  int64            `json:"total_calls"`
	TotalMillis float64          `json:"total_ms"`
	Calls       map[string]int64 `json:"calls"`  // function -> calls
	Errors      map[string]int64 `json:"errors"` // error code -> count
}

// Observer implements formulas.Observer on top of OpenTelemetry
// instruments
type Observer struct {
	calls    metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

var _ formulas.Observer = (*Observer)(nil)

// NewObserver creates the call, error and duration instruments on provider
func NewObserver(provider metric.MeterProvider) (*Observer, error) {
	if provider == nil {
		provider = noop.NewMeterProvider()
	}
	meter := provider.Meter(meterName)

	calls, err := meter.Int64Counter(MetricCalls,
		metric.WithDescription("Built-in function calls"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, fmt.Errorf("create %s counter: %w", MetricCalls, err)
	}

	errors, err := meter.Int64Counter(MetricErrors,
		metric.WithDescription("Built-in function calls that produced a formula error"),
		metric.WithUnit("{error}"))
	if err != nil {
		return nil, fmt.Errorf("create %s counter: %w", MetricErrors, err)
	}

	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Time spent evaluating a built-in function"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("create %s histogram: %w", MetricDuration, err)
	}

	return &Observer{calls: calls, errors: errors, duration: duration}, nil
}

// ObserveCall records one function call
func (o *Observer) ObserveCall(name string, err *formulas.SpreadsheetError, elapsed time.Duration) {
	if o == nil {
		return
	}
	ctx := context.Background()

	result := "ok"
	if err != nil {
		result = "error"
	}
	attrs := metric.WithAttributes(AttrFunction.String(name), AttrResult.String(result))
	o.calls.Add(ctx, 1, attrs)
	o.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)

	if err != nil {
		o.errors.Add(ctx, 1, metric.WithAttributes(
			AttrFunction.String(name),
			AttrErrorCode.String(err.ErrorCode.String())))
	}
}
