package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/go-spreadsheet/packages/formulas"
)

func TestObserverRecordsCalls(t *testing.T) {
	metrics := Init(true)
	defer metrics.Shutdown(context.Background())
	require.True(t, metrics.Enabled())

	observer, err := NewObserver(metrics.MeterProvider)
	require.NoError(t, err)

	observer.ObserveCall("ACOS", nil, 2*time.Millisecond)
	observer.ObserveCall("ACOS", formulas.NewSpreadsheetError(formulas.ErrorCodeNum, ""), time.Millisecond)
	observer.ObserveCall("SUM", formulas.NewSpreadsheetError(formulas.ErrorCodeDiv0, ""), 0)

	summary, err := metrics.Summarize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), summary.TotalCalls)
	assert.Equal(t, int64(2), summary.Calls["ACOS"])
	assert.Equal(t, int64(1), summary.Calls["SUM"])
	assert.Equal(t, int64(1), summary.Errors["#NUM!"])
	assert.Equal(t, int64(1), summary.Errors["#DIV/0!"])
	assert.InDelta(t, 3.0, summary.TotalMillis, 1e-9)
}

func TestObserverThroughEvaluator(t *testing.T) {
	metrics := Init(true)
	defer metrics.Shutdown(context.Background())

	observer, err := NewObserver(metrics.MeterProvider)
	require.NoError(t, err)

	ctx := formulas.NewEvaluationContext(nil)
	ctx.Observer = observer
	functions := formulas.NewDefaultBuiltInFunctions()

	_, err = functions.Execute(ctx, "SQRT", 9)
	require.NoError(t, err)
	_, err = functions.Execute(ctx, "SQRT", -9)
	require.Error(t, err)
	_, err = functions.Execute(ctx, "MISSING")
	require.Error(t, err)

	summary, err := metrics.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalCalls)
	assert.Equal(t, int64(2), summary.Calls["SQRT"])
	assert.Equal(t, int64(1), summary.Errors["#NUM!"])
	assert.Equal(t, int64(1), summary.Errors["#NAME?"])
}

func TestDisabledMetrics(t *testing.T) {
	metrics := Init(false)
	assert.False(t, metrics.Enabled())

	observer, err := NewObserver(metrics.MeterProvider)
	require.NoError(t, err)
	observer.ObserveCall("ACOS", nil, time.Millisecond)

	summary, err := metrics.Summarize(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalCalls)
	assert.Empty(t, summary.Calls)
	assert.NoError(t, metrics.Shutdown(context.Background()))

	var nilObserver *Observer
	assert.NotPanics(t, func() { nilObserver.ObserveCall("ACOS", nil, 0) })
}
