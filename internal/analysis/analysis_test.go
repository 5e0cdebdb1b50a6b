package analysis

import (
	"math"
	"testing"
	"time"

	"MarketLens/internal/model"
	"MarketLens/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeries(t *testing.T, n int) *model.Series {
	t.Helper()
	base := time.Date(2026, 2, 2, 9, 15, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		p := 100 + 5*math.Sin(float64(i)/4) + float64(i)*0.1
		o := p - 0.3*math.Cos(float64(i))
		bars[i] = model.OHLCV{
			Time:   base.Add(time.Duration(i) * 5 * time.Minute),
			Open:   o,
			High:   math.Max(o, p) + 0.5,
			Low:    math.Min(o, p) - 0.5,
			Close:  p,
			Volume: 1000 + float64(i),
		}
	}
	s, err := model.NewSeries("^NSEI", "5m", bars)
	require.NoError(t, err)
	return s
}

type recordingObserver struct {
	calls    int
	warnings int
}

func (o *recordingObserver) ObserveAnalysis(_ time.Duration, warnings int, _ model.Signal) {
	o.calls++
	o.warnings += warnings
}

func TestAnalyze_Defaults(t *testing.T) {
	s := testSeries(t, 60)
	obs := &recordingObserver{}
	r := NewAnalyzer(obs).Analyze(s, DefaultOptions())

	assert.Empty(t, r.Warnings)
	for _, c := range []model.Column{
		model.ColEMA, model.ColRSI, model.ColMACD, model.ColMACDSignal, model.ColMACDHist,
		model.ColBBUpper, model.ColBBMiddle, model.ColBBLower,
	} {
		v, ok := r.Frame.Column(c)
		require.True(t, ok, c)
		assert.Len(t, v, s.Len(), c)
	}
	flags, ok := r.Frame.Patterns()
	require.True(t, ok)
	assert.Len(t, flags, s.Len())

	require.NotNil(t, r.Decision)
	assert.Equal(t, []string{"Signal_RSI", "Signal_MACD", "Signal_BB", "Signal_EMA"}, r.Decision.Order)
	require.NotNil(t, r.Summary)
	assert.Equal(t, r.Decision.Last(), r.Summary.Signal)
	assert.Equal(t, 1, obs.calls)
}

func TestAnalyze_Toggles(t *testing.T) {
	s := testSeries(t, 30)
	opts := DefaultOptions()
	opts.MACD = false
	opts.BB = false
	opts.Patterns = false
	r := NewAnalyzer(nil).Analyze(s, opts)

	assert.False(t, r.Frame.Has(model.ColMACD))
	assert.False(t, r.Frame.Has(model.ColBBUpper))
	_, ok := r.Frame.Patterns()
	assert.False(t, ok)

	_, ok = r.Decision.Column("Signal_MACD")
	assert.False(t, ok)
	_, ok = r.Decision.Column("Signal_BB")
	assert.False(t, ok)
	_, ok = r.Decision.Column("Signal_RSI")
	assert.True(t, ok)
}

func TestAnalyze_BadParameterIsNonFatal(t *testing.T) {
	s := testSeries(t, 30)
	opts := DefaultOptions()
	opts.RSIPeriod = 0
	opts.BBStdDev = -1
	obs := &recordingObserver{}
	r := NewAnalyzer(obs).Analyze(s, opts)

	assert.Len(t, r.Warnings, 2)
	assert.Equal(t, 2, obs.warnings)
	assert.False(t, r.Frame.Has(model.ColRSI))
	assert.False(t, r.Frame.Has(model.ColBBLower))
	assert.True(t, r.Frame.Has(model.ColEMA, model.ColMACD))
	require.NotNil(t, r.Decision)
	_, ok := r.Decision.Column("Signal_EMA")
	assert.True(t, ok)
}

func TestAnalyze_UnknownStyleKeepsIndicators(t *testing.T) {
	s := testSeries(t, 30)
	opts := DefaultOptions()
	opts.Style = "weighted"
	r := NewAnalyzer(nil).Analyze(s, opts)

	assert.Nil(t, r.Decision)
	assert.Len(t, r.Warnings, 1)
	assert.True(t, r.Frame.Has(model.ColEMA, model.ColRSI))
	require.NotNil(t, r.Summary)
	assert.Equal(t, model.HoldSignal, r.Summary.Signal)
}

func TestAnalyze_ShortSeries(t *testing.T) {
	s := testSeries(t, 3)
	r := NewAnalyzer(nil).Analyze(s, DefaultOptions())
	assert.Empty(t, r.Warnings)

	rsi, _ := r.Frame.Column(model.ColRSI)
	for _, v := range rsi {
		assert.True(t, math.IsNaN(v))
	}
	ema, _ := r.Frame.Column(model.ColEMA)
	assert.Equal(t, s.Bars[0].Close, ema[0])
}

func TestAnalyze_Idempotent(t *testing.T) {
	s := testSeries(t, 50)
	a := NewAnalyzer(nil)
	opts := DefaultOptions()
	opts.Style = strategy.Crossover

	first := a.Analyze(s, opts)
	onlyRSI := DefaultOptions()
	onlyRSI.EMA, onlyRSI.MACD, onlyRSI.BB = false, false, false
	_ = a.Analyze(s, onlyRSI)
	second := a.Analyze(s, opts)

	for _, name := range first.Decision.Order {
		x, _ := first.Decision.Actions(name)
		y, _ := second.Decision.Actions(name)
		assert.Equal(t, x, y, name)
	}
	assert.Equal(t, first.Decision.Composite, second.Decision.Composite)
}

func TestAnalyze_EmptySeries(t *testing.T) {
	s, err := model.NewSeries("X", "5m", nil)
	require.NoError(t, err)
	r := NewAnalyzer(nil).Analyze(s, DefaultOptions())
	assert.Nil(t, r.Summary)
	require.NotNil(t, r.Decision)
	assert.Empty(t, r.Decision.Composite)
}
