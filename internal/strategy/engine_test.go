package strategy

import (
	"math"
	"testing"
	"time"

	"MarketLens/internal/calculator"
	"MarketLens/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(t *testing.T, cols map[model.Column][]float64) *model.Frame {
	t.Helper()
	f, err := model.NewFrameFromColumns(cols)
	require.NoError(t, err)
	return f
}

// baseColumns mirrors a neutral market: no rule fires on any bar.
func baseColumns() map[model.Column][]float64 {
	return map[model.Column][]float64{
		model.ColClose:      {100, 100, 100, 100, 100},
		model.ColRSI:        {50, 50, 50, 50, 50},
		model.ColMACD:       {0, 0, 0, 0, 0},
		model.ColMACDSignal: {0, 0, 0, 0, 0},
		model.ColBBUpper:    {110, 110, 110, 110, 110},
		model.ColBBLower:    {90, 90, 90, 90, 90},
	}
}

func TestClassic_RSIBuy(t *testing.T) {
	cols := baseColumns()
	cols[model.ColRSI][4] = 25
	d, err := Generate(frame(t, cols), ClassicRules(DefaultLevels))
	require.NoError(t, err)
	assert.Equal(t, model.Buy, d.Composite[4].Action)
	assert.Contains(t, d.Composite[4].Reason, "RSI Oversold")
}

func TestClassic_RSISell(t *testing.T) {
	cols := baseColumns()
	cols[model.ColRSI][4] = 75
	d, err := Generate(frame(t, cols), ClassicRules(DefaultLevels))
	require.NoError(t, err)
	assert.Equal(t, model.Sell, d.Composite[4].Action)
	assert.Contains(t, d.Composite[4].Reason, "RSI Overbought")
}

func TestClassic_MACDBullishCrossover(t *testing.T) {
	cols := baseColumns()
	cols[model.ColMACD] = []float64{0, 0, 0, 0, 1}
	d, err := Generate(frame(t, cols), ClassicRules(DefaultLevels))
	require.NoError(t, err)
	assert.Equal(t, model.Buy, d.Composite[4].Action)
	assert.Contains(t, d.Composite[4].Reason, "MACD Bullish Crossover")
}

func TestClassic_MACDContinuationHolds(t *testing.T) {
	cols := baseColumns()
	cols[model.ColMACD] = []float64{0, 0, 0, 1, 2}
	d, err := Generate(frame(t, cols), ClassicRules(DefaultLevels))
	require.NoError(t, err)
	assert.Equal(t, model.Buy, d.Composite[3].Action)
	assert.Equal(t, model.Hold, d.Composite[4].Action)
	assert.Empty(t, d.Composite[4].Reason)
}

func TestClassic_BollingerBuy(t *testing.T) {
	cols := baseColumns()
	cols[model.ColClose][4] = 89
	d, err := Generate(frame(t, cols), ClassicRules(DefaultLevels))
	require.NoError(t, err)
	assert.Equal(t, model.Buy, d.Composite[4].Action)
	assert.Contains(t, d.Composite[4].Reason, "Price below BB Lower")
}

func TestThreshold_BollingerLowerOnly(t *testing.T) {
	f := frame(t, map[model.Column][]float64{
		model.ColClose:   {100, 100, 100, 100, 89},
		model.ColBBLower: {90, 90, 90, 90, 90},
	})
	d, err := Generate(f, ThresholdRules(DefaultLevels))
	require.NoError(t, err)

	got, ok := d.Actions("Signal_BB")
	require.True(t, ok)
	assert.Equal(t, []int{0, 0, 0, 0, 1}, got)
	sigs, _ := d.Column("Signal_BB")
	assert.Equal(t, "Price below BB Lower", sigs[4].Reason)
}

func TestThreshold_BollingerHoldsOnFlatWindow(t *testing.T) {
	for run := 0; run < 20; run++ {
		closes := make([]float64, 0, 2020)
		for i := 0; i < 2000; i++ {
			closes = append(closes, 100+float64(i)*(0.0731+float64(run)*0.0029))
		}
		flat := 251.75 + float64(run)*0.017
		for i := 0; i < 20; i++ {
			closes = append(closes, flat)
		}
		bb, err := calculator.BollingerBands(closes, 20, 2)
		require.NoError(t, err)

		f := frame(t, map[model.Column][]float64{
			model.ColClose:   closes,
			model.ColBBUpper: bb.Upper,
			model.ColBBLower: bb.Lower,
		})
		last := len(closes) - 1
		for _, rules := range []RuleSet{ThresholdRules(DefaultLevels), CrossoverRules(DefaultLevels)} {
			d, err := Generate(f, rules)
			require.NoError(t, err)
			got, ok := d.Actions("Signal_BB")
			require.True(t, ok)
			assert.Equal(t, 0, got[last], "run %d", run)
		}
	}
}

func TestThreshold_AllRules(t *testing.T) {
	f := frame(t, map[model.Column][]float64{
		model.ColClose:      {100, 120, 80, 100},
		model.ColEMA:        {100, 110, 90, 100},
		model.ColRSI:        {50, 75, 25, 50},
		model.ColMACD:       {0, 1, -1, 0},
		model.ColMACDSignal: {0, 0, 0, 0},
		model.ColBBUpper:    {110, 110, 110, 110},
		model.ColBBLower:    {90, 90, 90, 90},
	})
	d, err := Generate(f, ThresholdRules(DefaultLevels))
	require.NoError(t, err)

	assert.Equal(t, []string{"Signal_RSI", "Signal_MACD", "Signal_BB", "Signal_EMA"}, d.Order)
	for _, name := range d.Order {
		got, _ := d.Actions(name)
		assert.Equal(t, 0, got[0], name)
		assert.Equal(t, 0, got[3], name)
	}
	rsi, _ := d.Actions("Signal_RSI")
	assert.Equal(t, []int{0, -1, 1, 0}, rsi)
	macd, _ := d.Actions("Signal_MACD")
	assert.Equal(t, []int{0, 1, -1, 0}, macd)
	bb, _ := d.Actions("Signal_BB")
	assert.Equal(t, []int{0, -1, 1, 0}, bb)
	ema, _ := d.Actions("Signal_EMA")
	assert.Equal(t, []int{0, 1, -1, 0}, ema)

	// RSI outranks MACD; every firing reason is reported
	assert.Equal(t, model.Sell, d.Composite[1].Action)
	assert.Equal(t, "RSI Overbought; MACD above Signal; Price above BB Upper; Price above EMA", d.Composite[1].Reason)
	assert.Equal(t, model.HoldSignal, d.Composite[0])
}

func TestCrossover_RSI(t *testing.T) {
	f := frame(t, map[model.Column][]float64{model.ColRSI: {20, 20, 35}})
	d, err := Generate(f, CrossoverRules(DefaultLevels))
	require.NoError(t, err)
	got, ok := d.Actions("Signal_RSI")
	require.True(t, ok)
	assert.Equal(t, []int{0, 0, 1}, got)

	f = frame(t, map[model.Column][]float64{model.ColRSI: {80, 70, 65, 75, 60}})
	d, err = Generate(f, CrossoverRules(DefaultLevels))
	require.NoError(t, err)
	got, _ = d.Actions("Signal_RSI")
	assert.Equal(t, []int{0, 0, -1, 0, -1}, got)
}

func TestCrossover_RSIWarmupNeverFires(t *testing.T) {
	nan := math.NaN()
	f := frame(t, map[model.Column][]float64{model.ColRSI: {nan, nan, 40, 20, 35}})
	d, err := Generate(f, CrossoverRules(DefaultLevels))
	require.NoError(t, err)
	got, _ := d.Actions("Signal_RSI")
	assert.Equal(t, []int{0, 0, 0, 0, 1}, got)
}

func TestCrossover_MACD(t *testing.T) {
	tests := []struct {
		name   string
		macd   []float64
		want   []int
		reason string
	}{
		{"bullish cross on last bar", []float64{0, 0, 0, 0, 1}, []int{0, 0, 0, 0, 1}, "MACD Bullish Crossover"},
		{"already above is continuation", []float64{1, 1, 1, 1, 2}, []int{0, 0, 0, 0, 0}, ""},
		{"bearish cross", []float64{1, 1, 1, 1, -1}, []int{0, 0, 0, 0, -1}, "MACD Bearish Crossover"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := frame(t, map[model.Column][]float64{
				model.ColMACD:       tt.macd,
				model.ColMACDSignal: {0, 0, 0, 0, 0},
			})
			d, err := Generate(f, CrossoverRules(DefaultLevels))
			require.NoError(t, err)
			got, _ := d.Actions("Signal_MACD")
			assert.Equal(t, tt.want, got)
			if tt.reason != "" {
				assert.Contains(t, d.Composite[4].Reason, tt.reason)
			}
		})
	}
}

func TestCrossover_EMAAndBollinger(t *testing.T) {
	f := frame(t, map[model.Column][]float64{
		model.ColClose:   {100, 101, 102, 95, 89, 88, 112, 113},
		model.ColEMA:     {100, 100, 100, 100, 100, 100, 100, 100},
		model.ColBBUpper: {110, 110, 110, 110, 110, 110, 110, 110},
		model.ColBBLower: {90, 90, 90, 90, 90, 90, 90, 90},
	})
	d, err := Generate(f, CrossoverRules(DefaultLevels))
	require.NoError(t, err)

	ema, _ := d.Actions("Signal_EMA")
	assert.Equal(t, []int{0, 1, 0, -1, 0, 0, 1, 0}, ema)
	bb, _ := d.Actions("Signal_BB")
	assert.Equal(t, []int{0, 0, 0, 0, 1, 0, -1, 0}, bb)
}

func TestCrossover_FirstBarNeverFires(t *testing.T) {
	f := frame(t, map[model.Column][]float64{
		model.ColClose:      {80},
		model.ColEMA:        {100},
		model.ColRSI:        {50},
		model.ColMACD:       {1},
		model.ColMACDSignal: {0},
		model.ColBBLower:    {90},
	})
	d, err := Generate(f, CrossoverRules(DefaultLevels))
	require.NoError(t, err)
	for _, name := range d.Order {
		got, _ := d.Actions(name)
		assert.Equal(t, []int{0}, got, name)
	}
}

func TestGenerate_MissingInputsSkipped(t *testing.T) {
	cols := baseColumns()
	delete(cols, model.ColMACDSignal)
	d, err := Generate(frame(t, cols), ThresholdRules(DefaultLevels))
	require.NoError(t, err)

	_, ok := d.Column("Signal_MACD")
	assert.False(t, ok)
	assert.Contains(t, d.Skipped, "MACD")
	assert.Contains(t, d.Skipped, "EMA")
	_, ok = d.Column("Signal_RSI")
	assert.True(t, ok)
}

func TestGenerate_NoIndicators(t *testing.T) {
	f := frame(t, map[model.Column][]float64{model.ColClose: {1, 2, 3}})
	d, err := Generate(f, ClassicRules(DefaultLevels))
	require.NoError(t, err)
	assert.Empty(t, d.Order)
	assert.Equal(t, []model.Signal{model.HoldSignal, model.HoldSignal, model.HoldSignal}, d.Composite)
	assert.Equal(t, model.HoldSignal, d.Last())
}

func TestGenerate_DuplicateRule(t *testing.T) {
	rules := append(ThresholdRules(DefaultLevels), emaThreshold())
	_, err := Generate(frame(t, baseColumns()), rules)
	assert.Error(t, err)
}

func TestSafeGenerate_RecoversPanics(t *testing.T) {
	rules := RuleSet{{
		Name:     "Broken",
		Requires: []model.Column{model.ColClose},
		Evaluate: func(f *model.Frame, i int) model.Signal {
			var values []float64
			_ = values[i+10]
			return model.HoldSignal
		},
	}}
	f := frame(t, baseColumns())
	d, err := SafeGenerate(f, rules)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, ErrComputation)

	// the frame is still usable afterwards
	rsi, ok := f.Column(model.ColRSI)
	require.True(t, ok)
	assert.Len(t, rsi, 5)
}

func TestSafeGenerate_PassesThrough(t *testing.T) {
	d, err := SafeGenerate(frame(t, baseColumns()), ClassicRules(DefaultLevels))
	require.NoError(t, err)
	assert.Len(t, d.Composite, 5)
}

func TestRulesFor(t *testing.T) {
	for _, style := range []Style{Threshold, Crossover, Classic, "", "THRESHOLD"} {
		rs, err := RulesFor(style, DefaultLevels)
		require.NoError(t, err, style)
		assert.Equal(t, []string{"RSI", "MACD", "BB", "EMA"}, rs.Names())
	}
	_, err := RulesFor("weighted", DefaultLevels)
	assert.Error(t, err)

	rs, _ := RulesFor(Crossover, DefaultLevels)
	r, ok := rs.Lookup("MACD")
	require.True(t, ok)
	assert.Equal(t, Crossover, r.Style)
	assert.Equal(t, "Signal_MACD", r.Column())
}

func TestCustomLevels(t *testing.T) {
	f := frame(t, map[model.Column][]float64{model.ColRSI: {35, 65}})
	d, err := Generate(f, ThresholdRules(Levels{Oversold: 40, Overbought: 60}))
	require.NoError(t, err)
	got, _ := d.Actions("Signal_RSI")
	assert.Equal(t, []int{1, -1}, got)
}

func TestSummarize(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	s, err := model.NewSeries("^NSEI", "5m", []model.OHLCV{
		{Time: base, Open: 100, High: 104, Low: 99, Close: 103, Volume: 10},
		{Time: base.Add(5 * time.Minute), Open: 103, High: 103, Low: 96, Close: 97, Volume: 12},
		{Time: base.Add(10 * time.Minute), Open: 96.5, High: 104, Low: 96, Close: 100, Volume: 8},
	})
	require.NoError(t, err)

	f := model.NewFrame(s)
	require.NoError(t, f.Set(model.ColBBLower, []float64{math.NaN(), 98, 101}))
	d, err := Generate(f, ThresholdRules(DefaultLevels))
	require.NoError(t, err)

	sum, err := Summarize(s, f, d)
	require.NoError(t, err)
	assert.Equal(t, "^NSEI", sum.Symbol)
	assert.Equal(t, 100.0, sum.Close)
	assert.Equal(t, model.Buy, sum.Signal.Action)
	require.Len(t, sum.Active, 1)
	assert.Equal(t, "Signal_BB", sum.Active[0].Column)
	assert.Equal(t, 104.0, sum.RangeHigh)
	assert.Equal(t, 96.0, sum.RangeLow)
	assert.Equal(t, 0.5, sum.RangePosition)
}
