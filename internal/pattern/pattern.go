// Package pattern classifies candlestick shapes bar by bar.
package pattern

import (
	"fmt"
	"math"

	"MarketLens/internal/model"
)

const (
	dojiBodyRatio   = 0.1
	hammerBodyRatio = 0.3
	hammerLowerMult = 2.0
	hammerUpperMult = 1.0
)

// Anatomy is the body/shadow decomposition of a single bar.
type Anatomy struct {
	Body        float64
	UpperShadow float64
	LowerShadow float64
	Range       float64
}

// Measure decomposes a bar into body, shadows and total range.
func Measure(b model.OHLCV) Anatomy {
	return Anatomy{
		Body:        math.Abs(b.Close - b.Open),
		UpperShadow: b.High - math.Max(b.Open, b.Close),
		LowerShadow: math.Min(b.Open, b.Close) - b.Low,
		Range:       b.High - b.Low,
	}
}

// IsDoji: body no larger than a tenth of the range. A bar with High == Low and
// no body satisfies this trivially.
func IsDoji(a Anatomy) bool {
	return a.Body <= dojiBodyRatio*a.Range
}

// IsHammer: small body, long lower wick, short upper wick.
func IsHammer(a Anatomy) bool {
	return a.Body < hammerBodyRatio*a.Range &&
		a.LowerShadow >= hammerLowerMult*a.Body &&
		a.UpperShadow <= hammerUpperMult*a.Body
}

// IsBullishEngulfing: a green bar whose body covers the previous red body.
func IsBullishEngulfing(prev, cur model.OHLCV) bool {
	return prev.Close < prev.Open &&
		cur.Close > cur.Open &&
		cur.Open <= prev.Close &&
		cur.Close >= prev.Open
}

// IsBearishEngulfing: a red bar whose body covers the previous green body.
func IsBearishEngulfing(prev, cur model.OHLCV) bool {
	return prev.Close > prev.Open &&
		cur.Close < cur.Open &&
		cur.Open >= prev.Close &&
		cur.Close <= prev.Open
}

// Detect returns pattern flags aligned with bars. Engulfing patterns look at
// the previous bar only, so index 0 never carries them.
func Detect(bars []model.OHLCV) []model.PatternFlags {
	flags := make([]model.PatternFlags, len(bars))
	for i, b := range bars {
		a := Measure(b)
		flags[i].Doji = IsDoji(a)
		flags[i].Hammer = IsHammer(a)
		if i == 0 {
			continue
		}
		flags[i].BullishEngulfing = IsBullishEngulfing(bars[i-1], b)
		flags[i].BearishEngulfing = IsBearishEngulfing(bars[i-1], b)
	}
	return flags
}

// DetectFrame reads the OHLC columns of f and attaches the flags to it.
func DetectFrame(f *model.Frame) error {
	open, ok1 := f.Column(model.ColOpen)
	high, ok2 := f.Column(model.ColHigh)
	low, ok3 := f.Column(model.ColLow)
	closes, ok4 := f.Column(model.ColClose)
	if !(ok1 && ok2 && ok3 && ok4) {
		return fmt.Errorf("detect patterns: frame lacks OHLC columns")
	}
	bars := make([]model.OHLCV, f.Len())
	for i := range bars {
		bars[i] = model.OHLCV{Open: open[i], High: high[i], Low: low[i], Close: closes[i]}
	}
	return f.SetPatterns(Detect(bars))
}
