package strategy

import (
	"errors"
	"time"

	"MarketLens/internal/calculator"
	"MarketLens/internal/model"
)

// Summary describes the final bar of an analysis pass for display.
type Summary struct {
	Symbol        string
	Interval      string
	Time          time.Time
	Close         float64
	Signal        model.Signal
	Active        []NamedSignal
	Patterns      []string
	RangeHigh     float64
	RangeLow      float64
	RangePosition float64 // 0.0 ~ 1.0
}

// Summarize builds the last-bar summary of a series and its decision.
func Summarize(s *model.Series, f *model.Frame, d *Decision) (*Summary, error) {
	last, ok := s.Last()
	if !ok {
		return nil, errors.New("summarize: empty series")
	}
	i := s.Len() - 1
	sum := &Summary{
		Symbol:   s.Symbol,
		Interval: s.Interval,
		Time:     last.Time,
		Close:    last.Close,
		Signal:   model.HoldSignal,
	}
	if d != nil && len(d.Composite) == s.Len() {
		sum.Signal = d.Last()
		sum.Active = d.ActiveAt(i)
	}
	if f != nil {
		if flags, ok := f.Patterns(); ok && len(flags) == s.Len() {
			sum.Patterns = flags[i].Names()
		}
	}

	high, low, err := calculator.CalculateRange(s.Bars, 0)
	if err != nil {
		return nil, err
	}
	sum.RangeHigh, sum.RangeLow = high, low
	if pos, err := calculator.CalculateRangePosition(last.Close, high, low); err == nil {
		sum.RangePosition = pos
	} else {
		sum.RangePosition = 0.5
	}
	return sum, nil
}
