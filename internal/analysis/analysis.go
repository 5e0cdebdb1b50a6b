// Package analysis runs one pass of indicators, patterns and signals over a series.
package analysis

import (
	"errors"
	"fmt"
	"log"
	"time"

	"MarketLens/internal/calculator"
	"MarketLens/internal/model"
	"MarketLens/internal/pattern"
	"MarketLens/internal/strategy"
)

// Options selects which indicators are computed and how signals are derived.
type Options struct {
	EMA       bool
	EMAPeriod int

	RSI       bool
	RSIPeriod int

	MACD       bool
	MACDFast   int
	MACDSlow   int
	MACDSignal int

	BB       bool
	BBPeriod int
	BBStdDev float64

	Patterns bool
	Signals  bool

	Style  strategy.Style
	Levels strategy.Levels
}

// DefaultOptions enables every stage with the conventional parameters.
func DefaultOptions() Options {
	return Options{
		EMA:        true,
		EMAPeriod:  20,
		RSI:        true,
		RSIPeriod:  calculator.DefaultRSIPeriod,
		MACD:       true,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		BB:         true,
		BBPeriod:   20,
		BBStdDev:   2,
		Patterns:   true,
		Signals:    true,
		Style:      strategy.Classic,
		Levels:     strategy.DefaultLevels,
	}
}

// Report is the outcome of one analysis pass. Warnings are non-fatal: every
// column that could be computed is present even when some stage failed.
type Report struct {
	Series   *model.Series
	Frame    *model.Frame
	Decision *strategy.Decision
	Summary  *strategy.Summary
	Warnings []string
	Elapsed  time.Duration
}

// Observer receives pass-level events, e.g. for metrics.
type Observer interface {
	ObserveAnalysis(elapsed time.Duration, warnings int, last model.Signal)
}

// Analyzer runs analysis passes. It holds no per-series state, so passes over
// the same series are independent.
type Analyzer struct {
	Observer Observer
}

// NewAnalyzer creates an Analyzer. obs may be nil.
func NewAnalyzer(obs Observer) *Analyzer {
	return &Analyzer{Observer: obs}
}

// Analyze computes a fresh frame for s according to opts.
func (a *Analyzer) Analyze(s *model.Series, opts Options) *Report {
	start := time.Now()
	r := &Report{Series: s, Frame: model.NewFrame(s)}
	closes := s.Closes()

	if opts.EMA {
		if ema, err := calculator.EMA(closes, opts.EMAPeriod); err != nil {
			r.warn("EMA calculation failed: %v", err)
		} else {
			r.set(model.ColEMA, ema)
		}
	}

	if opts.RSI {
		if rsi, err := calculator.RSI(closes, opts.RSIPeriod); err != nil {
			r.warn("RSI calculation failed: %v", err)
		} else {
			r.set(model.ColRSI, rsi)
		}
	}

	if opts.MACD {
		if m, err := calculator.MACD(closes, opts.MACDFast, opts.MACDSlow, opts.MACDSignal); err != nil {
			r.warn("MACD calculation failed: %v", err)
		} else {
			r.set(model.ColMACD, m.MACD)
			r.set(model.ColMACDSignal, m.Signal)
			r.set(model.ColMACDHist, m.Histogram)
		}
	}

	if opts.BB {
		if bb, err := calculator.BollingerBands(closes, opts.BBPeriod, opts.BBStdDev); err != nil {
			r.warn("Bollinger Bands calculation failed: %v", err)
		} else {
			r.set(model.ColBBUpper, bb.Upper)
			r.set(model.ColBBMiddle, bb.Middle)
			r.set(model.ColBBLower, bb.Lower)
		}
	}

	if opts.Patterns {
		if err := pattern.DetectFrame(r.Frame); err != nil {
			r.warn("pattern detection failed: %v", err)
		}
	}

	if opts.Signals {
		r.Decision = a.decide(r, opts)
	}

	if s.Len() > 0 {
		if sum, err := strategy.Summarize(s, r.Frame, r.Decision); err != nil {
			r.warn("summary failed: %v", err)
		} else {
			r.Summary = sum
		}
	}

	r.Elapsed = time.Since(start)
	if a.Observer != nil {
		last := model.HoldSignal
		if r.Decision != nil {
			last = r.Decision.Last()
		}
		a.Observer.ObserveAnalysis(r.Elapsed, len(r.Warnings), last)
	}
	return r
}

func (a *Analyzer) decide(r *Report, opts Options) *strategy.Decision {
	levels := opts.Levels
	if levels == (strategy.Levels{}) {
		levels = strategy.DefaultLevels
	}
	rules, err := strategy.RulesFor(opts.Style, levels)
	if err != nil {
		r.warn("signal rules: %v", err)
		return nil
	}
	d, err := strategy.SafeGenerate(r.Frame, rules)
	if err != nil {
		if errors.Is(err, strategy.ErrComputation) {
			r.warn("signal generation failed, indicators remain available: %v", err)
		} else {
			r.warn("signal generation: %v", err)
		}
		return nil
	}
	return d
}

func (r *Report) set(c model.Column, values []float64) {
	if err := r.Frame.Set(c, values); err != nil {
		r.warn("attach %s: %v", c, err)
	}
}

func (r *Report) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[WARN] %s", msg)
	r.Warnings = append(r.Warnings, msg)
}
