package strategy

import (
	"fmt"
	"strings"

	"MarketLens/internal/model"
)

// Style selects how a rule reads its indicator.
type Style string

const (
	// Threshold rules fire on every bar where the level condition holds.
	Threshold Style = "threshold"
	// Crossover rules fire only on the bar where the relation flips.
	Crossover Style = "crossover"
	// Classic mixes the two: RSI, Bollinger and EMA by level, MACD by crossover.
	Classic Style = "classic"
)

// Levels are the RSI oversold/overbought bounds.
type Levels struct {
	Oversold   float64
	Overbought float64
}

// DefaultLevels are the conventional 30/70 RSI bounds.
var DefaultLevels = Levels{Oversold: 30, Overbought: 70}

// EvalFunc evaluates a rule on bar i of a frame.
type EvalFunc func(f *model.Frame, i int) model.Signal

// Rule turns one indicator's columns into a per-bar sub-signal.
type Rule struct {
	Name  string
	Style Style
	// Requires lists columns that must all be present.
	Requires []model.Column
	// RequiresAny lists columns of which at least one must be present.
	RequiresAny []model.Column
	Evaluate    EvalFunc
}

// Column is the output column name, e.g. "Signal_RSI".
func (r Rule) Column() string { return "Signal_" + r.Name }

// Applicable reports whether the frame carries the inputs this rule reads.
func (r Rule) Applicable(f *model.Frame) bool {
	if !f.Has(r.Requires...) {
		return false
	}
	if len(r.RequiresAny) == 0 {
		return true
	}
	for _, c := range r.RequiresAny {
		if f.Has(c) {
			return true
		}
	}
	return false
}

// RuleSet is an ordered registry of rules. Order is the composite priority.
type RuleSet []Rule

// Lookup returns the rule registered under name.
func (rs RuleSet) Lookup(name string) (Rule, bool) {
	for _, r := range rs {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

// Names lists the registered rule names in priority order.
func (rs RuleSet) Names() []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name
	}
	return names
}

// ThresholdRules builds the level-based rule set.
func ThresholdRules(lv Levels) RuleSet {
	return RuleSet{rsiThreshold(lv), macdThreshold(), bbThreshold(), emaThreshold()}
}

// CrossoverRules builds the edge-triggered rule set.
func CrossoverRules(lv Levels) RuleSet {
	return RuleSet{rsiCrossover(lv), macdCrossover(), bbCrossover(), emaCrossover()}
}

// ClassicRules builds the mixed set: MACD by crossover, everything else by level.
func ClassicRules(lv Levels) RuleSet {
	rs := RuleSet{rsiThreshold(lv), macdCrossover(), bbThreshold(), emaThreshold()}
	for i := range rs {
		rs[i].Style = Classic
	}
	return rs
}

// RulesFor resolves a style name to its rule set.
func RulesFor(style Style, lv Levels) (RuleSet, error) {
	switch Style(strings.ToLower(string(style))) {
	case Threshold:
		return ThresholdRules(lv), nil
	case Crossover:
		return CrossoverRules(lv), nil
	case Classic, "":
		return ClassicRules(lv), nil
	default:
		return nil, fmt.Errorf("unknown signal style %q", style)
	}
}

func buy(reason string) model.Signal  { return model.Signal{Action: model.Buy, Reason: reason} }
func sell(reason string) model.Signal { return model.Signal{Action: model.Sell, Reason: reason} }

// crossedAbove: a is above b on bar i and was not on bar i-1.
func crossedAbove(a, b func(int) float64, i int) bool {
	return i > 0 && a(i) > b(i) && a(i-1) <= b(i-1)
}

// crossedBelow: a is below b on bar i and was not on bar i-1.
func crossedBelow(a, b func(int) float64, i int) bool {
	return i > 0 && a(i) < b(i) && a(i-1) >= b(i-1)
}

func col(f *model.Frame, c model.Column) func(int) float64 {
	return func(i int) float64 { return f.Value(c, i) }
}

func level(v float64) func(int) float64 {
	return func(int) float64 { return v }
}

func rsiThreshold(lv Levels) Rule {
	return Rule{
		Name:     "RSI",
		Style:    Threshold,
		Requires: []model.Column{model.ColRSI},
		Evaluate: func(f *model.Frame, i int) model.Signal {
			rsi := f.Value(model.ColRSI, i)
			switch {
			case rsi < lv.Oversold:
				return buy("RSI Oversold")
			case rsi > lv.Overbought:
				return sell("RSI Overbought")
			}
			return model.HoldSignal
		},
	}
}

func rsiCrossover(lv Levels) Rule {
	return Rule{
		Name:     "RSI",
		Style:    Crossover,
		Requires: []model.Column{model.ColRSI},
		Evaluate: func(f *model.Frame, i int) model.Signal {
			rsi := col(f, model.ColRSI)
			switch {
			case crossedAbove(rsi, level(lv.Oversold), i):
				return buy(fmt.Sprintf("RSI Bullish Crossover (%.0f)", lv.Oversold))
			case crossedBelow(rsi, level(lv.Overbought), i):
				return sell(fmt.Sprintf("RSI Bearish Crossover (%.0f)", lv.Overbought))
			}
			return model.HoldSignal
		},
	}
}

func macdThreshold() Rule {
	return Rule{
		Name:     "MACD",
		Style:    Threshold,
		Requires: []model.Column{model.ColMACD, model.ColMACDSignal},
		Evaluate: func(f *model.Frame, i int) model.Signal {
			m, s := f.Value(model.ColMACD, i), f.Value(model.ColMACDSignal, i)
			switch {
			case m > s:
				return buy("MACD above Signal")
			case m < s:
				return sell("MACD below Signal")
			}
			return model.HoldSignal
		},
	}
}

func macdCrossover() Rule {
	return Rule{
		Name:     "MACD",
		Style:    Crossover,
		Requires: []model.Column{model.ColMACD, model.ColMACDSignal},
		Evaluate: func(f *model.Frame, i int) model.Signal {
			m, s := col(f, model.ColMACD), col(f, model.ColMACDSignal)
			switch {
			case crossedAbove(m, s, i):
				return buy("MACD Bullish Crossover")
			case crossedBelow(m, s, i):
				return sell("MACD Bearish Crossover")
			}
			return model.HoldSignal
		},
	}
}

func bbThreshold() Rule {
	return Rule{
		Name:        "BB",
		Style:       Threshold,
		Requires:    []model.Column{model.ColClose},
		RequiresAny: []model.Column{model.ColBBLower, model.ColBBUpper},
		Evaluate: func(f *model.Frame, i int) model.Signal {
			c := f.Value(model.ColClose, i)
			switch {
			case c < f.Value(model.ColBBLower, i):
				return buy("Price below BB Lower")
			case c > f.Value(model.ColBBUpper, i):
				return sell("Price above BB Upper")
			}
			return model.HoldSignal
		},
	}
}

func bbCrossover() Rule {
	return Rule{
		Name:        "BB",
		Style:       Crossover,
		Requires:    []model.Column{model.ColClose},
		RequiresAny: []model.Column{model.ColBBLower, model.ColBBUpper},
		Evaluate: func(f *model.Frame, i int) model.Signal {
			c := col(f, model.ColClose)
			switch {
			case crossedBelow(c, col(f, model.ColBBLower), i):
				return buy("Price crossed below BB Lower")
			case crossedAbove(c, col(f, model.ColBBUpper), i):
				return sell("Price crossed above BB Upper")
			}
			return model.HoldSignal
		},
	}
}

func emaThreshold() Rule {
	return Rule{
		Name:     "EMA",
		Style:    Threshold,
		Requires: []model.Column{model.ColClose, model.ColEMA},
		Evaluate: func(f *model.Frame, i int) model.Signal {
			c, e := f.Value(model.ColClose, i), f.Value(model.ColEMA, i)
			switch {
			case c > e:
				return buy("Price above EMA")
			case c < e:
				return sell("Price below EMA")
			}
			return model.HoldSignal
		},
	}
}

func emaCrossover() Rule {
	return Rule{
		Name:     "EMA",
		Style:    Crossover,
		Requires: []model.Column{model.ColClose, model.ColEMA},
		Evaluate: func(f *model.Frame, i int) model.Signal {
			c, e := col(f, model.ColClose), col(f, model.ColEMA)
			switch {
			case crossedAbove(c, e, i):
				return buy("Price crossed above EMA")
			case crossedBelow(c, e, i):
				return sell("Price crossed below EMA")
			}
			return model.HoldSignal
		},
	}
}
