package notifier

import (
	"fmt"
	"strings"
	"time"

	"MarketLens/internal/model"
	"MarketLens/internal/strategy"

	"github.com/shopspring/decimal"
)

// Price renders a price rounded half away from zero to two decimals.
func Price(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

func actionIcon(a model.Action) string {
	switch a {
	case model.Buy:
		return "🟢"
	case model.Sell:
		return "🔴"
	}
	return "⚪"
}

// FormatSummary formats the last-bar summary into a Telegram message.
func FormatSummary(sum *strategy.Summary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> %s | %s\n\n",
		sum.Symbol, sum.Interval, sum.Time.Format("2006-01-02 15:04 MST")))
	b.WriteString(fmt.Sprintf("Close: %s\n", Price(sum.Close)))
	b.WriteString(fmt.Sprintf("Range: %s - %s (position %.0f%%)\n\n",
		Price(sum.RangeLow), Price(sum.RangeHigh), sum.RangePosition*100))

	b.WriteString(fmt.Sprintf("%s <b>Signal: %s</b>\n", actionIcon(sum.Signal.Action), sum.Signal.Action))
	if len(sum.Active) > 0 {
		for _, a := range sum.Active {
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", actionIcon(a.Signal.Action), a.Column, a.Signal.Reason))
		}
	} else {
		b.WriteString("  no rule fired on the last bar\n")
	}

	if len(sum.Patterns) > 0 {
		b.WriteString(fmt.Sprintf("\n🕯 Patterns: %s\n", strings.Join(sum.Patterns, ", ")))
	}
	return b.String()
}

// FormatPatterns lists the most recent bars on which any candlestick pattern
// was detected, newest first, at most limit entries.
func FormatPatterns(s *model.Series, flags []model.PatternFlags, limit int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕯 <b>Patterns</b> | %s %s\n\n", s.Symbol, s.Interval))

	n := 0
	for i := len(flags) - 1; i >= 0 && n < limit; i-- {
		if !flags[i].Any() {
			continue
		}
		bar := s.At(i)
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			bar.Time.Format("01-02 15:04"), Price(bar.Close), strings.Join(flags[i].Names(), ", ")))
		n++
	}
	if n == 0 {
		b.WriteString("no patterns detected\n")
	}
	return b.String()
}

// FormatFetched acknowledges a completed fetch.
func FormatFetched(s *model.Series, period string) string {
	last, ok := s.Last()
	if !ok {
		return fmt.Sprintf("⚠️ %s: no data", s.Symbol)
	}
	return fmt.Sprintf("✅ Loaded %d bars of %s (%s, %s)\nLast: %s @ %s",
		s.Len(), s.Symbol, period, s.Interval,
		Price(last.Close), last.Time.Format(time.RFC3339))
}
