package calculator

import "fmt"

// MACDResult holds the three aligned MACD lines.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes EMA(fast) - EMA(slow), its EMA(signal) and the difference.
// All values are defined from the first bar because EMA needs no warm-up.
func MACD(closes []float64, fast, slow, signal int) (*MACDResult, error) {
	fastEMA, err := EMA(closes, fast)
	if err != nil {
		return nil, fmt.Errorf("macd fast: %w", err)
	}
	slowEMA, err := EMA(closes, slow)
	if err != nil {
		return nil, fmt.Errorf("macd slow: %w", err)
	}

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig, err := EMA(line, signal)
	if err != nil {
		return nil, fmt.Errorf("macd signal: %w", err)
	}
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return &MACDResult{MACD: line, Signal: sig, Histogram: hist}, nil
}
