package calculator

import "math"

// DefaultRSIPeriod is the conventional RSI look-back.
const DefaultRSIPeriod = 14

// RSI computes the relative strength index from the simple mean of gains and
// losses over the trailing period close-to-close deltas.
//
// Indices 0..period-1 are NaN. When the window holds no losing delta the value
// is 100, including a flat window with no gains either.
func RSI(closes []float64, period int) ([]float64, error) {
	if err := checkPeriod("RSI", period); err != nil {
		return nil, err
	}
	out := nanSeries(len(closes))
	if len(closes) <= period {
		return out, nil
	}

	deltas := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		deltas[i] = closes[i] - closes[i-1]
	}

	var gainSum, lossSum float64
	losers := 0
	for i := 1; i < len(closes); i++ {
		d := deltas[i]
		if d > 0 {
			gainSum += d
		} else if d < 0 {
			lossSum -= d
			losers++
		}
		// drop the delta that just left the window
		if j := i - period; j >= 1 {
			old := deltas[j]
			if old > 0 {
				gainSum -= old
			} else if old < 0 {
				lossSum += old
				losers--
			}
		}
		if i < period {
			continue
		}

		if losers == 0 {
			out[i] = 100.0
			continue
		}
		avgGain := math.Max(gainSum, 0) / float64(period)
		avgLoss := lossSum / float64(period)
		rs := avgGain / avgLoss
		out[i] = 100.0 - 100.0/(1.0+rs)
	}
	return out, nil
}
