package calculator

import (
	"errors"
	"math"
)

// ErrNegativeMultiplier is returned for a band width below zero.
var ErrNegativeMultiplier = errors.New("std multiplier must be non-negative")

// BandsResult holds aligned Bollinger band lines.
type BandsResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerBands computes SMA(period) +/- k * population stddev over the same
// window. The first period-1 values are NaN.
func BollingerBands(closes []float64, period int, k float64) (*BandsResult, error) {
	if err := checkPeriod("BollingerBands", period); err != nil {
		return nil, err
	}
	if k < 0 || math.IsNaN(k) {
		return nil, ErrNegativeMultiplier
	}

	middle, err := SMA(closes, period)
	if err != nil {
		return nil, err
	}
	res := &BandsResult{
		Upper:  nanSeries(len(closes)),
		Middle: middle,
		Lower:  nanSeries(len(closes)),
	}

	n := float64(period)
	for i := period - 1; i < len(closes); i++ {
		mid := middle[i]
		var sq float64
		for _, c := range closes[i-period+1 : i+1] {
			d := c - mid
			sq += d * d
		}
		std := math.Sqrt(sq / n)
		res.Upper[i] = mid + k*std
		res.Lower[i] = mid - k*std
	}
	return res, nil
}
