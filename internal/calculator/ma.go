package calculator

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPeriod is returned for a non-positive window length.
var ErrInvalidPeriod = errors.New("period must be positive")

// nanSeries returns n undefined values.
func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func checkPeriod(name string, period int) error {
	if period <= 0 {
		return fmt.Errorf("%s(%d): %w", name, period, ErrInvalidPeriod)
	}
	return nil
}

// SMA computes the rolling simple moving average of prices over period bars.
// The first period-1 values are NaN. Each window is summed on its own, so a
// window of equal prices averages to exactly that price.
func SMA(prices []float64, period int) ([]float64, error) {
	if err := checkPeriod("SMA", period); err != nil {
		return nil, err
	}
	out := nanSeries(len(prices))
	for i := period - 1; i < len(prices); i++ {
		out[i] = windowMean(prices[i-period+1 : i+1])
	}
	return out, nil
}

// windowMean averages deviations from the first element and adds it back.
func windowMean(w []float64) float64 {
	anchor := w[0]
	var sum float64
	for _, x := range w {
		sum += x - anchor
	}
	return anchor + sum/float64(len(w))
}

// EMA computes the exponential moving average with alpha = 2/(period+1).
// It is seeded with the first price, so every value is defined.
func EMA(prices []float64, period int) ([]float64, error) {
	if err := checkPeriod("EMA", period); err != nil {
		return nil, err
	}
	out := make([]float64, len(prices))
	if len(prices) == 0 {
		return out, nil
	}
	alpha := 2.0 / float64(period+1)
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = alpha*prices[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}
