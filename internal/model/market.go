package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	// ErrInvalidBar is returned when a bar violates the OHLCV invariants.
	ErrInvalidBar = errors.New("invalid bar")
	// ErrUnordered is returned when bar timestamps are not strictly increasing.
	ErrUnordered = errors.New("bar timestamps must be strictly increasing")
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate checks prices are positive and finite and that High/Low bound the bar.
func (b OHLCV) Validate() error {
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return fmt.Errorf("%w: price %v at %s", ErrInvalidBar, p, b.Time.Format(time.RFC3339))
		}
	}
	if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
		return fmt.Errorf("%w: volume %v at %s", ErrInvalidBar, b.Volume, b.Time.Format(time.RFC3339))
	}
	if b.High < math.Max(b.Open, b.Close) || b.High < b.Low {
		return fmt.Errorf("%w: high %v below body at %s", ErrInvalidBar, b.High, b.Time.Format(time.RFC3339))
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("%w: low %v above body at %s", ErrInvalidBar, b.Low, b.Time.Format(time.RFC3339))
	}
	return nil
}

// Series is an ordered, immutable run of bars for one symbol and interval.
type Series struct {
	Symbol    string
	Interval  string
	Bars      []OHLCV
	FetchedAt time.Time
}

// NewSeries validates bars and wraps them in a Series. The slice is copied.
func NewSeries(symbol, interval string, bars []OHLCV) (*Series, error) {
	cp := make([]OHLCV, len(bars))
	copy(cp, bars)
	for i, b := range cp {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}
		if i > 0 && !b.Time.After(cp[i-1].Time) {
			return nil, fmt.Errorf("bar %d: %w", i, ErrUnordered)
		}
	}
	return &Series{
		Symbol:    symbol,
		Interval:  interval,
		Bars:      cp,
		FetchedAt: time.Now(),
	}, nil
}

func (s *Series) Len() int { return len(s.Bars) }

func (s *Series) At(i int) OHLCV { return s.Bars[i] }

// Last returns the most recent bar. ok is false for an empty series.
func (s *Series) Last() (bar OHLCV, ok bool) {
	if len(s.Bars) == 0 {
		return OHLCV{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// IndexOf finds the position of the bar stamped exactly t.
func (s *Series) IndexOf(t time.Time) (int, bool) {
	i := sort.Search(len(s.Bars), func(i int) bool { return !s.Bars[i].Time.Before(t) })
	if i < len(s.Bars) && s.Bars[i].Time.Equal(t) {
		return i, true
	}
	return -1, false
}

// Closes returns the Close-price projection of the series.
func (s *Series) Closes() []float64 {
	return ExtractCloses(s.Bars)
}

// ExtractCloses projects bars onto their close prices.
func ExtractCloses(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
