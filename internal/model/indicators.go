package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrLengthMismatch is returned when a column does not align with its frame.
var ErrLengthMismatch = errors.New("column length does not match frame")

// Column names a per-bar float column in a Frame.
type Column string

const (
	ColOpen       Column = "Open"
	ColHigh       Column = "High"
	ColLow        Column = "Low"
	ColClose      Column = "Close"
	ColVolume     Column = "Volume"
	ColEMA        Column = "EMA"
	ColRSI        Column = "RSI"
	ColMACD       Column = "MACD"
	ColMACDSignal Column = "MACD_Signal"
	ColMACDHist   Column = "MACD_Hist"
	ColBBUpper    Column = "BB_Upper"
	ColBBMiddle   Column = "BB_Middle"
	ColBBLower    Column = "BB_Lower"
)

// Frame is the per-bar record the analysis stages add columns to.
// Undefined values are NaN.
type Frame struct {
	n        int
	columns  map[Column][]float64
	order    []Column
	patterns []PatternFlags
}

// NewFrame seeds a frame with the OHLCV columns of a series.
func NewFrame(s *Series) *Frame {
	f := &Frame{n: s.Len(), columns: make(map[Column][]float64)}
	open := make([]float64, s.Len())
	high := make([]float64, s.Len())
	low := make([]float64, s.Len())
	vol := make([]float64, s.Len())
	for i, b := range s.Bars {
		open[i], high[i], low[i], vol[i] = b.Open, b.High, b.Low, b.Volume
	}
	f.put(ColOpen, open)
	f.put(ColHigh, high)
	f.put(ColLow, low)
	f.put(ColClose, s.Closes())
	f.put(ColVolume, vol)
	return f
}

// NewFrameFromColumns builds a frame from raw columns of equal length.
func NewFrameFromColumns(cols map[Column][]float64) (*Frame, error) {
	f := &Frame{n: -1, columns: make(map[Column][]float64)}
	for _, name := range sortedColumns(cols) {
		v := cols[name]
		if f.n == -1 {
			f.n = len(v)
		}
		if len(v) != f.n {
			return nil, fmt.Errorf("%w: %s has %d values, want %d", ErrLengthMismatch, name, len(v), f.n)
		}
		f.put(name, append([]float64(nil), v...))
	}
	if f.n == -1 {
		f.n = 0
	}
	return f, nil
}

func (f *Frame) Len() int { return f.n }

// Set attaches a column. Replacing an existing column is allowed so that a
// pass can be recomputed with different parameters.
func (f *Frame) Set(name Column, values []float64) error {
	if len(values) != f.n {
		return fmt.Errorf("%w: %s has %d values, want %d", ErrLengthMismatch, name, len(values), f.n)
	}
	f.put(name, values)
	return nil
}

func (f *Frame) put(name Column, values []float64) {
	if _, ok := f.columns[name]; !ok {
		f.order = append(f.order, name)
	}
	f.columns[name] = values
}

// Column returns the named column and whether it is present.
func (f *Frame) Column(name Column) ([]float64, bool) {
	v, ok := f.columns[name]
	return v, ok
}

// Has reports whether every named column is present.
func (f *Frame) Has(names ...Column) bool {
	for _, n := range names {
		if _, ok := f.columns[n]; !ok {
			return false
		}
	}
	return true
}

// Columns lists present columns in insertion order.
func (f *Frame) Columns() []Column {
	return append([]Column(nil), f.order...)
}

// Value returns column[i], or NaN when the column is absent.
func (f *Frame) Value(name Column, i int) float64 {
	v, ok := f.columns[name]
	if !ok || i < 0 || i >= len(v) {
		return math.NaN()
	}
	return v[i]
}

// SetPatterns attaches per-bar pattern flags.
func (f *Frame) SetPatterns(flags []PatternFlags) error {
	if len(flags) != f.n {
		return fmt.Errorf("%w: patterns has %d values, want %d", ErrLengthMismatch, len(flags), f.n)
	}
	f.patterns = flags
	return nil
}

// Patterns returns the pattern flags if they were detected.
func (f *Frame) Patterns() ([]PatternFlags, bool) {
	return f.patterns, f.patterns != nil
}

func sortedColumns(cols map[Column][]float64) []Column {
	names := make([]Column, 0, len(cols))
	for n := range cols {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// PatternFlags marks the candlestick shapes a bar forms.
type PatternFlags struct {
	Doji             bool `json:"doji"`
	Hammer           bool `json:"hammer"`
	BullishEngulfing bool `json:"bullish_engulfing"`
	BearishEngulfing bool `json:"bearish_engulfing"`
}

// Any reports whether at least one pattern is set.
func (p PatternFlags) Any() bool {
	return p.Doji || p.Hammer || p.BullishEngulfing || p.BearishEngulfing
}

// Names lists the set patterns for display.
func (p PatternFlags) Names() []string {
	var out []string
	if p.Doji {
		out = append(out, "Doji")
	}
	if p.Hammer {
		out = append(out, "Hammer")
	}
	if p.BullishEngulfing {
		out = append(out, "Bullish Engulfing")
	}
	if p.BearishEngulfing {
		out = append(out, "Bearish Engulfing")
	}
	return out
}
