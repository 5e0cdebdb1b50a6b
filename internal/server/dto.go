package server

import (
	"math"
	"time"

	"MarketLens/internal/model"
	"MarketLens/internal/strategy"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FetchRequest selects the data to load. Empty fields use the configured target.
type FetchRequest struct {
	Ticker   string `json:"ticker"`
	Period   string `json:"period"`
	Interval string `json:"interval"`
}

// DatasetResponse describes the current dataset.
type DatasetResponse struct {
	Symbol    string    `json:"symbol"`
	Period    string    `json:"period"`
	Interval  string    `json:"interval"`
	Bars      int       `json:"bars"`
	First     time.Time `json:"first"`
	Last      time.Time `json:"last"`
	FetchedAt time.Time `json:"fetched_at"`
}

// BarResponse is one OHLCV row.
type BarResponse struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// SignalColumn is a signal column split into parallel action/reason arrays.
type SignalColumn struct {
	Actions []int    `json:"actions"`
	Reasons []string `json:"reasons"`
}

// SummaryResponse is the last-bar view.
type SummaryResponse struct {
	Symbol        string                 `json:"symbol"`
	Interval      string                 `json:"interval"`
	Time          time.Time              `json:"time"`
	Close         float64                `json:"close"`
	Action        string                 `json:"action"`
	Reason        string                 `json:"reason"`
	Active        []strategy.NamedSignal `json:"active"`
	Patterns      []string               `json:"patterns"`
	RangeHigh     float64                `json:"range_high"`
	RangeLow      float64                `json:"range_low"`
	RangePosition float64                `json:"range_position"`
}

// AnalysisResponse carries every column aligned to Bars. Undefined indicator
// values are null.
type AnalysisResponse struct {
	Symbol     string                  `json:"symbol"`
	Interval   string                  `json:"interval"`
	Bars       []BarResponse           `json:"bars"`
	Indicators map[string][]*float64   `json:"indicators"`
	Patterns   []model.PatternFlags    `json:"patterns,omitempty"`
	Signals    map[string]SignalColumn `json:"signals,omitempty"`
	Composite  *SignalColumn           `json:"composite,omitempty"`
	Summary    *SummaryResponse        `json:"summary,omitempty"`
	Warnings   []string                `json:"warnings"`
	ElapsedMS  float64                 `json:"elapsed_ms"`
}

func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = &values[i]
	}
	return out
}

func toSignalColumn(sigs []model.Signal) SignalColumn {
	col := SignalColumn{Actions: make([]int, len(sigs)), Reasons: make([]string, len(sigs))}
	for i, s := range sigs {
		col.Actions[i] = int(s.Action)
		col.Reasons[i] = s.Reason
	}
	return col
}

func toSummary(s *strategy.Summary) *SummaryResponse {
	if s == nil {
		return nil
	}
	active := s.Active
	if active == nil {
		active = []strategy.NamedSignal{}
	}
	patterns := s.Patterns
	if patterns == nil {
		patterns = []string{}
	}
	return &SummaryResponse{
		Symbol:        s.Symbol,
		Interval:      s.Interval,
		Time:          s.Time,
		Close:         s.Close,
		Action:        s.Signal.Action.String(),
		Reason:        s.Signal.Reason,
		Active:        active,
		Patterns:      patterns,
		RangeHigh:     s.RangeHigh,
		RangeLow:      s.RangeLow,
		RangePosition: s.RangePosition,
	}
}
