package recorder

import (
	"errors"
	"time"

	"MarketLens/internal/model"
)

// ErrNoSnapshot is returned when no bars were recorded for a symbol/interval.
var ErrNoSnapshot = errors.New("no snapshot recorded")

// Snapshot is the last set of bars fetched for one symbol and interval.
type Snapshot struct {
	Symbol     string
	Period     string
	Interval   string
	RecordedAt time.Time
	Bars       []model.OHLCV
}

// Recorder persists fetched bars so the current dataset survives a restart.
type Recorder interface {
	// RecordSnapshot replaces the stored bars for snap.Symbol/snap.Interval.
	RecordSnapshot(snap *Snapshot) error
	// LatestSnapshot returns the most recently recorded snapshot of any symbol.
	LatestSnapshot() (*Snapshot, error)
	Close() error
}
