// Package session holds the dataset currently under analysis. A fetch
// replaces it wholesale; readers always see a complete snapshot.
package session

import (
	"sync/atomic"
	"time"

	"MarketLens/internal/model"
)

// Dataset is one fetched series plus the request that produced it.
type Dataset struct {
	Symbol    string
	Period    string
	Interval  string
	Series    *model.Series
	FetchedAt time.Time
}

// Store keeps the current Dataset.
type Store struct {
	current atomic.Pointer[Dataset]
}

func NewStore() *Store { return &Store{} }

// Replace swaps in a new dataset and returns the previous one (nil if none).
func (s *Store) Replace(d *Dataset) *Dataset {
	if d != nil && d.FetchedAt.IsZero() {
		d.FetchedAt = time.Now()
	}
	return s.current.Swap(d)
}

// Current returns the dataset, or ok=false if nothing has been fetched yet.
func (s *Store) Current() (*Dataset, bool) {
	d := s.current.Load()
	return d, d != nil
}
