// Package service ties fetching, the session dataset, snapshots and analysis
// together for the HTTP API and the scheduler.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"MarketLens/internal/analysis"
	"MarketLens/internal/collector"
	"MarketLens/internal/model"
	"MarketLens/internal/recorder"
	"MarketLens/internal/session"
)

// ErrNoDataset is returned when analysis is requested before any fetch.
var ErrNoDataset = errors.New("no data loaded, fetch first")

// Service owns the current dataset.
type Service struct {
	Collector *collector.Collector
	Store     *session.Store
	Recorder  recorder.Recorder
	Analyzer  *analysis.Analyzer
	// Defaults are the analysis options used when a caller passes none.
	Defaults analysis.Options
	// Location is applied to restored bar timestamps; nil keeps local time.
	Location *time.Location
}

// New creates a Service. A nil recorder is replaced by a no-op one.
func New(col *collector.Collector, rec recorder.Recorder, an *analysis.Analyzer, defaults analysis.Options) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{
		Collector: col,
		Store:     session.NewStore(),
		Recorder:  rec,
		Analyzer:  an,
		Defaults:  defaults,
	}
}

// Fetch downloads bars and makes them the current dataset. On failure the
// previous dataset stays in place.
func (s *Service) Fetch(ctx context.Context, symbol, period, interval string) (*session.Dataset, error) {
	series, err := s.Collector.Collect(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}
	d := &session.Dataset{
		Symbol:    series.Symbol,
		Period:    period,
		Interval:  interval,
		Series:    series,
		FetchedAt: series.FetchedAt,
	}
	s.Store.Replace(d)
	log.Printf("[INFO] loaded %d bars of %s (%s, %s)", series.Len(), symbol, period, interval)

	if err := s.Recorder.RecordSnapshot(&recorder.Snapshot{
		Symbol:     d.Symbol,
		Period:     period,
		Interval:   interval,
		RecordedAt: d.FetchedAt,
		Bars:       series.Bars,
	}); err != nil {
		log.Printf("[ERROR] record snapshot: %v", err)
	}
	return d, nil
}

// Restore loads the most recent recorded snapshot as the current dataset.
func (s *Service) Restore() (*session.Dataset, error) {
	snap, err := s.Recorder.LatestSnapshot()
	if err != nil {
		return nil, err
	}
	if s.Location != nil {
		for i := range snap.Bars {
			snap.Bars[i].Time = snap.Bars[i].Time.In(s.Location)
		}
	}
	series, err := model.NewSeries(snap.Symbol, snap.Interval, snap.Bars)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	series.FetchedAt = snap.RecordedAt
	d := &session.Dataset{
		Symbol:    snap.Symbol,
		Period:    snap.Period,
		Interval:  snap.Interval,
		Series:    series,
		FetchedAt: snap.RecordedAt,
	}
	s.Store.Replace(d)
	return d, nil
}

// Current returns the current dataset.
func (s *Service) Current() (*session.Dataset, error) {
	d, ok := s.Store.Current()
	if !ok {
		return nil, ErrNoDataset
	}
	return d, nil
}

// Analyze runs one pass over the current dataset with opts.
func (s *Service) Analyze(opts analysis.Options) (*analysis.Report, error) {
	d, err := s.Current()
	if err != nil {
		return nil, err
	}
	return s.Analyzer.Analyze(d.Series, opts), nil
}
