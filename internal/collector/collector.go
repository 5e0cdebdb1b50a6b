package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"MarketLens/internal/model"
)

// ErrNoData is returned when a fetch yields no usable bars.
var ErrNoData = errors.New("no data found")

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Count int
	Bars  []model.OHLCV
	Err   error
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _, _, interval string) ([]model.OHLCV, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return generateMockBars(m.Price, m.Count, intervalStep(interval)), nil
}

func generateMockBars(basePrice float64, count int, step time.Duration) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	start := time.Now().Truncate(step).Add(-time.Duration(count) * step)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.Add(time.Duration(i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// intervalStep maps a bar interval such as "5m" or "1d" to its duration,
// falling back to one minute.
func intervalStep(interval string) time.Duration {
	switch interval {
	case "1d":
		return 24 * time.Hour
	case "1wk":
		return 7 * 24 * time.Hour
	case "1h", "60m":
		return time.Hour
	}
	if d, err := time.ParseDuration(interval); err == nil && d > 0 {
		return d
	}
	return time.Minute
}

// FetchObserver is notified after every fetch attempt.
type FetchObserver interface {
	ObserveFetch(source string, bars int, err error)
}

// Collector fetches bars and turns them into a validated Series.
type Collector struct {
	Fetcher  Fetcher
	Observer FetchObserver
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, obs FetchObserver) *Collector {
	return &Collector{Fetcher: fetcher, Observer: obs}
}

// Collect fetches bars for symbol and returns them as a Series ordered by
// time. Duplicate timestamps keep the last bar seen; invalid bars are dropped.
func (c *Collector) Collect(ctx context.Context, symbol, period, interval string) (*model.Series, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, errors.New("collect: empty symbol")
	}

	raw, err := c.Fetcher.FetchBars(ctx, symbol, period, interval)
	if err != nil {
		c.observe(0, err)
		return nil, fmt.Errorf("fetch %s bars for %s: %w", interval, symbol, err)
	}

	bars := clean(raw)
	if len(bars) == 0 {
		err := fmt.Errorf("%w for %s (period=%s, interval=%s); check the ticker, NSE symbols need a .NS suffix",
			ErrNoData, symbol, period, interval)
		c.observe(0, err)
		return nil, err
	}
	if dropped := len(raw) - len(bars); dropped > 0 {
		log.Printf("[WARN] %s: dropped %d of %d bars (invalid or duplicate)", symbol, dropped, len(raw))
	}

	s, err := model.NewSeries(symbol, interval, bars)
	if err != nil {
		c.observe(0, err)
		return nil, err
	}
	c.observe(len(bars), nil)
	return s, nil
}

func (c *Collector) observe(n int, err error) {
	if c.Observer != nil {
		c.Observer.ObserveFetch(c.Fetcher.Name(), n, err)
	}
}

func clean(raw []model.OHLCV) []model.OHLCV {
	bars := make([]model.OHLCV, 0, len(raw))
	for _, b := range raw {
		if b.Validate() == nil {
			bars = append(bars, b)
		}
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
