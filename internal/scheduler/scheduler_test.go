package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketLens/internal/analysis"
	"MarketLens/internal/collector"
	"MarketLens/internal/model"
	"MarketLens/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

type notifyCounter struct{ n int }

func (c *notifyCounter) ObserveNotify(error) { c.n++ }

// decliningBars ends deep in RSI oversold territory.
func decliningBars(n int) []model.OHLCV {
	t0 := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := 200 - float64(i)
		bars[i] = model.OHLCV{
			Time: t0.Add(time.Duration(i) * 5 * time.Minute),
			Open: c + 0.5, High: c + 1, Low: c - 1, Close: c, Volume: 100,
		}
	}
	return bars
}

func newTestScheduler(f collector.Fetcher, n *fakeNotifier) *Scheduler {
	svc := service.New(collector.NewCollector(f, nil), nil, analysis.NewAnalyzer(nil), analysis.DefaultOptions())
	s := NewScheduler(context.Background(), svc, n, Target{Ticker: "^NSEI", Period: "1d", Interval: "5m"})
	return s
}

func TestRefresh_PushesOncePerBar(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(&collector.MockFetcher{Bars: decliningBars(40)}, n)
	obs := &notifyCounter{}
	s.Observer = obs

	s.RunRefreshNow()
	s.RunRefreshNow()

	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "Signal: BUY")
	assert.Contains(t, n.sent[0], "RSI Oversold")
	assert.Equal(t, 1, obs.n)
}

func TestRefresh_NoNotifier(t *testing.T) {
	s := newTestScheduler(&collector.MockFetcher{Bars: decliningBars(40)}, nil)
	s.Notifier = nil
	assert.NotPanics(t, s.RunRefreshNow)
	_, err := s.Service.Current()
	assert.NoError(t, err)
}

func TestRegisterAll(t *testing.T) {
	s := newTestScheduler(&collector.MockFetcher{}, &fakeNotifier{})
	assert.NoError(t, s.RegisterAll("0 */5 9-15 * * 1-5"))
	assert.Error(t, s.RegisterAll("not a cron"))
}

func TestHandleCommand(t *testing.T) {
	s := newTestScheduler(&collector.MockFetcher{Price: 3500, Count: 50}, &fakeNotifier{})

	assert.Contains(t, s.HandleCommand("/signal"), "fetch first")

	reply := s.HandleCommand("/fetch tcs.ns 5d 15m")
	assert.Contains(t, reply, "Loaded 50 bars of TCS.NS (5d, 15m)")

	d, err := s.Service.Current()
	require.NoError(t, err)
	assert.Equal(t, "15m", d.Interval)

	assert.Contains(t, s.HandleCommand("/signal@marketlens_bot"), "Signal:")
	assert.Contains(t, s.HandleCommand("/patterns"), "Patterns</b> | TCS.NS")
	assert.Contains(t, s.HandleCommand("hello"), "/fetch")
	assert.Contains(t, s.HandleCommand(""), "/signal")
}

func TestHandleCommand_EscapesErrors(t *testing.T) {
	f := &collector.MockFetcher{Err: errors.New("yahoo: status 503, body: <html><b>down</b></html>")}
	s := newTestScheduler(f, &fakeNotifier{})

	reply := s.HandleCommand("/fetch X")
	assert.Contains(t, reply, "&lt;html&gt;&lt;b&gt;down")
	assert.NotContains(t, reply, "<html>")
}
