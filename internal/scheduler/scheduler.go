package scheduler

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
	"time"

	"MarketLens/internal/notifier"
	"MarketLens/internal/service"

	"github.com/robfig/cron/v3"
)

// Target is the dataset the scheduled refresh keeps current.
type Target struct {
	Ticker   string
	Period   string
	Interval string
}

// NotifyObserver is told about every push attempt.
type NotifyObserver interface {
	ObserveNotify(err error)
}

// Scheduler manages the cron refresh and chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Service  *service.Service
	Notifier notifier.Notifier // nil disables push
	Observer NotifyObserver
	Target   Target
	Ctx      context.Context

	mu           sync.Mutex
	lastNotified time.Time // bar time of the last pushed signal
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc *service.Service, n notifier.Notifier, target Target) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Service:  svc,
		Notifier: n,
		Target:   target,
		Ctx:      ctx,
	}
}

// RegisterAll registers the refresh task.
func (s *Scheduler) RegisterAll(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately (for RUN_ON_START).
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	log.Printf("[INFO] refreshing %s", s.Target.Ticker)
	if _, err := s.Service.Fetch(s.Ctx, s.Target.Ticker, s.Target.Period, s.Target.Interval); err != nil {
		log.Printf("[ERROR] refresh fetch: %v", err)
		return
	}
	report, err := s.Service.Analyze(s.Service.Defaults)
	if err != nil {
		log.Printf("[ERROR] refresh analyze: %v", err)
		return
	}
	sum := report.Summary
	if sum == nil || !sum.Signal.Fired() {
		return
	}

	// push once per bar
	s.mu.Lock()
	if !sum.Time.After(s.lastNotified) {
		s.mu.Unlock()
		return
	}
	s.lastNotified = sum.Time
	s.mu.Unlock()

	log.Printf("[INFO] %s signal on %s: %s", sum.Signal.Action, sum.Symbol, sum.Signal.Reason)
	s.trySend(notifier.FormatSummary(sum))
}

const helpText = "Commands:\n" +
	"• /signal - last-bar signal of the loaded data\n" +
	"• /fetch [TICKER] [PERIOD] [INTERVAL] - load data\n" +
	"• /patterns - recent candlestick patterns"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// strip a "@botname" suffix used in group chats
	name, _, _ := strings.Cut(fields[0], "@")

	switch strings.ToLower(name) {
	case "/signal":
		report, err := s.Service.Analyze(s.Service.Defaults)
		if err != nil {
			return "⚠️ " + html.EscapeString(err.Error())
		}
		if report.Summary == nil {
			return "⚠️ no bars loaded"
		}
		return notifier.FormatSummary(report.Summary)

	case "/fetch":
		t := s.Target
		args := fields[1:]
		if len(args) > 0 {
			t.Ticker = strings.ToUpper(args[0])
		}
		if len(args) > 1 {
			t.Period = args[1]
		}
		if len(args) > 2 {
			t.Interval = args[2]
		}
		d, err := s.Service.Fetch(s.Ctx, t.Ticker, t.Period, t.Interval)
		if err != nil {
			return "❌ fetch failed: " + html.EscapeString(err.Error())
		}
		return notifier.FormatFetched(d.Series, d.Period)

	case "/patterns":
		opts := s.Service.Defaults
		opts.Patterns = true
		report, err := s.Service.Analyze(opts)
		if err != nil {
			return "⚠️ " + html.EscapeString(err.Error())
		}
		flags, ok := report.Frame.Patterns()
		if !ok {
			return "⚠️ pattern detection failed"
		}
		return notifier.FormatPatterns(report.Series, flags, 10)

	default:
		return helpText
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	err := s.Notifier.SendWithRetry(s.Ctx, text, 3)
	if err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
	if s.Observer != nil {
		s.Observer.ObserveNotify(err)
	}
}
