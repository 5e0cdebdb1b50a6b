package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"MarketLens/internal/analysis"
	"MarketLens/internal/collector"
	"MarketLens/internal/config"
	"MarketLens/internal/metrics"
	"MarketLens/internal/notifier"
	"MarketLens/internal/recorder"
	"MarketLens/internal/scheduler"
	"MarketLens/internal/server"
	"MarketLens/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MarketLens starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	m := metrics.NewMetrics()

	// Init fetcher and collector
	var fetcher collector.Fetcher
	if os.Getenv("MOCK_DATA") == "true" {
		fetcher = &collector.MockFetcher{Price: 22000, Count: 75}
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy, cfg.Location())
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, m)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	opts := cfg.AnalysisOptions()
	svc := service.New(col, rec, analysis.NewAnalyzer(m), opts)
	svc.Location = cfg.Location()
	if d, err := svc.Restore(); err == nil {
		log.Printf("[INFO] restored %d bars of %s (%s) from snapshot", d.Series.Len(), d.Symbol, d.Interval)
	} else if !errors.Is(err, recorder.ErrNoSnapshot) {
		log.Printf("[WARN] restore snapshot: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var push notifier.Notifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		push = tn
	} else {
		log.Println("[INFO] telegram not configured, push disabled")
	}

	// Init scheduler
	target := scheduler.Target{
		Ticker:   cfg.DataSource.Ticker,
		Period:   cfg.DataSource.Period,
		Interval: cfg.DataSource.Interval,
	}
	sched := scheduler.NewScheduler(ctx, svc, push, target)
	sched.Observer = m
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing refresh now")
		go sched.RunRefreshNow()
	}

	// HTTP API
	gin.SetMode(gin.ReleaseMode)
	h := server.NewHandler(svc, opts, server.FetchRequest{
		Ticker:   target.Ticker,
		Period:   target.Period,
		Interval: target.Interval,
	})
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.Serve(ctx, cfg.Server.Addr, server.NewRouter(h, m.Handler()))
	}()

	log.Println("[INFO] MarketLens is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	case err := <-srvErr:
		log.Printf("[ERROR] http server: %v", err)
	}

	cancel()
	log.Println("[INFO] MarketLens stopped")
}
