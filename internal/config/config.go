package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"MarketLens/internal/analysis"
	"MarketLens/internal/strategy"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Ticker   string `yaml:"ticker"`
		Period   string `yaml:"period"`
		Interval string `yaml:"interval"`
		Timezone string `yaml:"timezone"`
	} `yaml:"data_source"`
	Indicators struct {
		EMA        *bool    `yaml:"ema"`
		EMAPeriod  int      `yaml:"ema_period"`
		RSI        *bool    `yaml:"rsi"`
		RSIPeriod  int      `yaml:"rsi_period"`
		MACD       *bool    `yaml:"macd"`
		MACDFast   int      `yaml:"macd_fast"`
		MACDSlow   int      `yaml:"macd_slow"`
		MACDSignal int      `yaml:"macd_signal"`
		BB         *bool    `yaml:"bb"`
		BBPeriod   int      `yaml:"bb_period"`
		BBStdDev   *float64 `yaml:"bb_std_dev"`
		Patterns   *bool    `yaml:"patterns"`
	} `yaml:"indicators"`
	Signals struct {
		Style      string   `yaml:"style"`
		Oversold   *float64 `yaml:"oversold"`
		Overbought *float64 `yaml:"overbought"`
	} `yaml:"signals"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("TICKER"); v != "" {
		cfg.DataSource.Ticker = v
	}
	if v := os.Getenv("PERIOD"); v != "" {
		cfg.DataSource.Period = v
	}
	if v := os.Getenv("INTERVAL"); v != "" {
		cfg.DataSource.Interval = v
	}
	if v := os.Getenv("MARKET_TZ"); v != "" {
		cfg.DataSource.Timezone = v
	}
	if v := os.Getenv("SIGNAL_STYLE"); v != "" {
		cfg.Signals.Style = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("EMA_PERIOD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indicators.EMAPeriod = n
		}
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := analysis.DefaultOptions()

	if cfg.DataSource.Ticker == "" {
		cfg.DataSource.Ticker = "^NSEI"
	}
	if cfg.DataSource.Period == "" {
		cfg.DataSource.Period = "1d"
	}
	if cfg.DataSource.Interval == "" {
		cfg.DataSource.Interval = "5m"
	}
	if cfg.DataSource.Timezone == "" {
		cfg.DataSource.Timezone = "Asia/Kolkata"
	}
	ind := &cfg.Indicators
	if ind.EMAPeriod == 0 {
		ind.EMAPeriod = def.EMAPeriod
	}
	if ind.RSIPeriod == 0 {
		ind.RSIPeriod = def.RSIPeriod
	}
	if ind.MACDFast == 0 {
		ind.MACDFast = def.MACDFast
	}
	if ind.MACDSlow == 0 {
		ind.MACDSlow = def.MACDSlow
	}
	if ind.MACDSignal == 0 {
		ind.MACDSignal = def.MACDSignal
	}
	if ind.BBPeriod == 0 {
		ind.BBPeriod = def.BBPeriod
	}
	if ind.BBStdDev == nil {
		ind.BBStdDev = &def.BBStdDev
	}
	if cfg.Signals.Style == "" {
		cfg.Signals.Style = string(def.Style)
	}
	if cfg.Signals.Oversold == nil {
		cfg.Signals.Oversold = &def.Levels.Oversold
	}
	if cfg.Signals.Overbought == nil {
		cfg.Signals.Overbought = &def.Levels.Overbought
	}
	if cfg.Schedule.RefreshCron == "" {
		// every 5 minutes during NSE hours, Mon-Fri
		cfg.Schedule.RefreshCron = "0 */5 9-15 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/marketlens.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.DataSource.Ticker == "" {
		return fmt.Errorf("data_source.ticker is required")
	}
	if _, err := time.LoadLocation(c.DataSource.Timezone); err != nil {
		return fmt.Errorf("data_source.timezone: %w", err)
	}
	if c.Indicators.EMAPeriod < 10 || c.Indicators.EMAPeriod > 200 {
		return fmt.Errorf("indicators.ema_period must be within 10..200, got %d", c.Indicators.EMAPeriod)
	}
	if c.Indicators.MACDFast >= c.Indicators.MACDSlow {
		return fmt.Errorf("indicators.macd_fast must be below macd_slow")
	}
	if *c.Indicators.BBStdDev < 0 {
		return fmt.Errorf("indicators.bb_std_dev must not be negative")
	}
	if *c.Signals.Oversold >= *c.Signals.Overbought {
		return fmt.Errorf("signals.oversold must be below signals.overbought")
	}
	if _, err := strategy.RulesFor(strategy.Style(c.Signals.Style), c.Levels()); err != nil {
		return fmt.Errorf("signals.style: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether push notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Location returns the market timezone, UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DataSource.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Levels() strategy.Levels {
	return strategy.Levels{Oversold: *c.Signals.Oversold, Overbought: *c.Signals.Overbought}
}

// AnalysisOptions maps the indicators and signals sections onto analysis options.
// Unset toggles default to enabled.
func (c *Config) AnalysisOptions() analysis.Options {
	on := func(b *bool) bool { return b == nil || *b }
	ind := c.Indicators
	return analysis.Options{
		EMA:        on(ind.EMA),
		EMAPeriod:  ind.EMAPeriod,
		RSI:        on(ind.RSI),
		RSIPeriod:  ind.RSIPeriod,
		MACD:       on(ind.MACD),
		MACDFast:   ind.MACDFast,
		MACDSlow:   ind.MACDSlow,
		MACDSignal: ind.MACDSignal,
		BB:         on(ind.BB),
		BBPeriod:   ind.BBPeriod,
		BBStdDev:   *ind.BBStdDev,
		Patterns:   on(ind.Patterns),
		Signals:    true,
		Style:      strategy.Style(c.Signals.Style),
		Levels:     c.Levels(),
	}
}
