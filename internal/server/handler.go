package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"MarketLens/internal/analysis"
	"MarketLens/internal/collector"
	"MarketLens/internal/model"
	"MarketLens/internal/service"
	"MarketLens/internal/session"
	"MarketLens/internal/strategy"

	"github.com/gin-gonic/gin"
)

// DataService is what the handlers need from the service layer.
type DataService interface {
	Fetch(ctx context.Context, symbol, period, interval string) (*session.Dataset, error)
	Current() (*session.Dataset, error)
	Analyze(opts analysis.Options) (*analysis.Report, error)
}

// Handler serves the analysis API.
type Handler struct {
	svc      DataService
	defaults analysis.Options
	target   FetchRequest
}

// NewHandler creates a Handler. defaults seed the analysis query parameters
// and target fills in missing fetch fields.
func NewHandler(svc DataService, defaults analysis.Options, target FetchRequest) *Handler {
	return &Handler{svc: svc, defaults: defaults, target: target}
}

// Health answers liveness checks.
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Fetch loads a new dataset.
//
// POST /api/fetch {"ticker":"RELIANCE.NS","period":"1d","interval":"5m"}
func (h *Handler) Fetch(c *gin.Context) {
	var req FetchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
	}
	if req.Ticker == "" {
		req.Ticker = h.target.Ticker
	}
	if req.Period == "" {
		req.Period = h.target.Period
	}
	if req.Interval == "" {
		req.Interval = h.target.Interval
	}

	d, err := h.svc.Fetch(c.Request.Context(), strings.ToUpper(strings.TrimSpace(req.Ticker)), req.Period, req.Interval)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, collector.ErrNoData) {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toDataset(d))
}

// Dataset describes the current dataset.
//
// GET /api/dataset
func (h *Handler) Dataset(c *gin.Context) {
	d, err := h.svc.Current()
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toDataset(d))
}

// Analysis runs indicators, patterns and signals over the current dataset.
//
// GET /api/analysis?ema=true&ema_period=50&rsi=true&macd=false&bb=true&patterns=true&style=crossover
func (h *Handler) Analysis(c *gin.Context) {
	opts, err := h.parseOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	r, err := h.svc.Analyze(opts)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toAnalysis(r))
}

// Summary returns the last-bar summary with the default options.
//
// GET /api/summary
func (h *Handler) Summary(c *gin.Context) {
	r, err := h.svc.Analyze(h.defaults)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	if r.Summary == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no bars loaded"})
		return
	}
	c.JSON(http.StatusOK, toSummary(r.Summary))
}

func statusFor(err error) int {
	if errors.Is(err, service.ErrNoDataset) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (h *Handler) parseOptions(c *gin.Context) (analysis.Options, error) {
	opts := h.defaults
	bools := []struct {
		key string
		dst *bool
	}{
		{"ema", &opts.EMA},
		{"rsi", &opts.RSI},
		{"macd", &opts.MACD},
		{"bb", &opts.BB},
		{"patterns", &opts.Patterns},
		{"signals", &opts.Signals},
	}
	for _, b := range bools {
		if v, ok := c.GetQuery(b.key); ok {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return opts, fmt.Errorf("%s: %q is not a boolean", b.key, v)
			}
			*b.dst = parsed
		}
	}

	ints := []struct {
		key      string
		dst      *int
		min, max int
	}{
		{"ema_period", &opts.EMAPeriod, 10, 200},
		{"rsi_period", &opts.RSIPeriod, 1, 500},
		{"bb_period", &opts.BBPeriod, 1, 500},
	}
	for _, p := range ints {
		if v, ok := c.GetQuery(p.key); ok {
			n, err := strconv.Atoi(v)
			if err != nil || n < p.min || n > p.max {
				return opts, fmt.Errorf("%s must be an integer within %d..%d", p.key, p.min, p.max)
			}
			*p.dst = n
		}
	}

	if v, ok := c.GetQuery("bb_std"); ok {
		k, err := strconv.ParseFloat(v, 64)
		if err != nil || k < 0 {
			return opts, fmt.Errorf("bb_std must be a non-negative number")
		}
		opts.BBStdDev = k
	}
	if v, ok := c.GetQuery("style"); ok {
		if _, err := strategy.RulesFor(strategy.Style(v), opts.Levels); err != nil {
			return opts, err
		}
		opts.Style = strategy.Style(strings.ToLower(v))
	}
	return opts, nil
}

func toDataset(d *session.Dataset) DatasetResponse {
	resp := DatasetResponse{
		Symbol:    d.Symbol,
		Period:    d.Period,
		Interval:  d.Interval,
		Bars:      d.Series.Len(),
		FetchedAt: d.FetchedAt,
	}
	if d.Series.Len() > 0 {
		resp.First = d.Series.At(0).Time
		resp.Last = d.Series.At(d.Series.Len() - 1).Time
	}
	return resp
}

var ohlcv = map[model.Column]bool{
	model.ColOpen: true, model.ColHigh: true, model.ColLow: true, model.ColClose: true, model.ColVolume: true,
}

func toAnalysis(r *analysis.Report) AnalysisResponse {
	resp := AnalysisResponse{
		Symbol:     r.Series.Symbol,
		Interval:   r.Series.Interval,
		Bars:       make([]BarResponse, 0, r.Series.Len()),
		Indicators: make(map[string][]*float64),
		Summary:    toSummary(r.Summary),
		Warnings:   r.Warnings,
		ElapsedMS:  float64(r.Elapsed.Microseconds()) / 1000,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	for _, b := range r.Series.Bars {
		resp.Bars = append(resp.Bars, BarResponse{
			Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		})
	}
	for _, col := range r.Frame.Columns() {
		if ohlcv[col] {
			continue
		}
		v, _ := r.Frame.Column(col)
		resp.Indicators[string(col)] = nullable(v)
	}
	if flags, ok := r.Frame.Patterns(); ok {
		resp.Patterns = flags
	}
	if d := r.Decision; d != nil {
		resp.Signals = make(map[string]SignalColumn, len(d.Order))
		for _, name := range d.Order {
			resp.Signals[name] = toSignalColumn(d.Columns[name])
		}
		comp := toSignalColumn(d.Composite)
		resp.Composite = &comp
	}
	return resp
}
