package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/wordstress/internal/metrics"
)

const (
	refreshInterval = 500 * time.Millisecond
	historySize     = 100
	maxErrorRows    = 10
)

// Source provides running totals. *metrics.Aggregator satisfies it.
type Source interface {
	Live() metrics.LiveSnapshot
}

// TestConfig holds stress test parameters for display.
type TestConfig struct {
	TargetURL    string        // Full target URL
	Mode         string        // steady-state or burst
	Clients      int           // steady-state clients
	Interval     time.Duration // steady-state pacing
	Duration     time.Duration // steady-state run length
	BurstClients int           // burst size
	Timeout      time.Duration // Request timeout
	Method       string        // HTTP method
	ConfigFile   string        // Path to config file if used
}

// Dashboard renders a live terminal UI for stress test metrics.
type Dashboard struct {
	source       Source
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid           *ui.Grid
	latencySparkle *widgets.SparklineGroup
	latencyPara    *widgets.Paragraph
	rpsGauge       *widgets.Gauge
	statusList     *widgets.List
	errorList      *widgets.List
	summaryPara    *widgets.Paragraph
	metricsPara    *widgets.Paragraph
	latencyHistory []float64
	testConfig     TestConfig
}

// New creates a new Dashboard. shutdownFunc runs when the user presses q or
// Ctrl+C.
func New(source Source, cfg TestConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	d := newDashboard(source, cfg, shutdownFunc)
	d.setupGrid()
	return d, nil
}

func newDashboard(source Source, cfg TestConfig, shutdownFunc func()) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		source:         source,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		latencyHistory: make([]float64, 0, historySize),
		testConfig:     cfg,
	}
	d.initWidgets()
	return d
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	sparkline := widgets.NewSparkline()
	sparkline.Title = "P50 (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.latencySparkle = widgets.NewSparklineGroup(sparkline)
	d.latencySparkle.Title = "Real-time Latency"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Latency Stats"
	d.latencyPara.Text = "P50: 0ms\nP90: 0ms\nP99: 0ms"
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	d.rpsGauge = widgets.NewGauge()
	d.rpsGauge.Title = "Progress"
	d.rpsGauge.Percent = 0
	d.rpsGauge.BarColor = ui.ColorBlue
	d.rpsGauge.BorderStyle.Fg = ui.ColorCyan
	d.rpsGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.statusList = widgets.NewList()
	d.statusList.Title = "Status Codes"
	d.statusList.Rows = []string{"Awaiting data"}
	d.statusList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.statusList.BorderStyle.Fg = ui.ColorCyan

	d.errorList = widgets.NewList()
	d.errorList.Title = "Errors"
	d.errorList.Rows = []string{"[No errors](fg:green)"}
	d.errorList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.errorList.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Test Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.metricsPara = widgets.NewParagraph()
	d.metricsPara.Title = "Metrics"
	d.metricsPara.Text = "Waiting for data..."
	d.metricsPara.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.22,
			ui.NewCol(0.5, d.rpsGauge),
			ui.NewCol(0.5, d.metricsPara),
		),
		ui.NewRow(0.30,
			ui.NewCol(0.65, d.latencySparkle),
			ui.NewCol(0.35, d.latencyPara),
		),
		ui.NewRow(0.32,
			ui.NewCol(0.35, d.statusList),
			ui.NewCol(0.65, d.errorList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Stop() ends the loop once the run has wound down.
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.mu.Lock()
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				d.mu.Unlock()
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update(d.source.Live())
			d.render()
		}
	}
}

// update refreshes all widget data from a snapshot.
func (d *Dashboard) update(snap metrics.LiveSnapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p50 := durationMs(snap.P50)
	if snap.Total > snap.Failures {
		d.latencyHistory = append(d.latencyHistory, p50)
		if len(d.latencyHistory) > historySize {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		d.latencySparkle.Title = fmt.Sprintf("Real-time Latency | P50: %.2fms | P99: %.2fms", p50, durationMs(snap.P99))
	}

	d.rpsGauge.Percent = d.progressPercent(snap)
	d.rpsGauge.Label = fmt.Sprintf("%d%% | %.1f RPS", d.rpsGauge.Percent, snap.RequestsPerSec)

	successRate := 0.0
	if snap.Total > 0 {
		successRate = float64(snap.Total-snap.Failures) / float64(snap.Total) * 100
	}

	d.summaryPara.Text = fmt.Sprintf(
		"Target: %s\n%s\nElapsed: %s | Total: %d | Success Rate: %.1f%%",
		d.testConfig.TargetURL,
		d.formatTestParams(),
		snap.Elapsed.Round(time.Second),
		snap.Total,
		successRate,
	)

	d.metricsPara.Text = fmt.Sprintf(
		"Total Requests:    %d\nSuccessful:        %d\nFailed:            %d\nCurrent RPS:       %.2f\nSuccess Rate:      %.1f%%\nData Received:     %d B",
		snap.Total,
		snap.Total-snap.Failures,
		snap.Failures,
		snap.RequestsPerSec,
		successRate,
		snap.Bytes,
	)

	d.latencyPara.Text = fmt.Sprintf(
		"P50:  %.2fms\nP90:  %.2fms\nP99:  %.2fms",
		p50,
		durationMs(snap.P90),
		durationMs(snap.P99),
	)

	d.statusList.Rows = formatStatusListRows(snap.StatusCodes)
	d.errorList.Rows = formatErrorListRows(snap.Errors, maxErrorRows)
}

// progressPercent is elapsed/duration for steady-state runs and
// completed/burst size for bursts.
func (d *Dashboard) progressPercent(snap metrics.LiveSnapshot) int {
	var pct float64
	switch {
	case d.testConfig.BurstClients > 0 && d.testConfig.Mode == "burst":
		pct = float64(snap.Total) / float64(d.testConfig.BurstClients) * 100
	case d.testConfig.Duration > 0:
		pct = float64(snap.Elapsed) / float64(d.testConfig.Duration) * 100
	}
	if pct > 100 {
		pct = 100
	}
	return int(pct)
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func formatStatusListRows(buckets map[string]int) []string {
	rows := metrics.FlattenStatusBuckets(buckets)
	formatted := make([]string, 0, len(rows))
	for _, row := range rows {
		color := "green"
		switch row.Bucket {
		case metrics.Bucket3xx:
			color = "yellow"
		case metrics.Bucket4xx, metrics.Bucket5xx, metrics.BucketOther:
			color = "red"
		}
		formatted = append(formatted, fmt.Sprintf("[%s](fg:%s) %d", row.Bucket, color, row.Count))
	}
	return formatted
}

func formatErrorListRows(errs map[string]int, limit int) []string {
	rows := metrics.SortedErrors(errs)
	if len(rows) == 0 {
		return []string{"[No errors](fg:green)"}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	formatted := make([]string, 0, len(rows))
	for _, row := range rows {
		formatted = append(formatted, fmt.Sprintf("[%d](fg:red) %s", row.Count, escapeMarkup(row.Message)))
	}
	return formatted
}

// escapeMarkup keeps literal brackets in error text from being parsed as
// termui style tags.
func escapeMarkup(s string) string {
	return strings.NewReplacer("[", "(", "]", ")").Replace(s)
}

// formatTestParams formats the test configuration parameters for display.
func (d *Dashboard) formatTestParams() string {
	var parts []string

	if d.testConfig.Mode != "" {
		parts = append(parts, fmt.Sprintf("Mode: %s", d.testConfig.Mode))
	}

	// Method (only show if non-default)
	if d.testConfig.Method != "" && d.testConfig.Method != "GET" {
		parts = append(parts, fmt.Sprintf("Method: %s", d.testConfig.Method))
	}

	if d.testConfig.Mode == "burst" {
		parts = append(parts, fmt.Sprintf("Burst: %d", d.testConfig.BurstClients))
	} else {
		if d.testConfig.Clients > 0 {
			parts = append(parts, fmt.Sprintf("Clients: %d", d.testConfig.Clients))
		}
		if d.testConfig.Interval > 0 {
			parts = append(parts, fmt.Sprintf("Interval: %s", d.testConfig.Interval))
		}
		if d.testConfig.Duration > 0 {
			parts = append(parts, fmt.Sprintf("Duration: %s", d.testConfig.Duration))
		}
	}

	if d.testConfig.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", d.testConfig.Timeout))
	}

	// Config file (only show if used)
	if d.testConfig.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", d.testConfig.ConfigFile))
	}

	return strings.Join(parts, " | ")
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
