package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/tokenstorm/tokenstorm/internal/metrics"
)

// RunInfo holds run parameters for the header pane.
type RunInfo struct {
	Target    string
	Model     string
	TargetRps float64
	Duration  time.Duration
	Arrival   string
}

// Dashboard renders a live terminal UI over the collector while the run
// is in flight. The final report still comes from the frozen result set.
type Dashboard struct {
	collector    *metrics.LiveCollector
	info         RunInfo
	shutdownFunc func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex

	grid        *ui.Grid
	summaryPara *widgets.Paragraph
	rpsGauge    *widgets.Gauge
	latencyPara *widgets.Paragraph
	tokensPara  *widgets.Paragraph
	sparkGroup  *widgets.SparklineGroup
	p50History  []float64
}

// New initializes the terminal UI. shutdownFunc is invoked when the user
// presses q or Ctrl-C; it should stop issuance, not exit the process.
func New(collector *metrics.LiveCollector, info RunInfo, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		collector:    collector,
		info:         info,
		shutdownFunc: shutdownFunc,
		ctx:          ctx,
		cancel:       cancel,
		p50History:   make([]float64, 0, 100),
	}
	d.initWidgets()
	d.setupGrid()
	return d, nil
}

func (d *Dashboard) initWidgets() {
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.rpsGauge = widgets.NewGauge()
	d.rpsGauge.Title = "Requests Per Second"
	d.rpsGauge.Percent = 0
	d.rpsGauge.BarColor = ui.ColorBlue
	d.rpsGauge.BorderStyle.Fg = ui.ColorCyan
	d.rpsGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Latency"
	d.latencyPara.Text = "P50: 0ms\nP90: 0ms\nP99: 0ms\nMax: 0ms"
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	d.tokensPara = widgets.NewParagraph()
	d.tokensPara.Title = "Throughput"
	d.tokensPara.Text = "Waiting for data..."
	d.tokensPara.BorderStyle.Fg = ui.ColorCyan

	sparkline := widgets.NewSparkline()
	sparkline.Title = "P50 (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.sparkGroup = widgets.NewSparklineGroup(sparkline)
	d.sparkGroup.Title = "Latency Trend"
	d.sparkGroup.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)
	d.grid.Set(
		ui.NewRow(0.2,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.25,
			ui.NewCol(0.5, d.rpsGauge),
			ui.NewCol(0.5, d.tokensPara),
		),
		ui.NewRow(0.55,
			ui.NewCol(0.65, d.sparkGroup),
			ui.NewCol(0.35, d.latencyPara),
		),
	)
}

// Start begins the update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop tears the UI down and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give the terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			for len(uiEvents) > 0 {
				<-uiEvents
			}
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
				// Stop() cancels the context once the run winds down.
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := d.collector.Snapshot()

	if stats.P50Ms > 0 {
		d.p50History = append(d.p50History, stats.P50Ms)
		if len(d.p50History) > 100 {
			d.p50History = d.p50History[1:]
		}
		d.sparkGroup.Sparklines[0].Data = d.p50History
		d.sparkGroup.Title = fmt.Sprintf("Latency Trend | P50 %.0fms | Max %.0fms", stats.P50Ms, stats.MaxMs)
	}

	d.rpsGauge.Percent = rpsPercent(stats.Rps, d.info.TargetRps)
	d.rpsGauge.Label = fmt.Sprintf("%.1f / %.1f RPS", stats.Rps, d.info.TargetRps)

	successRate := 0.0
	if stats.Total > 0 {
		successRate = 100 * float64(stats.Successes) / float64(stats.Total)
	}

	remaining := d.info.Duration - stats.Elapsed
	if remaining < 0 {
		remaining = 0
	}
	d.summaryPara.Text = fmt.Sprintf(
		"Target: %s | Model: %s | Arrival: %s\nElapsed: %s | Remaining: %s\nCompleted: %d | Success Rate: %.1f%%",
		d.info.Target,
		d.info.Model,
		d.info.Arrival,
		stats.Elapsed.Round(time.Second),
		remaining.Round(time.Second),
		stats.Total,
		successRate,
	)

	d.tokensPara.Text = fmt.Sprintf(
		"Completed:       %d\nSuccessful:      %d\nFailed:          %d\nOutput tokens/s: %.1f",
		stats.Total,
		stats.Successes,
		stats.Failures,
		stats.TokensPerSec,
	)

	d.latencyPara.Text = fmt.Sprintf(
		"P50: %.0fms\nP90: %.0fms\nP99: %.0fms\nMax: %.0fms",
		stats.P50Ms,
		stats.P90Ms,
		stats.P99Ms,
		stats.MaxMs,
	)
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

// rpsPercent scales the gauge against the configured target rate, topping
// out at 100 even when the observed rate overshoots.
func rpsPercent(actual, target float64) int {
	if target <= 0 {
		target = 100
	}
	percent := int(100 * actual / target)
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	return percent
}
