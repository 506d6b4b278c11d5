// Package pipeline runs load, clean, aggregate, render and compose in order.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/aqireport/internal/analysis"
	"github.com/KaramelBytes/aqireport/internal/charts"
	"github.com/KaramelBytes/aqireport/internal/dataset"
	"github.com/KaramelBytes/aqireport/internal/logger"
	"github.com/KaramelBytes/aqireport/internal/narrative"
	"github.com/KaramelBytes/aqireport/internal/observability"
	"github.com/KaramelBytes/aqireport/internal/report"
	"github.com/KaramelBytes/aqireport/internal/runlog"
	"github.com/KaramelBytes/aqireport/internal/utils"
	"github.com/jonboulle/clockwork"
)

// Stage names, used in logs and metric labels.
const (
	StageLoad      = "load"
	StageClean     = "clean"
	StageAggregate = "aggregate"
	StageRender    = "render"
	StageCompose   = "compose"
)

// DefaultOutput is the report path used when none is configured.
const DefaultOutput = "Delhi_AQI_Analysis_Report.pdf"

// Config describes one report run.
type Config struct {
	InputPath  string
	OutputPath string
	Load       dataset.LoadOptions
	Narrative  *narrative.Narrative
	Author     string
	// ChartsDir, when set, also receives each chart as <name>.png.
	ChartsDir string
	// RunsDir, when set, receives a JSON manifest of the run.
	RunsDir string
}

// Result summarizes a finished run.
type Result struct {
	RunID    string
	Output   string
	Summary  *analysis.Summary
	Charts   []charts.Name
	Pages    int
	Manifest string
}

// Pipeline wires the stages to their logger, metrics and clock.
type Pipeline struct {
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	renderer *charts.Renderer
}

// New creates a Pipeline. A nil logger discards output, a nil clock uses real
// time, nil metrics start a fresh registry and a nil renderer uses default
// chart sizes.
func New(log *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, renderer *charts.Renderer) *Pipeline {
	if log == nil {
		log = logger.Discard()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if renderer == nil {
		renderer = charts.NewRenderer(charts.DefaultOptions())
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	return &Pipeline{logger: log, metrics: metrics, clock: clock, renderer: renderer}
}

// Metrics returns the run metrics.
func (p *Pipeline) Metrics() *observability.Metrics { return p.metrics }

// timed runs fn as stage, recording its duration.
func (p *Pipeline) timed(stage string, fn func() error) error {
	start := p.clock.Now()
	p.logger.Debug("stage started", "stage", stage)
	err := fn()
	d := p.clock.Since(start)
	p.metrics.ObserveStage(stage, d)
	if err != nil {
		p.logger.Error("stage failed", "stage", stage, "duration", d, "error", err)
		return err
	}
	p.logger.Debug("stage finished", "stage", stage, "duration", d)
	return nil
}

// Analyze loads, cleans and aggregates the input without rendering.
func (p *Pipeline) Analyze(cfg Config) (*analysis.Summary, error) {
	var (
		frame   *dataset.Frame
		table   *dataset.Table
		summary *analysis.Summary
	)
	if err := p.timed(StageLoad, func() (err error) {
		frame, err = dataset.Load(cfg.InputPath, cfg.Load)
		return err
	}); err != nil {
		return nil, err
	}
	p.metrics.RowsRead.Set(float64(frame.Rows()))

	if err := p.timed(StageClean, func() (err error) {
		table, err = dataset.Clean(frame)
		return err
	}); err != nil {
		if table != nil {
			p.recordRows(table)
		}
		return nil, err
	}
	p.recordRows(table)

	if err := p.timed(StageAggregate, func() (err error) {
		summary, err = analysis.Summarize(table)
		return err
	}); err != nil {
		return nil, err
	}
	return summary, nil
}

func (p *Pipeline) recordRows(t *dataset.Table) {
	p.metrics.RowsDropped.Set(float64(t.Dropped))
	p.metrics.RowsRetained.Set(float64(t.Len()))
	attrs := []any{"source", t.Source, "raw", t.RawRows, "dropped", t.Dropped, "retained", t.Len()}
	if t.Dropped > 0 {
		p.logger.Warn("dropped rows with unparsable timestamps", attrs...)
		return
	}
	p.logger.Info("cleaned dataset", attrs...)
}

// Run executes the full pipeline and writes the PDF report.
func (p *Pipeline) Run(cfg Config) (res *Result, err error) {
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutput
	}
	if cfg.Narrative == nil {
		cfg.Narrative = narrative.Default()
	}
	started := p.clock.Now()
	run := runlog.New(cfg.RunsDir, cfg.InputPath, cfg.OutputPath, started)
	res = &Result{RunID: run.ID, Output: cfg.OutputPath}
	log := p.logger.With("run_id", run.ID)
	log.Info("report started", "input", cfg.InputPath, "output", cfg.OutputPath)

	defer func() {
		if cfg.RunsDir == "" {
			return
		}
		run.Finish(p.clock.Now(), err)
		var empty *dataset.EmptyDatasetError
		switch {
		case res != nil && res.Summary != nil:
			run.RawRows, run.Dropped, run.Retained = res.Summary.RawRows, res.Summary.Dropped, res.Summary.Retained
		case errors.As(err, &empty):
			run.RawRows, run.Dropped = empty.RawRows, empty.Dropped
		}
		if res != nil {
			for _, n := range res.Charts {
				run.Charts = append(run.Charts, string(n))
			}
			run.Pages = res.Pages
		}
		if saveErr := run.Save(); saveErr != nil {
			log.Warn("could not save run manifest", "error", saveErr)
			return
		}
		if res != nil {
			res.Manifest = run.Path()
		}
	}()

	summary, err := p.Analyze(cfg)
	if err != nil {
		return res, err
	}
	res.Summary = summary

	var arts []charts.Artifact
	if err := p.timed(StageRender, func() (err error) {
		arts, err = p.renderer.RenderAll(summary)
		return err
	}); err != nil {
		return res, err
	}
	p.metrics.ChartsRendered.Set(float64(len(arts)))
	if cfg.ChartsDir != "" {
		if err := dumpCharts(cfg.ChartsDir, arts); err != nil {
			return res, err
		}
		log.Info("wrote chart images", "dir", cfg.ChartsDir, "count", len(arts))
	}

	var pages int
	if err := p.timed(StageCompose, func() error {
		var err error
		pages, err = compose(cfg, run.ID, started, arts)
		return err
	}); err != nil {
		return res, err
	}
	for _, a := range arts {
		res.Charts = append(res.Charts, a.Name)
	}
	res.Pages = pages
	p.metrics.ReportPages.Set(float64(pages))
	p.metrics.MarkSuccess(p.clock.Now())
	log.Info("report written", "output", cfg.OutputPath, "pages", pages, "duration", p.clock.Since(started))
	return res, nil
}

func compose(cfg Config, runID string, at time.Time, arts []charts.Artifact) (int, error) {
	n := cfg.Narrative
	opts := report.DefaultOptions()
	if cfg.Author != "" {
		opts.Author = cfg.Author
	}
	opts.Subject = "aqireport run " + runID
	opts.CreatedAt = at
	opts.QuestionsHeading = n.QuestionsHeading
	opts.ConclusionHeading = n.ConclusionHeading

	c := report.NewComposer(opts)
	if err := c.AddTitlePage(n.Title, n.Intro); err != nil {
		return 0, err
	}
	if err := c.AddResearchQuestions(n.Questions); err != nil {
		return 0, err
	}
	for _, a := range arts {
		if err := c.AddChartPage(n.ChartTitle(a.Name), a); err != nil {
			return 0, err
		}
	}
	if err := c.AddConclusionPage(n.Conclusion); err != nil {
		return 0, err
	}
	pages := c.PageCount()
	if err := c.Finalize(cfg.OutputPath); err != nil {
		return 0, err
	}
	return pages, nil
}

func dumpCharts(dir string, arts []charts.Artifact) error {
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("charts dir: %w", err)
	}
	for _, a := range arts {
		if err := utils.SafeWriteFile(filepath.Join(dir, string(a.Name)+".png"), a.PNG); err != nil {
			return fmt.Errorf("write chart %s: %w", a.Name, err)
		}
	}
	return nil
}
