// Package charts renders aggregated views into PNG chart images held in memory.
package charts

import (
	"bytes"
	"fmt"
	"math"

	"github.com/KaramelBytes/aqireport/internal/analysis"
	"github.com/wcharczuk/go-chart/v2"
)

// Name identifies a chart in the report.
type Name string

const (
	PMTrend     Name = "pm_trend"
	MonthlyAvg  Name = "monthly_avg"
	Correlation Name = "correlation"
	HourlyPM25  Name = "hourly_pm25"
)

// Order is the sequence in which charts appear in the report.
var Order = []Name{PMTrend, MonthlyAvg, Correlation, HourlyPM25}

// Artifact is an encoded chart image. The caller owns PNG.
type Artifact struct {
	Name   Name
	PNG    []byte
	Width  int
	Height int
}

// RenderError indicates a chart could not be built from its view.
type RenderError struct {
	Chart  Name
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render %s: %v", e.Chart, e.Err)
	}
	return fmt.Sprintf("render %s: %s", e.Chart, e.Reason)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Size is a chart's pixel dimensions.
type Size struct {
	Width, Height int
}

// Options sets the pixel size of each chart.
type Options struct {
	Sizes map[Name]Size
}

// DefaultOptions matches the figure sizes of the report layout at 100 dpi.
func DefaultOptions() Options {
	return Options{Sizes: map[Name]Size{
		PMTrend:     {1000, 500},
		MonthlyAvg:  {1000, 500},
		Correlation: {800, 600},
		HourlyPM25:  {800, 500},
	}}
}

// Renderer turns aggregated views into chart artifacts. It holds no drawing
// state between calls: every render builds and encodes its own canvas.
type Renderer struct {
	opts Options
}

// NewRenderer returns a Renderer; missing sizes fall back to DefaultOptions.
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Sizes == nil {
		opts.Sizes = map[Name]Size{}
	}
	for n, s := range def.Sizes {
		if got, ok := opts.Sizes[n]; !ok || got.Width <= 0 || got.Height <= 0 {
			opts.Sizes[n] = s
		}
	}
	return &Renderer{opts: opts}
}

func (r *Renderer) size(n Name) Size { return r.opts.Sizes[n] }

const concentrationUnit = "Concentration (µg/m³)"

// encode renders ch into a fresh buffer.
func encode(name Name, ch *chart.Chart) (Artifact, error) {
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return Artifact{}, &RenderError{Chart: name, Err: err}
	}
	return Artifact{Name: name, PNG: buf.Bytes(), Width: ch.Width, Height: ch.Height}, nil
}

// valueRange returns a y-axis range covering vals with headroom, starting at
// zero for non-negative data.
func valueRange(vals ...[]float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, vs := range vals {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0, false
	}
	if lo > 0 {
		lo = 0
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi + (hi-lo)*0.05, true
}

// RenderAll renders every chart of s in Order.
func (r *Renderer) RenderAll(s *analysis.Summary) ([]Artifact, error) {
	steps := []func() (Artifact, error){
		func() (Artifact, error) { return r.PMTrend(s.Daily) },
		func() (Artifact, error) { return r.MonthlyAverages(s.Monthly) },
		func() (Artifact, error) { return r.Correlation(s.Corr) },
		func() (Artifact, error) { return r.HourlyPM25(s.Hourly) },
	}
	out := make([]Artifact, 0, len(steps))
	for _, step := range steps {
		a, err := step()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
