package charts

import (
	"math"
	"strconv"
	"time"

	"github.com/KaramelBytes/aqireport/internal/analysis"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	colorPM25 = drawing.ColorFromHex("1f77b4")
	colorPM10 = drawing.ColorFromHex("ff7f0e")
)

func lineStyle(c drawing.Color) chart.Style {
	return chart.Style{StrokeColor: c, StrokeWidth: 2}
}

// PMTrend renders the daily PM2.5 and PM10 means as two lines over time.
func (r *Renderer) PMTrend(v analysis.DailyView) (Artifact, error) {
	if len(v.Points) == 0 {
		return Artifact{}, &RenderError{Chart: PMTrend, Reason: "daily view has no points"}
	}
	var series []chart.Series
	var all [][]float64
	add := func(name string, pick func(analysis.DailyPoint) float64, c drawing.Color) {
		var xs []time.Time
		var ys []float64
		for _, p := range v.Points {
			y := pick(p)
			if math.IsNaN(y) {
				continue
			}
			xs = append(xs, p.Day)
			ys = append(ys, y)
		}
		if len(xs) == 0 {
			return
		}
		if len(xs) == 1 {
			// a single day still needs an x-range to draw
			xs = []time.Time{xs[0], xs[0].Add(24 * time.Hour)}
			ys = []float64{ys[0], ys[0]}
		}
		series = append(series, chart.TimeSeries{Name: name, XValues: xs, YValues: ys, Style: lineStyle(c)})
		all = append(all, ys)
	}
	add("PM2.5", func(p analysis.DailyPoint) float64 { return p.PM25 }, colorPM25)
	add("PM10", func(p analysis.DailyPoint) float64 { return p.PM10 }, colorPM10)
	if len(series) == 0 {
		return Artifact{}, &RenderError{Chart: PMTrend, Reason: "daily view has no PM2.5 or PM10 values"}
	}
	lo, hi, _ := valueRange(all...)
	sz := r.size(PMTrend)
	ch := chart.Chart{
		Title:      "Daily Average of PM2.5 and PM10",
		Width:      sz.Width,
		Height:     sz.Height,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Date", ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02")},
		YAxis:      chart.YAxis{Name: concentrationUnit, Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return encode(PMTrend, &ch)
}

// HourlyPM25 renders mean PM2.5 by hour of day as a single line.
func (r *Renderer) HourlyPM25(v analysis.HourlyView) (Artifact, error) {
	if len(v.Points) == 0 {
		return Artifact{}, &RenderError{Chart: HourlyPM25, Reason: "hourly view has no points"}
	}
	var xs, ys []float64
	var ticks []chart.Tick
	for _, p := range v.Points {
		if p.Hour < 0 || p.Hour > 23 {
			return Artifact{}, &RenderError{Chart: HourlyPM25, Reason: "hour out of range: " + strconv.Itoa(p.Hour)}
		}
		ticks = append(ticks, chart.Tick{Value: float64(p.Hour), Label: strconv.Itoa(p.Hour)})
		if math.IsNaN(p.PM25) {
			continue
		}
		xs = append(xs, float64(p.Hour))
		ys = append(ys, p.PM25)
	}
	if len(xs) == 0 {
		return Artifact{}, &RenderError{Chart: HourlyPM25, Reason: "hourly view has no PM2.5 values"}
	}
	if len(xs) == 1 {
		xs = []float64{xs[0] - 0.5, xs[0] + 0.5}
		ys = []float64{ys[0], ys[0]}
	}
	lo, hi, _ := valueRange(ys)
	xr := &chart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]}
	if v.Points[0].Hour < int(xr.Min) {
		xr.Min = float64(v.Points[0].Hour)
	}
	if last := v.Points[len(v.Points)-1].Hour; last > int(xr.Max) {
		xr.Max = float64(last)
	}
	sz := r.size(HourlyPM25)
	ch := chart.Chart{
		Title:      "Average PM2.5 by Hour of Day",
		Width:      sz.Width,
		Height:     sz.Height,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Hour", Range: xr, Ticks: ticks},
		YAxis:      chart.YAxis{Name: "PM2.5 (µg/m³)", Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "PM2.5", XValues: xs, YValues: ys, Style: lineStyle(colorPM25)},
		},
	}
	return encode(HourlyPM25, &ch)
}
