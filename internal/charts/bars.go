package charts

import (
	"math"
	"strconv"
	"time"

	"github.com/KaramelBytes/aqireport/internal/analysis"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// palette cycles per pollutant in grouped bars.
var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
	drawing.ColorFromHex("e377c2"),
	drawing.ColorFromHex("7f7f7f"),
}

// MonthlyAverages renders one group of bars per month, one bar per pollutant.
// NaN means leave a gap in their group.
func (r *Renderer) MonthlyAverages(v analysis.MonthlyView) (Artifact, error) {
	if len(v.Rows) == 0 || len(v.Pollutants) == 0 {
		return Artifact{}, &RenderError{Chart: MonthlyAvg, Reason: "monthly view is empty"}
	}
	var all []float64
	for _, row := range v.Rows {
		if len(row.Means) != len(v.Pollutants) {
			return Artifact{}, &RenderError{Chart: MonthlyAvg, Reason: "month " + strconv.Itoa(row.Month) + " has mismatched columns"}
		}
		all = append(all, row.Means...)
	}
	_, hi, ok := valueRange(all)
	if !ok {
		return Artifact{}, &RenderError{Chart: MonthlyAvg, Reason: "monthly view has no values"}
	}
	if hi <= 0 {
		return Artifact{}, &RenderError{Chart: MonthlyAvg, Reason: "monthly view has no positive values"}
	}

	c, err := newCanvas(MonthlyAvg, r.size(MonthlyAvg))
	if err != nil {
		return Artifact{}, err
	}
	c.title("Monthly Average of Major Pollutants")

	left, right, top, bottom := 80, c.w-150, 56, c.h-60
	ticks := niceTicks(hi, 5)
	ymax := ticks[len(ticks)-1]
	if ymax < hi {
		ymax = hi
	}
	y := func(val float64) int {
		return bottom - int(math.Round(val/ymax*float64(bottom-top)))
	}
	for _, t := range ticks {
		yy := y(t)
		c.line(left, yy, right, yy, colorGrid, 1)
		c.text(tickLabel(t), left-6, yy+4, 9, colorAxis, alignRight)
	}
	c.line(left, top, left, bottom, colorAxis, 1)
	c.line(left, bottom, right, bottom, colorAxis, 1)

	group := float64(right-left) / float64(len(v.Rows))
	bar := group * 0.8 / float64(len(v.Pollutants))
	for gi, row := range v.Rows {
		x0 := float64(left) + group*float64(gi) + group*0.1
		for pi, val := range row.Means {
			if math.IsNaN(val) || math.IsInf(val, 0) {
				continue
			}
			bx := x0 + bar*float64(pi)
			by := y(math.Max(val, 0))
			c.rect(int(math.Round(bx)), by, int(math.Round(bx+bar)), y(0), palette[pi%len(palette)])
		}
		label := strconv.Itoa(row.Month)
		if row.Month >= 1 && row.Month <= 12 {
			label = time.Month(row.Month).String()[:3]
		}
		c.text(label, int(math.Round(x0+group*0.4)), bottom+16, 9, colorAxis, alignCenter)
	}
	c.text("Month", (left+right)/2, c.h-20, 11, colorAxis, alignCenter)
	c.vtext(concentrationUnit, 22, (top+bottom)/2, 11, colorAxis)

	// legend
	lx, ly := right+20, top+10
	for pi, p := range v.Pollutants {
		c.rect(lx, ly+pi*20, lx+14, ly+pi*20+12, palette[pi%len(palette)])
		c.text(p.Label(), lx+20, ly+pi*20+11, 10, colorAxis, alignLeft)
	}
	return c.encode()
}
