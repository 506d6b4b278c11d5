package charts

import (
	"math"
	"strconv"

	"github.com/KaramelBytes/aqireport/internal/analysis"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// diverging scale endpoints, blue for -1 through light gray to red for +1.
var (
	coolEnd = drawing.ColorFromHex("3b4cc0")
	coolMid = drawing.ColorFromHex("dddddd")
	warmEnd = drawing.ColorFromHex("b40426")
)

func coolwarm(v float64) drawing.Color {
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		return lerp(coolMid, coolEnd, -v)
	}
	return lerp(coolMid, warmEnd, v)
}

// Correlation renders the matrix as an annotated heatmap on a fixed -1..1
// scale. Undefined cells are drawn in neutral gray without a label.
func (r *Renderer) Correlation(m analysis.CorrMatrix) (Artifact, error) {
	n := len(m.Columns)
	if n == 0 {
		return Artifact{}, &RenderError{Chart: Correlation, Reason: "correlation matrix is empty"}
	}
	if len(m.Values) != n {
		return Artifact{}, &RenderError{Chart: Correlation, Reason: "correlation matrix is not square"}
	}
	for _, row := range m.Values {
		if len(row) != n {
			return Artifact{}, &RenderError{Chart: Correlation, Reason: "correlation matrix is not square"}
		}
	}

	c, err := newCanvas(Correlation, r.size(Correlation))
	if err != nil {
		return Artifact{}, err
	}
	c.title("Correlation Heatmap of Pollutants")

	top, left := 56, 70
	avail := min(c.w-left-110, c.h-top-50)
	cell := avail / n
	if cell < 4 {
		return Artifact{}, &RenderError{Chart: Correlation, Reason: "canvas too small for " + strconv.Itoa(n) + " columns"}
	}
	fontSize := math.Min(11, float64(cell)/4)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x0, y0 := left+j*cell, top+i*cell
			v := m.Values[i][j]
			if math.IsNaN(v) {
				c.rect(x0, y0, x0+cell, y0+cell, colorEmpty)
				continue
			}
			fill := coolwarm(v)
			c.rect(x0, y0, x0+cell, y0+cell, fill)
			fg := colorAxis
			if math.Abs(v) > 0.6 {
				fg = drawing.ColorWhite
			}
			c.text(strconv.FormatFloat(v, 'f', 2, 64), x0+cell/2, y0+cell/2+int(fontSize/2), fontSize, fg, alignCenter)
		}
	}
	for i, p := range m.Columns {
		c.text(p.Label(), left-6, top+i*cell+cell/2+4, 10, colorAxis, alignRight)
		c.text(p.Label(), left+i*cell+cell/2, top+n*cell+16, 10, colorAxis, alignCenter)
	}

	// color bar
	bx, bw := left+n*cell+30, 18
	steps := n * cell
	for s := 0; s < steps; s++ {
		v := 1 - 2*float64(s)/float64(steps)
		c.rect(bx, top+s, bx+bw, top+s+1, coolwarm(v))
	}
	for _, t := range []float64{1, 0.5, 0, -0.5, -1} {
		yy := top + int(math.Round((1-t)/2*float64(steps)))
		c.line(bx+bw, yy, bx+bw+4, yy, colorAxis, 1)
		c.text(strconv.FormatFloat(t, 'f', 1, 64), bx+bw+8, yy+4, 9, colorAxis, alignLeft)
	}
	return c.encode()
}
