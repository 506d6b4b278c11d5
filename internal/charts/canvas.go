package charts

import (
	"bytes"
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	colorGrid  = drawing.ColorFromHex("dddddd")
	colorAxis  = drawing.ColorFromHex("333333")
	colorEmpty = drawing.ColorFromHex("bdbdbd")
)

// canvas wraps a raster renderer for charts go-chart has no series type for.
type canvas struct {
	name Name
	r    chart.Renderer
	w, h int
}

func newCanvas(name Name, sz Size) (*canvas, error) {
	r, err := chart.PNG(sz.Width, sz.Height)
	if err != nil {
		return nil, &RenderError{Chart: name, Err: err}
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, &RenderError{Chart: name, Err: err}
	}
	r.SetFont(font)
	c := &canvas{name: name, r: r, w: sz.Width, h: sz.Height}
	c.rect(0, 0, sz.Width, sz.Height, drawing.ColorWhite)
	return c, nil
}

func (c *canvas) rect(x0, y0, x1, y1 int, fill drawing.Color) {
	c.r.SetFillColor(fill)
	c.r.SetStrokeColor(fill)
	c.r.SetStrokeWidth(0)
	c.r.MoveTo(x0, y0)
	c.r.LineTo(x1, y0)
	c.r.LineTo(x1, y1)
	c.r.LineTo(x0, y1)
	c.r.Close()
	c.r.Fill()
}

func (c *canvas) line(x0, y0, x1, y1 int, col drawing.Color, width float64) {
	c.r.SetStrokeColor(col)
	c.r.SetStrokeWidth(width)
	c.r.MoveTo(x0, y0)
	c.r.LineTo(x1, y1)
	c.r.Stroke()
}

type align int

const (
	alignLeft align = iota
	alignCenter
	alignRight
)

// text draws s with its baseline at y.
func (c *canvas) text(s string, x, y int, size float64, col drawing.Color, a align) {
	c.r.SetFontSize(size)
	c.r.SetFontColor(col)
	tb := c.r.MeasureText(s)
	switch a {
	case alignCenter:
		x -= tb.Width() / 2
	case alignRight:
		x -= tb.Width()
	}
	c.r.Text(s, x, y)
}

// vtext draws s rotated a quarter turn counter-clockwise, centered on y.
func (c *canvas) vtext(s string, x, y int, size float64, col drawing.Color) {
	c.r.SetFontSize(size)
	c.r.SetFontColor(col)
	tb := c.r.MeasureText(s)
	c.r.SetTextRotation(chart.DegreesToRadians(270))
	c.r.Text(s, x, y+tb.Width()/2)
	c.r.ClearTextRotation()
}

func (c *canvas) title(s string) {
	c.text(s, c.w/2, 32, 14, colorAxis, alignCenter)
}

func (c *canvas) encode() (Artifact, error) {
	var buf bytes.Buffer
	if err := c.r.Save(&buf); err != nil {
		return Artifact{}, &RenderError{Chart: c.name, Err: err}
	}
	return Artifact{Name: c.name, PNG: buf.Bytes(), Width: c.w, Height: c.h}, nil
}

// lerp blends a toward b by t in [0,1].
func lerp(a, b drawing.Color, t float64) drawing.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

// niceTicks returns round tick values from zero up to the first at or above hi.
func niceTicks(hi float64, n int) []float64 {
	if hi <= 0 || n < 1 {
		return []float64{0}
	}
	raw := hi / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if m*mag >= raw {
			step = m * mag
			break
		}
	}
	var out []float64
	for i := 0; ; i++ {
		v := float64(i) * step
		out = append(out, v)
		if v >= hi-step*1e-9 {
			return out
		}
	}
}

func tickLabel(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
