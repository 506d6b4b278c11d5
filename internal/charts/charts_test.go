package charts

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/KaramelBytes/aqireport/internal/analysis"
	"github.com/KaramelBytes/aqireport/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summary(t *testing.T, hours int) *analysis.Summary {
	t.Helper()
	start := time.Date(2023, 11, 28, 0, 0, 0, 0, time.UTC)
	rows := make([]dataset.Measurement, 0, hours)
	for i := 0; i < hours; i++ {
		x := float64(i)
		m := dataset.At(start.Add(time.Duration(i) * time.Hour))
		m.Set(dataset.PM25, 120+3*x+float64(i%7))
		m.Set(dataset.PM10, 180+2*x-float64(i%5))
		m.Set(dataset.CO, 900+10*math.Sin(x))
		m.Set(dataset.NO, 5+float64(i%4))
		m.Set(dataset.NO2, 35+x/10)
		m.Set(dataset.O3, 60-x/5)
		m.Set(dataset.SO2, 12+math.Cos(x))
		m.Set(dataset.NH3, 8+float64(i%3))
		rows = append(rows, m)
	}
	s, err := analysis.Summarize(dataset.NewTable("test.csv", rows))
	require.NoError(t, err)
	return s
}

func decode(t *testing.T, a Artifact) (int, int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(a.PNG))
	require.NoError(t, err)
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestRenderAllProducesPNGsInOrder(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	arts, err := r.RenderAll(summary(t, 24*45))
	require.NoError(t, err)
	require.Len(t, arts, len(Order))
	for i, a := range arts {
		assert.Equal(t, Order[i], a.Name)
		assert.NotEmpty(t, a.PNG)
		w, h := decode(t, a)
		sz := DefaultOptions().Sizes[a.Name]
		assert.Equal(t, sz.Width, w, a.Name)
		assert.Equal(t, sz.Height, h, a.Name)
		assert.Equal(t, w, a.Width)
		assert.Equal(t, h, a.Height)
	}
}

func TestRendersAreIndependent(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	s := summary(t, 72)
	first, err := r.HourlyPM25(s.Hourly)
	require.NoError(t, err)
	_, err = r.Correlation(s.Corr)
	require.NoError(t, err)
	again, err := r.HourlyPM25(s.Hourly)
	require.NoError(t, err)
	assert.Equal(t, first.PNG, again.PNG)
}

func TestNewRendererFillsMissingSizes(t *testing.T) {
	r := NewRenderer(Options{Sizes: map[Name]Size{HourlyPM25: {400, 300}, PMTrend: {0, 10}}})
	assert.Equal(t, Size{400, 300}, r.size(HourlyPM25))
	assert.Equal(t, DefaultOptions().Sizes[PMTrend], r.size(PMTrend))
	assert.Equal(t, DefaultOptions().Sizes[Correlation], r.size(Correlation))

	a, err := r.HourlyPM25(summary(t, 24).Hourly)
	require.NoError(t, err)
	w, h := decode(t, a)
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)
}

func TestSingleDayTrend(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	s := summary(t, 5)
	require.Len(t, s.Daily.Points, 1)
	a, err := r.PMTrend(s.Daily)
	require.NoError(t, err)
	decode(t, a)
}

func TestCorrelationWithUndefinedColumn(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	s := summary(t, 48)
	n := len(s.Corr.Columns)
	for i := 0; i < n; i++ {
		s.Corr.Values[i][0] = math.NaN()
		s.Corr.Values[0][i] = math.NaN()
	}
	a, err := r.Correlation(s.Corr)
	require.NoError(t, err)
	decode(t, a)
}

func TestRenderErrors(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	nan := math.NaN()

	cases := []struct {
		name  string
		chart Name
		run   func() (Artifact, error)
	}{
		{"empty daily", PMTrend, func() (Artifact, error) { return r.PMTrend(analysis.DailyView{}) }},
		{"all nan daily", PMTrend, func() (Artifact, error) {
			return r.PMTrend(analysis.DailyView{Points: []analysis.DailyPoint{{Day: time.Now(), PM25: nan, PM10: nan}}})
		}},
		{"empty monthly", MonthlyAvg, func() (Artifact, error) { return r.MonthlyAverages(analysis.MonthlyView{}) }},
		{"ragged monthly", MonthlyAvg, func() (Artifact, error) {
			return r.MonthlyAverages(analysis.MonthlyView{
				Pollutants: analysis.MonthlyPollutants,
				Rows:       []analysis.MonthlyRow{{Month: 1, Means: []float64{1}}},
			})
		}},
		{"negative monthly", MonthlyAvg, func() (Artifact, error) {
			return r.MonthlyAverages(analysis.MonthlyView{
				Pollutants: analysis.MonthlyPollutants,
				Rows:       []analysis.MonthlyRow{{Month: 1, Means: []float64{-1, -2, -3, -4, -5}}},
			})
		}},
		{"empty matrix", Correlation, func() (Artifact, error) { return r.Correlation(analysis.CorrMatrix{}) }},
		{"non-square matrix", Correlation, func() (Artifact, error) {
			return r.Correlation(analysis.CorrMatrix{
				Columns: []dataset.Pollutant{dataset.CO, dataset.NO},
				Values:  [][]float64{{1, 0}},
			})
		}},
		{"empty hourly", HourlyPM25, func() (Artifact, error) { return r.HourlyPM25(analysis.HourlyView{}) }},
		{"bad hour", HourlyPM25, func() (Artifact, error) {
			return r.HourlyPM25(analysis.HourlyView{Points: []analysis.HourlyPoint{{Hour: 24, PM25: 1}}})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.run()
			var re *RenderError
			require.True(t, errors.As(err, &re), "got %v", err)
			assert.Equal(t, tc.chart, re.Chart)
		})
	}
}

func TestNiceTicks(t *testing.T) {
	assert.Equal(t, []float64{0, 20, 40, 60, 80, 100}, niceTicks(93, 5))
	assert.Equal(t, []float64{0}, niceTicks(0, 5))
}

func TestCoolwarmEnds(t *testing.T) {
	assert.Equal(t, coolEnd, coolwarm(-1))
	assert.Equal(t, warmEnd, coolwarm(1))
	assert.Equal(t, coolMid, coolwarm(0))
}
