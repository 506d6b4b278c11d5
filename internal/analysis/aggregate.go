// Package analysis computes the aggregated views of a cleaned measurement table.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/KaramelBytes/aqireport/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// MonthlyPollutants are averaged per month, in column order.
var MonthlyPollutants = []dataset.Pollutant{dataset.PM25, dataset.PM10, dataset.NO2, dataset.SO2, dataset.CO}

// CorrelationPollutants are the rows and columns of the correlation matrix, in order.
var CorrelationPollutants = []dataset.Pollutant{
	dataset.CO, dataset.NO, dataset.NO2, dataset.O3,
	dataset.SO2, dataset.PM25, dataset.PM10, dataset.NH3,
}

// DailyPoint is the mean PM2.5 and PM10 of one calendar day.
type DailyPoint struct {
	Day   time.Time
	Count int
	PM25  float64
	PM10  float64
}

// DailyView holds daily means ordered by day ascending.
type DailyView struct {
	Points []DailyPoint
}

// MonthlyRow holds the means of MonthlyView.Pollutants for one month number.
type MonthlyRow struct {
	Month int // 1-12
	Count int
	Means []float64
}

// MonthlyView holds monthly means ordered by month ascending. Months of
// different years share one bucket.
type MonthlyView struct {
	Pollutants []dataset.Pollutant
	Rows       []MonthlyRow
}

// Mean returns the mean of p for the given row, or NaN if p is not in the view.
func (v MonthlyView) Mean(row int, p dataset.Pollutant) float64 {
	for i, q := range v.Pollutants {
		if q == p && row < len(v.Rows) && i < len(v.Rows[row].Means) {
			return v.Rows[row].Means[i]
		}
	}
	return math.NaN()
}

// CorrMatrix holds a symmetric Pearson correlation matrix.
type CorrMatrix struct {
	Columns []dataset.Pollutant
	Values  [][]float64 // row-major, Values[i][j]
}

// At returns the correlation between a and b, or NaN if either is absent.
func (c CorrMatrix) At(a, b dataset.Pollutant) float64 {
	i, j := c.index(a), c.index(b)
	if i < 0 || j < 0 {
		return math.NaN()
	}
	return c.Values[i][j]
}

func (c CorrMatrix) index(p dataset.Pollutant) int {
	for i, q := range c.Columns {
		if q == p {
			return i
		}
	}
	return -1
}

// HourlyPoint is the mean PM2.5 of one hour of the day.
type HourlyPoint struct {
	Hour  int // 0-23
	Count int
	PM25  float64
}

// HourlyView holds hourly means ordered by hour ascending.
type HourlyView struct {
	Points []HourlyPoint
}

// DailyAverages groups rows by calendar day and averages PM2.5 and PM10.
func DailyAverages(t *dataset.Table) (DailyView, error) {
	if err := requireRows(t); err != nil {
		return DailyView{}, err
	}
	cols := []dataset.Pollutant{dataset.PM25, dataset.PM10}
	type dayKey struct {
		y int
		m time.Month
		d int
	}
	groups := map[dayKey]*groupAcc{}
	days := map[dayKey]time.Time{}
	for _, m := range t.Rows {
		k := dayKey{m.Day.Year(), m.Day.Month(), m.Day.Day()}
		if _, ok := days[k]; !ok {
			days[k] = m.Day
		}
		accumulate(groups, k, m, cols)
	}
	keys := make([]dayKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.y != b.y {
			return a.y < b.y
		}
		if a.m != b.m {
			return a.m < b.m
		}
		return a.d < b.d
	})
	v := DailyView{Points: make([]DailyPoint, 0, len(keys))}
	for _, k := range keys {
		g := groups[k]
		means := g.means()
		v.Points = append(v.Points, DailyPoint{Day: days[k], Count: g.size, PM25: means[0], PM10: means[1]})
	}
	return v, nil
}

// MonthlyAverages groups rows by month number and averages MonthlyPollutants.
func MonthlyAverages(t *dataset.Table) (MonthlyView, error) {
	if err := requireRows(t); err != nil {
		return MonthlyView{}, err
	}
	groups := map[int]*groupAcc{}
	for _, m := range t.Rows {
		accumulate(groups, m.Month, m, MonthlyPollutants)
	}
	v := MonthlyView{Pollutants: append([]dataset.Pollutant(nil), MonthlyPollutants...)}
	for _, month := range sortedInts(groups) {
		g := groups[month]
		v.Rows = append(v.Rows, MonthlyRow{Month: month, Count: g.size, Means: g.means()})
	}
	return v, nil
}

// HourlyAverages groups rows by hour of day and averages PM2.5.
func HourlyAverages(t *dataset.Table) (HourlyView, error) {
	if err := requireRows(t); err != nil {
		return HourlyView{}, err
	}
	cols := []dataset.Pollutant{dataset.PM25}
	groups := map[int]*groupAcc{}
	for _, m := range t.Rows {
		accumulate(groups, m.Hour, m, cols)
	}
	var v HourlyView
	for _, hour := range sortedInts(groups) {
		g := groups[hour]
		v.Points = append(v.Points, HourlyPoint{Hour: hour, Count: g.size, PM25: g.means()[0]})
	}
	return v, nil
}

// CorrelationMatrix computes Pearson coefficients between every pair of
// CorrelationPollutants over pairwise-complete observations. A pollutant with
// zero variance yields NaN across its row and column, diagonal included.
func CorrelationMatrix(t *dataset.Table) (CorrMatrix, error) {
	if err := requireRows(t); err != nil {
		return CorrMatrix{}, err
	}
	cols := CorrelationPollutants
	n := len(cols)
	data := make([][]float64, n)
	for i, p := range cols {
		data[i] = t.Column(p)
	}
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		mat[a][a] = selfCorrelation(data[a])
		for b := 0; b < a; b++ {
			r := pearson(data[a], data[b])
			mat[a][b] = r
			mat[b][a] = r
		}
	}
	return CorrMatrix{Columns: append([]dataset.Pollutant(nil), cols...), Values: mat}, nil
}

func requireRows(t *dataset.Table) error {
	if t.Len() == 0 {
		e := &dataset.EmptyDatasetError{}
		if t != nil {
			e.Source, e.RawRows, e.Dropped = t.Source, t.RawRows, t.Dropped
		}
		return e
	}
	return nil
}

// groupAcc collects non-missing values per column for one group key.
type groupAcc struct {
	size int
	vals [][]float64
}

func accumulate[K comparable](groups map[K]*groupAcc, key K, m dataset.Measurement, cols []dataset.Pollutant) {
	g := groups[key]
	if g == nil {
		g = &groupAcc{vals: make([][]float64, len(cols))}
		groups[key] = g
	}
	g.size++
	for i, p := range cols {
		if v := m.Value(p); !math.IsNaN(v) {
			g.vals[i] = append(g.vals[i], v)
		}
	}
}

func (g *groupAcc) means() []float64 {
	out := make([]float64, len(g.vals))
	for i, xs := range g.vals {
		if len(xs) == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Mean(xs, nil)
	}
	return out
}

func sortedInts(groups map[int]*groupAcc) []int {
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func pearson(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

func selfCorrelation(x []float64) float64 {
	xs := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			xs = append(xs, v)
		}
	}
	if len(xs) < 2 || constant(xs) {
		return math.NaN()
	}
	return 1
}

// constant reports whether every value equals the first.
func constant(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}
