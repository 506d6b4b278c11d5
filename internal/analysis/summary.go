package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/aqireport/internal/dataset"
)

// Summary bundles the four views computed from one cleaned table.
type Summary struct {
	Source   string
	RawRows  int
	Dropped  int
	Retained int

	Daily   DailyView
	Monthly MonthlyView
	Corr    CorrMatrix
	Hourly  HourlyView
}

// Summarize computes every view of t.
func Summarize(t *dataset.Table) (*Summary, error) {
	daily, err := DailyAverages(t)
	if err != nil {
		return nil, err
	}
	monthly, err := MonthlyAverages(t)
	if err != nil {
		return nil, err
	}
	corr, err := CorrelationMatrix(t)
	if err != nil {
		return nil, err
	}
	hourly, err := HourlyAverages(t)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Source:   t.Source,
		RawRows:  t.RawRows,
		Dropped:  t.Dropped,
		Retained: t.Len(),
		Daily:    daily,
		Monthly:  monthly,
		Corr:     corr,
		Hourly:   hourly,
	}, nil
}

// PairCorr is a single off-diagonal correlation.
type PairCorr struct {
	A, B dataset.Pollutant
	R    float64
}

// TopPairs returns up to n distinct pairs ordered by |r| descending. NaN pairs are skipped.
func (c CorrMatrix) TopPairs(n int) []PairCorr {
	var pairs []PairCorr
	for i := range c.Columns {
		for j := i + 1; j < len(c.Columns); j++ {
			r := c.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: c.Columns[i], B: c.Columns[j], R: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return string(pairs[i].A+pairs[i].B) < string(pairs[j].A+pairs[j].B)
		}
		return ai > aj
	})
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// Markdown renders a compact text report of all views.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Source))
	}
	b.WriteString(fmt.Sprintf("Rows: %d (retained %d, dropped %d)\n", s.RawRows, s.Retained, s.Dropped))
	if n := len(s.Daily.Points); n > 0 {
		b.WriteString(fmt.Sprintf("Days: %d (%s to %s)\n", n,
			s.Daily.Points[0].Day.Format("2006-01-02"), s.Daily.Points[n-1].Day.Format("2006-01-02")))
	}

	b.WriteString("\n[DAILY AVERAGES]\n")
	pts := s.Daily.Points
	const maxDays = 14
	if len(pts) > maxDays {
		b.WriteString(fmt.Sprintf("(last %d of %d days)\n", maxDays, len(pts)))
		pts = pts[len(pts)-maxDays:]
	}
	for _, p := range pts {
		b.WriteString(fmt.Sprintf("- %s (n=%d): pm2_5 %s, pm10 %s\n", p.Day.Format("2006-01-02"), p.Count, num(p.PM25), num(p.PM10)))
	}

	b.WriteString("\n[MONTHLY AVERAGES]\n")
	for _, r := range s.Monthly.Rows {
		b.WriteString(fmt.Sprintf("- month %02d (n=%d):", r.Month, r.Count))
		for i, p := range s.Monthly.Pollutants {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(fmt.Sprintf(" %s %s", p, num(r.Means[i])))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n[HOURLY PM2.5]\n")
	for _, p := range s.Hourly.Points {
		b.WriteString(fmt.Sprintf("- %02d:00 (n=%d): %s\n", p.Hour, p.Count, num(p.PM25)))
	}
	if worst, ok := s.Hourly.Peak(); ok {
		b.WriteString(fmt.Sprintf("Peak hour: %02d:00 (%s)\n", worst.Hour, num(worst.PM25)))
	}

	b.WriteString("\n[CORRELATIONS]\n")
	for _, p := range s.Corr.TopPairs(10) {
		b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
	}
	var undefined []string
	for i, p := range s.Corr.Columns {
		if math.IsNaN(s.Corr.Values[i][i]) {
			undefined = append(undefined, string(p))
		}
	}

	var notes []string
	if s.Dropped > 0 {
		notes = append(notes, fmt.Sprintf("dropped %d/%d rows with unparsable timestamps", s.Dropped, s.RawRows))
	}
	if len(undefined) > 0 {
		notes = append(notes, fmt.Sprintf("correlation undefined (constant column): %s", strings.Join(undefined, ", ")))
	}
	if len(notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range notes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Peak returns the hour with the highest mean PM2.5.
func (v HourlyView) Peak() (HourlyPoint, bool) {
	var best HourlyPoint
	found := false
	for _, p := range v.Points {
		if math.IsNaN(p.PM25) {
			continue
		}
		if !found || p.PM25 > best.PM25 {
			best = p
			found = true
		}
	}
	return best, found
}

// Series returns the mean PM2.5 values in hour order, NaN hours omitted.
func (v HourlyView) Series() []float64 {
	out := make([]float64, 0, len(v.Points))
	for _, p := range v.Points {
		if !math.IsNaN(p.PM25) {
			out = append(out, p.PM25)
		}
	}
	return out
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", v)
}
