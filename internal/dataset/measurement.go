// Package dataset loads air-quality measurement tables and cleans them into
// timestamped rows ready for aggregation.
package dataset

import (
	"math"
	"time"
)

// Pollutant names a concentration column of the input table.
type Pollutant string

const (
	PM25 Pollutant = "pm2_5"
	PM10 Pollutant = "pm10"
	CO   Pollutant = "co"
	NO   Pollutant = "no"
	NO2  Pollutant = "no2"
	O3   Pollutant = "o3"
	SO2  Pollutant = "so2"
	NH3  Pollutant = "nh3"
)

// Pollutants lists every concentration column the loader requires.
var Pollutants = []Pollutant{PM25, PM10, CO, NO, NO2, O3, SO2, NH3}

// Label returns the display name used in charts and summaries.
func (p Pollutant) Label() string {
	switch p {
	case PM25:
		return "PM2.5"
	case PM10:
		return "PM10"
	case CO:
		return "CO"
	case NO:
		return "NO"
	case NO2:
		return "NO2"
	case O3:
		return "O3"
	case SO2:
		return "SO2"
	case NH3:
		return "NH3"
	default:
		return string(p)
	}
}

// Measurement is one cleaned observation. The calendar fields are derived
// from Timestamp when the row is created and are not changed afterwards.
type Measurement struct {
	Timestamp time.Time

	PM25 float64
	PM10 float64
	CO   float64
	NO   float64
	NO2  float64
	O3   float64
	SO2  float64
	NH3  float64

	Year  int
	Month int // 1-12
	Hour  int // 0-23
	Day   time.Time
}

// At returns a measurement stamped at t with derived calendar fields and all
// concentrations unset (NaN).
func At(t time.Time) Measurement {
	nan := math.NaN()
	m := Measurement{
		Timestamp: t,
		PM25:      nan, PM10: nan, CO: nan, NO: nan,
		NO2: nan, O3: nan, SO2: nan, NH3: nan,
	}
	m.derive()
	return m
}

func (m *Measurement) derive() {
	t := m.Timestamp
	m.Year = t.Year()
	m.Month = int(t.Month())
	m.Hour = t.Hour()
	m.Day = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Value returns the concentration recorded for p, or NaN for an unknown pollutant.
func (m Measurement) Value(p Pollutant) float64 {
	switch p {
	case PM25:
		return m.PM25
	case PM10:
		return m.PM10
	case CO:
		return m.CO
	case NO:
		return m.NO
	case NO2:
		return m.NO2
	case O3:
		return m.O3
	case SO2:
		return m.SO2
	case NH3:
		return m.NH3
	default:
		return math.NaN()
	}
}

// Set stores a concentration for p. Unknown pollutants are ignored.
func (m *Measurement) Set(p Pollutant, v float64) {
	switch p {
	case PM25:
		m.PM25 = v
	case PM10:
		m.PM10 = v
	case CO:
		m.CO = v
	case NO:
		m.NO = v
	case NO2:
		m.NO2 = v
	case O3:
		m.O3 = v
	case SO2:
		m.SO2 = v
	case NH3:
		m.NH3 = v
	}
}

// Table is the cleaned row set. RawRows counts data rows read from the
// source; Dropped counts rows discarded for an unparsable timestamp.
type Table struct {
	Source  string
	RawRows int
	Dropped int
	Rows    []Measurement
}

// NewTable wraps already-cleaned rows.
func NewTable(source string, rows []Measurement) *Table {
	return &Table{Source: source, RawRows: len(rows), Rows: rows}
}

// Len returns the number of retained rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the values of p across all rows, in row order.
func (t *Table) Column(p Pollutant) []float64 {
	out := make([]float64, t.Len())
	for i, m := range t.Rows {
		out[i] = m.Value(p)
	}
	return out
}
