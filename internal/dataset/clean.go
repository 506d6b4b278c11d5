package dataset

// Clean parses the timestamp column of f and returns the retained rows with
// derived calendar fields. Rows whose timestamp cannot be parsed are dropped
// and counted in Table.Dropped; this is not an error. If no row survives,
// the empty table is returned together with an *EmptyDatasetError.
func Clean(f *Frame) (*Table, error) {
	stamps := f.DF.Col(f.TimestampColumn).Records()
	cols := make(map[Pollutant][]float64, len(Pollutants))
	for _, p := range Pollutants {
		cols[p] = f.DF.Col(string(p)).Float()
	}

	t := &Table{Source: f.Source, RawRows: len(stamps)}
	t.Rows = make([]Measurement, 0, len(stamps))
	for i, raw := range stamps {
		at, ok := ParseTimestamp(raw)
		if !ok {
			t.Dropped++
			continue
		}
		m := At(at)
		for _, p := range Pollutants {
			m.Set(p, cols[p][i])
		}
		t.Rows = append(t.Rows, m)
	}
	if len(t.Rows) == 0 {
		return t, &EmptyDatasetError{Source: t.Source, RawRows: t.RawRows, Dropped: t.Dropped}
	}
	return t, nil
}
