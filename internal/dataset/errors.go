package dataset

import "fmt"

// LoadError indicates the input table could not be read: missing or
// unreadable file, malformed content, or absent required columns.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// EmptyDatasetError indicates cleaning left no rows to aggregate.
type EmptyDatasetError struct {
	Source  string
	RawRows int
	Dropped int
}

func (e *EmptyDatasetError) Error() string {
	if e.RawRows == 0 {
		return fmt.Sprintf("empty dataset: %s has no data rows", e.Source)
	}
	return fmt.Sprintf("empty dataset: all %d rows of %s dropped for unparsable timestamps", e.Dropped, e.Source)
}
