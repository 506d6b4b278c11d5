// Package runlog persists a JSON manifest for every report run.
package runlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/aqireport/internal/utils"
	"github.com/google/uuid"
)

const manifestExt = ".json"

// Run records the inputs, outputs and counters of one pipeline run.
type Run struct {
	ID         string    `json:"id"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	RawRows    int       `json:"raw_rows"`
	Dropped    int       `json:"dropped"`
	Retained   int       `json:"retained"`
	Charts     []string  `json:"charts,omitempty"`
	Pages      int       `json:"pages"`
	Error      string    `json:"error,omitempty"`

	// Not serialized: directory the manifest lives in
	dir string
}

// New constructs an in-memory run with a fresh id. Call Save to persist.
func New(dir, input, output string, startedAt time.Time) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Input:     input,
		Output:    output,
		StartedAt: startedAt,
		dir:       dir,
	}
}

// Succeeded reports whether the run finished without error.
func (r *Run) Succeeded() bool { return r.Error == "" && !r.FinishedAt.IsZero() }

// Duration is the wall time of a finished run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Finish stamps the run with its end time and outcome.
func (r *Run) Finish(at time.Time, err error) {
	r.FinishedAt = at
	if err != nil {
		r.Error = err.Error()
	}
}

// Path returns the manifest location.
func (r *Run) Path() string { return filepath.Join(r.dir, r.ID+manifestExt) }

// Save writes the manifest using an atomic write.
func (r *Run) Save() error {
	if r.dir == "" {
		return errors.New("runs directory not set")
	}
	if err := utils.EnsureDir(r.dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	data, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(r.Path(), data)
}

// Load reads the manifest of run id from dir.
func Load(dir, id string) (*Run, error) {
	path := filepath.Join(dir, id+manifestExt)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("run not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read run: %w", err)
	}
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse run %s: %w", path, err)
	}
	r.dir = dir
	return &r, nil
}

// List returns every manifest in dir, newest first. A missing dir yields no runs.
func List(dir string) ([]*Run, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read runs dir: %w", err)
	}
	var runs []*Run
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, manifestExt) {
			continue
		}
		r, err := Load(dir, strings.TrimSuffix(name, manifestExt))
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}
