package report

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/aqireport/internal/charts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeChart(t *testing.T, name charts.Name) charts.Artifact {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: 90, B: uint8(y * 12), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return charts.Artifact{Name: name, PNG: buf.Bytes(), Width: 40, Height: 20}
}

func testOptions() Options {
	o := DefaultOptions()
	o.Subject = "run 1234"
	o.CreatedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return o
}

// compose runs every step up to, not including, Finalize.
func compose(t *testing.T) *Composer {
	t.Helper()
	c := NewComposer(testOptions())
	require.NoError(t, c.AddTitlePage("Air Quality", "Intro text with µg/m³."))
	require.NoError(t, c.AddResearchQuestions([]string{"One?", "Two?"}))
	for _, n := range charts.Order {
		require.NoError(t, c.AddChartPage("Chart "+string(n), fakeChart(t, n)))
	}
	require.NoError(t, c.AddConclusionPage("Done.\n\n- Recommendation"))
	return c
}

func TestFullDocumentHasSixPages(t *testing.T) {
	c := compose(t)
	assert.Equal(t, 6, c.PageCount())
	assert.Equal(t, StateConclusionAdded, c.State())

	path := filepath.Join(t.TempDir(), "out", "report.pdf")
	require.NoError(t, c.Finalize(path))
	assert.Equal(t, StateFinalized, c.State())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestOutputIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.pdf")
	require.NoError(t, compose(t).Finalize(a))
	require.NoError(t, compose(t).Finalize(b))
	ab, err := os.ReadFile(a)
	require.NoError(t, err)
	bb, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, ab, bb)
}

func requireInvalidState(t *testing.T, err error) *InvalidStateError {
	t.Helper()
	var ise *InvalidStateError
	require.True(t, errors.As(err, &ise), "got %v", err)
	return ise
}

func TestFifthChartIsRejected(t *testing.T) {
	c := NewComposer(testOptions())
	require.NoError(t, c.AddTitlePage("T", "I"))
	require.NoError(t, c.AddResearchQuestions(nil))
	for _, n := range charts.Order {
		require.NoError(t, c.AddChartPage("x", fakeChart(t, n)))
	}
	err := c.AddChartPage("extra", fakeChart(t, charts.PMTrend))
	requireInvalidState(t, err)
	assert.Equal(t, 5, c.PageCount())
}

func TestDoubleFinalizeIsRejected(t *testing.T) {
	c := compose(t)
	path := filepath.Join(t.TempDir(), "r.pdf")
	require.NoError(t, c.Finalize(path))
	ise := requireInvalidState(t, c.Finalize(path))
	assert.Equal(t, StateFinalized, ise.State)
}

func TestAddAfterFinalizeIsRejected(t *testing.T) {
	c := compose(t)
	require.NoError(t, c.Finalize(filepath.Join(t.TempDir(), "r.pdf")))
	requireInvalidState(t, c.AddTitlePage("T", "I"))
	requireInvalidState(t, c.AddChartPage("x", fakeChart(t, charts.PMTrend)))
	requireInvalidState(t, c.AddConclusionPage("c"))
}

func TestOutOfOrderCalls(t *testing.T) {
	c := NewComposer(testOptions())
	requireInvalidState(t, c.AddResearchQuestions([]string{"q"}))
	requireInvalidState(t, c.AddChartPage("x", fakeChart(t, charts.PMTrend)))
	requireInvalidState(t, c.Finalize(filepath.Join(t.TempDir(), "r.pdf")))
	assert.Equal(t, StateEmpty, c.State())

	require.NoError(t, c.AddTitlePage("T", "I"))
	requireInvalidState(t, c.AddTitlePage("T", "I"))
	require.NoError(t, c.AddResearchQuestions(nil))
	requireInvalidState(t, c.AddConclusionPage("too early"))

	ise := requireInvalidState(t, c.AddChartPage("x", fakeChart(t, charts.Correlation)))
	assert.Contains(t, ise.Error(), "expected chart pm_trend")

	require.NoError(t, c.AddChartPage("x", fakeChart(t, charts.PMTrend)))
	requireInvalidState(t, c.AddConclusionPage("still too early"))
}

func TestEmptyImageIsRejected(t *testing.T) {
	c := NewComposer(testOptions())
	require.NoError(t, c.AddTitlePage("T", "I"))
	require.NoError(t, c.AddResearchQuestions(nil))
	requireInvalidState(t, c.AddChartPage("x", charts.Artifact{Name: charts.PMTrend}))
}

func TestFinalizeWriteError(t *testing.T) {
	c := compose(t)
	dir := t.TempDir()
	// a directory at the target path cannot be replaced by a file
	path := filepath.Join(dir, "taken")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0o755))
	err := c.Finalize(path)
	var we *WriteError
	require.True(t, errors.As(err, &we), "got %v", err)
	assert.Equal(t, path, we.Path)
	_, statErr := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "QuestionsAdded", StateQuestionsAdded.String())
	assert.Equal(t, "State(42)", State(42).String())
}
