// Package report assembles narrative text and chart images into a PDF document.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/KaramelBytes/aqireport/internal/charts"
	"github.com/KaramelBytes/aqireport/internal/utils"
	"github.com/go-pdf/fpdf"
)

// State is the composer's position in the page sequence.
type State int

const (
	StateEmpty State = iota
	StateTitleAdded
	StateQuestionsAdded
	StateChartAdded
	StateConclusionAdded
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateTitleAdded:
		return "TitleAdded"
	case StateQuestionsAdded:
		return "QuestionsAdded"
	case StateChartAdded:
		return "ChartAdded"
	case StateConclusionAdded:
		return "ConclusionAdded"
	case StateFinalized:
		return "Finalized"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Options controls document metadata and layout.
type Options struct {
	Author            string
	Subject           string
	CreatedAt         time.Time
	QuestionsHeading  string
	ConclusionHeading string
	// ImageX and ImageWidth position chart images, in millimetres.
	ImageX     float64
	ImageWidth float64
}

// DefaultOptions returns A4 layout defaults.
func DefaultOptions() Options {
	return Options{
		Author:            "aqireport",
		QuestionsHeading:  "Research Questions:",
		ConclusionHeading: "Conclusion and Recommendations",
		ImageX:            10,
		ImageWidth:        180,
	}
}

const (
	fontFamily = "Arial"
	lineHeight = 10.0
)

// Composer builds the report one page at a time. Calls must follow the order
// title, questions, the four charts in charts.Order, conclusion, Finalize.
type Composer struct {
	pdf    *fpdf.Fpdf
	opts   Options
	tr     func(string) string
	state  State
	charts int
}

// NewComposer returns an empty composer.
func NewComposer(opts Options) *Composer {
	def := DefaultOptions()
	if opts.QuestionsHeading == "" {
		opts.QuestionsHeading = def.QuestionsHeading
	}
	if opts.ConclusionHeading == "" {
		opts.ConclusionHeading = def.ConclusionHeading
	}
	if opts.ImageWidth <= 0 {
		opts.ImageX, opts.ImageWidth = def.ImageX, def.ImageWidth
	}
	if opts.CreatedAt.IsZero() {
		opts.CreatedAt = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(opts.CreatedAt)
	pdf.SetModificationDate(opts.CreatedAt)
	pdf.SetCreator("aqireport", true)
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	if opts.Subject != "" {
		pdf.SetSubject(opts.Subject, true)
	}
	return &Composer{
		pdf:  pdf,
		opts: opts,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// State reports the current state.
func (c *Composer) State() State { return c.state }

// PageCount reports the number of pages added so far.
func (c *Composer) PageCount() int { return c.pdf.PageCount() }

func (c *Composer) expect(op string, want ...State) error {
	for _, s := range want {
		if c.state == s {
			return nil
		}
	}
	return &InvalidStateError{Op: op, State: c.state}
}

// AddTitlePage starts the document with a centered title and an intro paragraph.
func (c *Composer) AddTitlePage(title, intro string) error {
	if err := c.expect("AddTitlePage", StateEmpty); err != nil {
		return err
	}
	c.pdf.SetTitle(title, true)
	c.pdf.AddPage()
	c.pdf.SetFont(fontFamily, "B", 16)
	c.pdf.CellFormat(0, lineHeight, c.tr(title), "", 1, "C", false, 0, "")
	c.pdf.SetFont(fontFamily, "", 12)
	c.pdf.Ln(lineHeight / 2)
	c.pdf.MultiCell(0, lineHeight, c.tr(intro), "", "", false)
	c.state = StateTitleAdded
	return c.pdf.Error()
}

// AddResearchQuestions appends the numbered questions to the title page.
func (c *Composer) AddResearchQuestions(questions []string) error {
	if err := c.expect("AddResearchQuestions", StateTitleAdded); err != nil {
		return err
	}
	c.pdf.Ln(lineHeight / 2)
	c.pdf.SetFont(fontFamily, "B", 14)
	c.pdf.CellFormat(0, lineHeight, c.tr(c.opts.QuestionsHeading), "", 1, "", false, 0, "")
	c.pdf.SetFont(fontFamily, "", 12)
	for i, q := range questions {
		c.pdf.MultiCell(0, lineHeight, c.tr(fmt.Sprintf("%d. %s", i+1, q)), "", "", false)
	}
	c.state = StateQuestionsAdded
	return c.pdf.Error()
}

// AddChartPage adds a page with a heading and the chart image scaled to the
// configured width. Charts must arrive in charts.Order.
func (c *Composer) AddChartPage(title string, a charts.Artifact) error {
	if err := c.expect("AddChartPage", StateQuestionsAdded, StateChartAdded); err != nil {
		return err
	}
	if c.charts >= len(charts.Order) {
		return &InvalidStateError{Op: "AddChartPage", State: c.state, Reason: "all charts already added"}
	}
	if want := charts.Order[c.charts]; a.Name != want {
		return &InvalidStateError{Op: "AddChartPage", State: c.state, Reason: fmt.Sprintf("expected chart %s, got %s", want, a.Name)}
	}
	if len(a.PNG) == 0 {
		return &InvalidStateError{Op: "AddChartPage", State: c.state, Reason: fmt.Sprintf("chart %s has no image", a.Name)}
	}

	c.pdf.AddPage()
	c.pdf.SetFont(fontFamily, "B", 14)
	c.pdf.CellFormat(0, lineHeight, c.tr(title), "", 1, "", false, 0, "")
	opt := fpdf.ImageOptions{ImageType: "PNG"}
	c.pdf.RegisterImageOptionsReader(string(a.Name), opt, bytes.NewReader(a.PNG))
	c.pdf.ImageOptions(string(a.Name), c.opts.ImageX, 0, c.opts.ImageWidth, 0, true, opt, 0, "")
	if err := c.pdf.Error(); err != nil {
		return &WriteError{Path: string(a.Name), Err: err}
	}
	c.charts++
	c.state = StateChartAdded
	return nil
}

// AddConclusionPage closes the document body with the conclusion text.
func (c *Composer) AddConclusionPage(text string) error {
	if err := c.expect("AddConclusionPage", StateChartAdded); err != nil {
		return err
	}
	if c.charts != len(charts.Order) {
		return &InvalidStateError{Op: "AddConclusionPage", State: c.state, Reason: fmt.Sprintf("%d of %d charts added", c.charts, len(charts.Order))}
	}
	c.pdf.AddPage()
	c.pdf.SetFont(fontFamily, "B", 14)
	c.pdf.CellFormat(0, lineHeight, c.tr(c.opts.ConclusionHeading), "", 1, "", false, 0, "")
	c.pdf.SetFont(fontFamily, "", 12)
	c.pdf.MultiCell(0, lineHeight, c.tr(text), "", "", false)
	c.state = StateConclusionAdded
	return c.pdf.Error()
}

// Finalize serializes the document and writes it to path. It may be called once.
func (c *Composer) Finalize(path string) error {
	if err := c.expect("Finalize", StateConclusionAdded); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	c.state = StateFinalized
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
