// Package narrative holds the report's prose: title, introduction, research
// questions, chart headings and conclusion.
package narrative

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/KaramelBytes/aqireport/internal/charts"
	"gopkg.in/yaml.v3"
)

// Narrative is the text placed around the charts.
type Narrative struct {
	Title             string                 `yaml:"title"`
	Intro             string                 `yaml:"intro"`
	QuestionsHeading  string                 `yaml:"questions_heading"`
	Questions         []string               `yaml:"questions"`
	ChartTitles       map[charts.Name]string `yaml:"chart_titles"`
	ConclusionHeading string                 `yaml:"conclusion_heading"`
	Conclusion        string                 `yaml:"conclusion"`
}

// Default returns the built-in Delhi narrative.
func Default() *Narrative {
	return &Narrative{
		Title: "Air Quality Index (AQI) Analysis in Delhi",
		Intro: "This report presents an in-depth analysis of the Air Quality Index (AQI) in Delhi " +
			"using hourly pollutant data. It highlights key insights, trends, and correlations to " +
			"support public awareness and policy formulation.",
		QuestionsHeading: "Research Questions:",
		Questions: []string{
			"What are the trends of PM2.5 and PM10 over time?",
			"How do pollution levels vary across months and hours?",
			"What is the correlation between different pollutants?",
			"Which times of day show the worst air quality levels?",
		},
		ChartTitles: map[charts.Name]string{
			charts.PMTrend:     "Daily Trend of PM2.5 and PM10",
			charts.MonthlyAvg:  "Monthly Average of Major Pollutants",
			charts.Correlation: "Correlation Between Pollutants",
			charts.HourlyPM25:  "Hourly Average PM2.5 Levels",
		},
		ConclusionHeading: "Conclusion and Recommendations",
		Conclusion: strings.Join([]string{
			"The analysis reveals that PM2.5 and PM10 levels remain persistently high in Delhi, with " +
				"noticeable peaks during winter months. Pollution is strongly correlated between " +
				"particulate matter and gases like NO2 and CO.",
			"",
			"Hourly trends show that air quality tends to worsen during late nights and early mornings, " +
				"possibly due to low wind dispersion and vehicular emissions.",
			"",
			"Recommendations:",
			"- Implement stricter controls on vehicular emissions during peak pollution hours.",
			"- Promote public transport and electric vehicle usage.",
			"- Increase green cover and deploy air purifiers in critical zones.",
			"- Launch awareness campaigns to reduce household pollution sources.",
		}, "\n"),
	}
}

// Load reads a YAML override file on top of Default. Fields absent from the
// file keep their default. An empty path returns Default.
func Load(path string) (*Narrative, error) {
	n := Default()
	if path == "" {
		return n, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("narrative file not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read narrative: %w", err)
	}
	var o Narrative
	if err := yaml.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("parse narrative %s: %w", path, err)
	}
	n.merge(&o)
	return n, nil
}

func (n *Narrative) merge(o *Narrative) {
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&n.Title, o.Title)
	set(&n.Intro, o.Intro)
	set(&n.QuestionsHeading, o.QuestionsHeading)
	set(&n.ConclusionHeading, o.ConclusionHeading)
	set(&n.Conclusion, o.Conclusion)
	if len(o.Questions) > 0 {
		n.Questions = o.Questions
	}
	for k, v := range o.ChartTitles {
		if strings.TrimSpace(v) != "" {
			n.ChartTitles[k] = strings.TrimSpace(v)
		}
	}
}

// ChartTitle returns the page heading for a chart, falling back to its name.
func (n *Narrative) ChartTitle(name charts.Name) string {
	if t, ok := n.ChartTitles[name]; ok && t != "" {
		return t
	}
	return string(name)
}
