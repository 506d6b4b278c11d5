package cmd

import (
	"fmt"

	"github.com/KaramelBytes/aqireport/internal/charts"
	"github.com/KaramelBytes/aqireport/internal/narrative"
	"github.com/KaramelBytes/aqireport/internal/observability"
	"github.com/KaramelBytes/aqireport/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var (
	repOutput     string
	repDelimiter  string
	repTimestamp  string
	repSheet      string
	repNarrative  string
	repChartsDir  string
	repMetrics    string
	repNoManifest bool
)

// reportClock is swapped by tests.
var reportClock clockwork.Clock = clockwork.NewRealClock()

var reportCmd = &cobra.Command{
	Use:   "report [file]",
	Short: "Build the PDF report from a measurement file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pc, err := pipelineConfig(args, repDelimiter, repTimestamp, repSheet)
		if err != nil {
			return err
		}
		c := effectiveConfig()
		pc.OutputPath = firstNonEmpty(repOutput, c.OutputPath)
		pc.ChartsDir = firstNonEmpty(repChartsDir, c.ChartsDir)
		pc.Author = c.Author
		if !repNoManifest {
			pc.RunsDir = c.RunsDir
		}
		n, err := narrative.Load(firstNonEmpty(repNarrative, c.NarrativeFile))
		if err != nil {
			return err
		}
		pc.Narrative = n

		metrics := observability.NewMetrics()
		p := pipeline.New(log, metrics, reportClock, charts.NewRenderer(charts.DefaultOptions()))
		res, runErr := p.Run(pc)
		if path := firstNonEmpty(repMetrics, c.MetricsFile); path != "" {
			if err := metrics.WriteTextfile(path); err != nil {
				log.Warn("could not write metrics", "error", err)
			}
		}
		if runErr != nil {
			return runErr
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Report saved as: %s (%d pages)\n", res.Output, res.Pages)
		fmt.Fprintf(out, "  rows: %d read, %d dropped, %d retained\n", res.Summary.RawRows, res.Summary.Dropped, res.Summary.Retained)
		if res.Manifest != "" {
			fmt.Fprintf(out, "  run: %s\n", res.RunID)
		}
		return nil
	},
}

// pipelineConfig resolves the input path and load options from args, flags and config.
func pipelineConfig(args []string, delimiter, timestamp, sheet string) (pipeline.Config, error) {
	c := effectiveConfig()
	in := c.InputPath
	if len(args) == 1 {
		in = args[0]
	}
	if in == "" {
		return pipeline.Config{}, fmt.Errorf("no input file: pass one or set input_path")
	}
	merged := *c
	if delimiter != "" {
		merged.Delimiter = delimiter
	}
	if timestamp != "" {
		merged.TimestampColumn = timestamp
	}
	if sheet != "" {
		merged.Sheet = sheet
	}
	opt, err := merged.LoadOptions()
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{InputPath: in, Load: opt}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repOutput, "output", "o", "", "output PDF path (default Delhi_AQI_Analysis_Report.pdf)")
	reportCmd.Flags().StringVar(&repDelimiter, "delimiter", "", "field delimiter: ',', ';', '|' or 'tab' (default by extension)")
	reportCmd.Flags().StringVar(&repTimestamp, "timestamp-column", "", "name of the timestamp column (default date)")
	reportCmd.Flags().StringVar(&repSheet, "sheet", "", "sheet name for .xlsx input (default first sheet)")
	reportCmd.Flags().StringVar(&repNarrative, "narrative", "", "YAML file overriding report text")
	reportCmd.Flags().StringVar(&repChartsDir, "charts-dir", "", "also write chart PNGs to this directory")
	reportCmd.Flags().StringVar(&repMetrics, "metrics-file", "", "write Prometheus textfile metrics to this path")
	reportCmd.Flags().BoolVar(&repNoManifest, "no-manifest", false, "do not record a run manifest")
}
