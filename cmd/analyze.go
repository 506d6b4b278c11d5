package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/aqireport/internal/observability"
	"github.com/KaramelBytes/aqireport/internal/pipeline"
	"github.com/KaramelBytes/aqireport/internal/utils"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
)

var (
	anaOutputPath string
	anaDelimiter  string
	anaTimestamp  string
	anaSheet      string
	anaPreview    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Summarize a measurement file as markdown without building the PDF",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pc, err := pipelineConfig(args, anaDelimiter, anaTimestamp, anaSheet)
		if err != nil {
			return err
		}
		p := pipeline.New(log, observability.NewMetrics(), nil, nil)
		s, err := p.Analyze(pc)
		if err != nil {
			return err
		}

		var sb strings.Builder
		sb.WriteString(s.Markdown())
		if anaPreview {
			if series := s.Hourly.Series(); len(series) > 0 {
				sb.WriteString("\n[HOURLY PM2.5 PREVIEW]\n")
				sb.WriteString(asciigraph.Plot(series,
					asciigraph.Height(10),
					asciigraph.Caption("mean PM2.5 by hour of day"),
				))
				sb.WriteString("\n")
			}
		}
		out := sb.String()

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, []byte(out)); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Summary saved to %s\n", anaOutputPath)
			return nil
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "write the summary to a file instead of stdout")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "field delimiter: ',', ';', '|' or 'tab' (default by extension)")
	analyzeCmd.Flags().StringVar(&anaTimestamp, "timestamp-column", "", "name of the timestamp column (default date)")
	analyzeCmd.Flags().StringVar(&anaSheet, "sheet", "", "sheet name for .xlsx input (default first sheet)")
	analyzeCmd.Flags().BoolVar(&anaPreview, "preview", false, "append a terminal plot of the hourly PM2.5 curve")
}
