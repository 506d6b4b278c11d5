package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset bound variables; cobra keeps them across invocations
	repOutput, repDelimiter, repTimestamp, repSheet = "", "", "", ""
	repNarrative, repChartsDir, repMetrics, repNoManifest = "", "", "", false
	anaOutputPath, anaDelimiter, anaTimestamp, anaSheet, anaPreview = "", "", "", "", false
	runsLimit, runsDir = 0, ""
	cfg = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// setupHome isolates HOME and cwd and writes a two-day dataset.
func setupHome(t *testing.T) (home, input string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	prevWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(home); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prevWD) })

	var b strings.Builder
	b.WriteString("date,co,no,no2,o3,so2,pm2_5,pm10,nh3\n")
	start := time.Date(2023, 1, 14, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 48; i++ {
		fmt.Fprintf(&b, "%s,%d,%d,%d,%d,%d,%d,%d,%d\n",
			start.Add(time.Duration(i)*time.Hour).Format(time.RFC3339),
			800+i*3, 4+i%5, 30+i%7, 50-i%9, 9+i%2, 200+(i%24)*5, 260+i%11, 5+i%3)
	}
	b.WriteString("garbage,1,1,1,1,1,1,1,1\n")
	input = filepath.Join(home, "delhi_aqi.csv")
	if err := os.WriteFile(input, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return home, input
}

func TestCLI_ReportWritesPDFAndManifest(t *testing.T) {
	home, input := setupHome(t)
	pdf := filepath.Join(home, "out", "report.pdf")
	metrics := filepath.Join(home, "aqireport.prom")

	out, err := runCmd(t, "report", input, "-o", pdf, "--metrics-file", metrics)
	if err != nil {
		t.Fatalf("report failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Report saved as: "+pdf) || !strings.Contains(out, "(6 pages)") {
		t.Fatalf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "49 read, 1 dropped, 48 retained") {
		t.Fatalf("row counts missing: %s", out)
	}
	if _, err := os.Stat(pdf); err != nil {
		t.Fatalf("pdf not written: %v", err)
	}
	prom, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("metrics not written: %v", err)
	}
	if !strings.Contains(string(prom), "aqireport_report_pages 6") {
		t.Fatalf("metrics content: %s", prom)
	}

	out, err = runCmd(t, "runs")
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	if !strings.Contains(out, "pages=6") || !strings.Contains(out, "[ok]") {
		t.Fatalf("runs output: %s", out)
	}
}

func TestCLI_ReportRejectsEmptyDataset(t *testing.T) {
	home, _ := setupHome(t)
	bad := filepath.Join(home, "bad.csv")
	if err := os.WriteFile(bad, []byte("date,co,no,no2,o3,so2,pm2_5,pm10,nh3\nnope,1,1,1,1,1,1,1,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := runCmd(t, "report", bad, "-o", filepath.Join(home, "r.pdf"), "--no-manifest")
	if err == nil || !strings.Contains(err.Error(), "empty dataset") {
		t.Fatalf("expected empty dataset error, got %v", err)
	}
}

func TestCLI_AnalyzePreview(t *testing.T) {
	_, input := setupHome(t)
	out, err := runCmd(t, "analyze", input, "--preview")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	for _, want := range []string{"[DATASET SUMMARY]", "[CORRELATIONS]", "[HOURLY PM2.5 PREVIEW]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in:\n%s", want, out)
		}
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home, _ := setupHome(t)
	if _, err := runCmd(t, "config", "set", "log_format", "json"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".aqireport", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out, err := runCmd(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "log_format: json") {
		t.Fatalf("config show output: %s", out)
	}
	if _, err := runCmd(t, "config", "set", "delimiter", "#"); err == nil {
		t.Fatalf("expected invalid delimiter error")
	}
}

func TestCLI_NoInput(t *testing.T) {
	setupHome(t)
	if _, err := runCmd(t, "report"); err == nil {
		t.Fatalf("expected error without input")
	}
}
