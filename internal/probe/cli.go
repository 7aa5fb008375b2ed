package probe

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/okian/novaspire/pkg/logger"
)

// SetupLogging initializes the global logger for the probe.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		logger.SetLevel(slog.LevelDebug)
	}
	return nil
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Novaspire Backend Probe
=======================

Runs the read-only backend operations (results, history, export) once and
reports the outcome and latency of each.

Usage:
  probe [options]

Options:
  -url string
        Base URL of the analysis backend (default "http://localhost:5000")
  -timeout duration
        Per request timeout (default 30s)
  -pdf string
        Write the exported PDF to this file
  -verbose
        Log every backend call
  -help
        Show this help message

Examples:
  probe -url http://backend:5000
  probe -pdf report.pdf -verbose
`)
}

// PrintReport writes a table with one row per check.
func PrintReport(w io.Writer, r *Report) {
	_, _ = fmt.Fprintf(w, "backend: %s (%s)\n", r.BaseURL, r.Duration.Round(1e6))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "OPERATION\tSTATUS\tLATENCY\tDETAIL")
	for _, c := range r.Checks {
		status := "ok"
		detail := c.Detail
		if !c.OK {
			status = "FAIL"
			if c.Err != nil {
				detail = c.Err.Error()
			}
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Operation, status, c.Latency.Round(1e6), detail)
	}
	_ = tw.Flush()
}
