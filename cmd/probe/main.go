package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/novaspire/internal/probe"
)

// Default configuration constants.
const (
	defaultTimeout = 30 * time.Second
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:5000", "Base URL of the analysis backend")
		timeout = flag.Duration("timeout", defaultTimeout, "Per request timeout")
		pdfFile = flag.String("pdf", "", "Write the exported PDF to this file")
		verbose = flag.Bool("verbose", false, "Log every backend call")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp(os.Stdout)
		return
	}

	if err := probe.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := probe.Run(ctx, &probe.Config{
		BaseURL: *baseURL,
		Timeout: *timeout,
		PDFFile: *pdfFile,
		Verbose: *verbose,
	})
	if report != nil {
		probe.PrintReport(os.Stdout, report)
	}
	if err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
