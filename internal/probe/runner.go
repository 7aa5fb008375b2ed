package probe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/novaspire/internal/adapters/backend"
	"github.com/okian/novaspire/internal/domain/model"
	"github.com/okian/novaspire/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes every check against cfg.BaseURL. The report is returned even
// when checks fail; the error then wraps ErrProbeFailed.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	log := logger.Named("probe")
	client, err := backend.New(cfg.BaseURL,
		backend.WithTimeout(cfg.Timeout),
		backend.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("build backend client: %w", err)
	}

	report := &Report{BaseURL: client.BaseURL(), Started: time.Now()}
	log.Info(ctx, "starting backend probe",
		logger.String("baseURL", client.BaseURL()),
		logger.String("timeout", cfg.Timeout.String()),
		logger.Bool("verbose", cfg.Verbose),
	)

	report.Checks = append(report.Checks,
		timed(backend.OpFetchResults, func() (string, error) {
			res, err := client.FetchLatestResult(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("score %s, %d skills, language %q",
				model.FormatPercent(res.MatchScore), len(res.Skills), res.Language), nil
		}),
		timed(backend.OpFetchHistory, func() (string, error) {
			entries, err := client.FetchHistory(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d entries", len(entries)), nil
		}),
		timed(backend.OpExportPDF, func() (string, error) {
			data, err := client.ExportResultAsPDF(ctx)
			if err != nil {
				return "", err
			}
			pages, err := backend.InspectPDF(data)
			if err != nil {
				return "", err
			}
			if err := savePDF(cfg.PDFFile, data); err != nil {
				return "", err
			}
			detail := fmt.Sprintf("%d bytes, %d pages", len(data), pages)
			if cfg.PDFFile != "" {
				detail += ", saved to " + cfg.PDFFile
			}
			return detail, nil
		}),
	)
	report.Duration = time.Since(report.Started)

	for _, c := range report.Checks {
		if c.OK {
			log.Info(ctx, "check passed", logger.String("operation", c.Operation), logger.String("detail", c.Detail))
		} else {
			log.Error(ctx, "check failed", logger.String("operation", c.Operation), logger.Error(c.Err))
		}
	}
	if report.Failed() {
		return report, ErrProbeFailed
	}
	return report, nil
}

func timed(op string, fn func() (string, error)) Check {
	start := time.Now()
	detail, err := fn()
	return Check{
		Operation: op,
		OK:        err == nil,
		Latency:   time.Since(start),
		Detail:    detail,
		Err:       err,
	}
}

// savePDF writes data to path, creating parent directories. An empty path
// is a no-op.
func savePDF(path string, data []byte) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create pdf directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
