// Package probe checks an analysis backend before the front end is pointed
// at it: it runs the read-only operations once and reports how each went.
package probe

import (
	"errors"
	"time"
)

// ErrProbeFailed is returned by Run when at least one check failed.
var ErrProbeFailed = errors.New("backend probe failed")

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the analysis backend
	Timeout time.Duration // Per request timeout
	PDFFile string        // Where to write the exported PDF; empty skips it
	Verbose bool          // Log every backend call
}

// Check is the outcome of one backend operation.
type Check struct {
	Operation string
	OK        bool
	Latency   time.Duration
	Detail    string
	Err       error
}

// Report collects the checks of one run.
type Report struct {
	BaseURL  string
	Started  time.Time
	Duration time.Duration
	Checks   []Check
}

// Failed reports whether any check failed.
func (r *Report) Failed() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return true
		}
	}
	return false
}
