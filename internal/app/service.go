// Package service composes the analysis backend client and the upload stash
// into the dependencies required by the site and the ops API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/novaspire/internal/adapters/backend"
	"github.com/okian/novaspire/internal/adapters/http/site"
	"github.com/okian/novaspire/internal/domain/model"
	"github.com/okian/novaspire/internal/domain/stash"
	"github.com/okian/novaspire/pkg/logger"
	"github.com/okian/novaspire/pkg/metrics"
)

// ErrNotStarted is returned by backend operations before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements site.Dependencies and api.StatsProvider.
type Service struct {
	mu sync.RWMutex

	// Core components
	backend site.Backend
	stash   stash.Stash

	// Configuration
	backendURL     string
	backendTimeout time.Duration
	stashSize      int
	stashTTL       time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBackendURL sets the analysis backend base URL.
func WithBackendURL(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.backendURL = url
		}
	}
}

// WithBackendTimeout bounds every backend call. Zero means no timeout.
func WithBackendTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.backendTimeout = d
		}
	}
}

// WithBackend replaces the HTTP client built by Start.
func WithBackend(b site.Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithStashSize sets how many uploaded files are kept for resubmission.
func WithStashSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.stashSize = size
		}
	}
}

// WithStashTTL sets how long a stashed file stays usable.
func WithStashTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.stashTTL = ttl
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		backendURL: "http://127.0.0.1:5000",
		stashSize:  256,
		stashTTL:   15 * time.Minute,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the backend client and the stash.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting front-end service...")

	if s.backend == nil {
		client, err := backend.New(s.backendURL,
			backend.WithTimeout(s.backendTimeout),
			backend.WithLogger(s.logger.Named("backend")),
		)
		if err != nil {
			return err
		}
		s.backend = client
	}

	s.stash = stash.NewInMemoryStash(
		stash.WithMaxSize(s.stashSize),
		stash.WithTTL(s.stashTTL),
		stash.WithEvictionHook(metrics.RecordStashEviction),
	)
	metrics.UpdateStashSize(0)

	s.started = true
	s.logger.Info(ctx, "front-end service started",
		logger.String("backendURL", s.backendURL),
		logger.Int64("backendTimeoutMs", s.backendTimeout.Milliseconds()),
		logger.Int("stashSize", s.stashSize),
	)

	return nil
}

// Stop releases the stash. Stashed files are lost.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.stash = nil
	metrics.UpdateStashSize(0)

	s.started = false
	s.logger.Info(context.Background(), "front-end service stopped")
}

func (s *Service) components() (site.Backend, stash.Stash, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend, s.stash, s.started
}

// Register creates an account on the backend.
func (s *Service) Register(ctx context.Context, creds model.Credentials) (model.RegisterResponse, error) {
	b, _, ok := s.components()
	if !ok {
		return model.RegisterResponse{}, ErrNotStarted
	}
	return b.Register(ctx, creds)
}

// UploadResume sends a résumé and job description for analysis.
func (s *Service) UploadResume(ctx context.Context, req model.UploadRequest) (model.UploadResponse, error) {
	b, _, ok := s.components()
	if !ok {
		return model.UploadResponse{}, ErrNotStarted
	}
	if req.Resume != nil {
		s.logger.Debug(ctx, "uploading resume",
			logger.String("file", req.Resume.Name),
			logger.Int("bytes", len(req.Resume.Data)),
		)
	}
	return b.UploadResume(ctx, req)
}

// FetchLatestResult returns the most recent analysis.
func (s *Service) FetchLatestResult(ctx context.Context) (model.AnalysisResult, error) {
	b, _, ok := s.components()
	if !ok {
		return model.AnalysisResult{}, ErrNotStarted
	}
	return b.FetchLatestResult(ctx)
}

// FetchHistory returns past analyses.
func (s *Service) FetchHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	b, _, ok := s.components()
	if !ok {
		return nil, ErrNotStarted
	}
	return b.FetchHistory(ctx)
}

// ExportResultAsPDF returns the latest analysis rendered as PDF. The
// document is inspected for logging only; it is passed on unchanged.
func (s *Service) ExportResultAsPDF(ctx context.Context) ([]byte, error) {
	b, _, ok := s.components()
	if !ok {
		return nil, ErrNotStarted
	}
	data, err := b.ExportResultAsPDF(ctx)
	if err != nil {
		return nil, err
	}

	pages, perr := backend.InspectPDF(data)
	if perr != nil {
		s.logger.Warn(ctx, "exported document is not a readable pdf",
			logger.Int("bytes", len(data)),
			logger.Error(perr),
		)
		metrics.RecordErrorByComponent("service", "pdf_inspect")
	} else {
		s.logger.Debug(ctx, "exported pdf", logger.Int("pages", pages), logger.Int("bytes", len(data)))
	}
	return data, nil
}

// Put stashes f for resubmission. It returns "" before Start.
func (s *Service) Put(ctx context.Context, f model.File) string {
	_, st, ok := s.components()
	if !ok {
		return ""
	}
	token := st.Put(ctx, f)
	metrics.UpdateStashSize(int(st.Size()))
	return token
}

// Get returns a stashed file.
func (s *Service) Get(ctx context.Context, token string) (model.File, bool) {
	_, st, ok := s.components()
	if !ok {
		return model.File{}, false
	}
	f, found := st.Get(ctx, token)
	metrics.UpdateStashSize(int(st.Size()))
	return f, found
}

// Drop forgets a stashed file.
func (s *Service) Drop(ctx context.Context, token string) {
	_, st, ok := s.components()
	if !ok {
		return
	}
	st.Drop(ctx, token)
	metrics.UpdateStashSize(int(st.Size()))
}

// Size returns the number of stashed files.
func (s *Service) Size() int64 {
	_, st, ok := s.components()
	if !ok {
		return 0
	}
	return st.Size()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"backendURL":       s.backendURL,
		"backendTimeoutMs": s.backendTimeout.Milliseconds(),
		"stashCapacity":    s.stashSize,
		"stashTTLSeconds":  int64(s.stashTTL.Seconds()),
	}

	if s.started {
		size := s.stash.Size()
		stats["stashSize"] = size
		metrics.UpdateStashSize(int(size))
	}

	return stats
}
