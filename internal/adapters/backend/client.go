// Package backend is the HTTP client for the external analysis service.
// Every call is a single request/response exchange: no retries, and no
// timeout unless one is configured. Failures come back as *Error.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/okian/novaspire/internal/domain/model"
	"github.com/okian/novaspire/pkg/logger"
	"github.com/okian/novaspire/pkg/metrics"
)

// Backend endpoint paths.
const (
	PathRegister  = "/register"
	PathUpload    = "/upload"
	PathResults   = "/results"
	PathHistory   = "/history"
	PathExportPDF = "/export_pdf"
)

// Operation names used in errors, logs and metrics.
const (
	OpRegister     = "register"
	OpUpload       = "upload"
	OpFetchResults = "fetch_results"
	OpFetchHistory = "fetch_history"
	OpExportPDF    = "export_pdf"
)

// Multipart field names expected by POST /upload.
const (
	FieldResume         = "resume"
	FieldJobDescription = "job_desc"
)

const defaultMaxBody = 32 << 20

// Client talks to the analysis backend.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	maxBody int64
	log     logger.Logger
}

// New creates a client for the backend at baseURL, e.g. "http://127.0.0.1:5000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("backend: parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("backend: base url must be absolute http(s), got %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{},
		maxBody: defaultMaxBody,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend address this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Register creates an account. A reply with success=false is returned
// without error; the caller decides how to present it.
func (c *Client) Register(ctx context.Context, creds model.Credentials) (model.RegisterResponse, error) {
	var out model.RegisterResponse
	payload, err := json.Marshal(creds)
	if err != nil {
		return out, &Error{Op: OpRegister, Kind: ErrDecode, Err: err}
	}
	body, err := c.do(ctx, OpRegister, http.MethodPost, PathRegister, "application/json", bytes.NewReader(payload))
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, c.fail(ctx, OpRegister, &Error{Op: OpRegister, Kind: ErrDecode, Err: err})
	}
	return out, nil
}

// UploadResume sends the résumé and job description as one multipart
// request with the file under "resume" and the text under "job_desc".
func (c *Client) UploadResume(ctx context.Context, req model.UploadRequest) (model.UploadResponse, error) {
	var out model.UploadResponse
	if req.Resume == nil {
		return out, &Error{Op: OpUpload, Kind: ErrDecode, Err: model.ErrMissingUpload}
	}
	payload, contentType, err := encodeUpload(req)
	if err != nil {
		return out, &Error{Op: OpUpload, Kind: ErrDecode, Err: err}
	}
	body, err := c.do(ctx, OpUpload, http.MethodPost, PathUpload, contentType, bytes.NewReader(payload))
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, c.fail(ctx, OpUpload, &Error{Op: OpUpload, Kind: ErrDecode, Err: err})
	}
	return out, nil
}

// FetchLatestResult returns the analysis the backend considers latest.
func (c *Client) FetchLatestResult(ctx context.Context) (model.AnalysisResult, error) {
	var out model.AnalysisResult
	if err := loadSchemas(); err != nil {
		return out, &Error{Op: OpFetchResults, Kind: ErrSchema, Err: err}
	}
	body, err := c.do(ctx, OpFetchResults, http.MethodGet, PathResults, "", nil)
	if err != nil {
		return out, err
	}
	if err := validateBody(resultSchema, body); err != nil {
		return out, c.fail(ctx, OpFetchResults, &Error{Op: OpFetchResults, Kind: ErrSchema, Err: err})
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, c.fail(ctx, OpFetchResults, &Error{Op: OpFetchResults, Kind: ErrDecode, Err: err})
	}
	return out, nil
}

// FetchHistory returns every past analysis, oldest first as sent by the
// backend. A null body yields an empty slice.
func (c *Client) FetchHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	if err := loadSchemas(); err != nil {
		return nil, &Error{Op: OpFetchHistory, Kind: ErrSchema, Err: err}
	}
	body, err := c.do(ctx, OpFetchHistory, http.MethodGet, PathHistory, "", nil)
	if err != nil {
		return nil, err
	}
	if err := validateBody(historySchema, body); err != nil {
		return nil, c.fail(ctx, OpFetchHistory, &Error{Op: OpFetchHistory, Kind: ErrSchema, Err: err})
	}
	var out []model.HistoryEntry
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, c.fail(ctx, OpFetchHistory, &Error{Op: OpFetchHistory, Kind: ErrDecode, Err: err})
	}
	if out == nil {
		out = []model.HistoryEntry{}
	}
	return out, nil
}

// ExportResultAsPDF returns the raw PDF rendering of the latest result.
func (c *Client) ExportResultAsPDF(ctx context.Context) ([]byte, error) {
	body, err := c.do(ctx, OpExportPDF, http.MethodGet, PathExportPDF, "", nil)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, c.fail(ctx, OpExportPDF, &Error{Op: OpExportPDF, Kind: ErrDecode, Err: errors.New("empty body")})
	}
	return body, nil
}

// do performs one request and returns the body of a 2xx response.
// Transport and status failures are recorded and returned as *Error.
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.RecordBackendLatency(op, float64(time.Since(start).Milliseconds()))
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, c.fail(ctx, op, &Error{Op: op, Kind: ErrTransport, Err: err})
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if op == OpExportPDF {
		req.Header.Set("Accept", "application/pdf")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(ctx, op, &Error{Op: op, Kind: ErrTransport, Err: err})
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, c.fail(ctx, op, &Error{Op: op, Kind: ErrTransport, Status: resp.StatusCode, Err: err})
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, c.fail(ctx, op, &Error{
			Op:      op,
			Kind:    ErrStatus,
			Status:  resp.StatusCode,
			Message: messageFrom(data),
		})
	}

	metrics.RecordBackendRequest(op, outcome(nil))
	if c.log != nil {
		c.log.Debug(ctx, "backend call completed",
			logger.String("op", op),
			logger.Int("status", resp.StatusCode),
			logger.Int("bytes", len(data)),
			logger.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}
	return data, nil
}

// fail records a failed call and returns err unchanged.
func (c *Client) fail(ctx context.Context, op string, err *Error) error {
	metrics.RecordBackendRequest(op, outcome(err))
	metrics.RecordErrorByComponent("backend", outcome(err))
	if c.log != nil {
		c.log.Debug(ctx, "backend call failed", logger.String("op", op), logger.Error(err))
	}
	return err
}

// messageFrom pulls a human readable message out of an error body shaped
// like {"message": "..."} or {"error": "..."}.
func messageFrom(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if m := strings.TrimSpace(payload.Message); m != "" {
		return m
	}
	return strings.TrimSpace(payload.Error)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeUpload builds the multipart body for POST /upload.
func encodeUpload(req model.UploadRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FieldResume, quoteEscaper.Replace(req.Resume.Name)))
	h.Set("Content-Type", partContentType(req.Resume))
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Resume.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField(FieldJobDescription, req.JobDescription); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// partContentType trusts the browser supplied type unless it is missing or
// generic, in which case the type is sniffed from the file content.
func partContentType(f *model.File) string {
	ct := strings.TrimSpace(f.ContentType)
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return mimetype.Detect(f.Data).String()
}
