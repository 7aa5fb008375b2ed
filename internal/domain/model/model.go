// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingUpload      = errors.New("resume file and job description are required")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Credentials are the registration form values. They live for a single
// request and are never stored.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Validate mirrors the browser's required/type=email checks for clients
// that skip them. There is no password strength rule.
func (c Credentials) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Join(ErrInvalidCredentials, err)
	}
	return nil
}

// File is an uploaded résumé held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Empty reports whether no usable file was provided.
func (f *File) Empty() bool {
	return f == nil || strings.TrimSpace(f.Name) == "" || len(f.Data) == 0
}

// UploadRequest is one résumé plus the job description it is matched against.
type UploadRequest struct {
	Resume         *File
	JobDescription string
}

// Validate requires both a non-empty file and a non-blank job description.
func (u UploadRequest) Validate() error {
	if u.Resume.Empty() || strings.TrimSpace(u.JobDescription) == "" {
		return ErrMissingUpload
	}
	return nil
}

// RegisterResponse is the backend reply to POST /register.
type RegisterResponse struct {
	Success bool `json:"success"`
}

// UploadResponse is the backend reply to POST /upload.
type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AnalysisResult is the outcome of the latest résumé analysis.
type AnalysisResult struct {
	Skills        []string `json:"skills"`
	JobSkills     []string `json:"job_skills"`
	MatchScore    float64  `json:"match_score"`
	Language      string   `json:"language"`
	MissingSkills []string `json:"missing_skills"`
	Typos         []string `json:"typos"`
	Suggestions   []string `json:"suggestions"`
}

// HistoryEntry summarizes one past analysis.
type HistoryEntry struct {
	Skills     []string `json:"skills"`
	MatchScore float64  `json:"match_score"`
	Language   string   `json:"language"`
}

// JoinSkills renders a skill list the way every view shows it.
func JoinSkills(skills []string) string {
	return strings.Join(skills, ", ")
}

// FormatPercent renders a 0-100 score without trailing zeros: 82 -> "82%".
func FormatPercent(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64) + "%"
}
