// Package core provides the shared types and collaborator interfaces for the
// reliable-pull export workflow.
package core

import (
	"context"
	"encoding/base64"
	"fmt"
)

// DateLayout is the calendar-day format the vendor API expects (YYYYMMDD).
const DateLayout = "20060102"

// Outcome is the result of a single poll against the download endpoint.
// It is a sealed variant: Ready, NotReady or TransportError. Consumers must
// type-switch over all three.
type Outcome interface {
	outcome()
}

// Ready means the export file was generated and its content is available.
type Ready struct {
	FileName     string `json:"fileName"`
	FileContents string `json:"fileContents"` // base64-encoded archive
}

func (Ready) outcome() {}

// Decode returns the raw archive bytes of the payload.
func (r Ready) Decode() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(r.FileContents)
	if err != nil {
		return nil, fmt.Errorf("decoding file contents: %w", err)
	}
	return data, nil
}

// NotReady means the vendor answered but the file is not generated yet.
type NotReady struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (NotReady) outcome() {}

// TransportError means the poll failed below the application protocol:
// a non-200 status, an unparseable body, or a network failure. It is
// retryable under the same policy as NotReady.
type TransportError struct {
	StatusCode int    `json:"http_status"`
	Body       string `json:"body"`
}

func (TransportError) outcome() {}

// SubmitFunc triggers server-side generation of the export. Called at most
// once per run.
type SubmitFunc func(ctx context.Context) error

// PollFunc queries readiness and content of the export for a target date
// (DateLayout). Transport-level failures are reported as a TransportError
// outcome; a non-nil error is reserved for context cancellation.
type PollFunc func(ctx context.Context, date string) (Outcome, error)

// ExtractFunc decompresses a downloaded archive into destDir and returns the
// extracted member paths.
type ExtractFunc func(archivePath, destDir string) ([]string, error)
