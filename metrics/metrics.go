// Package metrics defines the run-metadata record persisted once per pull,
// success or failure, for auditability.
package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tshea68/reliable-pull/pkg/core"
)

// RunResult classifies the outcome of a pull.
type RunResult string

const (
	ResultUnknown      RunResult = "UNKNOWN"
	ResultDownloaded   RunResult = "DOWNLOADED"
	ResultCreateFailed RunResult = "CREATE_FAILED"
	ResultNotReady     RunResult = "DOWNLOAD_NOT_READY"
	ResultTimeout      RunResult = "DOWNLOAD_TIMEOUT"
)

// PayloadSummary is a flattened view of the last poll outcome. The raw
// archive bytes are never embedded; only the file name and decoded size.
type PayloadSummary struct {
	Type         string `json:"type"`
	FileName     string `json:"file_name,omitempty"`
	FileSize     int    `json:"file_size,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	HTTPStatus   int    `json:"http_status,omitempty"`
	Body         string `json:"body,omitempty"`
}

// SummarizeOutcome flattens a poll outcome for the run record.
func SummarizeOutcome(out core.Outcome) *PayloadSummary {
	switch o := out.(type) {
	case core.Ready:
		s := &PayloadSummary{Type: "ready", FileName: o.FileName}
		if data, err := o.Decode(); err == nil {
			s.FileSize = len(data)
		}
		return s
	case core.NotReady:
		return &PayloadSummary{Type: "not_ready", ErrorCode: o.ErrorCode, ErrorMessage: o.ErrorMessage}
	case core.TransportError:
		return &PayloadSummary{Type: "transport_error", HTTPStatus: o.StatusCode, Body: o.Body}
	default:
		return nil
	}
}

// DiffStats summarizes the delta computed against a previous snapshot.
type DiffStats struct {
	New           int               `json:"new"`
	Removed       int               `json:"removed"`
	Changed       int               `json:"changed"`
	CompareFields []string          `json:"compare_fields"`
	Outputs       map[string]string `json:"outputs"`
}

// RunOutputs lists the artifacts a run produced.
type RunOutputs struct {
	Zip            string   `json:"zip,omitempty"`
	ExtractDir     string   `json:"unzipped_dir,omitempty"`
	ExtractedFiles []string `json:"unzipped_files,omitempty"`
	CSV            string   `json:"csv,omitempty"`
}

// RunReport is the structured record of one pull.
type RunReport struct {
	StartedAt        time.Time       `json:"started_at"`
	FinishedAt       time.Time       `json:"finished_at"`
	Env              string          `json:"env"`
	BaseURL          string          `json:"base_url"`
	CreateCalled     bool            `json:"create_called"`
	TargetDate       string          `json:"target_date"` // requested date, or "auto"
	FinalDate        string          `json:"generated_date_final,omitempty"`
	PollInterval     string          `json:"poll_interval"`
	Timeout          string          `json:"timeout"`
	DownloadAttempts int             `json:"download_attempts"`
	LastPayload      *PayloadSummary `json:"download_payload_last,omitempty"`
	Outputs          RunOutputs      `json:"outputs"`
	Diff             *DiffStats      `json:"diff,omitempty"`
	Result           RunResult       `json:"result"`
	Notes            []string        `json:"notes,omitempty"`
}

// Note appends a free-form annotation to the record.
func (r *RunReport) Note(format string, a ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, a...))
}

// Store persists run records.
type Store interface {
	Save(run RunReport) (string, error)
}

// JSONStore writes each run record as an indented JSON file named after the
// save timestamp, run_YYYYMMDD_HHMMSS.json, inside Dir.
type JSONStore struct {
	Dir   string
	Clock clockwork.Clock
}

func (s *JSONStore) Save(run RunReport) (string, error) {
	if s.Dir == "" {
		return "", errors.New("run store directory is required")
	}
	clock := s.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding run record: %w", err)
	}
	path := filepath.Join(s.Dir, clock.Now().Format("run_20060102_150405.json"))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing run record: %w", err)
	}
	return path, nil
}

// Load reads a previously saved run record.
func Load(path string) (RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunReport{}, err
	}
	var run RunReport
	if err := json.Unmarshal(data, &run); err != nil {
		return RunReport{}, fmt.Errorf("parsing run record %s: %w", path, err)
	}
	return run, nil
}
