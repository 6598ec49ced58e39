package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tshea68/reliable-pull/metrics"
)

func sampleRun() metrics.RunReport {
	return metrics.RunReport{
		StartedAt:        time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC),
		FinishedAt:       time.Date(2026, 3, 10, 6, 42, 0, 0, time.UTC),
		Env:              "stg",
		BaseURL:          "https://stg.example.com/root",
		CreateCalled:     true,
		TargetDate:       "auto",
		FinalDate:        "20260310",
		PollInterval:     "10m0s",
		Timeout:          "2h0m0s",
		DownloadAttempts: 4,
		LastPayload:      &metrics.PayloadSummary{Type: "ready", FileName: "export.zip", FileSize: 1024},
		Diff:             &metrics.DiffStats{New: 3, Removed: 1, Changed: 2},
		Result:           metrics.ResultDownloaded,
		Notes:            []string{"diff skipped: previous snapshot old.csv not found"},
	}
}

func TestHTMLGenerator(t *testing.T) {
	gen := &HTMLGenerator{}
	data, err := gen.Generate(sampleRun())
	require.NoError(t, err)

	html := string(data)
	assert.Contains(t, html, "DOWNLOADED")
	assert.Contains(t, html, "export.zip")
	assert.Contains(t, html, "20260310")
	assert.Contains(t, html, "result-ok")
	assert.Contains(t, html, "diff skipped")
}

func TestHTMLGeneratorFailureStyling(t *testing.T) {
	run := sampleRun()
	run.Result = metrics.ResultTimeout

	gen := &HTMLGenerator{}
	data, err := gen.Generate(run)
	require.NoError(t, err)
	assert.Contains(t, string(data), "result-fail")
}

func TestJSONGeneratorRoundTrip(t *testing.T) {
	gen := &JSONGenerator{}
	data, err := gen.Generate(sampleRun())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"result": "DOWNLOADED"`)
}

func TestFromFilePath(t *testing.T) {
	dir := t.TempDir()
	runPath := filepath.Join(dir, "run_20260310_060000.json")
	jsonGen := &JSONGenerator{}
	require.NoError(t, jsonGen.SaveToFile(sampleRun(), runPath))

	outPath := filepath.Join(dir, "run_20260310_060000.html")
	require.NoError(t, FromFilePath(&HTMLGenerator{}, runPath, outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Pull Run Report")
}

func TestFromFilePathMissingRun(t *testing.T) {
	err := FromFilePath(&HTMLGenerator{}, filepath.Join(t.TempDir(), "missing.json"), "out.html")
	require.Error(t, err)
}
