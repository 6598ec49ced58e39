package report

import (
	"bytes"
	"encoding/json"
	"html/template"
	"os"

	"github.com/tshea68/reliable-pull/metrics"
)

// -----------------------------
// Report Generator Interfaces
// -----------------------------

// Generator renders a saved run record into a human-readable document.
type Generator interface {
	Generate(run metrics.RunReport) ([]byte, error)
	SaveToFile(run metrics.RunReport, filePath string) error
}

// -----------------------------
// JSON Report Generator
// -----------------------------

// JSONGenerator re-serializes the run record as indented JSON.
type JSONGenerator struct{}

func (j *JSONGenerator) Generate(run metrics.RunReport) ([]byte, error) {
	return json.MarshalIndent(run, "", "  ")
}

func (j *JSONGenerator) SaveToFile(run metrics.RunReport, filePath string) error {
	data, err := j.Generate(run)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// -----------------------------
// HTML Report Generator
// -----------------------------

// HTMLGenerator renders the run record as a standalone HTML page.
type HTMLGenerator struct{}

const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Pull Run Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f4f4f4; }
        .result-ok { color: green; }
        .result-fail { color: red; }
    </style>
</head>
<body>
    <h1>Pull Run Report</h1>
    <p><strong>Environment:</strong> {{.Env}}</p>
    <p><strong>Base URL:</strong> {{.BaseURL}}</p>
    <p><strong>Started:</strong> {{.StartedAt}}</p>
    <p><strong>Finished:</strong> {{.FinishedAt}}</p>
    <p><strong>Result:</strong>
        <span class="{{if eq .Result "DOWNLOADED"}}result-ok{{else}}result-fail{{end}}">{{.Result}}</span>
    </p>

    <h2>Download</h2>
    <table>
        <tr><th>Create called</th><td>{{.CreateCalled}}</td></tr>
        <tr><th>Target date</th><td>{{.TargetDate}}</td></tr>
        <tr><th>Final date</th><td>{{.FinalDate}}</td></tr>
        <tr><th>Attempts</th><td>{{.DownloadAttempts}}</td></tr>
        <tr><th>Poll interval</th><td>{{.PollInterval}}</td></tr>
        <tr><th>Timeout</th><td>{{.Timeout}}</td></tr>
    </table>

    {{with .LastPayload}}
    <h2>Last Poll Payload</h2>
    <table>
        <tr><th>Type</th><td>{{.Type}}</td></tr>
        {{if .FileName}}<tr><th>File</th><td>{{.FileName}} ({{.FileSize}} bytes)</td></tr>{{end}}
        {{if .ErrorCode}}<tr><th>Error code</th><td>{{.ErrorCode}}</td></tr>{{end}}
        {{if .ErrorMessage}}<tr><th>Message</th><td>{{.ErrorMessage}}</td></tr>{{end}}
        {{if .HTTPStatus}}<tr><th>HTTP status</th><td>{{.HTTPStatus}}</td></tr>{{end}}
    </table>
    {{end}}

    {{with .Diff}}
    <h2>Delta</h2>
    <table>
        <tr><th>New</th><th>Removed</th><th>Changed</th></tr>
        <tr><td>{{.New}}</td><td>{{.Removed}}</td><td>{{.Changed}}</td></tr>
    </table>
    {{end}}

    {{if .Notes}}
    <h2>Notes</h2>
    <ul>
        {{range .Notes}}<li>{{.}}</li>{{end}}
    </ul>
    {{end}}
</body>
</html>
`

func (h *HTMLGenerator) Generate(run metrics.RunReport) ([]byte, error) {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, run); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *HTMLGenerator) SaveToFile(run metrics.RunReport, filePath string) error {
	data, err := h.Generate(run)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// FromFilePath loads a saved run record and renders it with the generator.
func FromFilePath(gen Generator, runPath, outPath string) error {
	run, err := metrics.Load(runPath)
	if err != nil {
		return err
	}
	return gen.SaveToFile(run, outPath)
}
