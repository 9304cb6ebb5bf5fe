package reporting

import (
	"fmt"
	"io"
	"sync"

	"github.com/xkilldash9x/formprobe/internal/diagnostics"
)

// JSONReport is the document written by JSONReporter.
type JSONReport struct {
	Tool    string                   `json:"tool"`
	Version string                   `json:"version"`
	Summary map[diagnostics.Kind]int `json:"summary"`
	Defects []diagnostics.Defect     `json:"defects"`
}

// JSONReporter buffers defects and writes them as one JSON document on Close.
type JSONReporter struct {
	writer io.WriteCloser

	mu     sync.Mutex
	report JSONReport
}

// NewJSONReporter creates a JSON reporter that takes ownership of writer.
func NewJSONReporter(writer io.WriteCloser, toolVersion string) *JSONReporter {
	return &JSONReporter{
		writer: writer,
		report: JSONReport{
			Tool:    ToolName,
			Version: toolVersion,
			Summary: make(map[diagnostics.Kind]int),
			Defects: []diagnostics.Defect{},
		},
	}
}

func (r *JSONReporter) Write(d diagnostics.Defect) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Defects = append(r.report.Defects, d)
	r.report.Summary[d.Kind]++
	return nil
}

func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	encodeErr := encoder.Encode(r.report)
	closeErr := r.writer.Close()

	if encodeErr != nil {
		return fmt.Errorf("failed to encode JSON report: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}
