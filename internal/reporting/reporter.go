// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xkilldash9x/formprobe/internal/config"
	"github.com/xkilldash9x/formprobe/internal/diagnostics"
)

// Supported report formats.
const (
	FormatSARIF = config.ReportSARIF
	FormatJSON  = config.ReportJSON
	FormatJUnit = config.ReportJUnit
)

// Reporter writes recorded known defects to an output.
type Reporter interface {
	// Write buffers a single defect.
	Write(d diagnostics.Defect) error
	// Close renders the report and closes any underlying file handle.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for the given format. An empty output path or
// "stdout" writes to standard output.
func New(format, outputPath, version string) (Reporter, error) {
	return NewTo(format, outputPath, os.Stdout, version)
}

// ToStdout reports whether outputPath selects the stdout writer.
func ToStdout(outputPath string) bool {
	return outputPath == "" || outputPath == "stdout"
}

// NewTo is New with an explicit writer for the stdout case.
func NewTo(format, outputPath string, stdout io.Writer, version string) (Reporter, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case FormatSARIF, FormatJSON, FormatJUnit:
	default:
		return nil, fmt.Errorf("unsupported report format: %q", format)
	}

	var writer io.WriteCloser
	if ToStdout(outputPath) {
		// The caller owns stdout, so Close is a no-op.
		writer = &nopWriteCloser{stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}
	return NewWithWriter(format, writer, version)
}

// NewWithWriter creates a reporter that takes ownership of writer.
func NewWithWriter(format string, writer io.WriteCloser, version string) (Reporter, error) {
	switch format {
	case FormatSARIF:
		return NewSARIFReporter(writer, version), nil
	case FormatJSON:
		return NewJSONReporter(writer, version), nil
	case FormatJUnit:
		return NewJUnitReporter(writer), nil
	default:
		_ = writer.Close()
		return nil, fmt.Errorf("unsupported report format: %q", format)
	}
}

// WriteAll writes every defect and closes the reporter. The close error is
// returned even when a write failed first, so a file handle is never leaked.
func WriteAll(r Reporter, defects []diagnostics.Defect) error {
	var writeErr error
	for _, d := range defects {
		if err := r.Write(d); err != nil {
			writeErr = err
			break
		}
	}
	closeErr := r.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}
