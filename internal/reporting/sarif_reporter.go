// internal/reporting/sarif_reporter.go
package reporting

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formprobe/internal/diagnostics"
	"github.com/xkilldash9x/formprobe/internal/observability"
	"github.com/xkilldash9x/formprobe/internal/reporting/sarif"
)

// Constants for tool identification in the reports.
const (
	ToolName    = "formprobe"
	ToolInfoURI = "https://github.com/xkilldash9x/formprobe"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ruleIDSanitizer replaces characters not allowed in SARIF rule IDs,
// collapsing consecutive sequences into one hyphen.
var ruleIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_.]+`)

// SARIFReporter implements Reporter for the SARIF 2.1.0 format. Every defect
// kind maps to one rule. It is thread safe.
type SARIFReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	log    *sarif.Log
	// mu protects the log structure and ruleIndex.
	mu        sync.Mutex
	ruleIndex map[diagnostics.Kind]int
}

// NewSARIFReporter creates a new reporter that writes SARIF output.
func NewSARIFReporter(writer io.WriteCloser, toolVersion string) *SARIFReporter {
	log := &sarif.Log{
		Version: sarif.Version,
		Schema:  sarif.Schema,
		Runs: []*sarif.Run{
			{
				Tool: &sarif.Tool{
					Driver: &sarif.ToolComponent{
						Name:           ToolName,
						Version:        pString(toolVersion),
						InformationURI: pString(ToolInfoURI),
						// Empty slices, not nil, so the JSON carries [] rather than null.
						Rules: []*sarif.ReportingDescriptor{},
					},
				},
				Invocations: []*sarif.Invocation{{ExecutionSuccessful: true}},
				Results:     []*sarif.Result{},
			},
		},
	}

	return &SARIFReporter{
		writer:    writer,
		logger:    observability.GetLogger().Named("sarif_reporter"),
		log:       log,
		ruleIndex: make(map[diagnostics.Kind]int),
	}
}

// Write converts a defect into a SARIF result.
func (r *SARIFReporter) Write(d diagnostics.Defect) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	idx := r.ensureRule(d.Kind)

	props := sarif.PropertyBag{
		"defectId": d.ID,
		"observed": d.At.Format(time.RFC3339Nano),
	}
	if d.Page != "" {
		props["page"] = d.Page
	}
	if d.Scenario != "" {
		props["scenario"] = d.Scenario
	}

	run.Results = append(run.Results, &sarif.Result{
		RuleID:     run.Tool.Driver.Rules[idx].ID,
		RuleIndex:  idx,
		Message:    &sarif.Message{Text: pString(d.Message)},
		Level:      sarif.LevelWarning,
		Locations:  createLocations(d),
		Properties: &props,
	})
	return nil
}

// Close finalizes the SARIF log and writes it to the output writer.
func (r *SARIFReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	r.logger.Info("Finalizing SARIF report",
		zap.Int("total_results", len(run.Results)),
		zap.Int("total_rules", len(run.Tool.Driver.Rules)),
	)

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	encodeErr := encoder.Encode(r.log)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode SARIF log", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode SARIF output: %w", encodeErr)
	}
	if closeErr != nil {
		r.logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}

// RuleID derives the SARIF rule ID for a defect kind.
func RuleID(kind diagnostics.Kind) string {
	name := strings.ToUpper(string(kind))
	name = strings.Trim(ruleIDSanitizer.ReplaceAllString(name, "-"), "-")
	if name == "" {
		name = "UNKNOWN"
	}
	return "FORMPROBE-" + name
}

// ensureRule registers the rule for kind on first use and returns its index.
// Must be called while holding the mutex.
func (r *SARIFReporter) ensureRule(kind diagnostics.Kind) int {
	if idx, ok := r.ruleIndex[kind]; ok {
		return idx
	}

	driver := r.log.Runs[0].Tool.Driver
	id := RuleID(kind)
	r.logger.Debug("Registering SARIF rule", zap.String("rule_id", id))

	description := kind.Describe()
	driver.Rules = append(driver.Rules, &sarif.ReportingDescriptor{
		ID:               id,
		Name:             pString(string(kind)),
		ShortDescription: &sarif.MultiformatMessageString{Text: pString(description)},
		FullDescription:  &sarif.MultiformatMessageString{Text: pString(description)},
		Help: &sarif.MultiformatMessageString{
			Text:     pString("Known site defect. The run tolerates it and keeps going."),
			Markdown: pString(fmt.Sprintf("**Known defect:** `%s`\n\n%s", kind, description)),
		},
		Properties: &sarif.PropertyBag{
			"tags": []string{"known-defect", "form-validation"},
		},
	})
	idx := len(driver.Rules) - 1
	r.ruleIndex[kind] = idx
	return idx
}

func createLocations(d diagnostics.Defect) []*sarif.Location {
	if d.Field == "" {
		return nil
	}
	fqn := d.Field
	if d.Page != "" {
		fqn = d.Page + "/" + d.Field
	}
	return []*sarif.Location{{
		LogicalLocations: []*sarif.LogicalLocation{{
			Name:               pString(d.Field),
			FullyQualifiedName: pString(fqn),
			Kind:               pString("element"),
		}},
		Message: &sarif.Message{Text: pString(fmt.Sprintf("%s field", d.Field))},
	}}
}

// pString returns a pointer to the given string value.
func pString(s string) *string {
	return &s
}
