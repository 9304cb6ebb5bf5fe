package reporting

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/formprobe/internal/diagnostics"
)

// JUnitReporter renders defects as a JUnit XML suite. Each defect becomes a
// skipped testcase, so CI dashboards surface it without failing the build.
type JUnitReporter struct {
	writer io.WriteCloser
	now    func() time.Time

	mu      sync.Mutex
	defects []diagnostics.Defect
}

// NewJUnitReporter creates a JUnit reporter that takes ownership of writer.
func NewJUnitReporter(writer io.WriteCloser) *JUnitReporter {
	return &JUnitReporter{writer: writer, now: time.Now}
}

func (r *JUnitReporter) Write(d diagnostics.Defect) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defects = append(r.defects, d)
	return nil
}

func (r *JUnitReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.document()
	_, writeErr := doc.WriteTo(r.writer)
	closeErr := r.writer.Close()

	if writeErr != nil {
		return fmt.Errorf("failed to write JUnit report: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}

func (r *JUnitReporter) document() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	count := strconv.Itoa(len(r.defects))
	suites := doc.CreateElement("testsuites")
	suites.CreateAttr("name", ToolName)
	suites.CreateAttr("tests", count)
	suites.CreateAttr("skipped", count)
	suites.CreateAttr("failures", "0")

	suite := suites.CreateElement("testsuite")
	suite.CreateAttr("name", "known-defects")
	suite.CreateAttr("tests", count)
	suite.CreateAttr("skipped", count)
	suite.CreateAttr("failures", "0")
	suite.CreateAttr("errors", "0")
	suite.CreateAttr("timestamp", r.now().UTC().Format(time.RFC3339))

	for _, d := range r.defects {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", testcaseName(d))
		classname := d.Scenario
		if classname == "" {
			classname = string(d.Kind)
		}
		tc.CreateAttr("classname", classname)

		skipped := tc.CreateElement("skipped")
		skipped.CreateAttr("message", d.Message)
		skipped.SetText(fmt.Sprintf("%s (defect %s)", d.Kind.Describe(), d.ID))
	}

	doc.Indent(2)
	return doc
}

func testcaseName(d diagnostics.Defect) string {
	name := string(d.Kind)
	if d.Field != "" {
		name += ": " + d.Field
	}
	if d.Page != "" {
		name += " on " + d.Page
	}
	return name
}
