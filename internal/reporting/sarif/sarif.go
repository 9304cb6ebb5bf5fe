// Package sarif holds the subset of the SARIF 2.1.0 object model that the
// defect reports emit. Optional fields are pointers; required ones are values.
package sarif

const (
	Version = "2.1.0"
	Schema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []*Run `json:"runs"`
}

type Run struct {
	Tool        *Tool         `json:"tool"`
	Invocations []*Invocation `json:"invocations,omitempty"`
	Results     []*Result     `json:"results"`
}

type Tool struct {
	Driver *ToolComponent `json:"driver"`
}

// ToolComponent describes the tool that produced the results.
type ToolComponent struct {
	Name           string                 `json:"name"`
	Version        *string                `json:"version,omitempty"`
	InformationURI *string                `json:"informationUri,omitempty"`
	Rules          []*ReportingDescriptor `json:"rules,omitempty"`
}

// Invocation records whether the run completed.
type Invocation struct {
	ExecutionSuccessful bool `json:"executionSuccessful"`
}

type ReportingDescriptor struct {
	ID               string                    `json:"id"`
	Name             *string                   `json:"name,omitempty"`
	ShortDescription *MultiformatMessageString `json:"shortDescription,omitempty"`
	FullDescription  *MultiformatMessageString `json:"fullDescription,omitempty"`
	Help             *MultiformatMessageString `json:"help,omitempty"`
	Properties       *PropertyBag              `json:"properties,omitempty"`
}

type Result struct {
	RuleID     string       `json:"ruleId"`
	RuleIndex  int          `json:"ruleIndex"`
	Message    *Message     `json:"message"`
	Level      Level        `json:"level,omitempty"`
	Locations  []*Location  `json:"locations,omitempty"`
	Properties *PropertyBag `json:"properties,omitempty"`
}

type Location struct {
	LogicalLocations []*LogicalLocation `json:"logicalLocations,omitempty"`
	Message          *Message           `json:"message,omitempty"`
}

// LogicalLocation names the form field a result refers to.
type LogicalLocation struct {
	Name               *string `json:"name,omitempty"`
	FullyQualifiedName *string `json:"fullyQualifiedName,omitempty"`
	Kind               *string `json:"kind,omitempty"`
}

type Message struct {
	Text *string `json:"text,omitempty"`
}

type MultiformatMessageString struct {
	Text     *string `json:"text"`
	Markdown *string `json:"markdown,omitempty"`
}

type PropertyBag map[string]interface{}

type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelNote    Level = "note"
)
