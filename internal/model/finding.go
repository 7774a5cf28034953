package model

import "fmt"

// FindingKind represents the category of a detected pattern.
type FindingKind string

const (
	// FindingModuleJSX is a view-template literal evaluated at module scope.
	FindingModuleJSX FindingKind = "module-jsx"
	// FindingUnstableSelector is a store selector returning a fresh reference per call.
	FindingUnstableSelector FindingKind = "unstable-selector"
	// FindingRenderSetter is a state setter invoked during render.
	FindingRenderSetter FindingKind = "render-setter"
	// FindingEffectMissingDeps is a side-effect hook without a dependency list that sets state.
	FindingEffectMissingDeps FindingKind = "effect-missing-deps"
	// FindingParseFailure is the sentinel recorded when a file cannot be parsed.
	FindingParseFailure FindingKind = "parse-failure"
)

// ParseFailureMessage is the message carried by the parse failure sentinel finding.
const ParseFailureMessage = "failed to parse; skipping deterministic scan"

// Finding is a detected instance of a known unsafe pattern in one file.
// Line and Column are 1-based; zero means the position is unknown.
type Finding struct {
	Kind    FindingKind `yaml:"kind"`
	Message string      `yaml:"message"`
	Line    int         `yaml:"line,omitempty"`
	Column  int         `yaml:"column,omitempty"`
}

// Issue renders the finding as "<path>:<line>[:<column>] - <message>".
func (f Finding) Issue(path Path) string {
	switch {
	case f.Line <= 0:
		return fmt.Sprintf("%s - %s", path, f.Message)
	case f.Column <= 0:
		return fmt.Sprintf("%s:%d - %s", path, f.Line, f.Message)
	default:
		return fmt.Sprintf("%s:%d:%d - %s", path, f.Line, f.Column, f.Message)
	}
}

// Issues renders every finding with Finding.Issue.
func Issues(path Path, findings []Finding) []string {
	issues := make([]string, 0, len(findings))
	for _, finding := range findings {
		issues = append(issues, finding.Issue(path))
	}

	return issues
}
