package model

// Diagnostic is the structured payload reported for every non-fatal error.
type Diagnostic struct {
	Tag     string `yaml:"tag"`
	Path    Path   `yaml:"path,omitempty"`
	Message string `yaml:"message"`
	Trace   string `yaml:"trace,omitempty"`
}

// FileReport summarizes what the gate did to one file.
type FileReport struct {
	Path      Path      `yaml:"path"`
	Skipped   bool      `yaml:"skipped,omitempty"`
	Parsed    bool      `yaml:"parsed"`
	Initial   []Finding `yaml:"initial,omitempty"`
	Rewritten bool      `yaml:"rewritten,omitempty"`
	Remaining []Finding `yaml:"remaining,omitempty"`
	Escalated bool      `yaml:"escalated,omitempty"`
	Repaired  bool      `yaml:"repaired,omitempty"`
	FixReason string    `yaml:"fix_reason,omitempty"`
}

// Status returns a short label for the file outcome.
func (r FileReport) Status() string {
	switch {
	case r.Skipped:
		return "skipped"
	case !r.Parsed:
		return "unparsed"
	case r.Repaired:
		return "repaired"
	case r.Escalated:
		return "unrepaired"
	case r.Rewritten:
		return "rewritten"
	case len(r.Initial) == 0:
		return "clean"
	default:
		return "flagged"
	}
}

// GateReport summarizes one gate invocation.
type GateReport struct {
	Files       []FileReport `yaml:"files"`
	Diagnostics []Diagnostic `yaml:"diagnostics,omitempty"`
	// FellBack is true when the gate returned its input unchanged after an unexpected failure.
	FellBack bool `yaml:"fell_back,omitempty"`
}

// Counts returns how many files ended in each status.
func (r GateReport) Counts() map[string]int {
	counts := make(map[string]int)
	for _, file := range r.Files {
		counts[file.Status()]++
	}

	return counts
}
