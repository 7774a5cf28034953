package model

// Environment is the opaque environment bundle forwarded to the fixer.
type Environment map[string]string

// InferenceContext identifies the model-side context for repair calls.
type InferenceContext struct {
	Provider string            `yaml:"provider,omitempty"`
	Model    string            `yaml:"model,omitempty"`
	AgentID  string            `yaml:"agent_id,omitempty"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// TemplateDetails describes the application template the files were generated from.
type TemplateDetails struct {
	Name        string            `yaml:"name,omitempty" json:"name,omitempty"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Frameworks  []string          `yaml:"frameworks,omitempty" json:"frameworks,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Phase optionally describes the generation phase that produced the files.
type Phase struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// FixContext is the minimal context handed to each repair call.
type FixContext struct {
	Query    string          `json:"query"`
	Template TemplateDetails `json:"template"`
}

// FixRequest is the unit of escalation.
type FixRequest struct {
	File     SourceFile
	Findings []Finding
}

// FixOutcome is the settled result of one repair call. When Repaired is false
// File holds the pre-escalation content and Reason explains why.
type FixOutcome struct {
	File     SourceFile
	Repaired bool
	Reason   string
}

// Repaired builds a successful outcome.
func Repaired(file SourceFile) FixOutcome {
	return FixOutcome{File: file, Repaired: true}
}

// Unrepaired builds a failed outcome that keeps file as-is.
func Unrepaired(file SourceFile, reason string) FixOutcome {
	return FixOutcome{File: file, Reason: reason}
}
