package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	genai "google.golang.org/genai"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

// DefaultGeminiModel is used when neither the config nor the inference context names a model.
const DefaultGeminiModel = "gemini-2.5-flash"

var (
	// ErrMissingAPIKey is returned when the forwarded environment carries no Gemini key.
	ErrMissingAPIKey = errors.New("missing GEMINI_API_KEY or GOOGLE_API_KEY")
	// ErrInvalidFixerOutput is returned when the model answer is not a usable file body.
	ErrInvalidFixerOutput = errors.New("invalid fixer output")
)

const fixPrompt = `You repair a single source file of a generated React application.
The file triggers runtime crashes or infinite render loops listed under "issues".
Rewrite the file so that none of the issues remain while keeping its behavior and exports.
Respond with JSON only: {"content": "<the complete corrected file>"}.`

// ContentGenerator sends a prompt plus a JSON input to a model and returns its JSON answer.
type ContentGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
}

type genaiGenerator struct {
	cli   *genai.Client
	model string
}

func (g *genaiGenerator) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	in, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return nil, err
	}

	full := prompt + "\n\n[INPUT JSON]\n" + string(in)

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrInvalidFixerOutput
	}

	return json.RawMessage(resp.Candidates[0].Content.Parts[0].Text), nil
}

// GeminiFixer repairs files through a ContentGenerator, retrying on errors and unusable answers.
type GeminiFixer struct {
	generator ContentGenerator
	agentID   string
}

// NewGeminiFixer constructs a GeminiFixer over an arbitrary generator.
func NewGeminiFixer(generator ContentGenerator, agentID string) *GeminiFixer {
	return &GeminiFixer{generator: generator, agentID: agentID}
}

// NewGeminiFixerFactory returns a FixerFactory that builds a genai-backed fixer.
// The API key is taken from the forwarded environment, not the process environment.
func NewGeminiFixerFactory() FixerFactory {
	return func(ctx context.Context, env m.Environment, inference m.InferenceContext) (Fixer, error) {
		apiKey := env["GEMINI_API_KEY"]
		if apiKey == "" {
			apiKey = env["GOOGLE_API_KEY"]
		}

		if apiKey == "" {
			return nil, ErrMissingAPIKey
		}

		model := inference.Model
		if model == "" {
			model = DefaultGeminiModel
		}

		cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}

		return NewGeminiFixer(&genaiGenerator{cli: cli, model: model}, inference.AgentID), nil
	}
}

type fixInput struct {
	Path     m.Path             `json:"path"`
	Purpose  string             `json:"purpose,omitempty"`
	Content  string             `json:"content"`
	Issues   []string           `json:"issues"`
	Query    string             `json:"query,omitempty"`
	Template *m.TemplateDetails `json:"template,omitempty"`
	Phase    *m.Phase           `json:"phase,omitempty"`
	Attempt  int                `json:"attempt"`
	Previous string             `json:"previous_error,omitempty"`
}

type fixAnswer struct {
	Content *string `json:"content"`
}

// Fix asks the model for a corrected file, spending at most retries attempts.
func (f *GeminiFixer) Fix(ctx context.Context, file m.SourceFile, fixCtx m.FixContext, phase *m.Phase, issues []string, retries int) (m.SourceFile, error) {
	if retries < 1 {
		retries = 1
	}

	input := fixInput{
		Path:    file.Path,
		Purpose: file.Purpose,
		Content: file.Content,
		Issues:  issues,
		Query:   fixCtx.Query,
		Phase:   phase,
	}
	if fixCtx.Template.Name != "" {
		template := fixCtx.Template
		input.Template = &template
	}

	var lastErr error

	for attempt := 1; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return m.SourceFile{}, err
		}

		input.Attempt = attempt
		if lastErr != nil {
			input.Previous = lastErr.Error()
		}

		content, err := f.generate(ctx, input)
		if err == nil {
			return file.WithContent(content), nil
		}

		lastErr = err
		slog.Debug("Fixer attempt failed", "path", file.Path, "attempt", attempt, "agent", f.agentID, "error", err)
	}

	return m.SourceFile{}, fmt.Errorf("fix %s after %d attempts: %w", file.Path, retries, lastErr)
}

func (f *GeminiFixer) generate(ctx context.Context, input fixInput) (string, error) {
	raw, err := f.generator.GenerateJSON(ctx, fixPrompt, input)
	if err != nil {
		return "", err
	}

	var answer fixAnswer
	if err := json.Unmarshal([]byte(stripFence(string(raw))), &answer); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFixerOutput, err)
	}

	if answer.Content == nil {
		return "", fmt.Errorf("%w: missing content", ErrInvalidFixerOutput)
	}

	return *answer.Content, nil
}

// stripFence drops a markdown code fence some models wrap JSON answers in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}

	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
