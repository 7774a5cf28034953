package adapter

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

var (
	heredocPattern    = regexp.MustCompile(`(?s)cat > ([^\s<]+) << 'EOF'\n(.*?)\nEOF`)
	structuredPattern = regexp.MustCompile("(?s)#### filePath\\s*```\\s*([^`]+?)\\s*```\\s*#### fileContents\\s*```(?:[a-z]*\\n)?(.*?)```")
	fileTreePatterns  = []*regexp.Regexp{
		regexp.MustCompile(`(?s)<TEMPLATE_FILE_TREE>(.*?)</TEMPLATE_FILE_TREE>`),
		regexp.MustCompile(`(?s)<FILE_TREE>(.*?)</FILE_TREE>`),
		regexp.MustCompile(`(?s)<CODEBASE.*?>(.*?)</CODEBASE>`),
	}
)

// ExtractBundle recovers the files embedded in a generator transcript.
// Heredoc files come first, then structured ones. A path seen again is
// renamed base_v1.ext, base_v2.ext and so on; nothing is dropped.
//
// A gateway log (metadata plus request_head and response_head) is split into
// its two halves: each is extracted on its own and its entries carry the side
// they came from. The declared file tree is read from the request.
func ExtractBundle(transcript string) m.Bundle {
	if log, ok := parseGatewayLog(transcript); ok {
		request := headText(log.RequestHead)
		response := headText(log.ResponseHead)

		entries := extractEntries(request, m.BundleRequest)
		entries = append(entries, extractEntries(response, m.BundleResponse)...)

		return m.Bundle{
			Entries:  entries,
			FileTree: extractFileTree(request),
			Gateway:  log.metadata(),
		}
	}

	text := unwrapTranscript(transcript)

	return m.Bundle{Entries: extractEntries(text, ""), FileTree: extractFileTree(text)}
}

func extractEntries(text string, side m.BundleSide) []m.BundleEntry {
	seen := make(map[m.Path]bool)
	entries := make([]m.BundleEntry, 0)

	add := func(format m.BundleFormat, rawPath, content string) {
		original := m.Path(strings.TrimSpace(rawPath))
		p := dedupePath(original, seen)
		seen[p] = true

		entries = append(entries, m.BundleEntry{
			File:     m.SourceFile{Path: p, Content: content},
			Format:   format,
			Side:     side,
			Original: original,
		})
	}

	for _, match := range heredocPattern.FindAllStringSubmatch(text, -1) {
		add(m.BundleHeredoc, match[1], match[2])
	}

	for _, match := range structuredPattern.FindAllStringSubmatch(text, -1) {
		add(m.BundleStructured, match[1], match[2])
	}

	return entries
}

func extractFileTree(text string) string {
	for _, pattern := range fileTreePatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return strings.TrimSpace(match[1])
		}
	}

	return ""
}

func dedupePath(original m.Path, seen map[m.Path]bool) m.Path {
	if !seen[original] {
		return original
	}

	ext := path.Ext(string(original))
	base := strings.TrimSuffix(string(original), ext)

	for counter := 1; ; counter++ {
		candidate := m.Path(fmt.Sprintf("%s_v%d%s", base, counter, ext))
		if !seen[candidate] {
			return candidate
		}
	}
}

type transcriptMessage struct {
	Content messageContent `json:"content"`
}

// messageContent accepts both a plain string and a list of text parts.
type messageContent string

func (c *messageContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = messageContent(s)
		return nil
	}

	var parts []struct {
		Text string `json:"text"`
	}

	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("message content: %w", err)
	}

	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		texts = append(texts, part.Text)
	}

	*c = messageContent(strings.Join(texts, "\n"))

	return nil
}

const unknownGatewayField = "unknown"

type gatewayLog struct {
	Metadata struct {
		ChatID    string `json:"chatId"`
		ActionKey string `json:"actionKey"`
	} `json:"metadata"`
	RequestHead  json.RawMessage `json:"request_head"`
	ResponseHead json.RawMessage `json:"response_head"`
}

func (l gatewayLog) metadata() *m.GatewayMetadata {
	meta := &m.GatewayMetadata{ChatID: l.Metadata.ChatID, ActionKey: l.Metadata.ActionKey}

	if meta.ChatID == "" {
		meta.ChatID = unknownGatewayField
	}

	if meta.ActionKey == "" {
		meta.ActionKey = unknownGatewayField
	}

	return meta
}

func parseGatewayLog(transcript string) (gatewayLog, bool) {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" || trimmed[0] != '{' {
		return gatewayLog{}, false
	}

	var log gatewayLog
	if err := json.Unmarshal([]byte(trimmed), &log); err != nil {
		return gatewayLog{}, false
	}

	if len(log.RequestHead) == 0 && len(log.ResponseHead) == 0 {
		return gatewayLog{}, false
	}

	return log, true
}

// headText turns a request_head or response_head value into plain text. Heads
// are usually JSON documents encoded as a string, and are often truncated, in
// which case the raw text is scanned as is.
func headText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return unwrapTranscript(s)
	}

	return unwrapTranscript(string(raw))
}

type transcriptChoice struct {
	Delta   *transcriptMessage `json:"delta"`
	Message *transcriptMessage `json:"message"`
}

type transcriptEnvelope struct {
	Messages []transcriptMessage `json:"messages"`
	Choices  []transcriptChoice  `json:"choices"`
}

// unwrapTranscript returns the text of a JSON-encoded chat request or
// response, or the input unchanged when it is not one.
func unwrapTranscript(transcript string) string {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '"') {
		return transcript
	}

	var s string
	if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
		return s
	}

	var envelope transcriptEnvelope
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return transcript
	}

	if len(envelope.Messages) > 0 {
		parts := make([]string, 0, len(envelope.Messages))
		for _, msg := range envelope.Messages {
			parts = append(parts, string(msg.Content))
		}

		return strings.Join(parts, "\n\n")
	}

	if len(envelope.Choices) > 0 {
		choice := envelope.Choices[0]
		if choice.Delta != nil {
			return string(choice.Delta.Content)
		}

		if choice.Message != nil {
			return string(choice.Message.Content)
		}
	}

	return transcript
}
