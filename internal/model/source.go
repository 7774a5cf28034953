// Package model defines the data structures shared by the gate.
package model

import (
	"path/filepath"
	"strings"
)

// Path represents a file path inside a generated application.
type Path string

// Ext returns the lower-cased extension of the path, including the dot.
func (p Path) Ext() string {
	return strings.ToLower(filepath.Ext(string(p)))
}

// SourceFile represents one generated file. It is treated as an immutable
// value: transformations return a new SourceFile.
type SourceFile struct {
	Path    Path   `yaml:"path"`
	Content string `yaml:"content"`
	Purpose string `yaml:"purpose,omitempty"`
}

// WithContent returns a copy of the file carrying content.
func (f SourceFile) WithContent(content string) SourceFile {
	f.Content = content
	return f
}

// CloneFiles returns a shallow copy of files so callers cannot alias the input slice.
func CloneFiles(files []SourceFile) []SourceFile {
	if files == nil {
		return nil
	}

	out := make([]SourceFile, len(files))
	copy(out, files)

	return out
}
