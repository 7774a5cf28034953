package model

import (
	"path"
	"sort"
)

// BundleFormat names the notation a file was embedded in.
type BundleFormat string

const (
	// BundleHeredoc is the shell heredoc notation: cat > path << 'EOF' ... EOF.
	BundleHeredoc BundleFormat = "heredoc"
	// BundleStructured is the "#### filePath" / "#### fileContents" fenced notation.
	BundleStructured BundleFormat = "structured"
)

// BundleSide says which half of a gateway log a file came from. Plain
// transcripts have no side.
type BundleSide string

const (
	// BundleRequest files were serialized into the prompt sent to the model.
	BundleRequest BundleSide = "request"
	// BundleResponse files were generated by the model.
	BundleResponse BundleSide = "response"
)

// GatewayMetadata identifies the chat a gateway log belongs to.
type GatewayMetadata struct {
	ChatID    string
	ActionKey string
}

// BundleEntry is one file recovered from a generator transcript.
type BundleEntry struct {
	File   SourceFile
	Format BundleFormat
	Side   BundleSide
	// Original is the path as written in the transcript, before duplicate suffixing.
	Original Path
}

// OutputPath is where the entry is written: side entries live under a
// request/ or response/ directory.
func (e BundleEntry) OutputPath() Path {
	if e.Side == "" {
		return e.File.Path
	}

	return Path(path.Join(string(e.Side), string(e.File.Path)))
}

// Bundle is the set of files recovered from a generator transcript, in order of appearance.
type Bundle struct {
	Entries  []BundleEntry
	FileTree string
	// Gateway is set when the transcript was a gateway log with request and response halves.
	Gateway *GatewayMetadata
}

// Files returns the recovered files at their output paths.
func (b Bundle) Files() []SourceFile {
	files := make([]SourceFile, 0, len(b.Entries))
	for _, entry := range b.Entries {
		file := entry.File
		file.Path = entry.OutputPath()
		files = append(files, file)
	}

	return files
}

// Count returns how many entries came from side.
func (b Bundle) Count(side BundleSide) int {
	n := 0

	for _, entry := range b.Entries {
		if entry.Side == side {
			n++
		}
	}

	return n
}

// Shared returns the sorted paths extracted from both the request and the response.
func (b Bundle) Shared() []Path {
	request := make(map[Path]bool)

	for _, entry := range b.Entries {
		if entry.Side == BundleRequest {
			request[entry.File.Path] = true
		}
	}

	seen := make(map[Path]bool)
	shared := make([]Path, 0)

	for _, entry := range b.Entries {
		p := entry.File.Path
		if entry.Side == BundleResponse && request[p] && !seen[p] {
			seen[p] = true
			shared = append(shared, p)
		}
	}

	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })

	return shared
}
