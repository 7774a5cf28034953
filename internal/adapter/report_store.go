package adapter

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "rendergate.dev/pkg/rendergate/internal/model"
)

// Manifest is the on-disk YAML description of a generated file set and
// the context forwarded to the fixer.
type Manifest struct {
	Query     string             `yaml:"query,omitempty"`
	Template  m.TemplateDetails  `yaml:"template,omitempty"`
	Phase     *m.Phase           `yaml:"phase,omitempty"`
	Inference m.InferenceContext `yaml:"inference,omitempty"`
	Files     []m.SourceFile     `yaml:"files"`
}

// ManifestStore loads file-set manifests.
type ManifestStore interface {
	LoadManifest(path m.Path) (Manifest, error)
}

// ReportStore persists gate reports.
type ReportStore interface {
	SaveReport(path m.Path, report m.GateReport) error
	LoadReport(path m.Path) (m.GateReport, error)
}

// LocalYAMLStore implements ManifestStore and ReportStore on the local filesystem.
type LocalYAMLStore struct{}

// NewLocalYAMLStore constructs a LocalYAMLStore.
func NewLocalYAMLStore() *LocalYAMLStore {
	return &LocalYAMLStore{}
}

// LoadManifest reads a YAML manifest. Every file entry must carry a path.
func (s *LocalYAMLStore) LoadManifest(path m.Path) (Manifest, error) {
	var manifest Manifest
	if err := readYAML(path, &manifest); err != nil {
		return Manifest{}, err
	}

	for i, file := range manifest.Files {
		if file.Path == "" {
			return Manifest{}, fmt.Errorf("manifest %s: file %d has no path", path, i)
		}
	}

	return manifest, nil
}

// SaveReport writes report as YAML, creating parent directories as needed.
func (s *LocalYAMLStore) SaveReport(path m.Path, report m.GateReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(string(path)), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	if err := os.WriteFile(string(path), data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	return nil
}

// LoadReport reads a report previously written by SaveReport.
func (s *LocalYAMLStore) LoadReport(path m.Path) (m.GateReport, error) {
	var report m.GateReport
	if err := readYAML(path, &report); err != nil {
		return m.GateReport{}, err
	}

	return report, nil
}

func readYAML(path m.Path, out any) error {
	data, err := os.ReadFile(string(path))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}
