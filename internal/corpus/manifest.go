package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document type values used by the evaluation pipeline filters.
const (
	DocTypeJobDescription = "job_description"
	DocTypeCaseStudy      = "case_study"
	DocTypeCVRubric       = "cv_rubric"
	DocTypeProjectRubric  = "project_rubric"
)

// ManifestEntry describes one internal document to ingest.
type ManifestEntry struct {
	Path    string `yaml:"path"`
	DocType string `yaml:"doc_type"`
	Source  string `yaml:"source"`
}

// Manifest lists the internal documents (job description, case study brief,
// scoring rubrics) that seed the shared corpus.
type Manifest struct {
	Documents []ManifestEntry `yaml:"documents"`
}

// LoadManifest reads and parses a YAML ingest manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest %q: %w", path, err)
	}

	return &manifest, nil
}

// IngestReport summarizes an ingest run.
type IngestReport struct {
	Fragments int
	ByDocType map[string]int
}

// Ingest chunks every listed document and appends the fragments to the store,
// tagged with doc_type, source and filename metadata. Missing or empty files
// fail the whole ingest: a partially seeded corpus silently skews every later
// evaluation.
func (m *Manifest) Ingest(store *Store, chunkSize int) (*IngestReport, error) {
	report := &IngestReport{ByDocType: make(map[string]int)}

	for _, entry := range m.Documents {
		if entry.DocType == "" {
			return nil, fmt.Errorf("document %q has no doc_type", entry.Path)
		}

		data, err := os.ReadFile(entry.Path)
		if err != nil {
			return nil, fmt.Errorf("reading document: %w", err)
		}

		text := string(data)
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("document %q is empty", entry.Path)
		}

		source := entry.Source
		if source == "" {
			source = "internal"
		}

		chunks := Chunk(text, source, chunkSize)
		metas := make([]map[string]string, len(chunks))
		for i := range chunks {
			metas[i] = map[string]string{
				"doc_type": entry.DocType,
				"source":   source,
				"filename": filepath.Base(entry.Path),
			}
		}

		if err := store.Add(chunks, metas); err != nil {
			return nil, err
		}

		report.Fragments += len(chunks)
		report.ByDocType[entry.DocType] += len(chunks)
	}

	return report, nil
}
