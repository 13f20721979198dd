// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.yaml.in/yaml/v3"

	"github.com/apathy-review/screenctl/pkg/types"
)

const (
	reportJSONFile = "audit_report.json"
	reportYAMLFile = "audit_report.yaml"
)

// WriteArtifacts persists the report under cfg.OutputDir: the JSON report,
// optionally a YAML copy, and one missing_pmids_<category>.csv per category
// that has missing identifiers. Each audit run supersedes the previous
// artifacts. Returns the paths written.
func (r *Report) WriteArtifacts(cfg types.AuditConfig) ([]string, error) {
	dir := cfg.OutputDir
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var written []string

	jsonPath := filepath.Join(dir, reportJSONFile)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(jsonPath, append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", jsonPath, err)
	}
	written = append(written, jsonPath)

	if cfg.WriteYAML {
		yamlPath := filepath.Join(dir, reportYAMLFile)
		data, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encoding report as YAML: %w", err)
		}
		if err := os.WriteFile(yamlPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", yamlPath, err)
		}
		written = append(written, yamlPath)
	}

	for _, cr := range r.Categories {
		if len(cr.Missing) == 0 {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("missing_pmids_%s.csv", cr.Category))
		if err := writePMIDCSV(path, cr.Missing); err != nil {
			return nil, err
		}
		written = append(written, path)
	}

	return written, nil
}

// LoadReport reads a previously written JSON report artifact.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &report, nil
}

func writePMIDCSV(path string, pmids []int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{types.DefaultIDColumn}); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, pmid := range pmids {
		if err := w.Write([]string{strconv.FormatInt(pmid, 10)}); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
