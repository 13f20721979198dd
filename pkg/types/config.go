// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DefaultIDColumn is the manifest column holding the publication identifier.
const DefaultIDColumn = "pmid"

// DefaultStorePath is where the screening database lives relative to the
// working directory when no override is given.
const DefaultStorePath = "data/screening.db"

// StoreConfig identifies the candidate store. The path is always threaded in
// explicitly; components never read it from ambient process state, so the
// local/production selection stays a visible, testable parameter.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path"`
}

// ManifestConfig holds settings for parsing category manifest CSVs.
type ManifestConfig struct {
	// IDColumn is the header name of the identifier column (default "pmid").
	IDColumn string `json:"id_column" yaml:"id_column"`
}

// AuditConfig holds settings for audit artifact output.
type AuditConfig struct {
	// OutputDir receives audit_report.json and the missing-PMID CSV exports.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// WriteYAML additionally writes audit_report.yaml next to the JSON artifact.
	WriteYAML bool `json:"write_yaml" yaml:"write_yaml"`
}

// ImportConfig holds settings for the bulk candidate importer.
type ImportConfig struct {
	// Categories are the flags to set for every imported identifier. When
	// empty the importer infers categories from the source filename.
	Categories []Category `json:"categories" yaml:"categories"`

	// PDFDir, when set, is checked for <pmid>.pdf to populate pdf_exists.
	PDFDir string `json:"pdf_dir" yaml:"pdf_dir"`

	// DryRun previews the import without writing.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}
