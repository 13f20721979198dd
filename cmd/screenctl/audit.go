// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/apathy-review/screenctl/internal/audit"
	"github.com/apathy-review/screenctl/internal/store"
	"github.com/apathy-review/screenctl/pkg/types"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report drift between category manifests and the candidate store",
	Long: `Audit loads the three category manifests, compares each against the
candidates carrying that category's flag, and reports missing (in manifest,
not in store) and extra (in store, not in manifest) identifiers. The store
is never written; drift is the expected output, not an error.

Artifacts go to --output-dir: audit_report.json, optionally a YAML copy,
and missing_pmids_<category>.csv per category with missing identifiers.`,
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	manifests, err := loadManifests(cmd, true)
	if err != nil {
		return err
	}

	scfg := storeConfig(cmd)
	st, err := store.Open(scfg)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := audit.Run(context.Background(), st, manifests, scfg.Path, os.Stdout)
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	writeYAML, _ := cmd.Flags().GetBool("yaml")
	written, err := report.WriteArtifacts(types.AuditConfig{OutputDir: outputDir, WriteYAML: writeYAML})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(auditSummaryTable(report))
	for _, path := range written {
		fmt.Println("wrote", path)
	}
	return nil
}

func auditSummaryTable(report *audit.Report) string {
	headers := []string{"Category", "CSV", "Store", "Reviewed", "Pending", "Missing", "Extra"}
	rows := make([][]string, 0, len(report.Categories))
	for _, cr := range report.Categories {
		rows = append(rows, []string{
			string(cr.Category),
			strconv.Itoa(cr.CSVCount),
			strconv.Itoa(cr.StoreCount),
			strconv.Itoa(cr.ReviewedCount),
			strconv.Itoa(cr.PendingCount),
			strconv.Itoa(cr.MissingCount),
			strconv.Itoa(cr.ExtraCount),
		})
	}
	return renderTable(headers, rows)
}

func init() {
	addManifestFlags(auditCmd)
	auditCmd.Flags().String("output-dir", "data", "directory for report artifacts")
	auditCmd.Flags().Bool("yaml", false, "also write audit_report.yaml")

	rootCmd.AddCommand(auditCmd)
}
