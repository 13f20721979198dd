// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apathy-review/screenctl/internal/importer"
	"github.com/apathy-review/screenctl/internal/store"
	"github.com/apathy-review/screenctl/pkg/types"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import candidates from a manifest CSV",
	Long: `Import loads one manifest CSV and upserts its identifiers into the
candidate store. Target categories come from --category (repeatable) or,
when omitted, from substrings of the filename (the manifest exports are
named like category_physical_allgroups.csv).

Imports are additive: flags are only set true, never cleared, and
created_at on existing records is preserved. With --pdf-dir, pdf_exists is
refreshed by checking <pdf-dir>/<pmid>.pdf.`,
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	csvPath, _ := cmd.Flags().GetString("csv")
	if csvPath == "" {
		return fmt.Errorf("--csv manifest path is required")
	}

	names, _ := cmd.Flags().GetStringSlice("category")
	var categories []types.Category
	for _, name := range names {
		c, err := types.ParseCategory(name)
		if err != nil {
			return err
		}
		categories = append(categories, c)
	}

	pdfDir, _ := cmd.Flags().GetString("pdf-dir")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	st, err := store.Open(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	cfg := types.ImportConfig{Categories: categories, PDFDir: pdfDir, DryRun: dryRun}
	_, err = importer.Run(context.Background(), st, csvPath, manifestConfig(cmd), cfg, os.Stdout)
	return err
}

func init() {
	importCmd.Flags().String("csv", "", "manifest CSV to import")
	importCmd.Flags().StringSlice("category", nil, "category flag(s) to set: physical, brain, psycho")
	importCmd.Flags().String("pdf-dir", "", "directory checked for <pmid>.pdf to populate pdf_exists")
	importCmd.Flags().Bool("dry-run", false, "preview the import without writing")

	rootCmd.AddCommand(importCmd)
}
