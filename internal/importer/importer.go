// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package importer bulk-loads candidates from a manifest CSV. Imports are
// additive like reconciliation: flags are only ever set true, created_at on
// existing records is preserved, and reviews are never touched.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apathy-review/screenctl/internal/manifest"
	"github.com/apathy-review/screenctl/internal/store"
	"github.com/apathy-review/screenctl/pkg/types"
)

// Summary holds counts from one import run.
type Summary struct {
	Valid     int
	Created   int
	Updated   int
	Unchanged int
	Skipped   map[manifest.SkipReason]int
}

// CategoriesFromFilename infers target categories from substrings of the
// source filename, the convention the manifest exports follow
// (e.g. category_physical_allgroups.csv).
func CategoriesFromFilename(path string) []types.Category {
	name := strings.ToLower(filepath.Base(path))
	var cats []types.Category
	if strings.Contains(name, "physical") {
		cats = append(cats, types.CategoryPhysical)
	}
	if strings.Contains(name, "brain") {
		cats = append(cats, types.CategoryBrain)
	}
	if strings.Contains(name, "psych") {
		cats = append(cats, types.CategoryPsycho)
	}
	return cats
}

// Run imports the manifest at csvPath. Existing records gain any flags they
// are missing plus a refreshed pdf_exists; absent records are created. With
// cfg.DryRun the store is not written and the summary reports what a real
// run would do. All writes of a real run share one transaction.
func Run(ctx context.Context, st *store.Store, csvPath string, mcfg types.ManifestConfig, cfg types.ImportConfig, w io.Writer) (Summary, error) {
	categories := cfg.Categories
	if len(categories) == 0 {
		categories = CategoriesFromFilename(csvPath)
	}
	if len(categories) == 0 {
		return Summary{}, fmt.Errorf("no categories given and none inferable from %q", filepath.Base(csvPath))
	}

	man, err := manifest.Load(csvPath, mcfg)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Valid: man.Count(), Skipped: man.Skipped}

	var tx *store.Tx
	if !cfg.DryRun {
		tx, err = st.Begin(ctx)
		if err != nil {
			return Summary{}, err
		}
		defer tx.Rollback()
	}

	for _, pmid := range man.Sorted() {
		rec, err := st.FindByPMID(ctx, pmid)
		if err != nil {
			return Summary{}, err
		}

		pdfExists := rec != nil && rec.PDFExists
		if cfg.PDFDir != "" {
			pdfExists = pdfFileExists(cfg.PDFDir, pmid)
		}

		if rec == nil {
			summary.Created++
			if tx != nil {
				flags := types.FlagSet{}
				for _, c := range categories {
					flags = flags.Set(c)
				}
				if err := tx.Create(ctx, pmid, flags); err != nil {
					return Summary{}, err
				}
				if pdfExists {
					if err := tx.SetPDFExists(ctx, pmid, true); err != nil {
						return Summary{}, err
					}
				}
			}
			continue
		}

		var newFlags []types.Category
		for _, c := range categories {
			if !rec.Flag(c) {
				newFlags = append(newFlags, c)
			}
		}
		if len(newFlags) == 0 && pdfExists == rec.PDFExists {
			summary.Unchanged++
			continue
		}

		summary.Updated++
		if tx != nil {
			for _, c := range newFlags {
				if err := tx.SetFlag(ctx, pmid, c); err != nil {
					return Summary{}, err
				}
			}
			if pdfExists != rec.PDFExists {
				if err := tx.SetPDFExists(ctx, pmid, pdfExists); err != nil {
					return Summary{}, err
				}
			}
		}
	}

	if tx != nil {
		if err := tx.Commit(); err != nil {
			return Summary{}, err
		}
	}

	mode := "imported"
	if cfg.DryRun {
		mode = "would import"
	}
	fmt.Fprintf(w, "%s %d identifiers: created=%d updated=%d unchanged=%d skipped=%d\n",
		mode, summary.Valid, summary.Created, summary.Updated, summary.Unchanged, man.SkippedTotal())
	return summary, nil
}

func pdfFileExists(dir string, pmid int64) bool {
	_, err := os.Stat(filepath.Join(dir, fmt.Sprintf("%d.pdf", pmid)))
	return err == nil
}
